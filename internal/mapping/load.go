package mapping

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/imgren/internal/domain"
)

// Load 读取映射文件：.html/.htm 按表格解析，其余一律按分隔文本解析。
// 读取失败返回原始 I/O 错误（不是 *ParseError），便于上层区分。
func Load(path string) ([]domain.MappingEntry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return ParseHTMLTable(string(b))
	default:
		return Parse(string(b))
	}
}
