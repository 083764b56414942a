package archive

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/John-Robertt/imgren/internal/domain"
)

// ZipBuilder 把 (name, bytes) 列表打包成单个 ZIP（全部在内存中完成）。
//
// 约束：
// - 条目名必须是不含目录的纯文件名，且互不重复（去重由调用方负责）
// - 图片本身已压缩，默认使用 Store；Deflate=true 时改用 Deflate
type ZipBuilder struct {
	Deflate bool
	// ModTime 写入每个条目的修改时间；零值时使用 time.Now()。
	ModTime time.Time
}

func (b ZipBuilder) Build(entries []domain.NamedBlob) ([]byte, error) {
	mod := b.ModTime
	if mod.IsZero() {
		mod = time.Now()
	}
	method := zip.Store
	if b.Deflate {
		method = zip.Deflate
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if err := checkName(e.Name); err != nil {
			_ = zw.Close()
			return nil, err
		}
		if _, dup := seen[e.Name]; dup {
			_ = zw.Close()
			return nil, fmt.Errorf("归档条目重名：%q", e.Name)
		}
		seen[e.Name] = struct{}{}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.Name,
			Method:   method,
			Modified: mod,
		})
		if err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("创建归档条目 %q 失败：%w", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("写入归档条目 %q 失败：%w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// checkName 拒绝空名、目录分隔符与 ".."：归档是扁平的，不支持嵌套目录。
func checkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("归档条目名不能为空")
	}
	if strings.ContainsAny(name, `/\`) || path.Clean(name) != name || name == ".." {
		return fmt.Errorf("非法归档条目名：%q", name)
	}
	return nil
}
