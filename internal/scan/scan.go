package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/imgren/internal/infra/imgx"
)

// ImageFile 是扫描得到的一张候选图片（只含 stat 信息）。
type ImageFile struct {
	AbsPath string
	Name    string
	Ext     string // 小写，含 '.'
	Size    int64
}

// ScanImages 列出 root 顶层的图片文件。
//
// 规则：
// - 只看 root 这一层；子目录（包括 <root>/out/）一律忽略
// - 只接受普通文件，扩展名大小写不敏感
// - 结果按文件名排序，保证多次运行顺序一致
//
// 扫描只做 stat，不读文件内容。
func ScanImages(root string) ([]ImageFile, error) {
	root = filepath.Clean(root)
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	files := make([]ImageFile, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !imgx.IsImageExt(ext) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		files = append(files, ImageFile{
			AbsPath: filepath.Join(root, name),
			Name:    name,
			Ext:     ext,
			Size:    info.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
