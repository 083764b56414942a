package batch

import (
	"errors"

	"github.com/John-Robertt/imgren/internal/domain"
)

// DefaultArchiveName 是打包下载的默认文件名。
const DefaultArchiveName = "renamed-images.zip"

// ErrNothingToDownload 表示没有 succeeded 结果可供下载（不是致命错误）。
var ErrNothingToDownload = errors.New("没有可下载的成功结果")

// Saver 是“把字节保存为文件”的协作者。返回值是实际写入的文件名
// （与浏览器下载一致，重名时实现可以改名）。
type Saver interface {
	Save(name string, data []byte) (string, error)
}

// ArchiveBuilder 把 (name, bytes) 列表打包为单个归档。
type ArchiveBuilder interface {
	Build(entries []domain.NamedBlob) ([]byte, error)
}

// DownloadOne 保存单个结果；只有 succeeded 结果会被保存。
func DownloadOne(s Saver, r domain.ProcessedResult) (string, error) {
	if r.Status != domain.ResultSucceeded {
		return "", ErrNothingToDownload
	}
	return s.Save(r.ResolvedName, r.Output)
}

// ArchiveEntries 收集全部 succeeded 结果；同名条目按 NameSet 规则改名（a.jpg, a__2.jpg ...）。
func ArchiveEntries(results []domain.ProcessedResult) []domain.NamedBlob {
	names := domain.NewNameSet()
	out := make([]domain.NamedBlob, 0, len(results))
	for _, r := range domain.Succeeded(results) {
		out = append(out, domain.NamedBlob{
			Name: names.Alloc(r.ResolvedName),
			Data: r.Output,
		})
	}
	return out
}

// DownloadAllAsArchive 把全部 succeeded 结果打成一个归档并以 name 保存（空则用默认名）。
// 返回实际保存的文件名与条目数；没有成功结果时返回 ErrNothingToDownload 且不调用协作者。
func DownloadAllAsArchive(b ArchiveBuilder, s Saver, results []domain.ProcessedResult, name string) (string, int, error) {
	entries := ArchiveEntries(results)
	if len(entries) == 0 {
		return "", 0, ErrNothingToDownload
	}
	if name == "" {
		name = DefaultArchiveName
	}

	data, err := b.Build(entries)
	if err != nil {
		return "", 0, err
	}
	saved, err := s.Save(name, data)
	if err != nil {
		return "", 0, err
	}
	return saved, len(entries), nil
}
