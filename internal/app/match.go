package app

import (
	"github.com/John-Robertt/imgren/internal/domain"
	"github.com/John-Robertt/imgren/internal/resolve"
)

// Match 是一张图片的映射查找结果。
type Match struct {
	ImageIdx int
	Entry    domain.MappingEntry
}

// MatchAll 把图片分成命中映射与回退原名两组；两组内都保持输入顺序。
// 只做查找，不计算最终文件名。
func MatchAll(images []domain.UploadedImage, mappings []domain.MappingEntry) (matched []Match, fallback []int) {
	matched = make([]Match, 0, len(images))
	for i := range images {
		e, ok := resolve.Resolve(images[i].OriginalName, mappings)
		if !ok {
			fallback = append(fallback, i)
			continue
		}
		matched = append(matched, Match{ImageIdx: i, Entry: e})
	}
	return matched, fallback
}
