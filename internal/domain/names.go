package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// NameSet 为输出文件分配不冲突的名字：a.jpg 已被占用时依次尝试 a__2.jpg、a__3.jpg ...
//
// 分配结果只取决于调用顺序与初始占用集合，因此是确定性的。
type NameSet struct {
	used map[string]struct{}
}

func NewNameSet(existing ...string) *NameSet {
	s := &NameSet{used: make(map[string]struct{}, len(existing))}
	for _, n := range existing {
		s.used[n] = struct{}{}
	}
	return s
}

// Has 判断 name 是否已被占用。
func (s *NameSet) Has(name string) bool {
	_, ok := s.used[name]
	return ok
}

// Alloc 返回一个未被占用的名字并立即占用它。
func (s *NameSet) Alloc(name string) string {
	if s.used == nil {
		s.used = map[string]struct{}{}
	}
	if _, ok := s.used[name]; !ok {
		s.used[name] = struct{}{}
		return name
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 2; ; n++ {
		cand := fmt.Sprintf("%s__%d%s", base, n, ext)
		if _, ok := s.used[cand]; !ok {
			s.used[cand] = struct{}{}
			return cand
		}
	}
}
