package fsx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/imgren/internal/domain"
)

// DirSaver 把下载结果写入一个目录，行为对齐浏览器下载：
// 同名文件已存在时不覆盖，而是改名为 name__2.ext、name__3.ext ...
type DirSaver struct {
	Dir   string
	names *domain.NameSet
}

// NewDirSaver 以 existing（通常是输出目录里已有的文件名）初始化占用集合。
func NewDirSaver(dir string, existing []string) *DirSaver {
	return &DirSaver{Dir: dir, names: domain.NewNameSet(existing...)}
}

// Save 写入 data 并返回实际使用的文件名。
func (s *DirSaver) Save(name string, data []byte) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	if s.names == nil {
		s.names = domain.NewNameSet()
	}
	for {
		got := s.names.Alloc(name)
		err := WriteFileAtomicNoOverwrite(s.Dir, got, data)
		if errors.Is(err, os.ErrExist) {
			// 目录里出现了集合之外的文件，已被 Alloc 占用，换下一个名字。
			continue
		}
		if err != nil {
			return "", err
		}
		return got, nil
	}
}

// validName 拒绝会逃出输出目录的名字；映射表里的 new_name 来自用户输入。
func validName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("非法文件名：%q", name)
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("文件名不能包含路径分隔符：%q", name)
	}
	return nil
}

// ListNames 返回 dir 下的全部条目名；目录不存在视为空。
func ListNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out, nil
}
