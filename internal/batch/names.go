package batch

import (
	"fmt"
	"strings"

	"github.com/John-Robertt/imgren/internal/domain"
	"github.com/John-Robertt/imgren/internal/resolve"
)

// defaultExt 用于原文件没有扩展名的情况。
const defaultExt = "jpg"

// Target 计算一张图片的最终文件名。
// 未命中映射时回退到原文件名（Matched=false），因此每张图片都一定有名字。
func Target(originalName string, mappings []domain.MappingEntry) (name string, entry domain.MappingEntry, matched bool) {
	entry, matched = resolve.Resolve(originalName, mappings)
	base := originalName
	if matched {
		base = entry.NewName
	}
	return OutputName(originalName, base), entry, matched
}

// OutputName 保证结果带非空扩展名：resolved 已有扩展名则原样保留；
// 否则追加原文件的小写扩展名（原文件也没有时用 jpg）。
func OutputName(original, resolved string) string {
	if resolve.Ext(resolved) != "" {
		return resolved
	}
	resolved = strings.TrimRight(resolved, ".")
	ext := strings.ToLower(resolve.Ext(original))
	if ext == "" {
		ext = defaultExt
	}
	return resolved + "." + ext
}

// CheckName 拒绝无法作为单个文件名写出的结果名（不支持子目录）。
func CheckName(name string) error {
	if strings.ContainsAny(name, `/\`+"\x00") {
		return fmt.Errorf("新文件名不能包含路径分隔符：%q", name)
	}
	return nil
}

// FormatForName 由文件扩展名推导编码格式：jpg -> jpeg，其余按小写扩展名 1:1 对应。
func FormatForName(name string) string {
	ext := strings.ToLower(resolve.Ext(name))
	if ext == "jpg" {
		return "jpeg"
	}
	return ext
}
