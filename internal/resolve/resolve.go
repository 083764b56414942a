package resolve

import (
	"strings"

	"github.com/John-Robertt/imgren/internal/domain"
)

// Resolve 为原始文件名找到映射表中第一条命中的条目。
//
// 按映射顺序线性扫描，条目满足以下任一条件即命中（不比较“哪条规则更好”）：
// - CurrentName == 原文件名
// - CurrentName == 去扩展名后的 stem
// - 原文件名包含 CurrentName
// - stem 包含 CurrentName
//
// 子串匹配是刻意保留的宽松行为：CSV 里可以写带/不带扩展名、或只写前缀。
// 代价是短名字（例如 "img"）可能误命中，映射内容由 CSV 作者负责。
func Resolve(name string, mappings []domain.MappingEntry) (domain.MappingEntry, bool) {
	stem := Stem(name)
	for _, m := range mappings {
		cur := m.CurrentName
		if cur == "" {
			continue
		}
		if cur == name || cur == stem || strings.Contains(name, cur) || strings.Contains(stem, cur) {
			return m, true
		}
	}
	return domain.MappingEntry{}, false
}

// Stem 去掉最后一个 '.' 及其后的扩展名。
// 没有 '.' 或以 '.' 结尾（扩展名为空）时原样返回。
func Stem(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return name
	}
	return name[:i]
}

// Ext 返回不带 '.' 的扩展名（保持原大小写）；没有扩展名时返回空串。
func Ext(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return name[i+1:]
}
