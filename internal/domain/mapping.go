package domain

// MappingEntry 是 CSV 中的一行映射：CurrentName -> NewName。
//
// 不变量：
// - 两个字段在解析后都非空
// - 列表顺序即 CSV 行顺序（解析匹配时先出现者优先）
// - 列表整体替换，不做增量修改
type MappingEntry struct {
	CurrentName string `json:"current_name"`
	NewName     string `json:"new_name"`
}
