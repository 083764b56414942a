package mapping

import "strings"

// columnRule 判断一个（已小写的）表头字段是否属于某一列。
type columnRule func(field string) bool

func contains(sub string) columnRule {
	return func(f string) bool { return strings.Contains(f, sub) }
}

func equals(s string) columnRule {
	return func(f string) bool { return f == s }
}

// 列识别规则是固定的有序谓词表，而不是打分模型：结果必须可复现。
var (
	currentColumnRules = []columnRule{
		contains("current"),
		contains("old"),
		contains("original"),
		contains("source"),
		equals("from"),
	}
	newColumnRules = []columnRule{
		contains("new"),
		contains("rename"),
		contains("target"),
		contains("dest"),
		equals("to"),
	}
)

// detectColumn 返回第一个满足任一规则的表头下标；找不到时回退到 fallback。
func detectColumn(header []string, rules []columnRule, fallback int) int {
	for i, f := range header {
		for _, r := range rules {
			if r(f) {
				return i
			}
		}
	}
	return fallback
}
