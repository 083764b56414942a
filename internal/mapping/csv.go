package mapping

import (
	"strings"

	"github.com/John-Robertt/imgren/internal/domain"
)

// 候选分隔符；计数相同时按此顺序取先出现者（逗号优先）。
var delimiters = []string{",", ";", "\t", "|"}

// Parse 把 CSV 文本解析为有序的映射列表。
//
// 规则：
// - 去掉开头 BOM；按 CRLF/LF 分行；丢弃空白行
// - 分隔符按表头行中出现次数最多者选取（兼容欧洲区 Excel 的分号导出）
// - 引号只做首尾剥离，不支持转义引号或字段内分隔符
// - 纯函数：相同输入 => 相同输出
func Parse(raw string) ([]domain.MappingEntry, error) {
	raw = strings.TrimPrefix(raw, "\ufeff")
	raw = strings.ReplaceAll(raw, "\r\n", "\n")

	lines := make([]string, 0, 64)
	for _, ln := range strings.Split(raw, "\n") {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		lines = append(lines, ln)
	}
	if len(lines) < 2 {
		return nil, &ParseError{Code: ErrCodeInsufficientRows}
	}

	delim := detectDelimiter(lines[0])

	records := make([][]string, 0, len(lines))
	for _, ln := range lines {
		records = append(records, strings.Split(ln, delim))
	}
	return fromRecords(records)
}

func detectDelimiter(header string) string {
	best := delimiters[0]
	bestN := 0
	for _, d := range delimiters {
		if n := strings.Count(header, d); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

// fromRecords 是 CSV 与 HTML 表格共用的后半段：表头识别 + 逐行抽取。
// records[0] 是表头，其余是数据行；调用方保证 len(records) >= 2。
func fromRecords(records [][]string) ([]domain.MappingEntry, error) {
	header := make([]string, 0, len(records[0]))
	for _, f := range records[0] {
		header = append(header, strings.ToLower(cleanField(f)))
	}
	if len(header) < 2 {
		return nil, &ParseError{Code: ErrCodeTooFewColumns}
	}

	cur := detectColumn(header, currentColumnRules, 0)
	nxt := detectColumn(header, newColumnRules, 1)
	need := cur + 1
	if nxt+1 > need {
		need = nxt + 1
	}

	out := make([]domain.MappingEntry, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < need {
			continue
		}
		from := cleanField(rec[cur])
		to := cleanField(rec[nxt])
		if from == "" || to == "" {
			continue
		}
		out = append(out, domain.MappingEntry{CurrentName: from, NewName: to})
	}
	if len(out) == 0 {
		return nil, &ParseError{Code: ErrCodeNoValidMappings}
	}
	return out, nil
}

// cleanField 去掉首尾空白与一对首尾引号（" 或 '）。
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	if s != "" && (s[0] == '"' || s[0] == '\'') {
		s = s[1:]
	}
	if s != "" && (s[len(s)-1] == '"' || s[len(s)-1] == '\'') {
		s = s[:len(s)-1]
	}
	return strings.TrimSpace(s)
}
