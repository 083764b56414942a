package domain

import (
	"encoding/json"
	"time"
)

const (
	StatusSucceeded = ResultSucceeded
	StatusFailed    = ResultFailed
	StatusPending   = ResultPending
)

const (
	FileStatusPlanned = "planned"
	FileStatusSaved   = "saved"
	FileStatusFailed  = "failed"
)

const (
	ErrCodeDecodeFailed      = "decode_failed"
	ErrCodeEncodeFailed      = "encode_failed"
	ErrCodeUnsupportedFormat = "unsupported_format"
	ErrCodeInvalidName       = "invalid_name"
	ErrCodeCSVReadFailed     = "csv_read_failed"
	ErrCodeIOFailed          = "io_failed"
	ErrCodeSaveFailed        = "save_failed"
	ErrCodeTargetConflict    = "target_conflict"
	ErrCodeAborted           = "aborted"
	ErrCodeConfigNotFound    = "config_not_found"
	ErrCodeConfigInvalid     = "config_invalid"
	ErrCodeConfigMissingPath = "config_missing_path"
)

// RunReport 是对外稳定输出（report.json / stdout JSON）的结构。
type RunReport struct {
	Path   string `json:"path"`
	CSV    string `json:"csv"`
	DryRun bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Mappings int    `json:"mappings"`
	Archive  string `json:"archive"`

	Summary ReportSummary `json:"summary"`
	Items   []ItemResult  `json:"items"`
}

type ReportSummary struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Pending   int `json:"pending"`
	Fallback  int `json:"fallback"`
}

// ItemResult 是单张图片（或合成的运行级错误）在报告中的一行。
// 合成条目的 Src 为空。
type ItemResult struct {
	ID      string `json:"id"`
	Src     string `json:"src"`
	Dst     string `json:"dst"`
	Matched bool   `json:"matched"`
	Mapping string `json:"mapping"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Bytes      int    `json:"bytes"`
	File       string `json:"file"`
	FileStatus string `json:"file_status"`
}

// ItemFromResult 把处理结果转换为报告条目（不含输出字节）。
func ItemFromResult(r ProcessedResult) ItemResult {
	return ItemResult{
		ID:        r.SourceImageID,
		Src:       r.OriginalName,
		Dst:       r.ResolvedName,
		Matched:   r.Matched,
		Mapping:   r.MappingCurrent,
		Status:    r.Status,
		ErrorCode: r.ErrorCode,
		ErrorMsg:  r.ErrorMsg,
		Bytes:     len(r.Output),
	}
}

// Finalize 做两件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) summary 由 items 计算得出
//
// items 保持输入顺序（即处理顺序），不做排序。
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	var s ReportSummary
	for _, it := range r.Items {
		switch it.Status {
		case StatusSucceeded:
			s.Succeeded++
		case StatusFailed:
			s.Failed++
		case StatusPending:
			s.Pending++
		}
		// 读取失败的图片没有参与映射解析，不算回退。
		if it.Src != "" && !it.Matched && it.ErrorCode != ErrCodeIOFailed {
			s.Fallback++
		}
	}
	r.Summary = s
}

// MarshalJSON 仅用于集中约束输出的稳定性：nil 切片输出为 []。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	a := Alias(r)
	if a.Items == nil {
		a.Items = []ItemResult{}
	}
	return json.Marshal(a)
}
