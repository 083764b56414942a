package domain

const (
	ResultPending   = "pending"
	ResultSucceeded = "succeeded"
	ResultFailed    = "failed"
)

// ProcessedResult 是一次 batch run 中某张图片的处理结果。
//
// 约束：
// - run 开始时为每张输入图片创建一条 pending 结果，run 之间不复用
// - Status 只允许 pending -> succeeded 或 pending -> failed，且只发生一次
type ProcessedResult struct {
	SourceImageID string
	OriginalName  string

	// ResolvedName 是带扩展名的最终文件名（扩展名必须非空）。
	ResolvedName string
	// Matched=false 表示没有命中映射，ResolvedName 回退为原文件名。
	Matched        bool
	MappingCurrent string

	Status    string
	Output    []byte
	ErrorCode string
	ErrorMsg  string
}

// Succeed 把 pending 结果标记为成功。非 pending 时不做任何修改并返回 false。
func (r *ProcessedResult) Succeed(out []byte) bool {
	if r.Status != ResultPending {
		return false
	}
	r.Status = ResultSucceeded
	r.Output = out
	return true
}

// Fail 把 pending 结果标记为失败。非 pending 时不做任何修改并返回 false。
func (r *ProcessedResult) Fail(code, msg string) bool {
	if r.Status != ResultPending {
		return false
	}
	r.Status = ResultFailed
	r.ErrorCode = code
	r.ErrorMsg = msg
	return true
}

// Succeeded 只保留成功结果（保持原顺序）。
func Succeeded(results []ProcessedResult) []ProcessedResult {
	out := make([]ProcessedResult, 0, len(results))
	for _, r := range results {
		if r.Status == ResultSucceeded {
			out = append(out, r)
		}
	}
	return out
}
