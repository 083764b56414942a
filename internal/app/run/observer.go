package run

import (
	"time"

	"github.com/John-Robertt/imgren/internal/config"
	"github.com/John-Robertt/imgren/internal/domain"
)

// Observer 把“阶段/条目/进度”事件从执行流程中解耦出来。
//
// 约束：
// - run 包只发事件，不做任何输出（避免污染 stdout 的 JSON 契约）
// - 实现必须并发安全：CLI 的 keepalive ticker 与 run 在不同 goroutine
type Observer interface {
	// OnStart 在 run 开始时调用。
	OnStart(eff config.EffectiveConfig)
	// OnPhaseDone 在 mapping/scan/match/process/output 各阶段结束或就绪时调用。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnItemDone 在每张图片提交结果后调用；idx 从 1 开始且单调递增。
	OnItemDone(idx, total int, res domain.ItemResult, dur time.Duration)
	// OnProgress 用于 keepalive（由 CLI 的 ticker 触发；run 层不调用）。
	OnProgress(done, total, ok, fail int, elapsed time.Duration)
}

// 阶段名。
const (
	PhaseMapping = "mapping"
	PhaseScan    = "scan"
	PhaseMatch   = "match"
	PhaseProcess = "process"
	PhaseOutput  = "output"
)
