package planner

import (
	"github.com/John-Robertt/imgren/internal/domain"
	"github.com/John-Robertt/imgren/internal/infra/fsx"
)

// ReadOutNames 读取输出目录现有的文件名（只做 ReadDir）。目录不存在时返回空。
func ReadOutNames(outDir string) ([]string, error) {
	return fsx.ListNames(outDir)
}

// PlanOutputs 为每条 succeeded 结果计算保存时会使用的文件名，不做任何写入。
//
// 分配规则与 fsx.DirSaver 相同（同一个 NameSet），因此 dry-run 给出的目标
// 与 apply 实际写入的一致。返回值与 results 等长；非 succeeded 的位置为空串。
func PlanOutputs(results []domain.ProcessedResult, existing []string) []string {
	names := domain.NewNameSet(existing...)
	out := make([]string, len(results))
	for i, r := range results {
		if r.Status != domain.ResultSucceeded {
			continue
		}
		out[i] = names.Alloc(r.ResolvedName)
	}
	return out
}

// PlanArchive 计算归档保存时的文件名；归档在单文件之后写入，existing 需包含它们。
func PlanArchive(name string, existing []string, files []string) string {
	names := domain.NewNameSet(existing...)
	for _, f := range files {
		if f != "" {
			names.Alloc(f)
		}
	}
	return names.Alloc(name)
}
