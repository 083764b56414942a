package run

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/John-Robertt/imgren/internal/app"
	"github.com/John-Robertt/imgren/internal/app/planner"
	"github.com/John-Robertt/imgren/internal/batch"
	"github.com/John-Robertt/imgren/internal/config"
	"github.com/John-Robertt/imgren/internal/domain"
	"github.com/John-Robertt/imgren/internal/infra/archive"
	"github.com/John-Robertt/imgren/internal/infra/fsx"
	"github.com/John-Robertt/imgren/internal/mapping"
	"github.com/John-Robertt/imgren/internal/scan"
	"github.com/John-Robertt/imgren/internal/workset"
)

// ReportName 是 apply 模式下写入 <path>/out/ 的报告文件名。
const ReportName = "report.json"

// Execute 执行一次 run（dry-run/apply），并返回对外稳定的 RunReport。
// 单张图片的失败只体现在对应条目上，不影响其他图片。
func Execute(ctx context.Context, eff config.EffectiveConfig) domain.RunReport {
	return ExecuteWithObserver(ctx, eff, nil)
}

// ExecuteWithObserver 与 Execute 相同，但会把进度事件发给 obs（可为 nil）。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, obs Observer) domain.RunReport {
	started := time.Now()
	if obs != nil {
		obs.OnStart(eff)
	}

	rr := domain.RunReport{
		Path:      eff.Path,
		CSV:       eff.CSVPath,
		DryRun:    !eff.Apply,
		StartedAt: started,
		Items:     make([]domain.ItemResult, 0, 64),
	}
	finish := func() domain.RunReport {
		rr.FinishedAt = time.Now()
		rr.Finalize()
		return rr
	}

	// 映射表：每次 run 独立读取；失败时不处理任何图片。
	phaseStarted := time.Now()
	mappings, err := mapping.Load(eff.CSVPath)
	if err != nil {
		rr.Items = append(rr.Items, mappingFailed(eff.CSVPath, err))
		return finish()
	}
	rr.Mappings = len(mappings)
	if obs != nil {
		obs.OnPhaseDone(PhaseMapping, map[string]any{"entries": len(mappings)}, time.Since(phaseStarted))
	}

	phaseStarted = time.Now()
	files, err := scan.ScanImages(eff.Path)
	if err != nil {
		rr.Items = append(rr.Items, syntheticFailed(domain.ErrCodeIOFailed, fmt.Sprintf("扫描失败：%v", err)))
		return finish()
	}

	ws := workset.New()
	defer ws.Clear()

	var totalBytes int64
	for _, f := range files {
		if _, err := ws.AddFile(f.AbsPath); err != nil {
			rr.Items = append(rr.Items, domain.ItemResult{
				Src:       f.Name,
				Status:    domain.StatusFailed,
				ErrorCode: domain.ErrCodeIOFailed,
				ErrorMsg:  err.Error(),
			})
			continue
		}
		totalBytes += f.Size
	}
	images := ws.Images()
	if obs != nil {
		obs.OnPhaseDone(PhaseScan, map[string]any{
			"files":      len(images),
			"bytes":      totalBytes,
			"unreadable": len(files) - len(images),
		}, time.Since(phaseStarted))
	}

	phaseStarted = time.Now()
	matched, fallback := app.MatchAll(images, mappings)
	if obs != nil {
		obs.OnPhaseDone(PhaseMatch, map[string]any{
			"matched":  len(matched),
			"fallback": len(fallback),
		}, time.Since(phaseStarted))
	}

	if obs != nil {
		obs.OnPhaseDone(PhaseProcess, map[string]any{"total": len(images)}, 0)
	}
	results, runErr := batch.Processor{}.ProcessAll(ctx, images, mappings, func(done, total int, res domain.ProcessedResult, dur time.Duration) {
		if obs != nil {
			obs.OnItemDone(done, total, domain.ItemFromResult(res), dur)
		}
	})

	itemBase := len(rr.Items)
	for _, r := range results {
		rr.Items = append(rr.Items, domain.ItemFromResult(r))
	}
	if runErr != nil {
		// 中断：已提交的结果保留，其余保持 pending，不再写任何输出。
		rr.Items = append(rr.Items, syntheticFailed(domain.ErrCodeAborted, fmt.Sprintf("运行被中断：%v", runErr)))
		return finish()
	}

	phaseStarted = time.Now()
	if err := writeOutputs(eff, started, results, &rr, rr.Items[itemBase:]); err != nil {
		rr.Items = append(rr.Items, outputFailed(err))
		return finish()
	}
	if obs != nil {
		saved := 0
		for _, it := range rr.Items[itemBase:] {
			if it.File != "" && it.FileStatus != domain.FileStatusFailed {
				saved++
			}
		}
		obs.OnPhaseDone(PhaseOutput, map[string]any{
			"files":   saved,
			"archive": rr.Archive,
			"apply":   eff.Apply,
		}, time.Since(phaseStarted))
	}

	return finish()
}

// writeOutputs 计划（dry-run）或写入（apply）单文件与归档，并回填 items 的 File/FileStatus。
// items 与 results 一一对应。返回的 error 只表示输出目录整体不可用。
func writeOutputs(eff config.EffectiveConfig, started time.Time, results []domain.ProcessedResult, rr *domain.RunReport, items []domain.ItemResult) error {
	outDir := eff.OutDir()
	if err := checkDir(outDir); err != nil {
		return err
	}
	existing, err := planner.ReadOutNames(outDir)
	if err != nil {
		return err
	}

	var planned []string
	if eff.WantFiles() {
		planned = planner.PlanOutputs(results, existing)
	}
	hasSucceeded := len(domain.Succeeded(results)) > 0

	if !eff.Apply {
		for i, name := range planned {
			if name == "" {
				continue
			}
			items[i].File = outRel(name)
			items[i].FileStatus = domain.FileStatusPlanned
		}
		if eff.WantArchive() && hasSucceeded {
			rr.Archive = outRel(planner.PlanArchive(eff.ArchiveName, existing, planned))
		}
		return nil
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	saver := fsx.NewDirSaver(outDir, existing)

	if eff.WantFiles() {
		for i, r := range results {
			if r.Status != domain.ResultSucceeded {
				continue
			}
			name, err := batch.DownloadOne(saver, r)
			if err != nil {
				items[i].Status = domain.StatusFailed
				items[i].ErrorCode = saveErrorCode(err)
				items[i].ErrorMsg = fmt.Sprintf("保存失败：%v", err)
				items[i].File = outRel(r.ResolvedName)
				items[i].FileStatus = domain.FileStatusFailed
				continue
			}
			items[i].File = outRel(name)
			items[i].FileStatus = domain.FileStatusSaved
		}
	}

	if eff.WantArchive() {
		builder := archive.ZipBuilder{Deflate: eff.ZipDeflate, ModTime: started}
		name, _, err := batch.DownloadAllAsArchive(builder, saver, results, eff.ArchiveName)
		switch {
		case errors.Is(err, batch.ErrNothingToDownload):
			// 没有成功结果：不生成空归档。
		case err != nil:
			rr.Items = append(rr.Items, domain.ItemResult{
				Dst:       eff.ArchiveName,
				Status:    domain.StatusFailed,
				ErrorCode: saveErrorCode(err),
				ErrorMsg:  fmt.Sprintf("生成归档失败：%v", err),
			})
		default:
			rr.Archive = outRel(name)
		}
	}
	return nil
}

// WriteReport 把报告写入 <path>/out/report.json（覆盖上一次的报告）。
func WriteReport(eff config.EffectiveConfig, rr domain.RunReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomicReplace(eff.OutDir(), ReportName, b)
}

func mappingFailed(csvPath string, err error) domain.ItemResult {
	if code := mapping.Code(err); code != "" {
		return syntheticFailed(code, fmt.Sprintf("映射表 %q 无效：%v", csvPath, err))
	}
	return syntheticFailed(domain.ErrCodeCSVReadFailed, fmt.Sprintf("读取映射表失败：%v", err))
}

func outputFailed(err error) domain.ItemResult {
	if fsx.IsPathTypeConflict(err) {
		return syntheticFailed(domain.ErrCodeTargetConflict, err.Error())
	}
	return syntheticFailed(domain.ErrCodeIOFailed, fmt.Sprintf("输出目录不可用：%v", err))
}

func saveErrorCode(err error) string {
	if fsx.IsPathTypeConflict(err) {
		return domain.ErrCodeTargetConflict
	}
	return domain.ErrCodeSaveFailed
}

func syntheticFailed(code, msg string) domain.ItemResult {
	return domain.ItemResult{
		Status:    domain.StatusFailed,
		ErrorCode: code,
		ErrorMsg:  msg,
	}
}

func outRel(name string) string { return filepath.Join("out", name) }

// checkDir 允许 dir 不存在；存在但不是目录时返回类型冲突。
func checkDir(dir string) error {
	fi, err := os.Stat(dir)
	if err == nil {
		if fi.IsDir() {
			return nil
		}
		return &fsx.PathTypeConflictError{Path: dir, Want: "dir", Got: "file"}
	}
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
