package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/John-Robertt/imgren/internal/app/run"
	"github.com/John-Robertt/imgren/internal/config"
	"github.com/John-Robertt/imgren/internal/domain"
	"github.com/John-Robertt/imgren/internal/mapping"
	"github.com/John-Robertt/imgren/internal/scan"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	var code int
	switch args[0] {
	case "run":
		code = runCmd(args[1:])
	case "template":
		code = templateCmd(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		code = 2
	}
	if code != 0 {
		os.Exit(code)
	}
}

func runCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printRunUsage()
			return 0
		}
	}

	ra, err := parseRunArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printRunUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}
	cwdAbs, _ := filepath.Abs(cwd)

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		Path:      ra.Path,
		CSV:       ra.CSV,
		CSVSet:    ra.CSVSet,
		Output:    ra.Output,
		OutputSet: ra.OutputSet,
		Apply:     ra.Apply,
		ApplySet:  ra.ApplySet,
	})
	if err != nil {
		emitReport(reportForConfigError(cwdAbs, ra, err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	var ui *progressUI
	if interactive {
		ui = newProgressUI(progressW)
		obs = ui
	}

	rr := run.ExecuteWithObserver(ctx, eff, obs)
	if ui != nil {
		ui.stop()
	}

	// apply：报告写入 <path>/out/report.json；dry-run 不落盘。
	if eff.Apply {
		if err := run.WriteReport(eff, rr); err != nil {
			fmt.Fprintf(os.Stderr, "写入 report.json 失败：%v\n", err)
			emitReport(rr)
			return 1
		}
	}

	emitReport(rr)
	if interactive {
		emitLocations(progressW, eff)
	}
	if rr.Summary.Failed == 0 && rr.Summary.Pending == 0 {
		return 0
	}
	return 1
}

// templateCmd 为 path 下的图片输出一份待填写的映射表模板（stdout）。
func templateCmd(args []string) int {
	path := "."
	for _, a := range args {
		switch {
		case isHelp(a):
			printTemplateUsage()
			return 0
		case strings.HasPrefix(a, "-"):
			fmt.Fprintf(os.Stderr, "参数错误：未知参数 %q\n\n", a)
			printTemplateUsage()
			return 2
		default:
			path = a
		}
	}

	files, err := scan.ScanImages(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "扫描失败：%v\n", err)
		return 1
	}
	images := make([]domain.UploadedImage, 0, len(files))
	for _, f := range files {
		images = append(images, domain.UploadedImage{OriginalName: f.Name, Size: f.Size})
	}
	if err := mapping.WriteTemplate(os.Stdout, images); err != nil {
		fmt.Fprintf(os.Stderr, "输出模板失败：%v\n", err)
		return 1
	}
	return 0
}

type runArgs struct {
	Path string

	CSV    string
	CSVSet bool

	Output    string
	OutputSet bool

	Apply    bool
	ApplySet bool
}

func parseRunArgs(args []string) (runArgs, error) {
	ra := runArgs{}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--csv" || a == "--output":
			if i+1 >= len(args) {
				return runArgs{}, fmt.Errorf("%s 需要一个值", a)
			}
			i++
			if a == "--csv" {
				ra.CSV, ra.CSVSet = args[i], true
			} else {
				ra.Output, ra.OutputSet = args[i], true
			}
		case strings.HasPrefix(a, "--csv="):
			ra.CSV, ra.CSVSet = strings.TrimPrefix(a, "--csv="), true
		case strings.HasPrefix(a, "--output="):
			ra.Output, ra.OutputSet = strings.TrimPrefix(a, "--output="), true
		case a == "--apply":
			ra.Apply, ra.ApplySet = true, true
		case strings.HasPrefix(a, "--apply="):
			v := strings.TrimPrefix(a, "--apply=")
			switch v {
			case "true":
				ra.Apply = true
			case "false":
				ra.Apply = false
			default:
				return runArgs{}, fmt.Errorf("--apply 只能是 true 或 false，实际是 %q", v)
			}
			ra.ApplySet = true
		case strings.HasPrefix(a, "-"):
			return runArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			if ra.Path != "" {
				return runArgs{}, fmt.Errorf("重复的 path：%q 与 %q", ra.Path, a)
			}
			ra.Path = a
		}
	}

	if ra.OutputSet {
		switch strings.ToLower(ra.Output) {
		case config.OutputFiles, config.OutputArchive, config.OutputBoth:
		default:
			return runArgs{}, fmt.Errorf("--output 只能是 files、archive 或 both，实际是 %q", ra.Output)
		}
	}
	return ra, nil
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  imgren run [path] [--csv file] [--output files|archive|both] [--apply[=true|false]]
  imgren template [path]

命令：
  run       按映射表重命名并重编码图片（默认 dry-run）
  template  为目录中的图片输出映射表模板

使用 "imgren run --help" 查看详细说明。
`)
}

func printRunUsage() {
	fmt.Fprint(os.Stdout, `用法：
  imgren run [path] [--csv file] [--output files|archive|both] [--apply[=true|false]]

参数：
  --csv       映射表文件（CSV 或含 <table> 的 HTML；默认 <path>/mapping.csv）
  --output    输出方式：files|archive|both（默认 both）
  --apply     写入 <path>/out/（默认 dry-run）；支持 --apply=false 覆盖配置中的 apply=true
  -h, --help  显示帮助
`)
}

func printTemplateUsage() {
	fmt.Fprint(os.Stdout, `用法：
  imgren template [path] > mapping.csv

为 path（默认当前目录）顶层的每张图片输出一行 current_name,new_name（new_name 留空）。
`)
}

func summaryLine(rr domain.RunReport) string {
	return fmt.Sprintf("完成：succeeded=%d failed=%d pending=%d fallback=%d",
		rr.Summary.Succeeded, rr.Summary.Failed, rr.Summary.Pending, rr.Summary.Fallback,
	)
}

func emitReport(rr domain.RunReport) {
	if isTTY(os.Stdout) {
		fmt.Fprintln(os.Stdout, summaryLine(rr))
		for _, it := range rr.Items {
			if it.Status != domain.StatusFailed {
				continue
			}
			key := it.Src
			if key == "" {
				key = "<run>"
			}
			fmt.Fprintf(os.Stderr, "%s %s: %s\n", key, it.ErrorCode, it.ErrorMsg)
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintln(os.Stderr, summaryLine(rr))
}

func reportForConfigError(cwdAbs string, ra runArgs, err error) domain.RunReport {
	now := time.Now()
	rr := domain.RunReport{
		Path:       cwdAbs,
		DryRun:     !(ra.ApplySet && ra.Apply),
		StartedAt:  now,
		FinishedAt: now,
		Items: []domain.ItemResult{{
			Status:    domain.StatusFailed,
			ErrorCode: config.Code(err),
			ErrorMsg:  err.Error(),
		}},
	}
	rr.Finalize()
	return rr
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度只在交互终端启用；优先 stderr，不污染 stdout JSON。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}

func emitLocations(w io.Writer, eff config.EffectiveConfig) {
	if w == nil {
		return
	}
	if eff.Apply {
		fmt.Fprintf(w, "report: %s\n", filepath.Join(eff.OutDir(), run.ReportName))
	}
	fmt.Fprintf(w, "out: %s\n", eff.OutDir())
}
