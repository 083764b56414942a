package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/John-Robertt/imgren/internal/app/run"
	"github.com/John-Robertt/imgren/internal/config"
	"github.com/John-Robertt/imgren/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端的进度输出。
//
// - 只写 stderr（或回退到 stdout），不碰 stdout 的 JSON 契约
// - 长时间没有图片完成时由 ticker 打印 keepalive
type progressUI struct {
	w io.Writer

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	total int
	done  int
	ok    int
	fail  int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w:                  w,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	mode := "dry-run"
	modeHint := " (只校验，不写入)"
	if eff.Apply {
		mode = "apply"
		modeHint = ""
	}

	fmt.Fprintf(p.w, "[%s] imgren run (%s)\n", now.Format("15:04:05"), mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  path: %s\n", eff.Path)
	fmt.Fprintf(p.w, "  csv: %s\n", eff.CSVPath)
	fmt.Fprintf(p.w, "  mode: %s%s\n", mode, modeHint)
	fmt.Fprintf(p.w, "  output: %s\n", eff.Output)
	if eff.WantArchive() {
		fmt.Fprintf(p.w, "  archive: %s (deflate=%s)\n", eff.ArchiveName, onOff(eff.ZipDeflate))
	}
	fmt.Fprintf(p.w, "  out: %s\n\n", eff.OutDir())

	p.lastPrinted = time.Now()
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case run.PhaseMapping:
		fmt.Fprintf(p.w, "映射: entries=%d (%s)\n", intField(fields, "entries"), formatShortDuration(dur))
	case run.PhaseScan:
		fmt.Fprintf(p.w, "扫描: files=%d size=%s unreadable=%d (%s)\n",
			intField(fields, "files"),
			humanize.Bytes(uint64(intField(fields, "bytes"))),
			intField(fields, "unreadable"),
			formatShortDuration(dur),
		)
	case run.PhaseMatch:
		fmt.Fprintf(p.w, "匹配: matched=%d fallback=%d (%s)\n",
			intField(fields, "matched"), intField(fields, "fallback"), formatShortDuration(dur),
		)
	case run.PhaseProcess:
		p.total = intField(fields, "total")
		fmt.Fprintf(p.w, "处理: total=%d\n\n", p.total)
		if p.total > 0 && !p.tickerStarted {
			p.startTickerLocked()
		}
	case run.PhaseOutput:
		archive, _ := fields["archive"].(string)
		if archive == "" {
			archive = "-"
		}
		verb := "计划"
		if apply, _ := fields["apply"].(bool); apply {
			verb = "写入"
		}
		fmt.Fprintf(p.w, "\n输出(%s): files=%d archive=%s (%s)\n",
			verb, intField(fields, "files"), archive, formatShortDuration(dur),
		)
	default:
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}

	p.lastPrinted = time.Now()
}

func (p *progressUI) OnItemDone(idx, total int, res domain.ItemResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = idx
	p.total = total

	switch res.Status {
	case domain.StatusSucceeded:
		p.ok++
		note := ""
		if !res.Matched {
			note = " (未命中映射，保留原名)"
		}
		fmt.Fprintf(p.w, "[%d/%d] OK %s -> %s %s%s (%s)\n",
			idx, total, res.Src, res.Dst, humanize.Bytes(uint64(res.Bytes)), note, formatShortDuration(dur),
		)
	case domain.StatusFailed:
		p.fail++
		fmt.Fprintf(p.w, "[%d/%d] FAIL %s %s: %s (%s)\n",
			idx, total, res.Src, res.ErrorCode, truncate(res.ErrorMsg, 160), formatShortDuration(dur),
		)
	default:
		fmt.Fprintf(p.w, "[%d/%d] %s %s\n", idx, total, strings.ToUpper(res.Status), res.Src)
	}

	p.lastPrinted = time.Now()

	// 最后一张完成：停止 ticker，避免结束后又冒出 keepalive。
	if p.tickerStarted && p.done >= p.total {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *progressUI) OnProgress(done, total, ok, fail int, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printProgressLocked(done, total, ok, fail, elapsed)
}

func (p *progressUI) printProgressLocked(done, total, ok, fail int, elapsed time.Duration) {
	fmt.Fprintf(p.w, "进度: done=%d/%d ok=%d fail=%d elapsed=%s\n",
		done, total, ok, fail, formatElapsed(elapsed),
	)
	p.lastPrinted = time.Now()
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true
	stop := p.stopCh

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if p.total > 0 && p.done >= p.total {
					p.mu.Unlock()
					return
				}
				if time.Since(p.lastPrinted) > threshold {
					p.printProgressLocked(p.done, p.total, p.ok, p.fail, time.Since(p.startedAt))
				}
				p.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

// stop 在 run 提前结束（中断）时关闭 ticker。
func (p *progressUI) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tickerStarted {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// truncate 按字符（rune）截断，max 也以字符计。
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
}

func intField(fields map[string]any, key string) int {
	switch x := fields[key].(type) {
	case int:
		return x
	case int64:
		return int(x)
	case uint64:
		return int(x)
	default:
		return 0
	}
}
