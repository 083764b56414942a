package main

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/John-Robertt/imgren/internal/app/run"
	"github.com/John-Robertt/imgren/internal/config"
	"github.com/John-Robertt/imgren/internal/domain"
)

func TestProgressUI_Lines(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf)
	p.tickerInterval = time.Hour

	p.OnStart(config.EffectiveConfig{Path: "/photos", Output: config.OutputBoth, ArchiveName: "x.zip"})
	p.OnPhaseDone(run.PhaseScan, map[string]any{"files": 2, "bytes": int64(2048), "unreadable": 0}, time.Second)
	p.OnPhaseDone(run.PhaseProcess, map[string]any{"total": 2}, 0)
	p.OnItemDone(1, 2, domain.ItemResult{Src: "a.jpg", Dst: "b.jpg", Matched: true, Status: domain.StatusSucceeded, Bytes: 1000}, 0)
	p.OnItemDone(2, 2, domain.ItemResult{Src: "c.jpg", Status: domain.StatusFailed, ErrorCode: domain.ErrCodeDecodeFailed, ErrorMsg: "坏图"}, 0)

	out := buf.String()
	for _, want := range []string{
		"imgren run (dry-run)",
		"archive: x.zip",
		"扫描: files=2 size=2.0 kB",
		"[1/2] OK a.jpg -> b.jpg 1.0 kB",
		"[2/2] FAIL c.jpg decode_failed: 坏图",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("输出缺少 %q：\n%s", want, out)
		}
	}
	if p.tickerStarted {
		t.Fatalf("最后一张完成后 ticker 应已停止")
	}
}

func TestProgressUI_FallbackNote(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf)
	p.OnItemDone(1, 1, domain.ItemResult{Src: "foo.png", Dst: "foo.png", Status: domain.StatusSucceeded}, 0)
	if !strings.Contains(buf.String(), "未命中映射") {
		t.Fatalf("回退条目应有提示：%q", buf.String())
	}
}

func TestParseRunArgs(t *testing.T) {
	ra, err := parseRunArgs([]string{"photos", "--csv", "m.csv", "--output=archive", "--apply=false"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if ra.Path != "photos" || ra.CSV != "m.csv" || !ra.CSVSet || ra.Output != "archive" || !ra.OutputSet || ra.Apply || !ra.ApplySet {
		t.Fatalf("解析结果不正确：%+v", ra)
	}

	for _, bad := range [][]string{
		{"--output=tar"},
		{"--apply=yes"},
		{"--csv"},
		{"a", "b"},
		{"--nope"},
	} {
		if _, err := parseRunArgs(bad); err == nil {
			t.Fatalf("期望 %v 报错", bad)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefgh", 6); got != "abc..." {
		t.Fatalf("truncate 结果不正确：%q", got)
	}
	if got := truncate(" ab ", 6); got != "ab" {
		t.Fatalf("truncate 结果不正确：%q", got)
	}
	got := truncate("读取图片失败：权限不足", 8)
	if got != "读取图片失..." || !utf8.ValidString(got) {
		t.Fatalf("中文截断不应切断字符：%q", got)
	}
	if got := truncate("图片解码失败", 2); got != "图片" {
		t.Fatalf("truncate 结果不正确：%q", got)
	}
}
