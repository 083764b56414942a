package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/John-Robertt/imgren/internal/domain"
)

func repoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("读取 cwd 失败：%v", err)
	}
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func TestCLI_NoTTY_StdoutOnlyRunReportJSON(t *testing.T) {
	// stdout 非 TTY 时只能输出一个 RunReport JSON。
	root := t.TempDir()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("生成 png 失败：%v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "IMG_001.png"), buf.Bytes(), 0o644); err != nil {
		t.Fatalf("写入图片失败：%v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "mapping.csv"), []byte("current_name,new_name\nIMG_001,sunset\n"), 0o644); err != nil {
		t.Fatalf("写入映射表失败：%v", err)
	}

	cmd := exec.Command("go", "run", "./cmd/imgren", "run", root)
	cmd.Dir = repoRoot(t)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("命令执行失败：%v\nstderr=%s\nstdout=%s", err, stderr.String(), stdout.String())
	}

	var rr domain.RunReport
	if err := json.Unmarshal(stdout.Bytes(), &rr); err != nil {
		t.Fatalf("stdout 不是合法的 RunReport JSON：%v\nstdout=%q", err, stdout.String())
	}
	if len(rr.Items) != 1 || rr.Items[0].Dst != "sunset.png" || !rr.DryRun {
		t.Fatalf("报告内容不正确：%+v", rr)
	}
	if strings.Contains(stdout.String(), "配置（生效）") || strings.Contains(stdout.String(), "进度:") {
		t.Fatalf("stdout 不应包含进度/配置输出：%q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "完成：succeeded=1") {
		t.Fatalf("stderr 缺少完成摘要：%q", stderr.String())
	}
	if _, err := os.Stat(filepath.Join(root, "out")); !os.IsNotExist(err) {
		t.Fatalf("dry-run 不应创建 out/")
	}
}

func TestCLI_Template(t *testing.T) {
	root := t.TempDir()
	for _, n := range []string{"b.jpg", "a.png", "readme.txt"} {
		if err := os.WriteFile(filepath.Join(root, n), []byte("x"), 0o644); err != nil {
			t.Fatalf("写入文件失败：%v", err)
		}
	}

	cmd := exec.Command("go", "run", "./cmd/imgren", "template", root)
	cmd.Dir = repoRoot(t)
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("命令执行失败：%v", err)
	}
	if string(out) != "current_name,new_name\na.png,\nb.jpg,\n" {
		t.Fatalf("模板内容不正确：%q", out)
	}
}
