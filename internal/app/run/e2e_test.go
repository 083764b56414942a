package run

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/John-Robertt/imgren/internal/config"
	"github.com/John-Robertt/imgren/internal/domain"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 30), uint8(y * 30), 200, 255})
		}
	}
	return img
}

func writeJPEG(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(), nil); err != nil {
		t.Fatalf("生成 jpeg 失败：%v", err)
	}
	writeFile(t, path, buf.Bytes())
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatalf("生成 png 失败：%v", err)
	}
	writeFile(t, path, buf.Bytes())
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}

// setupRoot 准备三张图片：命中映射、损坏、回退原名。
func setupRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeJPEG(t, filepath.Join(root, "IMG_001.jpg"))
	writeFile(t, filepath.Join(root, "bad.jpg"), []byte("not an image"))
	writePNG(t, filepath.Join(root, "foo.png"))
	writeFile(t, filepath.Join(root, "notes.txt"), []byte("ignored"))
	writeFile(t, filepath.Join(root, "mapping.csv"), []byte("current_name,new_name\nIMG_001.jpg,sunset.jpg\nbad,broken\n"))
	return root
}

func effFor(root string, apply bool, output string) config.EffectiveConfig {
	return config.EffectiveConfig{
		Path:        root,
		CSVPath:     filepath.Join(root, config.DefaultCSVName),
		Apply:       apply,
		Output:      output,
		ArchiveName: config.DefaultArchiveName,
	}
}

func TestExecute_DryRun_NoWrites(t *testing.T) {
	root := setupRoot(t)

	rr := Execute(context.Background(), effFor(root, false, config.OutputBoth))

	if _, err := os.Stat(filepath.Join(root, "out")); !os.IsNotExist(err) {
		t.Fatalf("dry-run 不应创建 out/，但 Stat err=%v", err)
	}
	if !rr.DryRun || rr.Mappings != 2 {
		t.Fatalf("报告头不正确：%+v", rr)
	}
	if rr.Summary.Succeeded != 2 || rr.Summary.Failed != 1 || rr.Summary.Fallback != 1 {
		t.Fatalf("summary 不符合预期：%+v items=%+v", rr.Summary, rr.Items)
	}
	if len(rr.Items) != 3 {
		t.Fatalf("期望 3 个 item，实际 %d", len(rr.Items))
	}

	// 扫描顺序按文件名排序：IMG_001.jpg < bad.jpg < foo.png。
	it := rr.Items[0]
	if it.Src != "IMG_001.jpg" || it.Dst != "sunset.jpg" || !it.Matched || it.Status != domain.StatusSucceeded {
		t.Fatalf("第 1 项不正确：%+v", it)
	}
	if it.File != filepath.Join("out", "sunset.jpg") || it.FileStatus != domain.FileStatusPlanned {
		t.Fatalf("dry-run 应给出计划输出：%+v", it)
	}

	it = rr.Items[1]
	if it.Src != "bad.jpg" || it.Dst != "broken.jpg" || it.Status != domain.StatusFailed || it.ErrorCode != domain.ErrCodeDecodeFailed {
		t.Fatalf("第 2 项不正确：%+v", it)
	}
	if it.File != "" {
		t.Fatalf("失败条目不应有输出文件：%+v", it)
	}

	it = rr.Items[2]
	if it.Src != "foo.png" || it.Dst != "foo.png" || it.Matched || it.Status != domain.StatusSucceeded {
		t.Fatalf("第 3 项不正确：%+v", it)
	}

	if rr.Archive != filepath.Join("out", config.DefaultArchiveName) {
		t.Fatalf("dry-run 应给出计划归档名：%q", rr.Archive)
	}
}

func TestExecute_Apply_WritesFilesArchiveAndReport(t *testing.T) {
	root := setupRoot(t)
	eff := effFor(root, true, config.OutputBoth)

	rr := Execute(context.Background(), eff)
	if err := WriteReport(eff, rr); err != nil {
		t.Fatalf("写入报告失败：%v", err)
	}

	out := filepath.Join(root, "out")
	b, err := os.ReadFile(filepath.Join(out, "sunset.jpg"))
	if err != nil {
		t.Fatalf("缺少 sunset.jpg：%v", err)
	}
	if _, err := jpeg.Decode(bytes.NewReader(b)); err != nil {
		t.Fatalf("sunset.jpg 不是 JPEG：%v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "foo.png")); err != nil {
		t.Fatalf("缺少 foo.png：%v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "broken.jpg")); !os.IsNotExist(err) {
		t.Fatalf("失败图片不应写出")
	}
	if _, err := os.Stat(filepath.Join(root, "IMG_001.jpg")); err != nil {
		t.Fatalf("源文件不应被修改：%v", err)
	}

	if rr.Items[0].FileStatus != domain.FileStatusSaved || rr.Items[2].FileStatus != domain.FileStatusSaved {
		t.Fatalf("file_status 应为 saved：%+v", rr.Items)
	}

	zb, err := os.ReadFile(filepath.Join(out, config.DefaultArchiveName))
	if err != nil {
		t.Fatalf("缺少归档：%v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(zb), int64(len(zb)))
	if err != nil {
		t.Fatalf("归档无法读取：%v", err)
	}
	if len(zr.File) != 2 || zr.File[0].Name != "sunset.jpg" || zr.File[1].Name != "foo.png" {
		names := []string{}
		for _, f := range zr.File {
			names = append(names, f.Name)
		}
		t.Fatalf("归档条目不正确：%v", names)
	}

	rb, err := os.ReadFile(filepath.Join(out, ReportName))
	if err != nil {
		t.Fatalf("缺少 report.json：%v", err)
	}
	var got domain.RunReport
	if err := json.Unmarshal(rb, &got); err != nil {
		t.Fatalf("report.json 无法解析：%v", err)
	}
	if got.DryRun || got.Summary.Succeeded != 2 || got.Archive != filepath.Join("out", config.DefaultArchiveName) {
		t.Fatalf("report.json 内容不正确：%+v", got)
	}
}

func TestExecute_Apply_SecondRunDoesNotOverwrite(t *testing.T) {
	root := setupRoot(t)
	eff := effFor(root, true, config.OutputFiles)

	_ = Execute(context.Background(), eff)
	rr := Execute(context.Background(), eff)

	if rr.Items[0].File != filepath.Join("out", "sunset__2.jpg") {
		t.Fatalf("第二次运行应改名而不是覆盖：%+v", rr.Items[0])
	}
	if rr.Archive != "" {
		t.Fatalf("output=files 不应生成归档：%q", rr.Archive)
	}
	if _, err := os.Stat(filepath.Join(root, "out", config.DefaultArchiveName)); !os.IsNotExist(err) {
		t.Fatalf("output=files 不应写出归档")
	}
}

func TestExecute_ArchiveOnly(t *testing.T) {
	root := setupRoot(t)
	rr := Execute(context.Background(), effFor(root, true, config.OutputArchive))

	if _, err := os.Stat(filepath.Join(root, "out", "sunset.jpg")); !os.IsNotExist(err) {
		t.Fatalf("output=archive 不应写出单文件")
	}
	if rr.Archive == "" || rr.Items[0].File != "" {
		t.Fatalf("output=archive 结果不正确：archive=%q item=%+v", rr.Archive, rr.Items[0])
	}
}

func TestExecute_MappingInvalid_NothingProcessed(t *testing.T) {
	root := setupRoot(t)
	writeFile(t, filepath.Join(root, "mapping.csv"), []byte("current_name,new_name\n"))

	rr := Execute(context.Background(), effFor(root, true, config.OutputBoth))
	if len(rr.Items) != 1 {
		t.Fatalf("期望仅 1 个合成 item，实际 %+v", rr.Items)
	}
	if rr.Items[0].ErrorCode != "insufficient_rows" || rr.Items[0].Src != "" {
		t.Fatalf("合成条目不正确：%+v", rr.Items[0])
	}
	if rr.Summary.Failed != 1 || rr.Summary.Fallback != 0 {
		t.Fatalf("summary 不正确：%+v", rr.Summary)
	}
	if _, err := os.Stat(filepath.Join(root, "out")); !os.IsNotExist(err) {
		t.Fatalf("映射表无效时不应写出任何文件")
	}
}

func TestExecute_MappingMissing(t *testing.T) {
	root := t.TempDir()
	rr := Execute(context.Background(), effFor(root, false, config.OutputBoth))
	if len(rr.Items) != 1 || rr.Items[0].ErrorCode != domain.ErrCodeCSVReadFailed {
		t.Fatalf("期望 csv_read_failed：%+v", rr.Items)
	}
}

func TestExecute_OutIsFile_TargetConflict(t *testing.T) {
	root := setupRoot(t)
	writeFile(t, filepath.Join(root, "out"), []byte("x"))

	rr := Execute(context.Background(), effFor(root, true, config.OutputBoth))
	last := rr.Items[len(rr.Items)-1]
	if last.ErrorCode != domain.ErrCodeTargetConflict || last.Src != "" {
		t.Fatalf("期望合成 target_conflict 条目：%+v", last)
	}
}

func TestExecute_Aborted_LeavesPending(t *testing.T) {
	root := setupRoot(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rr := Execute(ctx, effFor(root, true, config.OutputBoth))
	if rr.Summary.Pending != 3 || rr.Summary.Succeeded != 0 {
		t.Fatalf("中断后图片应保持 pending：%+v", rr.Summary)
	}
	last := rr.Items[len(rr.Items)-1]
	if last.ErrorCode != domain.ErrCodeAborted {
		t.Fatalf("期望 aborted 合成条目：%+v", last)
	}
	if _, err := os.Stat(filepath.Join(root, "out")); !os.IsNotExist(err) {
		t.Fatalf("中断后不应写出任何文件")
	}
}
