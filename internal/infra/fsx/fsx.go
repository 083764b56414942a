package fsx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// 测试替换点：模拟 rename 失败。
var renameFunc = os.Rename

// PathTypeConflictError 表示输出路径已被非普通文件占用（目录、符号链接等）。
// 上层映射为 error_code=target_conflict。
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("输出路径类型冲突：%q（期望 %s，实际 %s）", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// WriteFileAtomicNoOverwrite 在 dir 下写入 name；目标已存在时返回 os.ErrExist，不做覆盖。
// 写入走“同目录临时文件 + rename”，读者不会看到写了一半的图片或归档。
func WriteFileAtomicNoOverwrite(dir, name string, data []byte) error {
	dst := filepath.Join(filepath.Clean(dir), name)
	if err := checkTarget(dst); err != nil {
		return err
	}
	if _, err := os.Lstat(dst); err == nil {
		return os.ErrExist
	}
	return writeFileAtomic(dir, name, data, false)
}

// WriteFileAtomicReplace 写入并覆盖同名文件，用于 report.json 这类每次重写的文件。
func WriteFileAtomicReplace(dir, name string, data []byte) error {
	if err := checkTarget(filepath.Join(filepath.Clean(dir), name)); err != nil {
		return err
	}
	return writeFileAtomic(dir, name, data, true)
}

// checkTarget 只拒绝类型冲突；不存在或是普通文件都返回 nil。
func checkTarget(dst string) error {
	fi, err := os.Lstat(dst)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	switch {
	case fi.IsDir():
		return &PathTypeConflictError{Path: dst, Want: "file", Got: "dir"}
	case !fi.Mode().IsRegular():
		return &PathTypeConflictError{Path: dst, Want: "regular file", Got: fi.Mode().Type().String()}
	}
	return nil
}

func writeFileAtomic(dir, name string, data []byte, replace bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	dst := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if !replace {
		// Lstat 与 rename 之间可能有别的进程写入同名文件；再查一次缩小窗口。
		if _, err := os.Lstat(dst); err == nil {
			return os.ErrExist
		}
	}
	if err := renameFunc(tmpName, dst); err != nil {
		return err
	}

	_ = syncDir(dir)
	return nil
}

// syncDir 尽力而为；Windows 不支持目录 Sync。
func syncDir(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
