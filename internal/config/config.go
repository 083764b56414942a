package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/imgren/internal/domain"
)

// FileName 是配置文件的固定文件名。
const FileName = "imgren.json"

const (
	// ErrCodeNotFound 表示无参运行但 cwd 下没有 imgren.json。
	ErrCodeNotFound = domain.ErrCodeConfigNotFound
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = domain.ErrCodeConfigInvalid
	// ErrCodeMissingPath 表示无参运行但配置文件缺少 path 字段。
	ErrCodeMissingPath = domain.ErrCodeConfigMissingPath
)

// 输出模式：单文件、归档或两者都要。
const (
	OutputFiles   = "files"
	OutputArchive = "archive"
	OutputBoth    = "both"
)

const (
	DefaultCSVName     = "mapping.csv"
	DefaultOutput      = OutputBoth
	DefaultArchiveName = "renamed-images.zip"
)

// CLIArgs 保留每个参数“是否显式指定”，使 --apply=false 能覆盖 config.apply=true。
type CLIArgs struct {
	Path string

	CSV    string
	CSVSet bool

	Output    string
	OutputSet bool

	Apply    bool
	ApplySet bool
}

// FileConfig 对应 imgren.json。
type FileConfig struct {
	Path        string `json:"path"`
	CSV         string `json:"csv"`
	Apply       *bool  `json:"apply"`
	Output      string `json:"output"`
	ArchiveName string `json:"archive_name"`
	ZipDeflate  bool   `json:"zip_deflate"`
}

// EffectiveConfig 是合并、规范化后的最终配置；下游直接消费，不再做默认值判断。
type EffectiveConfig struct {
	// Path 是图片目录（绝对路径）。
	Path string
	// CSVPath 是映射表文件（绝对路径；.html/.htm 按 HTML 表格读取）。
	CSVPath string

	Apply       bool
	Output      string
	ArchiveName string
	// ZipDeflate=false 时归档使用 Store（图片本身已压缩）。
	ZipDeflate bool
}

// OutDir 返回输出目录 <path>/out。
func (c EffectiveConfig) OutDir() string { return filepath.Join(c.Path, "out") }

func (c EffectiveConfig) WantFiles() bool   { return c.Output == OutputFiles || c.Output == OutputBoth }
func (c EffectiveConfig) WantArchive() bool { return c.Output == OutputArchive || c.Output == OutputBoth }

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingPath:
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段 path", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并。
//
// 发现规则：
// 1) CLI 提供 path：<path>/imgren.json 可选
// 2) CLI 未提供 path：<cwd>/imgren.json 必须存在且包含 path
//
// 覆盖优先级：
// - path：CLI > config
// - csv：CLI（相对 cwd）> config（相对 path）> <path>/mapping.csv
// - output：CLI > config > both
// - apply：CLI --apply/--apply=false > config > false
// - archive_name、zip_deflate：仅由 config 控制
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	if strings.TrimSpace(cli.Path) != "" {
		absPath := absCleanFrom(cwdAbs, cli.Path)
		cfgPath := filepath.Join(absPath, FileName)
		fc, _, err := readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		return merge(cwdAbs, absPath, cli, fc, cfgPath)
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}
	if strings.TrimSpace(fc.Path) == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingPath, Path: cfgPath}
	}
	return merge(cwdAbs, absCleanFrom(cwdAbs, fc.Path), cli, fc, cfgPath)
}

func merge(cwdAbs, absPath string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	csvPath := filepath.Join(absPath, DefaultCSVName)
	switch {
	case cli.CSVSet && strings.TrimSpace(cli.CSV) != "":
		csvPath = absCleanFrom(cwdAbs, cli.CSV)
	case cli.CSVSet:
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("--csv 不能为空")}
	case strings.TrimSpace(fc.CSV) != "":
		csvPath = absCleanFrom(absPath, fc.CSV)
	}

	output := DefaultOutput
	if cli.OutputSet {
		output = strings.ToLower(strings.TrimSpace(cli.Output))
	} else if strings.TrimSpace(fc.Output) != "" {
		output = strings.ToLower(strings.TrimSpace(fc.Output))
	}
	if err := validateOutput(output); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	apply := false
	if cli.ApplySet {
		apply = cli.Apply
	} else if fc.Apply != nil {
		apply = *fc.Apply
	}

	archiveName := strings.TrimSpace(fc.ArchiveName)
	if archiveName == "" {
		archiveName = DefaultArchiveName
	}
	if strings.ContainsAny(archiveName, `/\`) || archiveName == "." || archiveName == ".." {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("archive_name 只能是文件名：%q", archiveName)}
	}

	return EffectiveConfig{
		Path:        absPath,
		CSVPath:     csvPath,
		Apply:       apply,
		Output:      output,
		ArchiveName: archiveName,
		ZipDeflate:  fc.ZipDeflate,
	}, nil
}

func validateOutput(o string) error {
	switch o {
	case OutputFiles, OutputArchive, OutputBoth:
		return nil
	case "":
		return fmt.Errorf("output 不能为空")
	default:
		return fmt.Errorf("output 只能是 files、archive 或 both，实际是 %q", o)
	}
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// readFileConfig 读取并解析 JSON 配置文件；exists=false 表示文件不存在（不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
