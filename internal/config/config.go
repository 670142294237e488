package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/John-Robertt/sudocwarn/internal/charset"
	"github.com/John-Robertt/sudocwarn/internal/export"
	"github.com/John-Robertt/sudocwarn/internal/logging"
	"github.com/John-Robertt/sudocwarn/internal/warn"
)

const (
	// ErrCodeNotFound 表示 --config 显式指定的配置文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	DefaultInput      = "Rapports imports Sudoc 2025/*.txt"
	DefaultOutput     = "warnings_multitype.csv"
	DefaultDetector   = "chardet"
	DefaultConfigName = "sudocwarn.yaml"

	// EnvPrefix：SUDOCWARN_INPUT -> input，SUDOCWARN_LOG_LEVEL -> log.level。
	EnvPrefix = "SUDOCWARN_"
)

const (
	OnFileErrorAbort = "abort"
	OnFileErrorSkip  = "skip"
)

// CLIArgs 是 CLI 暴露的入口，并保留“是否显式指定”的信息，
// 保证 CLI 可以覆盖配置文件/环境变量中的同名项（包括覆盖为空串）。
type CLIArgs struct {
	ConfigPath string

	Input    string
	InputSet bool

	Output    string
	OutputSet bool

	Format    string
	FormatSet bool

	Report    string
	ReportSet bool

	Detector    string
	DetectorSet bool

	OnFileError    string
	OnFileErrorSet bool

	Patterns    []string
	PatternsSet bool

	LogLevel    string
	LogLevelSet bool
}

// FileConfig 对应 sudocwarn.yaml（以及 SUDOCWARN_* 环境变量）的解析结构。
type FileConfig struct {
	Input             string    `koanf:"input"`
	Output            string    `koanf:"output"`
	Format            string    `koanf:"format"`
	Report            string    `koanf:"report"`
	Detector          string    `koanf:"detector"`
	MinConfidence     float64   `koanf:"min_confidence"`
	SampleSize        int       `koanf:"sample_size"`
	FallbackEncodings []string  `koanf:"fallback_encodings"`
	OnFileError       string    `koanf:"on_file_error"`
	Patterns          []string  `koanf:"patterns"`
	Log               LogConfig `koanf:"log"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// Input 是绝对化后的 glob。
	Input  string
	Output string
	Format string
	// Report 为空表示不写 run report。
	Report string

	Detector          string
	MinConfidence     float64
	SampleSize        int
	FallbackEncodings []string

	OnFileError string
	// Patterns 为空表示启用全部内置 pattern。
	Patterns []string

	LogLevel  string
	LogFormat string

	// ConfigFile 是实际读取到的配置文件（未读取则为空）。
	ConfigFile string
}

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

// LoadEffective 读取配置文件与环境变量，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 给了 --config：必须存在
// 2) 否则尝试 <cwd>/sudocwarn.yaml（可选）
//
// 覆盖优先级（固定）：CLI > 环境变量 SUDOCWARN_* > 配置文件 > 内置默认。
// 相对路径（input/output/report）一律相对 cwd。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	explicit := strings.TrimSpace(cli.ConfigPath) != ""
	cfgPath := filepath.Join(cwdAbs, DefaultConfigName)
	if explicit {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
	}

	k := koanf.New(".")

	b, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists && explicit {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}
	loaded := ""
	if exists {
		if err := k.Load(rawbytes.Provider(b), yaml.Parser()); err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		loaded = cfgPath
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKeyValue), nil); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: "env", Err: err}
	}

	var fc FileConfig
	if err := k.Unmarshal("", &fc); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !k.Exists("min_confidence") {
		fc.MinConfidence = charset.DefaultMinConfidence
	}

	errPath := cfgPath
	if loaded == "" {
		errPath = "env/cli"
	}
	eff, err := merge(cwdAbs, cli, fc)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: errPath, Err: err}
	}
	eff.ConfigFile = loaded
	return eff, nil
}

// envKey 把 SUDOCWARN_LOG_LEVEL 映射为 log.level，其余去掉前缀后小写
// （SUDOCWARN_ON_FILE_ERROR -> on_file_error）。
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if rest, ok := strings.CutPrefix(s, "log_"); ok {
		return "log." + rest
	}
	return s
}

// envKeyValue 在 envKey 的基础上把列表型变量按逗号拆开
// （SUDOCWARN_FALLBACK_ENCODINGS=utf-8,cp1252）。
func envKeyValue(k, v string) (string, any) {
	key := envKey(k)
	switch key {
	case "fallback_encodings", "patterns":
		return key, strings.Split(v, ",")
	}
	return key, v
}

func merge(cwdAbs string, cli CLIArgs, fc FileConfig) (EffectiveConfig, error) {
	input := pick(cli.InputSet, cli.Input, fc.Input, DefaultInput)
	if strings.TrimSpace(input) == "" {
		return EffectiveConfig{}, fmt.Errorf("input 不能为空")
	}
	if _, err := filepath.Match(input, ""); err != nil {
		return EffectiveConfig{}, fmt.Errorf("input 模式无效 %q：%w", input, err)
	}

	output := pick(cli.OutputSet, cli.Output, fc.Output, DefaultOutput)
	if strings.TrimSpace(output) == "" {
		return EffectiveConfig{}, fmt.Errorf("output 不能为空")
	}
	outputAbs := absCleanFrom(cwdAbs, output)

	format := strings.ToLower(strings.TrimSpace(pick(cli.FormatSet, cli.Format, fc.Format, "")))
	switch format {
	case "":
		format = export.FormatFor(outputAbs)
	case export.FormatCSV, export.FormatSQLite:
	default:
		return EffectiveConfig{}, fmt.Errorf("format 只能是 csv 或 sqlite，实际是 %q", format)
	}

	report := pick(cli.ReportSet, cli.Report, fc.Report, "")
	if strings.TrimSpace(report) != "" {
		report = absCleanFrom(cwdAbs, report)
		if report == outputAbs {
			return EffectiveConfig{}, fmt.Errorf("report 不能与 output 相同：%q", report)
		}
	}

	detector := strings.ToLower(strings.TrimSpace(pick(cli.DetectorSet, cli.Detector, fc.Detector, DefaultDetector)))
	switch detector {
	case "chardet", "none":
	default:
		return EffectiveConfig{}, fmt.Errorf("detector 只能是 chardet 或 none，实际是 %q", detector)
	}

	if fc.MinConfidence < 0 || fc.MinConfidence > 1 {
		return EffectiveConfig{}, fmt.Errorf("min_confidence 必须在 [0, 1] 之间，实际是 %v", fc.MinConfidence)
	}

	sampleSize := fc.SampleSize
	if sampleSize < 0 {
		return EffectiveConfig{}, fmt.Errorf("sample_size 不能为负数：%d", sampleSize)
	}
	if sampleSize == 0 {
		sampleSize = charset.DefaultSampleSize
	}

	fallbacks := trimAll(fc.FallbackEncodings)
	if len(fallbacks) == 0 {
		fallbacks = append([]string(nil), charset.DefaultFallbacks...)
	}
	for _, name := range fallbacks {
		if !charset.Supported(name) {
			return EffectiveConfig{}, fmt.Errorf("fallback_encodings 包含未知编码：%q", name)
		}
	}

	onErr := strings.ToLower(strings.TrimSpace(pick(cli.OnFileErrorSet, cli.OnFileError, fc.OnFileError, OnFileErrorAbort)))
	switch onErr {
	case OnFileErrorAbort, OnFileErrorSkip:
	default:
		return EffectiveConfig{}, fmt.Errorf("on_file_error 只能是 abort 或 skip，实际是 %q", onErr)
	}

	patterns := trimAll(fc.Patterns)
	if cli.PatternsSet {
		patterns = trimAll(cli.Patterns)
	}
	if _, err := warn.Builtin().Select(patterns); err != nil {
		return EffectiveConfig{}, err
	}

	logLevel := strings.ToLower(pick(cli.LogLevelSet, cli.LogLevel, fc.Log.Level, logging.DefaultLevel))
	if _, err := logging.ParseLevel(logLevel); err != nil {
		return EffectiveConfig{}, err
	}
	logFormat := strings.ToLower(pick(false, "", fc.Log.Format, logging.FormatConsole))
	if logFormat != logging.FormatConsole && logFormat != logging.FormatJSON {
		return EffectiveConfig{}, fmt.Errorf("log.format 只能是 console 或 json，实际是 %q", logFormat)
	}

	return EffectiveConfig{
		Input:             absCleanFrom(cwdAbs, input),
		Output:            outputAbs,
		Format:            format,
		Report:            report,
		Detector:          detector,
		MinConfidence:     fc.MinConfidence,
		SampleSize:        sampleSize,
		FallbackEncodings: fallbacks,
		OnFileError:       onErr,
		Patterns:          patterns,
		LogLevel:          logLevel,
		LogFormat:         logFormat,
	}, nil
}

// pick：CLI（显式指定时）> 配置值（非空时）> 默认值。
func pick(cliSet bool, cliVal, cfgVal, def string) string {
	if cliSet {
		return strings.TrimSpace(cliVal)
	}
	if v := strings.TrimSpace(cfgVal); v != "" {
		return v
	}
	return def
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取配置文件原始字节。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (b []byte, exists bool, err error) {
	b, err = os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}
