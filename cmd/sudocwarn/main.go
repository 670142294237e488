package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/John-Robertt/sudocwarn/internal/app/run"
	"github.com/John-Robertt/sudocwarn/internal/config"
	"github.com/John-Robertt/sudocwarn/internal/domain"
	"github.com/John-Robertt/sudocwarn/internal/infra/fsx"
	"github.com/John-Robertt/sudocwarn/internal/logging"
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// exitError 携带进程退出码；其余 cobra 返回的错误都视为用法错误（2）。
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	// nil 会让 cobra 回退到 os.Args。
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		fmt.Fprintf(stderr, "运行失败：%v\n", ee.err)
		return ee.code
	}
	fmt.Fprintf(stderr, "参数错误：%v\n\n", err)
	fmt.Fprint(stderr, root.UsageString())
	return 2
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "sudocwarn",
		Short: "从 Sudoc 导入报告中提取 WARN 行并导出为表格",
		Long: `sudocwarn 扫描导入报告（.txt / .html），自动识别文本编码，
按固定优先级识别已知的 WARN 类型，并把每条命中写成一行 CSV（或 SQLite）。`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.AddCommand(newRunCmd(stdout, stderr))
	return root
}

type runFlags struct {
	config      string
	input       string
	output      string
	format      string
	report      string
	detector    string
	onFileError string
	patterns    []string
	logLevel    string
}

// cliArgs 只把显式给出的 flag 标记为 *Set，保证未给出的 flag 不会覆盖环境变量/配置文件。
func (f *runFlags) cliArgs(fs *pflag.FlagSet) config.CLIArgs {
	return config.CLIArgs{
		ConfigPath:     f.config,
		Input:          f.input,
		InputSet:       fs.Changed("input"),
		Output:         f.output,
		OutputSet:      fs.Changed("output"),
		Format:         f.format,
		FormatSet:      fs.Changed("format"),
		Report:         f.report,
		ReportSet:      fs.Changed("report"),
		Detector:       f.detector,
		DetectorSet:    fs.Changed("detector"),
		OnFileError:    f.onFileError,
		OnFileErrorSet: fs.Changed("on-file-error"),
		Patterns:       f.patterns,
		PatternsSet:    fs.Changed("pattern"),
		LogLevel:       f.logLevel,
		LogLevelSet:    fs.Changed("log-level"),
	}
}

func newRunCmd(stdout, stderr io.Writer) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "处理所有匹配的报告并写出输出文件",
		Long: `run 按 glob 列出输入报告（按路径排序），逐个文件解码、逐行分类，
最后覆盖写出输出文件。没有输入文件时照样写出只有表头的输出。

配置优先级：命令行 > 环境变量 SUDOCWARN_* > sudocwarn.yaml > 内置默认。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runE(cmd.Context(), f.cliArgs(cmd.Flags()), stdout, stderr)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.config, "config", "", "配置文件路径（给出时必须存在；默认尝试 ./sudocwarn.yaml）")
	fl.StringVarP(&f.input, "input", "i", config.DefaultInput, "输入文件 glob")
	fl.StringVarP(&f.output, "output", "o", config.DefaultOutput, "输出文件路径（总是覆盖）")
	fl.StringVar(&f.format, "format", "", "输出格式：csv|sqlite（默认按扩展名推断）")
	fl.StringVar(&f.report, "report", "", "写出 run report JSON 的路径（默认不写）")
	fl.StringVar(&f.detector, "detector", config.DefaultDetector, "编码探测：chardet|none")
	fl.StringVar(&f.onFileError, "on-file-error", config.OnFileErrorAbort, "文件读取失败时：abort|skip")
	fl.StringArrayVar(&f.patterns, "pattern", nil, "只启用指定的 WARN 类型（可重复；默认全部）")
	fl.StringVar(&f.logLevel, "log-level", logging.DefaultLevel, "诊断日志级别：debug|info|warn|error")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return err })
	return cmd
}

func runE(ctx context.Context, cli config.CLIArgs, stdout, stderr io.Writer) error {
	cwd, err := os.Getwd()
	if err != nil {
		return &exitError{code: 1, err: fmt.Errorf("读取当前目录失败：%w", err)}
	}

	eff, err := config.LoadEffective(cwd, cli)
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	logger, err := logging.New(stderr, eff.LogLevel, eff.LogFormat)
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	defer func() { _ = logger.Sync() }()

	rr, runErr := run.Execute(ctx, eff, logger, newProgressUI(stdout))

	// 失败时也写出 report：便于定位出错之前已处理的文件。
	if eff.Report != "" {
		if err := writeReportFile(eff.Report, rr); err != nil {
			return &exitError{code: 1, err: fmt.Errorf("写入 run report 失败：%w", err)}
		}
		fmt.Fprintf(stdout, "Rapport : %s\n", eff.Report)
	}

	if runErr != nil {
		return &exitError{code: 1, err: runErr}
	}
	return nil
}

func writeReportFile(path string, rr domain.RunReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomicReplace(filepath.Dir(path), filepath.Base(path), b)
}
