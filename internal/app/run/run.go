package run

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/John-Robertt/sudocwarn/internal/charset"
	"github.com/John-Robertt/sudocwarn/internal/config"
	"github.com/John-Robertt/sudocwarn/internal/domain"
	"github.com/John-Robertt/sudocwarn/internal/export"
	"github.com/John-Robertt/sudocwarn/internal/lines"
	"github.com/John-Robertt/sudocwarn/internal/scan"
	"github.com/John-Robertt/sudocwarn/internal/warn"
)

const (
	OpRead  = "read"
	OpParse = "parse"
)

// FileError 表示某个输入文件无法读取（或 HTML 无法解析）。
// 是否中止整个 run 由 on_file_error 决定。
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	switch e.Op {
	case OpParse:
		return fmt.Sprintf("解析文件 %q 失败：%v", e.Path, e.Err)
	default:
		return fmt.Sprintf("读取文件 %q 失败：%v", e.Path, e.Err)
	}
}

func (e *FileError) Unwrap() error { return e.Err }

// 通过可替换的函数指针，让测试能稳定模拟单个文件读取失败。
var processFile = Pipeline.ProcessFile

// Pipeline 是单个文件的处理链路：解码 -> 切行 -> 分类 -> 组装 Record。
type Pipeline struct {
	Resolver charset.Resolver
	Registry warn.Registry
}

// ProcessFile 处理一个文件，按行号顺序返回命中的 Record。
//
// 行号从 1 开始，按解码后的物理行计数；匹配前去掉首尾空白，
// message_complet 保存去空白后的整行。
func (p Pipeline) ProcessFile(f domain.InputFile) ([]domain.Record, domain.FileResult, error) {
	fr := domain.FileResult{
		File: f.Name,
		Path: f.AbsPath,
	}

	res, err := p.Resolver.Resolve(f.AbsPath)
	if err != nil {
		return nil, fr, &FileError{Path: f.AbsPath, Op: OpRead, Err: err}
	}
	fr.Encoding = res.Attempt.Selected
	fr.Attempts = res.Attempt.Tried

	var records []domain.Record
	byType := map[string]int{}
	visit := func(n int, raw string) {
		line := strings.TrimSpace(raw)
		m, ok := p.Registry.Classify(line)
		if !ok {
			return
		}
		records = append(records, domain.BuildRecord(m, f.Name, n, line))
		byType[m.Type]++
	}

	n := 0
	if lines.IsHTML(f.Name) {
		ls, err := lines.FromHTML(res.Text)
		if err != nil {
			return nil, fr, &FileError{Path: f.AbsPath, Op: OpParse, Err: err}
		}
		for _, l := range ls {
			n++
			visit(n, l)
		}
	} else {
		sc := res.Scanner()
		for sc.Scan() {
			n++
			visit(n, sc.Text())
		}
		if err := sc.Err(); err != nil {
			return nil, fr, &FileError{Path: f.AbsPath, Op: OpRead, Err: err}
		}
	}

	fr.Lines = n
	fr.Records = len(records)
	if len(byType) > 0 {
		fr.ByType = byType
	}
	fr.Status = domain.FileStatusOK
	return records, fr, nil
}

// NewPipeline 按生效配置组装解码器与 pattern 子集。
func NewPipeline(eff config.EffectiveConfig) (Pipeline, error) {
	reg, err := warn.Builtin().Select(eff.Patterns)
	if err != nil {
		return Pipeline{}, err
	}
	return Pipeline{
		Resolver: charset.Resolver{
			Detector:   charset.NewDetector(eff.Detector, eff.MinConfidence),
			Fallbacks:  eff.FallbackEncodings,
			SampleSize: eff.SampleSize,
		},
		Registry: reg,
	}, nil
}

// Execute 执行一次 run：扫描 -> 逐文件处理 -> 写出表格。
//
// 失败语义：
// - 输出路径不可写：在读取任何输入之前返回错误
// - 文件读取失败：on_file_error=abort 时返回 *FileError；skip 时记入报告并继续
// - 没有输入文件：不是错误，照样写出只有表头的输出
//
// 即使返回错误，RunReport 也已 Finalize，包含出错之前处理完的文件。
func Execute(ctx context.Context, eff config.EffectiveConfig, log *zap.Logger, obs Observer) (domain.RunReport, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if obs == nil {
		obs = nopObserver{}
	}

	rr := domain.RunReport{
		RunID:     uuid.NewString(),
		Input:     eff.Input,
		Output:    eff.Output,
		Format:    eff.Format,
		StartedAt: time.Now().UTC(),
		Files:     make([]domain.FileResult, 0, 16),
	}
	log = log.With(zap.String("run_id", rr.RunID))
	finish := func() domain.RunReport {
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr
	}

	obs.OnStart(eff)

	p, err := NewPipeline(eff)
	if err != nil {
		return finish(), err
	}

	if err := export.Preflight(eff.Output); err != nil {
		log.Error("output not writable", zap.String("output", eff.Output), zap.Error(err))
		return finish(), err
	}

	files, err := scan.ScanInputs(eff.Input, eff.Output, eff.Report)
	if err != nil {
		return finish(), fmt.Errorf("扫描失败：%w", err)
	}
	log.Debug("scan done", zap.String("input", eff.Input), zap.Int("files", len(files)))
	if len(files) == 0 {
		log.Warn("no input files", zap.String("input", eff.Input))
		obs.OnNoInput(eff.Input)
	}

	var records []domain.Record
	total := len(files)
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return finish(), err
		}
		idx := i + 1
		obs.OnFileStart(idx, total, f)
		started := time.Now()

		recs, fr, err := processFile(p, f)
		if err != nil {
			var fe *FileError
			if eff.OnFileError != config.OnFileErrorSkip || !errors.As(err, &fe) {
				log.Error("file failed", zap.String("path", f.AbsPath), zap.Error(err))
				return finish(), err
			}
			log.Warn("file skipped", zap.String("path", f.AbsPath), zap.Error(err))
			fr.Status = domain.FileStatusSkipped
			fr.Error = err.Error()
			rr.Files = append(rr.Files, fr)
			obs.OnFileDone(idx, total, fr, time.Since(started))
			continue
		}

		if fr.Encoding == domain.ReplaceFallbackName {
			log.Warn("lossy decoding", zap.String("path", f.AbsPath), zap.Strings("attempts", fr.Attempts))
		}
		log.Info("file processed",
			zap.String("path", f.AbsPath),
			zap.String("encoding", fr.Encoding),
			zap.Int("lines", fr.Lines),
			zap.Int("records", fr.Records),
		)
		records = append(records, recs...)
		rr.Files = append(rr.Files, fr)
		obs.OnFileDone(idx, total, fr, time.Since(started))
	}

	if err := export.Write(ctx, eff.Format, eff.Output, records); err != nil {
		log.Error("write output failed", zap.String("output", eff.Output), zap.Error(err))
		return finish(), fmt.Errorf("写入输出 %q 失败：%w", eff.Output, err)
	}

	rr = finish()
	log.Info("run done",
		zap.Int("files", rr.Summary.Files),
		zap.Int("records", rr.Summary.Records),
		zap.Int("skipped", rr.Summary.Skipped),
	)
	obs.OnDone(rr)
	return rr, nil
}
