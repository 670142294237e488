package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/John-Robertt/sudocwarn/internal/app/run"
	"github.com/John-Robertt/sudocwarn/internal/config"
	"github.com/John-Robertt/sudocwarn/internal/domain"
	"github.com/John-Robertt/sudocwarn/internal/export"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 输出面向使用者的法语进度行（不是机器可读格式）。
//
// - 每个文件：一行标题 + 一行编码选择（含尝试链路）
// - 结束：一行汇总（输出路径 + 记录数）
// 诊断日志走 zap/stderr，这里只写 w。
type progressUI struct {
	w io.Writer
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w}
}

// OnStart 不输出：控制台只有逐文件的两行和最后的汇总。
func (p *progressUI) OnStart(config.EffectiveConfig) {}

func (p *progressUI) OnNoInput(pattern string) {
	fmt.Fprintf(p.w, "Aucun fichier trouvé pour : %s\n", pattern)
}

func (p *progressUI) OnFileStart(idx, total int, f domain.InputFile) {
	fmt.Fprintf(p.w, "\n--- Traitement : %s ---\n", f.AbsPath)
}

func (p *progressUI) OnFileDone(idx, total int, res domain.FileResult, dur time.Duration) {
	if res.Status == domain.FileStatusSkipped {
		fmt.Fprintf(p.w, "Fichier ignoré : %s\n", res.Error)
		return
	}
	fmt.Fprintf(p.w, "Encodage retenu : %s (tests : %s)\n", res.Encoding, strings.Join(res.Attempts, ", "))
}

func (p *progressUI) OnDone(rr domain.RunReport) {
	what := "CSV généré"
	if rr.Format == export.FormatSQLite {
		what = "Base SQLite générée"
	}
	fmt.Fprintf(p.w, "\n%s : %s (%d lignes de WARN détectées)\n", what, rr.Output, rr.Summary.Records)
	if rr.Summary.Skipped > 0 {
		fmt.Fprintf(p.w, "Fichiers ignorés : %d\n", rr.Summary.Skipped)
	}
}
