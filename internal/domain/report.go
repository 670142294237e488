package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	FileStatusOK      = "ok"
	FileStatusSkipped = "skipped"
)

// RunReport 是一次 run 的摘要（--report 落盘的 JSON 结构）。
type RunReport struct {
	RunID  string `json:"run_id"`
	Input  string `json:"input"`
	Output string `json:"output"`
	Format string `json:"format"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Files   []FileResult  `json:"files"`
}

type ReportSummary struct {
	Files   int            `json:"files"`
	Records int            `json:"records"`
	Skipped int            `json:"skipped"`
	ByType  map[string]int `json:"by_type"`
}

// FileResult 是单个输入文件的处理结果。
type FileResult struct {
	File     string         `json:"file"` // basename
	Path     string         `json:"path"`
	Encoding string         `json:"encoding"`
	Attempts []string       `json:"attempts"`
	Lines    int            `json:"lines"`
	Records  int            `json:"records"`
	ByType   map[string]int `json:"by_type,omitempty"`

	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC
// 2) files 按 path 稳定排序（与处理顺序一致）
// 3) summary 由 files 计算得出
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	if r.Files == nil {
		r.Files = []FileResult{}
	}
	sort.SliceStable(r.Files, func(i, j int) bool { return r.Files[i].Path < r.Files[j].Path })

	s := ReportSummary{ByType: map[string]int{}}
	for _, f := range r.Files {
		s.Files++
		if f.Status == FileStatusSkipped {
			s.Skipped++
			continue
		}
		s.Records += f.Records
		for k, n := range f.ByType {
			s.ByType[k] += n
		}
	}
	r.Summary = s
}

// MarshalJSON 集中约束输出的稳定性；map 键由 encoding/json 排序。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
