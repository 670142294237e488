package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReport_Finalize_SortAndSummaryAndUTC(t *testing.T) {
	r := RunReport{
		RunID:      "r1",
		StartedAt:  time.Date(2026, 2, 9, 10, 0, 0, 0, time.FixedZone("X", 8*3600)),
		FinishedAt: time.Date(2026, 2, 9, 10, 0, 1, 0, time.FixedZone("X", 8*3600)),
		Files: []FileResult{
			{Path: "/r/b.txt", Status: FileStatusOK, Records: 2, ByType: map[string]int{"similaire_DIA107": 2}},
			{Path: "/r/c.txt", Status: FileStatusSkipped, Error: "permission denied"},
			{Path: "/r/a.txt", Status: FileStatusOK, Records: 1, ByType: map[string]int{"code_barres_deja_present": 1}},
		},
	}

	r.Finalize()

	require.Len(t, r.Files, 3)
	assert.Equal(t, "/r/a.txt", r.Files[0].Path)
	assert.Equal(t, "/r/b.txt", r.Files[1].Path)
	assert.Equal(t, "/r/c.txt", r.Files[2].Path)

	assert.Equal(t, 3, r.Summary.Files)
	assert.Equal(t, 3, r.Summary.Records)
	assert.Equal(t, 1, r.Summary.Skipped)
	assert.Equal(t, map[string]int{"similaire_DIA107": 2, "code_barres_deja_present": 1}, r.Summary.ByType)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	// time.Time 在 UTC 下应输出 'Z' 后缀。
	assert.Contains(t, string(b), `"started_at":"2026-02-09T02:00:00Z"`)
}

func TestRunReport_Finalize_EmptyFilesIsArray(t *testing.T) {
	var r RunReport
	r.Finalize()

	b, err := json.Marshal(r)
	require.NoError(t, err)
	// 空输入时 files 必须是 []，不是 null。
	assert.Contains(t, string(b), `"files":[]`)
	assert.Equal(t, 0, r.Summary.Records)
}
