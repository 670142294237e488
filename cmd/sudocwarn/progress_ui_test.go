package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/John-Robertt/sudocwarn/internal/config"
	"github.com/John-Robertt/sudocwarn/internal/domain"
)

func TestProgressUI_Lines(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf)

	p.OnStart(config.EffectiveConfig{Input: "/r/*.txt", Output: "/r/out.csv"})
	assert.Empty(t, buf.String(), "开始时不输出任何内容")

	p.OnFileStart(1, 2, domain.InputFile{AbsPath: "/r/a.txt", Name: "a.txt"})
	p.OnFileDone(1, 2, domain.FileResult{
		Encoding: "windows-1252",
		Attempts: []string{"utf-8", "utf-8-sig", "windows-1252"},
		Status:   domain.FileStatusOK,
	}, time.Millisecond)
	p.OnFileStart(2, 2, domain.InputFile{AbsPath: "/r/b.txt", Name: "b.txt"})
	p.OnFileDone(2, 2, domain.FileResult{Status: domain.FileStatusSkipped, Error: "boom"}, 0)
	p.OnDone(domain.RunReport{
		Output:  "/r/out.csv",
		Format:  "csv",
		Summary: domain.ReportSummary{Records: 3, Skipped: 1},
	})

	want := "\n--- Traitement : /r/a.txt ---\n" +
		"Encodage retenu : windows-1252 (tests : utf-8, utf-8-sig, windows-1252)\n" +
		"\n--- Traitement : /r/b.txt ---\n" +
		"Fichier ignoré : boom\n" +
		"\nCSV généré : /r/out.csv (3 lignes de WARN détectées)\n" +
		"Fichiers ignorés : 1\n"
	assert.Equal(t, want, buf.String())
}

func TestProgressUI_NoInputAndSQLite(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf)

	p.OnNoInput("/r/*.txt")
	p.OnDone(domain.RunReport{Output: "/r/w.db", Format: "sqlite"})

	assert.Equal(t, "Aucun fichier trouvé pour : /r/*.txt\n\nBase SQLite générée : /r/w.db (0 lignes de WARN détectées)\n", buf.String())
}
