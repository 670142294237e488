package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/sudocwarn/internal/charset"
)

func TestLoadEffective_Defaults(t *testing.T) {
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, CLIArgs{})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cwd, DefaultInput), eff.Input)
	assert.Equal(t, filepath.Join(cwd, DefaultOutput), eff.Output)
	assert.Equal(t, "csv", eff.Format)
	assert.Equal(t, "", eff.Report)
	assert.Equal(t, DefaultDetector, eff.Detector)
	assert.Equal(t, charset.DefaultMinConfidence, eff.MinConfidence)
	assert.Equal(t, charset.DefaultSampleSize, eff.SampleSize)
	assert.Equal(t, charset.DefaultFallbacks, eff.FallbackEncodings)
	assert.Equal(t, OnFileErrorAbort, eff.OnFileError)
	assert.Empty(t, eff.Patterns)
	assert.Equal(t, "warn", eff.LogLevel)
	assert.Equal(t, "console", eff.LogFormat)
	assert.Equal(t, "", eff.ConfigFile)
}

func TestLoadEffective_FileThenCLIOverride(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, DefaultConfigName), []byte(`
input: rapports/*.txt
output: out/warn.db
detector: none
min_confidence: 0.8
fallback_encodings: [utf-8, cp1252]
on_file_error: skip
patterns: [similaire_DIA107]
log:
  level: debug
  format: json
`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "rapports", "*.txt"), eff.Input)
	assert.Equal(t, filepath.Join(cwd, "out", "warn.db"), eff.Output)
	assert.Equal(t, "sqlite", eff.Format, "扩展名 .db 推断为 sqlite")
	assert.Equal(t, "none", eff.Detector)
	assert.Equal(t, 0.8, eff.MinConfidence)
	assert.Equal(t, []string{"utf-8", "cp1252"}, eff.FallbackEncodings)
	assert.Equal(t, OnFileErrorSkip, eff.OnFileError)
	assert.Equal(t, []string{"similaire_DIA107"}, eff.Patterns)
	assert.Equal(t, "debug", eff.LogLevel)
	assert.Equal(t, "json", eff.LogFormat)
	assert.Equal(t, filepath.Join(cwd, DefaultConfigName), eff.ConfigFile)

	// CLI 显式指定则覆盖配置文件。
	eff2, err := LoadEffective(cwd, CLIArgs{
		Output:         "x.csv",
		OutputSet:      true,
		OnFileError:    "abort",
		OnFileErrorSet: true,
		Patterns:       nil,
		PatternsSet:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "x.csv"), eff2.Output)
	assert.Equal(t, "csv", eff2.Format)
	assert.Equal(t, OnFileErrorAbort, eff2.OnFileError)
	assert.Empty(t, eff2.Patterns)
}

func TestLoadEffective_EnvBetweenFileAndCLI(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, DefaultConfigName), []byte("output: file.csv\nlog:\n  level: error\n"))
	t.Setenv("SUDOCWARN_OUTPUT", "env.csv")
	t.Setenv("SUDOCWARN_LOG_LEVEL", "info")
	t.Setenv("SUDOCWARN_FALLBACK_ENCODINGS", "utf-8,latin-1")

	eff, err := LoadEffective(cwd, CLIArgs{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "env.csv"), eff.Output)
	assert.Equal(t, "info", eff.LogLevel)
	assert.Equal(t, []string{"utf-8", "latin-1"}, eff.FallbackEncodings)

	eff, err = LoadEffective(cwd, CLIArgs{Output: "cli.csv", OutputSet: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "cli.csv"), eff.Output)
}

func TestLoadEffective_ExplicitConfigNotFound(t *testing.T) {
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{ConfigPath: "nope.yaml"})
	assert.Equal(t, ErrCodeNotFound, Code(err), "err=%v", err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadEffective_ExplicitConfigPath(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "custom.yaml"), []byte("detector: none\n"))

	eff, err := LoadEffective(cwd, CLIArgs{ConfigPath: "custom.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "none", eff.Detector)
	assert.Equal(t, filepath.Join(cwd, "custom.yaml"), eff.ConfigFile)
}

func TestLoadEffective_Invalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		cli  CLIArgs
	}{
		{name: "bad yaml", yaml: "input: [\n"},
		{name: "bad detector", yaml: "detector: magic\n"},
		{name: "confidence out of range", yaml: "min_confidence: 1.5\n"},
		{name: "negative sample", yaml: "sample_size: -1\n"},
		{name: "unknown encoding", yaml: "fallback_encodings: [utf-8, klingon]\n"},
		{name: "bad on_file_error", yaml: "on_file_error: retry\n"},
		{name: "unknown pattern", yaml: "patterns: [nope]\n"},
		{name: "bad log level", yaml: "log:\n  level: loud\n"},
		{name: "bad log format", yaml: "log:\n  format: xml\n"},
		{name: "bad format", cli: CLIArgs{Format: "xlsx", FormatSet: true}},
		{name: "empty output", cli: CLIArgs{Output: " ", OutputSet: true}},
		{name: "bad glob", cli: CLIArgs{Input: "[", InputSet: true}},
		{name: "report equals output", cli: CLIArgs{Output: "a.csv", OutputSet: true, Report: "a.csv", ReportSet: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cwd := t.TempDir()
			if tc.yaml != "" {
				writeFile(t, filepath.Join(cwd, DefaultConfigName), []byte(tc.yaml))
			}
			_, err := LoadEffective(cwd, tc.cli)
			assert.Equal(t, ErrCodeInvalid, Code(err), "err=%v", err)
		})
	}
}

func TestLoadEffective_ReportResolved(t *testing.T) {
	cwd := t.TempDir()
	eff, err := LoadEffective(cwd, CLIArgs{Report: "cache/report.json", ReportSet: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "cache", "report.json"), eff.Report)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "input", envKey("SUDOCWARN_INPUT"))
	assert.Equal(t, "log.level", envKey("SUDOCWARN_LOG_LEVEL"))
	assert.Equal(t, "on_file_error", envKey("SUDOCWARN_ON_FILE_ERROR"))

	k, v := envKeyValue("SUDOCWARN_PATTERNS", "a,b")
	assert.Equal(t, "patterns", k)
	assert.Equal(t, []string{"a", "b"}, v)

	k, v = envKeyValue("SUDOCWARN_DETECTOR", "none")
	assert.Equal(t, "detector", k)
	assert.Equal(t, "none", v)
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, b, 0o644))
}
