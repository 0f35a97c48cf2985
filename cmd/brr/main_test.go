package main

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/j-veylop/blockrun-report/internal/config"
	"github.com/j-veylop/blockrun-report/internal/db"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantPos []string
		wantDay string
	}{
		{"flag first", []string{"--day", "2024-01-01", "/logs"}, []string{"/logs"}, "2024-01-01"},
		{"flag last", []string{"/logs", "--day", "2024-01-02"}, []string{"/logs"}, "2024-01-02"},
		{"between", []string{"/logs", "-day=2024-01-03", "out.html"}, []string{"/logs", "out.html"}, "2024-01-03"},
		{"none", nil, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			day := fs.String("day", "", "")
			pos, err := parseArgs(fs, tt.args)
			if err != nil {
				t.Fatal(err)
			}
			if strings.Join(pos, ",") != strings.Join(tt.wantPos, ",") {
				t.Errorf("positional = %v, want %v", pos, tt.wantPos)
			}
			if *day != tt.wantDay {
				t.Errorf("day = %q, want %q", *day, tt.wantDay)
			}
		})
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if _, err := parseArgs(fs, []string{"-h"}); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("-h error = %v", err)
	}
}

func TestEnv_Manager(t *testing.T) {
	e := &env{cfg: &config.Config{LogDir: ""}}

	if _, err := e.manager("", "", false); !errors.Is(err, errMissingLogDir) {
		t.Errorf("err = %v, want errMissingLogDir", err)
	}

	if got := e.logDir([]string{"/var/log/br"}); got != "/var/log/br" || e.cfg.LogDir != "/var/log/br" {
		t.Errorf("logDir = %q", got)
	}
	e.cfg.LogDir = "/fallback"
	if got := e.logDir(nil); got != "/fallback" {
		t.Errorf("logDir fallback = %q", got)
	}
}

func writeLog(t *testing.T, dir, day, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "usage-"+day+".jsonl"), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestRunReportAndImport(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "2024-01-01",
		`{"timestamp":"2024-01-01T10:00:00Z","model":"openai/gpt-4o","tier":"SIMPLE","cost":1,"baselineCost":2,"latencyMs":100}`+"\n")

	e := &env{cfg: &config.Config{}}
	out := filepath.Join(t.TempDir(), "out.html")
	if err := runReport(e, []string{dir, out}); err != nil {
		t.Fatalf("report: %v", err)
	}
	page, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(page), "2024-01-01") {
		t.Error("report should contain the day")
	}

	dbPath := filepath.Join(t.TempDir(), "usage.db")
	e = &env{cfg: &config.Config{DatabasePath: dbPath}}
	if err := runImport(e, []string{dir}); err != nil {
		t.Fatalf("import: %v", err)
	}

	archive, err := db.New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = archive.Close() }()
	n, err := archive.CountRecords()
	if err != nil || n != 1 {
		t.Errorf("archived = %d (%v), want 1", n, err)
	}
}

func TestRunSummaryUnknownDay(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "2024-01-01", `{"model":"a","cost":1}`+"\n")

	e := &env{cfg: &config.Config{}}
	err := runSummary(e, []string{dir, "--day", "2023-12-31"})
	if err == nil || !strings.Contains(err.Error(), "2023-12-31") {
		t.Errorf("err = %v, want unknown day", err)
	}
}
