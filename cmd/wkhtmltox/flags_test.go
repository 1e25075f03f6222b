package main

// Notes:
// - Flag parsing is tested per command through the parse functions; the
//   wiring of parsed values into requests is covered in main_test.go.
// - resolveWorkers auto mode depends on GOMAXPROCS, so only its bounds
//   are asserted.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-wkhtmltox/internal/config"
	flag "github.com/spf13/pflag"
)

// ---------------------------------------------------------------------------
// TestParsePDFFlags - pdf command flags
// ---------------------------------------------------------------------------

func TestParsePDFFlags(t *testing.T) {
	t.Parallel()

	f, rest, err := parsePDFFlags([]string{
		"a.html", "-o", "out.pdf", "-s", "Letter", "-O", "Portrait", "-d", "96",
		"--image-dpi", "150", "--cookie-jar", "jar.txt", "--encoding", "utf-8",
		"-c", "ci", "--home", "/opt/wkhtmltox", "--timeout", "30s", "b.html",
	})
	if err != nil {
		t.Fatalf("parsePDFFlags() error = %v", err)
	}
	if strings.Join(rest, ",") != "a.html,b.html" {
		t.Errorf("rest = %v", rest)
	}
	if f.output != "out.pdf" || f.pageSize != "Letter" || f.orientation != "Portrait" {
		t.Errorf("strings = %+v", f)
	}
	if f.dpi != 96 || f.imageDPI != 150 || f.cookieJar != "jar.txt" || f.encoding != "utf-8" {
		t.Errorf("options = %+v", f)
	}
	if f.common.config != "ci" || f.common.home != "/opt/wkhtmltox" {
		t.Errorf("common = %+v", f.common)
	}
	if !f.common.timeoutSet || f.common.timeout != 30*time.Second {
		t.Errorf("timeout = %v (set %v)", f.common.timeout, f.common.timeoutSet)
	}
	if f.common.logFormat != "text" {
		t.Errorf("logFormat = %q, want text", f.common.logFormat)
	}
}

func TestParsePDFFlags_TimeoutNotSet(t *testing.T) {
	t.Parallel()

	f, _, err := parsePDFFlags([]string{"a.html"})
	if err != nil {
		t.Fatalf("parsePDFFlags() error = %v", err)
	}
	if f.common.timeoutSet {
		t.Error("timeoutSet = true without --timeout")
	}
}

func TestParseImageFlags(t *testing.T) {
	t.Parallel()

	f, rest, err := parseImageFlags([]string{
		"page.html", "-o", "x.png", "-f", "png", "--width", "800", "--height", "600",
		"--quality", "90", "--javascript-delay", "1s", "--extra=--zoom", "--extra", "2",
	})
	if err != nil {
		t.Fatalf("parseImageFlags() error = %v", err)
	}
	if len(rest) != 1 || rest[0] != "page.html" {
		t.Errorf("rest = %v", rest)
	}
	if f.format != "png" || f.width != 800 || f.height != 600 || f.quality != 90 || f.jsDelay != time.Second {
		t.Errorf("flags = %+v", f)
	}
	if strings.Join(f.common.extra, " ") != "--zoom 2" {
		t.Errorf("extra = %v", f.common.extra)
	}
}

func TestParseMirrorFlags(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		f, rest, err := parseMirrorFlags([]string{"https://example.com"})
		if err != nil {
			t.Fatalf("parseMirrorFlags() error = %v", err)
		}
		if len(rest) != 1 {
			t.Errorf("rest = %v", rest)
		}
		if f.maxRecursions != 1 || f.fetchTimeout != 10*time.Second || f.maxFiles != 0 {
			t.Errorf("defaults = recursions %d, timeout %v, files %d", f.maxRecursions, f.fetchTimeout, f.maxFiles)
		}
	})

	t.Run("values", func(t *testing.T) {
		t.Parallel()

		f, _, err := parseMirrorFlags([]string{
			"https://example.com", "-r", "3", "-n", "500", "--fetch-timeout", "1m",
			"--filter-regexp", `\.zip$`, "--dont-download-stylesheets",
		})
		if err != nil {
			t.Fatalf("parseMirrorFlags() error = %v", err)
		}
		if f.maxRecursions != 3 || f.maxFiles != 500 || f.fetchTimeout != time.Minute {
			t.Errorf("flags = %+v", f)
		}
		if f.filter != `\.zip$` || !f.dontDownloadStylesheets {
			t.Errorf("flags = %+v", f)
		}
	})
}

// ---------------------------------------------------------------------------
// TestParseFlags_Errors - Invalid flags across commands
// ---------------------------------------------------------------------------

func TestParseFlags_Errors(t *testing.T) {
	t.Parallel()

	pdf := func(args []string) error { _, _, err := parsePDFFlags(args); return err }
	mirror := func(args []string) error { _, _, err := parseMirrorFlags(args); return err }
	batch := func(args []string) error { _, _, err := parseBatchFlags(args); return err }
	doctor := func(args []string) error { _, err := parseDoctorFlags(args); return err }
	verify := func(args []string) error { _, _, err := parseVerifyFlags(args); return err }

	tests := []struct {
		name  string
		parse func([]string) error
		args  []string
		want  error
	}{
		{"help", pdf, []string{"--help"}, flag.ErrHelp},
		{"short help", mirror, []string{"-h"}, flag.ErrHelp},
		{"unknown flag", pdf, []string{"--nope"}, ErrInvalidFlags},
		{"missing value", pdf, []string{"-o"}, ErrInvalidFlags},
		{"bad integer", pdf, []string{"--copies", "two"}, ErrInvalidFlags},
		{"bad duration", mirror, []string{"--delay", "soon"}, ErrInvalidFlags},
		{"negative timeout", pdf, []string{"--timeout=-1s"}, ErrInvalidFlags},
		{"verbose and quiet", mirror, []string{"-v", "-q"}, ErrInvalidFlags},
		{"negative workers", batch, []string{"--workers=-2"}, ErrInvalidFlags},
		{"doctor arguments", doctor, []string{"extra"}, ErrInvalidFlags},
		{"negative min pages", verify, []string{"--min-pages=-1", "a.pdf"}, ErrInvalidFlags},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.parse(tt.args)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseBatchFlags(t *testing.T) {
	t.Parallel()

	f, rest, err := parseBatchFlags([]string{"jobs.yaml", "-w", "4", "--fail-fast"})
	if err != nil {
		t.Fatalf("parseBatchFlags() error = %v", err)
	}
	if len(rest) != 1 || f.workers != 4 || !f.failFast {
		t.Errorf("flags = %+v, rest = %v", f, rest)
	}
}

func TestParseVerifyFlags(t *testing.T) {
	t.Parallel()

	f, rest, err := parseVerifyFlags([]string{"out.pdf", "--contains", "a, b", "--contains", "c", "--min-pages", "2", "--json"})
	if err != nil {
		t.Fatalf("parseVerifyFlags() error = %v", err)
	}
	if len(rest) != 1 || rest[0] != "out.pdf" {
		t.Errorf("rest = %v", rest)
	}
	if len(f.contains) != 2 || f.contains[0] != "a, b" {
		t.Errorf("contains = %q, want commas kept", f.contains)
	}
	if f.minPages != 2 || !f.json {
		t.Errorf("flags = %+v", f)
	}
}

// ---------------------------------------------------------------------------
// TestParseEnvFlags - KEY=VALUE parsing
// ---------------------------------------------------------------------------

func TestParseEnvFlags(t *testing.T) {
	t.Parallel()

	got, err := parseEnvFlags([]string{"A=1", "B=x=y", "EMPTY=", "A=2"})
	if err != nil {
		t.Fatalf("parseEnvFlags() error = %v", err)
	}
	if got["A"] != "2" || got["B"] != "x=y" || len(got) != 3 {
		t.Errorf("parseEnvFlags() = %v", got)
	}
	if v, ok := got["EMPTY"]; !ok || v != "" {
		t.Errorf("EMPTY = %q, %v", v, ok)
	}

	for _, bad := range []string{"NOVALUE", "=value"} {
		if _, err := parseEnvFlags([]string{bad}); !errors.Is(err, ErrInvalidEnvFlag) {
			t.Errorf("parseEnvFlags(%q) error = %v, want ErrInvalidEnvFlag", bad, err)
		}
	}
}

// ---------------------------------------------------------------------------
// TestLogLevel / TestNewLogger
// ---------------------------------------------------------------------------

func TestLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		verbose, quiet bool
		want           slog.Level
	}{
		{false, false, slog.LevelWarn},
		{true, false, slog.LevelDebug},
		{false, true, slog.LevelError},
	}
	for _, tt := range tests {
		if got := logLevel(tt.verbose, tt.quiet); got != tt.want {
			t.Errorf("logLevel(%v, %v) = %v, want %v", tt.verbose, tt.quiet, got, tt.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger, err := newLogger(&buf, "json", slog.LevelInfo)
		if err != nil {
			t.Fatalf("newLogger() error = %v", err)
		}
		logger.Debug("hidden")
		logger.Info("shown", "tool", "wkhtmltopdf")
		out := buf.String()
		if strings.Contains(out, "hidden") {
			t.Errorf("debug record below level was written: %s", out)
		}
		if !strings.Contains(out, `"tool":"wkhtmltopdf"`) {
			t.Errorf("output = %s, want JSON attributes", out)
		}
	})

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger, err := newLogger(&buf, "text", slog.LevelDebug)
		if err != nil {
			t.Fatalf("newLogger() error = %v", err)
		}
		logger.Debug("starting", "id", "abc")
		if !strings.Contains(buf.String(), "id=abc") {
			t.Errorf("output = %s", buf.String())
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()

		if _, err := newLogger(&bytes.Buffer{}, "xml", slog.LevelInfo); !errors.Is(err, ErrInvalidFlags) {
			t.Errorf("error = %v, want ErrInvalidFlags", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestResolveWorkers - Batch concurrency
// ---------------------------------------------------------------------------

func TestResolveWorkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		explicit int
		jobs     int
		want     int
	}{
		{"explicit", 4, 10, 4},
		{"capped by jobs", 8, 3, 3},
		{"capped by max", config.MaxWorkers + 10, 1000, config.MaxWorkers},
		{"single job", 0, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := resolveWorkers(tt.explicit, tt.jobs); got != tt.want {
				t.Errorf("resolveWorkers(%d, %d) = %d, want %d", tt.explicit, tt.jobs, got, tt.want)
			}
		})
	}

	t.Run("auto is bounded", func(t *testing.T) {
		t.Parallel()

		got := resolveWorkers(0, 100)
		if got < 1 || got > 8 {
			t.Errorf("resolveWorkers(0, 100) = %d, want 1..8", got)
		}
	})
}

// ---------------------------------------------------------------------------
// TestBatchJobs - Job source selection
// ---------------------------------------------------------------------------

func TestBatchJobs(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Jobs: []config.Job{{Mirror: &config.MirrorJob{URL: "https://example.com"}}}}

	jobs, err := batchJobs(cfg, nil)
	if err != nil || len(jobs) != 1 {
		t.Errorf("batchJobs(config) = %v, %v", jobs, err)
	}
	if _, err := batchJobs(config.DefaultConfig(), nil); !errors.Is(err, config.ErrNoJobs) {
		t.Errorf("empty config error = %v, want ErrNoJobs", err)
	}
	if _, err := batchJobs(cfg, []string{"a.yaml", "b.yaml"}); !errors.Is(err, ErrTooManyInputs) {
		t.Errorf("two files error = %v, want ErrTooManyInputs", err)
	}
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := batchJobs(cfg, []string{missing}); !errors.Is(err, config.ErrConfigNotFound) {
		t.Errorf("missing file error = %v, want ErrConfigNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// TestSettings_WithTimeout
// ---------------------------------------------------------------------------

func TestSettings_WithTimeout(t *testing.T) {
	t.Parallel()

	ctx, cancel := (&settings{}).withTimeout(context.Background())
	defer cancel()
	if _, ok := ctx.Deadline(); ok {
		t.Error("zero timeout set a deadline")
	}

	ctx, cancel = (&settings{timeout: time.Minute}).withTimeout(context.Background())
	defer cancel()
	if _, ok := ctx.Deadline(); !ok {
		t.Error("timeout did not set a deadline")
	}
}

// ---------------------------------------------------------------------------
// TestSettings_ResolvePath - Relative paths follow --working-dir
// ---------------------------------------------------------------------------

func TestSettings_ResolvePath(t *testing.T) {
	t.Parallel()

	wd := t.TempDir()
	abs := filepath.Join(wd, "abs.pdf")

	tests := []struct {
		name       string
		workingDir string
		path       string
		want       string
	}{
		{"no working dir", "", filepath.Join("sub", "out.pdf"), filepath.Join("sub", "out.pdf")},
		{"relative under working dir", wd, filepath.Join("sub", "out.pdf"), filepath.Join(wd, "sub", "out.pdf")},
		{"absolute unchanged", wd, abs, abs},
		{"empty unchanged", wd, "", ""},
		{"stdio unchanged", wd, "-", "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := &settings{workingDir: tt.workingDir}
			if got := s.resolvePath(tt.path); got != tt.want {
				t.Errorf("resolvePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
