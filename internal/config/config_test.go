package config

// Notes:
// - Name resolution tests change the working directory and the user config
//   directory (t.Chdir / t.Setenv), so they cannot run in parallel.
// - Duration parsing details are covered in internal/yamlutil.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

const fullConfig = `
homes:
  wkhtmltopdf: /opt/wkhtmltox
  calibre: /opt/calibre
workingDir: /srv/out
inheritEnv: false
env:
  LANG: C.UTF-8
timeout: 2m
workers: 4
jobs:
  - name: report
    pdf:
      inputs: [https://example.com/report]
      output: report.pdf
      pageSize: A4
      grayscale: true
      javascriptDelay: 500ms
      extraArgs: [--no-outline]
  - name: thumbnail
    image:
      input: https://example.com
      output: thumb.png
      width: 320
      quality: 80
  - mirror:
      url: https://example.com/docs
      baseDir: mirror
      delay: 2
      filterRegexp: \.zip$
      maxRecursions: 0
      env:
        http_proxy: http://proxy:3128
`

// ---------------------------------------------------------------------------
// TestLoadConfig - Parsing and validation of a file path
// ---------------------------------------------------------------------------

func TestLoadConfig_Full(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "wkhtmltox.yaml", fullConfig)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Homes.Wkhtmltopdf != "/opt/wkhtmltox" || cfg.Homes.Calibre != "/opt/calibre" {
		t.Errorf("Homes = %+v", cfg.Homes)
	}
	if cfg.WorkingDir != "/srv/out" {
		t.Errorf("WorkingDir = %q", cfg.WorkingDir)
	}
	if cfg.ShouldInheritEnv() {
		t.Error("ShouldInheritEnv() = true, want false")
	}
	if cfg.Env["LANG"] != "C.UTF-8" {
		t.Errorf("Env = %v", cfg.Env)
	}
	if cfg.Timeout.Std() != 2*time.Minute {
		t.Errorf("Timeout = %v, want 2m", cfg.Timeout.Std())
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if len(cfg.Jobs) != 3 {
		t.Fatalf("got %d jobs, want 3", len(cfg.Jobs))
	}

	pdf := cfg.Jobs[0].PDF
	if pdf == nil || pdf.PageSize != "A4" || !pdf.Grayscale || pdf.JavaScriptDelay.Std() != 500*time.Millisecond {
		t.Errorf("pdf job = %+v", pdf)
	}
	if len(pdf.ExtraArgs) != 1 || pdf.ExtraArgs[0] != "--no-outline" {
		t.Errorf("pdf extraArgs = %v", pdf.ExtraArgs)
	}

	img := cfg.Jobs[1].Image
	if img == nil || img.Width != 320 || img.Quality != 80 {
		t.Errorf("image job = %+v", img)
	}

	mirror := cfg.Jobs[2].Mirror
	if mirror == nil {
		t.Fatal("mirror job not decoded")
	}
	if mirror.Delay.Std() != 2*time.Second {
		t.Errorf("mirror delay = %v, want 2s", mirror.Delay.Std())
	}
	if mirror.MaxRecursions == nil || *mirror.MaxRecursions != 0 {
		t.Errorf("mirror maxRecursions = %v, want explicit 0", mirror.MaxRecursions)
	}
	if mirror.Timeout != nil {
		t.Errorf("mirror timeout = %v, want unset", mirror.Timeout)
	}
	if mirror.Env["http_proxy"] != "http://proxy:3128" {
		t.Errorf("mirror env = %v", mirror.Env)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"unknown key", "homes:\n  wkhtmlpdf: /opt\n", ErrConfigParse},
		{"bad duration", "timeout: later\n", ErrConfigParse},
		{"empty file", "", ErrConfigParse},
		{"negative workers", "workers: -1\n", ErrInvalidValue},
		{"too many workers", "workers: 1000\n", ErrInvalidValue},
		{"invalid env key", "env:\n  \"A=B\": x\n", ErrInvalidValue},
		{"home too long", "homes:\n  calibre: " + strings.Repeat("a", MaxPathLength+1) + "\n", ErrFieldTooLong},
		{"job without kind", "jobs:\n  - name: x\n", ErrInvalidJob},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeFile(t, dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml", tt.content)
			_, err := LoadConfig(path)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadConfig() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_EmptyName(t *testing.T) {
	t.Parallel()

	if _, err := LoadConfig(""); !errors.Is(err, ErrEmptyConfigName) {
		t.Errorf("error = %v, want ErrEmptyConfigName", err)
	}
}

func TestLoadConfig_MissingPath(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("error = %v, want ErrConfigNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// TestResolveConfigPath - Lookup by name
// ---------------------------------------------------------------------------

func isolateConfigDirs(t *testing.T) (cwd, userDir string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("AppData", filepath.Join(home, "AppData"))

	base, err := os.UserConfigDir()
	if err != nil {
		t.Skipf("no user config dir: %v", err)
	}
	cwd = t.TempDir()
	t.Chdir(cwd)
	return cwd, filepath.Join(base, AppDirName)
}

func TestResolveConfigPath_CurrentDirFirst(t *testing.T) {
	cwd, userDir := isolateConfigDirs(t)
	writeFile(t, cwd, "work.yaml", "workers: 1\n")
	writeFile(t, userDir, "work.yaml", "workers: 2\n")

	cfg, err := LoadConfig("work")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Workers != 1 {
		t.Errorf("Workers = %d, want 1 (current directory)", cfg.Workers)
	}
}

func TestResolveConfigPath_UserDirAndYml(t *testing.T) {
	_, userDir := isolateConfigDirs(t)
	writeFile(t, userDir, "work.yml", "workers: 2\n")

	cfg, err := LoadConfig("work")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2 (user config dir)", cfg.Workers)
	}
}

func TestResolveConfigPath_NotFoundListsTriedPaths(t *testing.T) {
	_, userDir := isolateConfigDirs(t)

	_, err := LoadConfig("absent")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("error = %v, want ErrConfigNotFound", err)
	}
	for _, want := range []string{"absent.yaml", "absent.yml", filepath.Join(userDir, "absent.yaml")} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestSearchPaths(t *testing.T) {
	_, userDir := isolateConfigDirs(t)

	got := SearchPaths("work")
	want := []string{
		"work.yaml",
		"work.yml",
		filepath.Join(userDir, "work.yaml"),
		filepath.Join(userDir, "work.yml"),
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("SearchPaths = %v, want %v", got, want)
	}
}

// ---------------------------------------------------------------------------
// TestValidateJobs - Job shape and values
// ---------------------------------------------------------------------------

func TestValidateJobs(t *testing.T) {
	t.Parallel()

	neg := -1

	tests := []struct {
		name    string
		jobs    []Job
		wantErr error
	}{
		{"empty list", nil, nil},
		{"valid pdf", []Job{{PDF: &PDFJob{Inputs: []string{"a"}, Output: "b"}}}, nil},
		{"valid mirror", []Job{{Mirror: &MirrorJob{URL: "u"}}}, nil},
		{"no kind", []Job{{Name: "x"}}, ErrInvalidJob},
		{"two kinds", []Job{{PDF: &PDFJob{Inputs: []string{"a"}, Output: "b"}, Mirror: &MirrorJob{URL: "u"}}}, ErrInvalidJob},
		{"pdf without inputs", []Job{{PDF: &PDFJob{Output: "b"}}}, ErrInvalidJob},
		{"pdf without output", []Job{{PDF: &PDFJob{Inputs: []string{"a"}}}}, ErrInvalidJob},
		{"pdf negative dpi", []Job{{PDF: &PDFJob{Inputs: []string{"a"}, Output: "b", DPI: -1}}}, ErrInvalidValue},
		{"image without output", []Job{{Image: &ImageJob{Input: "a"}}}, ErrInvalidJob},
		{"image quality", []Job{{Image: &ImageJob{Input: "a", Output: "b", Quality: 101}}}, ErrInvalidValue},
		{"image negative width", []Job{{Image: &ImageJob{Input: "a", Output: "b", Width: -1}}}, ErrInvalidValue},
		{"mirror without url", []Job{{Mirror: &MirrorJob{}}}, ErrInvalidJob},
		{"mirror negative recursions", []Job{{Mirror: &MirrorJob{URL: "u", MaxRecursions: &neg}}}, ErrInvalidValue},
		{"mirror bad env", []Job{{Mirror: &MirrorJob{URL: "u", CommonJob: CommonJob{Env: map[string]string{"": "x"}}}}}, ErrInvalidValue},
		{
			name: "duplicate names",
			jobs: []Job{
				{Name: "same", Mirror: &MirrorJob{URL: "u"}},
				{Name: "same", Mirror: &MirrorJob{URL: "v"}},
			},
			wantErr: ErrInvalidJob,
		},
		{
			name:    "name too long",
			jobs:    []Job{{Name: strings.Repeat("n", MaxNameLength+1), Mirror: &MirrorJob{URL: "u"}}},
			wantErr: ErrFieldTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateJobs(tt.jobs)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateJobs() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateJobs() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestJob_KindAndLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		job       Job
		wantKind  string
		wantLabel string
	}{
		{Job{PDF: &PDFJob{}}, "pdf", "job 1 (pdf)"},
		{Job{Image: &ImageJob{}}, "image", "job 1 (image)"},
		{Job{Name: "site", Mirror: &MirrorJob{}}, "mirror", "site"},
		{Job{}, "", "job 1 ()"},
	}

	for _, tt := range tests {
		if got := tt.job.Kind(); got != tt.wantKind {
			t.Errorf("Kind() = %q, want %q", got, tt.wantKind)
		}
		if got := tt.job.Label(0); got != tt.wantLabel {
			t.Errorf("Label(0) = %q, want %q", got, tt.wantLabel)
		}
	}
}

// ---------------------------------------------------------------------------
// TestLoadJobs - Standalone batch files
// ---------------------------------------------------------------------------

func TestLoadJobs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := writeFile(t, dir, "jobs.yaml", "jobs:\n  - mirror:\n      url: https://example.com\n")
		jobs, err := LoadJobs(path)
		if err != nil {
			t.Fatalf("LoadJobs: %v", err)
		}
		if len(jobs) != 1 || jobs[0].Kind() != "mirror" {
			t.Errorf("jobs = %+v", jobs)
		}
	})

	t.Run("no jobs", func(t *testing.T) {
		path := writeFile(t, dir, "empty.yaml", "jobs: []\n")
		if _, err := LoadJobs(path); !errors.Is(err, ErrNoJobs) {
			t.Errorf("error = %v, want ErrNoJobs", err)
		}
	})

	t.Run("config keys are rejected", func(t *testing.T) {
		path := writeFile(t, dir, "mixed.yaml", "workers: 2\njobs:\n  - mirror:\n      url: u\n")
		if _, err := LoadJobs(path); !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("invalid job", func(t *testing.T) {
		path := writeFile(t, dir, "bad.yaml", "jobs:\n  - image:\n      input: a\n")
		if _, err := LoadJobs(path); !errors.Is(err, ErrInvalidJob) {
			t.Errorf("error = %v, want ErrInvalidJob", err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := LoadJobs(filepath.Join(dir, "none.yaml")); !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestDefaultConfig
// ---------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if !cfg.ShouldInheritEnv() {
		t.Error("default config should inherit the shell environment")
	}
	if cfg.Workers != 0 || cfg.Timeout != 0 || len(cfg.Jobs) != 0 {
		t.Errorf("DefaultConfig() = %+v, want zero settings", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestValidateFieldLength(t *testing.T) {
	t.Parallel()

	if err := validateFieldLength("f", "1234567890", 10); err != nil {
		t.Errorf("value at limit: %v", err)
	}
	err := validateFieldLength("f.g", "12345678901", 10)
	if !errors.Is(err, ErrFieldTooLong) || !strings.Contains(err.Error(), "f.g") {
		t.Errorf("error = %v, want ErrFieldTooLong naming f.g", err)
	}
}
