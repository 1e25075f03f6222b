package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-wkhtmltox/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidJob      = errors.New("invalid job")
	ErrNoJobs          = errors.New("no jobs defined")
	ErrInvalidValue    = errors.New("invalid value")
)

// Limits applied by Validate.
const (
	MaxPathLength  = 4096 // PATH_MAX on Linux
	MaxURLLength   = 2048 // Browser limit
	MaxNameLength  = 100  // Job name
	MaxShortLength = 50   // Page size, orientation, format, encoding
	MaxRegexLength = 1024
	MaxEnvEntries  = 256
	MaxJobs        = 1000
	MaxWorkers     = 64
	MaxQuality     = 100
)

// AppDirName is the directory under os.UserConfigDir searched for configs.
const AppDirName = "go-wkhtmltox"

// Config holds the CLI configuration.
type Config struct {
	Homes      HomesConfig       `yaml:"homes"`
	WorkingDir string            `yaml:"workingDir"` // Subprocess working directory (empty = current)
	InheritEnv *bool             `yaml:"inheritEnv"` // nil = true
	Env        map[string]string `yaml:"env"`        // Applied to every invocation
	Timeout    yamlutil.Duration `yaml:"timeout"`    // Per invocation (0 = none)
	Workers    int               `yaml:"workers"`    // Batch concurrency (0 = auto)
	Jobs       []Job             `yaml:"jobs"`
}

// HomesConfig locates the tool installations.
type HomesConfig struct {
	Wkhtmltopdf string `yaml:"wkhtmltopdf"` // Also used for wkhtmltoimage
	Calibre     string `yaml:"calibre"`
}

// Job is one batch entry. Exactly one of PDF, Image and Mirror is set.
type Job struct {
	Name   string     `yaml:"name"`
	PDF    *PDFJob    `yaml:"pdf"`
	Image  *ImageJob  `yaml:"image"`
	Mirror *MirrorJob `yaml:"mirror"`
}

// CommonJob holds the settings shared by every job kind.
type CommonJob struct {
	Env       map[string]string `yaml:"env"`
	ExtraArgs []string          `yaml:"extraArgs"`
	Verbose   bool              `yaml:"verbose"`
}

// PDFJob mirrors the wkhtmltopdf request fields.
type PDFJob struct {
	CommonJob `yaml:",inline"`

	Inputs          []string          `yaml:"inputs"`
	Output          string            `yaml:"output"`
	Collate         bool              `yaml:"collate"`
	CookieJar       string            `yaml:"cookieJar"`
	Copies          int               `yaml:"copies"`
	DPI             int               `yaml:"dpi"`
	Grayscale       bool              `yaml:"grayscale"`
	ImageDPI        int               `yaml:"imageDpi"`
	Orientation     string            `yaml:"orientation"`
	PageSize        string            `yaml:"pageSize"`
	Title           string            `yaml:"title"`
	Encoding        string            `yaml:"encoding"`
	JavaScriptDelay yamlutil.Duration `yaml:"javascriptDelay"`
}

// ImageJob mirrors the wkhtmltoimage request fields.
type ImageJob struct {
	CommonJob `yaml:",inline"`

	Input           string            `yaml:"input"`
	Output          string            `yaml:"output"`
	CookieJar       string            `yaml:"cookieJar"`
	Encoding        string            `yaml:"encoding"`
	Format          string            `yaml:"format"`
	Width           int               `yaml:"width"`
	Height          int               `yaml:"height"`
	Quality         int               `yaml:"quality"`
	JavaScriptDelay yamlutil.Duration `yaml:"javascriptDelay"`
}

// MirrorJob mirrors the web2disk request fields. MaxRecursions and Timeout
// default to the web2disk defaults when omitted.
type MirrorJob struct {
	CommonJob `yaml:",inline"`

	URL                     string             `yaml:"url"`
	BaseDir                 string             `yaml:"baseDir"`
	Delay                   yamlutil.Duration  `yaml:"delay"`
	DontDownloadStylesheets bool               `yaml:"dontDownloadStylesheets"`
	Encoding                string             `yaml:"encoding"`
	FilterRegexp            string             `yaml:"filterRegexp"`
	MatchRegexp             string             `yaml:"matchRegexp"`
	MaxFiles                int64              `yaml:"maxFiles"`
	MaxRecursions           *int               `yaml:"maxRecursions"`
	Timeout                 *yamlutil.Duration `yaml:"timeout"`
}

// Kind returns "pdf", "image", "mirror", or "" when no kind is set.
func (j *Job) Kind() string {
	switch {
	case j.PDF != nil:
		return "pdf"
	case j.Image != nil:
		return "image"
	case j.Mirror != nil:
		return "mirror"
	default:
		return ""
	}
}

// Label returns the job name, or a positional label when unnamed.
func (j *Job) Label(index int) string {
	if j.Name != "" {
		return j.Name
	}
	return fmt.Sprintf("job %d (%s)", index+1, j.Kind())
}

// ShouldInheritEnv reports whether the shell environment is passed on.
func (c *Config) ShouldInheritEnv() bool {
	return c.InheritEnv == nil || *c.InheritEnv
}

// Validate checks field lengths and value ranges.
// Called automatically by LoadConfig, but available for callers
// who construct Config manually.
func (c *Config) Validate() error {
	if err := validateFieldLength("homes.wkhtmltopdf", c.Homes.Wkhtmltopdf, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("homes.calibre", c.Homes.Calibre, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("workingDir", c.WorkingDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateEnv("env", c.Env); err != nil {
		return err
	}
	if c.Workers < 0 || c.Workers > MaxWorkers {
		return fmt.Errorf("%w: workers must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, c.Workers)
	}
	if len(c.Jobs) > MaxJobs {
		return fmt.Errorf("%w: %d jobs (max %d)", ErrInvalidValue, len(c.Jobs), MaxJobs)
	}
	return ValidateJobs(c.Jobs)
}

// ValidateJobs checks every job and rejects duplicate names.
func ValidateJobs(jobs []Job) error {
	seen := make(map[string]int, len(jobs))
	for i := range jobs {
		job := &jobs[i]
		if err := job.validate(i); err != nil {
			return err
		}
		if job.Name == "" {
			continue
		}
		if prev, dup := seen[job.Name]; dup {
			return fmt.Errorf("%w: jobs[%d]: name %q already used by jobs[%d]", ErrInvalidJob, i, job.Name, prev)
		}
		seen[job.Name] = i
	}
	return nil
}

func (j *Job) validate(i int) error {
	field := func(name string) string { return fmt.Sprintf("jobs[%d].%s", i, name) }

	set := 0
	for _, present := range []bool{j.PDF != nil, j.Image != nil, j.Mirror != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: jobs[%d]: exactly one of pdf, image, mirror is required (got %d)", ErrInvalidJob, i, set)
	}
	if err := validateFieldLength(field("name"), j.Name, MaxNameLength); err != nil {
		return err
	}

	switch {
	case j.PDF != nil:
		p := j.PDF
		if len(p.Inputs) == 0 {
			return fmt.Errorf("%w: %s: at least one input is required", ErrInvalidJob, field("pdf.inputs"))
		}
		for k, in := range p.Inputs {
			if err := validateFieldLength(field(fmt.Sprintf("pdf.inputs[%d]", k)), in, MaxURLLength); err != nil {
				return err
			}
		}
		if p.Output == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidJob, field("pdf.output"))
		}
		if err := validateFieldLength(field("pdf.output"), p.Output, MaxPathLength); err != nil {
			return err
		}
		for name, v := range map[string]int{"copies": p.Copies, "dpi": p.DPI, "imageDpi": p.ImageDPI} {
			if v < 0 {
				return fmt.Errorf("%w: %s must not be negative", ErrInvalidValue, field("pdf."+name))
			}
		}
		for name, v := range map[string]string{"orientation": p.Orientation, "pageSize": p.PageSize, "encoding": p.Encoding} {
			if err := validateFieldLength(field("pdf."+name), v, MaxShortLength); err != nil {
				return err
			}
		}
		return validateCommon(field("pdf"), &p.CommonJob)

	case j.Image != nil:
		m := j.Image
		if m.Input == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidJob, field("image.input"))
		}
		if m.Output == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidJob, field("image.output"))
		}
		if err := validateFieldLength(field("image.input"), m.Input, MaxURLLength); err != nil {
			return err
		}
		if err := validateFieldLength(field("image.format"), m.Format, MaxShortLength); err != nil {
			return err
		}
		if m.Width < 0 || m.Height < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidValue, field("image.width/height"))
		}
		if m.Quality < 0 || m.Quality > MaxQuality {
			return fmt.Errorf("%w: %s must be between 0 and %d, got %d", ErrInvalidValue, field("image.quality"), MaxQuality, m.Quality)
		}
		return validateCommon(field("image"), &m.CommonJob)

	default:
		m := j.Mirror
		if m.URL == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidJob, field("mirror.url"))
		}
		if err := validateFieldLength(field("mirror.url"), m.URL, MaxURLLength); err != nil {
			return err
		}
		if err := validateFieldLength(field("mirror.baseDir"), m.BaseDir, MaxPathLength); err != nil {
			return err
		}
		if err := validateFieldLength(field("mirror.filterRegexp"), m.FilterRegexp, MaxRegexLength); err != nil {
			return err
		}
		if err := validateFieldLength(field("mirror.matchRegexp"), m.MatchRegexp, MaxRegexLength); err != nil {
			return err
		}
		if m.MaxFiles < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidValue, field("mirror.maxFiles"))
		}
		if m.MaxRecursions != nil && *m.MaxRecursions < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidValue, field("mirror.maxRecursions"))
		}
		return validateCommon(field("mirror"), &m.CommonJob)
	}
}

func validateCommon(prefix string, c *CommonJob) error {
	return validateEnv(prefix+".env", c.Env)
}

func validateEnv(field string, env map[string]string) error {
	if len(env) > MaxEnvEntries {
		return fmt.Errorf("%w: %s has %d entries (max %d)", ErrInvalidValue, field, len(env), MaxEnvEntries)
	}
	for k := range env {
		if k == "" || strings.ContainsAny(k, "=\x00") {
			return fmt.Errorf("%w: %s: invalid variable name %q", ErrInvalidValue, field, k)
		}
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns a configuration that inherits the shell
// environment and relies on PATH and the home variables.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !isFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := decode(configPath, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// jobFile is the layout of a standalone batch file.
type jobFile struct {
	Jobs []Job `yaml:"jobs"`
}

// LoadJobs reads a batch file containing a top-level jobs list.
func LoadJobs(path string) ([]Job, error) {
	var f jobFile
	if err := decode(path, &f); err != nil {
		return nil, err
	}
	if len(f.Jobs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoJobs, path)
	}
	if len(f.Jobs) > MaxJobs {
		return nil, fmt.Errorf("%w: %d jobs (max %d)", ErrInvalidValue, len(f.Jobs), MaxJobs)
	}
	if err := ValidateJobs(f.Jobs); err != nil {
		return nil, err
	}
	return f.Jobs, nil
}

func decode(path string, v any) error {
	if err := yamlutil.DecodeFile(path, v); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	return nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// SearchPaths returns the files tried for a config name, in lookup order:
// name.yaml and name.yml in the current directory, then in
// ~/.config/go-wkhtmltox/.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2) // 2 locations

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, AppDirName, name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing file of SearchPaths.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
