package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	wkhtmltox "github.com/alnah/go-wkhtmltox"
	"github.com/alnah/go-wkhtmltox/internal/config"
	flag "github.com/spf13/pflag"
)

// versionTimeout bounds each "--version" probe.
const versionTimeout = 10 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Tools    []toolInfo `json:"tools"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// toolInfo holds the detection result of one executable.
type toolInfo struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Found    bool   `json:"found"`
	Path     string `json:"path,omitempty"`
	Version  string `json:"version,omitempty"`
	HomeEnv  string `json:"home_env"`
	Home     string `json:"home,omitempty"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	Config        string `json:"config,omitempty"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	f, err := parseDoctorFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		printDoctorUsage(env.Stdout)
		return ExitSuccess
	}
	if err != nil {
		return reportError(env, err)
	}

	result := runDoctor(ctx, env, f)

	if f.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, env *Environment, f *doctorFlags) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
	}

	cfg := checkConfig(env, f, result)
	checkEnvironment(env, result)
	for _, tool := range []wkhtmltox.Tool{wkhtmltox.ToolPDF, wkhtmltox.ToolImage, wkhtmltox.ToolMirror} {
		checkTool(ctx, env, cfg, f, tool, result)
	}
	checkSystem(result)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkConfig loads the config the tool commands would use.
func checkConfig(env *Environment, f *doctorFlags, result *doctorResult) *config.Config {
	name := f.config
	if name == "" {
		name = env.getenv(envPrefix + "CONFIG")
	}
	cfg, err := loadConfig(env, name)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return config.DefaultConfig()
	}
	switch {
	case name != "":
		result.Env.Config = name
	case env.ConfigName != "":
		result.Env.Config = env.ConfigName + " (if present)"
	}
	return cfg
}

// checkTool locates tool and probes its version.
// wkhtmltopdf and wkhtmltoimage are required; web2disk is optional.
func checkTool(ctx context.Context, env *Environment, cfg *config.Config, f *doctorFlags, tool wkhtmltox.Tool, result *doctorResult) {
	info := toolInfo{
		Name:     tool.String(),
		Required: tool != wkhtmltox.ToolMirror,
		HomeEnv:  tool.HomeEnv(),
	}

	s := &settings{cfg: cfg, home: f.home}
	if s.home == "" {
		s.home = env.getenv(envPrefix + "HOME")
	}

	b := wkhtmltox.NewCommandLineBuilder(slog.New(slog.DiscardHandler))
	b.Home = s.homeFor(tool)
	b.ShellEnv = env.Environ()

	info.Home = b.Home
	if info.Home == "" {
		info.Home = env.getenv(tool.HomeEnv())
	}

	cli, err := b.Build(probeRequest(tool))
	if err != nil {
		msg := fmt.Sprintf("%s not found: %v", tool, err)
		if info.Required {
			result.Errors = append(result.Errors, msg)
		} else {
			result.Warnings = append(result.Warnings, msg+" (only needed by mirror)")
		}
		result.Tools = append(result.Tools, info)
		return
	}

	info.Found = true
	info.Path = cli.Executable

	version, err := probeVersion(ctx, cli)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get %s version: %v", tool, err))
	}
	info.Version = version

	// Distro builds lack the patched Qt: headers, footers and TOC are ignored.
	if tool != wkhtmltox.ToolMirror && version != "" && !strings.Contains(version, "patched qt") {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%s is not built with patched Qt; some options are ignored", tool))
	}

	result.Tools = append(result.Tools, info)
}

// probeRequest returns a minimal valid request for tool.
func probeRequest(tool wkhtmltox.Tool) wkhtmltox.Request {
	switch tool {
	case wkhtmltox.ToolImage:
		return &wkhtmltox.ImageRequest{Input: "-", Output: "doctor.png"}
	case wkhtmltox.ToolMirror:
		return wkhtmltox.NewMirrorRequest("http://localhost/")
	default:
		return &wkhtmltox.PDFRequest{Inputs: []string{"-"}, Output: "doctor.pdf"}
	}
}

// probeVersion runs "<executable> --version" with the environment a real
// invocation would get and returns the first output line.
func probeVersion(ctx context.Context, cli *wkhtmltox.CommandLine) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, cli.Executable, "--version") // #nosec G204 -- resolved tool path
	cmd.Env = cli.Environ()
	cmd.Dir = cli.Dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line), nil
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(env *Environment, result *doctorResult) {
	// Detect container (multi-signal approach)
	result.Env.Container, result.Env.ContainerHint = isContainer(env)

	// Detect CI environments
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if env.getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(env *Environment) (bool, string) {
	// Explicit override (highest priority)
	if env.getenv(envPrefix+"CONTAINER") == "1" {
		return true, envPrefix + "CONTAINER=1"
	}
	// Docker
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn / general container indicator
	if v := env.getenv("container"); v != "" {
		return true, "container=" + v
	}
	// Kubernetes
	if env.getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies system requirements. The temp directory holds
// inline HTML passed with --html.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, "wkhtmltox-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	} else {
		_ = os.Remove(testFile)
		result.System.TempWritable = true
	}
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "wkhtmltox doctor")
	fmt.Fprintln(w)

	// Tools section
	fmt.Fprintln(w, "Tools")
	for _, t := range r.Tools {
		switch {
		case t.Found:
			fmt.Fprintf(w, "  [OK] %s: %s\n", t.Name, t.Path)
			if t.Version != "" {
				fmt.Fprintf(w, "  [OK] %s version: %s\n", t.Name, t.Version)
			}
		case t.Required:
			fmt.Fprintf(w, "  [ERROR] %s: not found\n", t.Name)
		default:
			fmt.Fprintf(w, "  [WARN] %s: not found (optional)\n", t.Name)
		}
	}
	fmt.Fprintln(w)

	// Environment section
	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Config != "" {
		fmt.Fprintf(w, "  [OK] Config: %s\n", r.Env.Config)
	}
	for _, t := range r.Tools {
		if t.Home != "" {
			fmt.Fprintf(w, "  [OK] %s home: %s\n", t.Name, t.Home)
		}
	}
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	// System section
	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	// Warnings
	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	// Errors
	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	// Final status
	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to convert")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
