// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-wkhtmltox/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForExecutableNotFound returns hints when a tool binary cannot be located.
// homeEnv is the environment variable naming the tool's home directory.
func ForExecutableNotFound(tool, homeEnv string) string {
	var hints []string

	if os.Getenv(homeEnv) == "" {
		hints = append(hints, "set "+homeEnv+" or use --home to point at the "+tool+" installation")
	} else {
		hints = append(hints, homeEnv+" is set; check it contains "+tool+" or bin/"+tool)
	}

	// Distro packages of wkhtmltopdf lack the patched Qt and need a display.
	if IsInContainer() && tool != "web2disk" {
		hints = append(hints, "in containers prefer the static wkhtmltox build from wkhtmltopdf.org")
	}

	return formatHints(hints)
}

// ForLaunchFailure returns a hint when the executable exists but could not start.
func ForLaunchFailure() string {
	return format("check the file is executable (chmod +x) and built for this platform")
}

// ForToolFailure returns a hint for a non-zero tool exit code.
func ForToolFailure(tool string) string {
	switch tool {
	case "wkhtmltopdf", "wkhtmltoimage":
		return format("rerun with --verbose; unreachable resources can be skipped with --extra=--load-error-handling --extra=ignore")
	case "web2disk":
		return format("rerun with --verbose and check the URL is reachable")
	default:
		return ""
	}
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for slow pages or large sites, use --timeout flag")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-wkhtmltox/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(filepathSlash(p), "/go-wkhtmltox/") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// filepathSlash normalizes separators so Windows paths match too.
func filepathSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
