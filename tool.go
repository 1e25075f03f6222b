package wkhtmltox

// Tool identifies one of the wrapped executables.
type Tool int

// Supported tools.
const (
	ToolPDF    Tool = iota + 1 // wkhtmltopdf
	ToolImage                  // wkhtmltoimage
	ToolMirror                 // Calibre web2disk
)

// Home environment variables consulted when no home directory is configured.
const (
	WkhtmltopdfHomeEnv = "WKHTMLTOPDF_HOME"
	CalibreHomeEnv     = "CALIBRE_HOME"
)

// String returns the executable base name of the tool.
func (t Tool) String() string {
	switch t {
	case ToolPDF:
		return "wkhtmltopdf"
	case ToolImage:
		return "wkhtmltoimage"
	case ToolMirror:
		return "web2disk"
	default:
		return "unknown"
	}
}

// Executable returns the default executable file name for goos.
func (t Tool) Executable(goos string) string {
	if goos == "windows" {
		return t.String() + ".exe"
	}
	return t.String()
}

// HomeEnv returns the environment variable naming the tool's home directory.
// wkhtmltopdf and wkhtmltoimage ship together and share a home.
func (t Tool) HomeEnv() string {
	if t == ToolMirror {
		return CalibreHomeEnv
	}
	return WkhtmltopdfHomeEnv
}
