package wkhtmltox

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Defaults applied by NewMirrorRequest.
const (
	DefaultMirrorMaxRecursions = 1
	DefaultMirrorTimeout       = 10 * time.Second
)

// Request is an invocation of one wrapped tool.
// Implemented by *PDFRequest, *ImageRequest and *MirrorRequest only.
type Request interface {
	Tool() Tool
	Validate() error
	options() *Options
}

// Compile-time interface implementation checks.
var (
	_ Request = (*PDFRequest)(nil)
	_ Request = (*ImageRequest)(nil)
	_ Request = (*MirrorRequest)(nil)
)

// Options holds settings shared by every request.
type Options struct {
	// Home is the tool installation directory. The invoker's home takes
	// precedence when both are set.
	Home string

	// Env overrides environment variables of the subprocess.
	// Applied after the shell environment and the home variable.
	Env map[string]string

	// NoShellEnv disables inheriting the parent process environment.
	NoShellEnv bool

	// OutputHandler and ErrorHandler receive stdout and stderr lines.
	// Nil falls back to the invoker's handlers.
	OutputHandler OutputHandler
	ErrorHandler  OutputHandler

	// Stdin is connected to the process standard input when non-nil.
	Stdin io.Reader

	// ExtraArgs are passed verbatim before the positional arguments.
	ExtraArgs []string

	// Verbose enables the tool's own verbose logging.
	Verbose bool
}

func (o *Options) options() *Options { return o }

func (o *Options) validate() error {
	for k := range o.Env {
		if k == "" || strings.ContainsAny(k, "=\x00") {
			return fmt.Errorf("%w: %q", ErrInvalidEnvKey, k)
		}
	}
	return nil
}

// PDFRequest converts one or more pages to a PDF file with wkhtmltopdf.
type PDFRequest struct {
	Options

	Inputs []string // URLs, file paths, or "-" for stdin
	Output string   // PDF path; stdout is not supported

	Collate         bool
	CookieJar       string
	Copies          int
	DPI             int
	Grayscale       bool
	ImageDPI        int
	Orientation     string // "Portrait" or "Landscape"
	PageSize        string // "A4", "Letter", ...
	Title           string
	Encoding        string
	JavaScriptDelay time.Duration
}

// Tool returns ToolPDF.
func (r *PDFRequest) Tool() Tool { return ToolPDF }

// Validate checks positional arguments and numeric options.
func (r *PDFRequest) Validate() error {
	if r == nil {
		return ErrNilRequest
	}
	if len(r.Inputs) == 0 {
		return ErrMissingInput
	}
	for i, in := range r.Inputs {
		if strings.TrimSpace(in) == "" {
			return fmt.Errorf("%w: inputs[%d] is empty", ErrMissingInput, i)
		}
	}
	if err := checkOutput(r.Output); err != nil {
		return err
	}
	if err := nonNegative("copies", int64(r.Copies)); err != nil {
		return err
	}
	if err := nonNegative("dpi", int64(r.DPI)); err != nil {
		return err
	}
	if err := nonNegative("image-dpi", int64(r.ImageDPI)); err != nil {
		return err
	}
	if err := nonNegative("javascript-delay", int64(r.JavaScriptDelay)); err != nil {
		return err
	}
	return r.Options.validate()
}

// ImageRequest renders a page to an image with wkhtmltoimage.
type ImageRequest struct {
	Options

	Input  string
	Output string // image path; stdout is not supported

	CookieJar       string
	Encoding        string
	Format          string // "png", "jpg", "bmp", "svg"
	Width           int
	Height          int
	Quality         int // 1-100, 0 = tool default
	JavaScriptDelay time.Duration
}

// Tool returns ToolImage.
func (r *ImageRequest) Tool() Tool { return ToolImage }

// Validate checks positional arguments and numeric options.
func (r *ImageRequest) Validate() error {
	if r == nil {
		return ErrNilRequest
	}
	if strings.TrimSpace(r.Input) == "" {
		return ErrMissingInput
	}
	if err := checkOutput(r.Output); err != nil {
		return err
	}
	if err := nonNegative("width", int64(r.Width)); err != nil {
		return err
	}
	if err := nonNegative("height", int64(r.Height)); err != nil {
		return err
	}
	if r.Quality < 0 || r.Quality > 100 {
		return fmt.Errorf("%w: %d (must be 0-100)", ErrInvalidQuality, r.Quality)
	}
	if err := nonNegative("javascript-delay", int64(r.JavaScriptDelay)); err != nil {
		return err
	}
	return r.Options.validate()
}

// MirrorRequest downloads a website to disk with Calibre's web2disk.
type MirrorRequest struct {
	Options

	URL     string
	BaseDir string

	// Delay between consecutive downloads. Always passed to the tool.
	Delay                   time.Duration
	DontDownloadStylesheets bool
	Encoding                string
	FilterRegexp            string
	MatchRegexp             string
	MaxFiles                int64
	MaxRecursions           int
	Timeout                 time.Duration
}

// NewMirrorRequest returns a request for url with web2disk's usual limits.
func NewMirrorRequest(url string) *MirrorRequest {
	return &MirrorRequest{
		URL:           url,
		MaxRecursions: DefaultMirrorMaxRecursions,
		Timeout:       DefaultMirrorTimeout,
	}
}

// Tool returns ToolMirror.
func (r *MirrorRequest) Tool() Tool { return ToolMirror }

// Validate checks the URL and numeric options.
func (r *MirrorRequest) Validate() error {
	if r == nil {
		return ErrNilRequest
	}
	if strings.TrimSpace(r.URL) == "" {
		return ErrMissingURL
	}
	if err := nonNegative("delay", int64(r.Delay)); err != nil {
		return err
	}
	if err := nonNegative("max-files", r.MaxFiles); err != nil {
		return err
	}
	if err := nonNegative("max-recursions", int64(r.MaxRecursions)); err != nil {
		return err
	}
	if err := nonNegative("timeout", int64(r.Timeout)); err != nil {
		return err
	}
	return r.Options.validate()
}

// checkOutput rejects an empty output and "-". Tool stdout is delivered as
// text lines to an OutputHandler, which would corrupt binary data.
func checkOutput(output string) error {
	switch strings.TrimSpace(output) {
	case "":
		return ErrMissingOutput
	case "-":
		return ErrStdoutOutput
	}
	return nil
}

func nonNegative(name string, v int64) error {
	if v < 0 {
		return fmt.Errorf("%w: %s = %d", ErrNegativeOption, name, v)
	}
	return nil
}
