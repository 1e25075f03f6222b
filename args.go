package wkhtmltox

import (
	"fmt"
	"strconv"
	"time"
)

// argList accumulates command-line tokens in emission order.
type argList []string

func (a *argList) flag(name string) { *a = append(*a, name) }

func (a *argList) pair(name, value string) { *a = append(*a, name, value) }

func (a *argList) flagIf(cond bool, name string) {
	if cond {
		a.flag(name)
	}
}

func (a *argList) stringIf(name, value string) {
	if value != "" {
		a.pair(name, value)
	}
}

func (a *argList) intIf(name string, value int64) {
	if value > 0 {
		a.pair(name, strconv.FormatInt(value, 10))
	}
}

// arguments maps a request to its tool's flags followed by positional arguments.
func (b *CommandLineBuilder) arguments(req Request) ([]string, error) {
	switch r := req.(type) {
	case *PDFRequest:
		return pdfArguments(r), nil
	case *ImageRequest:
		return imageArguments(r), nil
	case *MirrorRequest:
		return b.mirrorArguments(r), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedRequest, req)
	}
}

func pdfArguments(r *PDFRequest) []string {
	var a argList

	// Global options
	a.flagIf(r.Collate, "--collate")
	a.stringIf("--cookie-jar", r.CookieJar)
	a.intIf("--copies", int64(r.Copies))
	a.intIf("--dpi", int64(r.DPI))
	a.flagIf(r.Grayscale, "--grayscale")
	a.intIf("--image-dpi", int64(r.ImageDPI))
	a.stringIf("--orientation", r.Orientation)
	a.stringIf("--page-size", r.PageSize)
	a.stringIf("--title", r.Title)

	// Page options
	a.stringIf("--encoding", r.Encoding)
	a.intIf("--javascript-delay", r.JavaScriptDelay.Milliseconds())

	if r.Verbose {
		a.pair("--log-level", "info")
	}
	a = append(a, r.ExtraArgs...)

	a = append(a, r.Inputs...)
	a.flag(r.Output)
	return a
}

func imageArguments(r *ImageRequest) []string {
	var a argList

	a.stringIf("--cookie-jar", r.CookieJar)
	a.stringIf("--encoding", r.Encoding)
	a.stringIf("--format", r.Format)
	a.intIf("--width", int64(r.Width))
	a.intIf("--height", int64(r.Height))
	a.intIf("--quality", int64(r.Quality))
	a.intIf("--javascript-delay", r.JavaScriptDelay.Milliseconds())

	if r.Verbose {
		a.pair("--log-level", "info")
	}
	a = append(a, r.ExtraArgs...)

	a.flag(r.Input)
	a.flag(r.Output)
	return a
}

func (b *CommandLineBuilder) mirrorArguments(r *MirrorRequest) []string {
	var a argList

	if r.BaseDir != "" {
		a.pair("-d", b.canonicalPath(r.BaseDir, "base directory"))
	}
	// web2disk requires an explicit delay, even when zero.
	a.pair("--delay", seconds(r.Delay))
	a.flagIf(r.DontDownloadStylesheets, "--dont-download-stylesheets")
	a.stringIf("--encoding", r.Encoding)
	a.stringIf("--filter-regexp", r.FilterRegexp)
	a.stringIf("--match-regexp", r.MatchRegexp)
	a.intIf("-n", r.MaxFiles)
	// Zero is meaningful (fetch the start page only), so -r is always sent.
	a.pair("-r", strconv.Itoa(r.MaxRecursions))
	if r.Timeout > 0 {
		a.pair("-t", seconds(r.Timeout))
	}
	a.flagIf(r.Verbose, "--verbose")
	a = append(a, r.ExtraArgs...)

	a.flag(r.URL)
	return a
}

// seconds formats d in seconds without trailing zeros ("5", "1.5").
func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
