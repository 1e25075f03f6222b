package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"
)

// ErrInvalidFlags wraps flag parsing and flag combination errors.
var ErrInvalidFlags = errors.New("invalid flags")

// commonFlags holds flags shared by every tool command.
type commonFlags struct {
	config     string
	home       string
	workingDir string
	timeout    time.Duration
	env        []string
	extra      []string
	noShellEnv bool
	verbose    bool
	quiet      bool
	logFormat  string

	timeoutSet bool
}

// pdfFlags holds wkhtmltopdf options.
type pdfFlags struct {
	common      commonFlags
	output      string
	html        string
	collate     bool
	cookieJar   string
	copies      int
	dpi         int
	grayscale   bool
	imageDPI    int
	orientation string
	pageSize    string
	title       string
	encoding    string
	jsDelay     time.Duration
}

// imageFlags holds wkhtmltoimage options.
type imageFlags struct {
	common    commonFlags
	output    string
	html      string
	cookieJar string
	encoding  string
	format    string
	width     int
	height    int
	quality   int
	jsDelay   time.Duration
}

// mirrorFlags holds web2disk options.
type mirrorFlags struct {
	common                  commonFlags
	baseDir                 string
	delay                   time.Duration
	dontDownloadStylesheets bool
	encoding                string
	filter                  string
	match                   string
	maxFiles                int64
	maxRecursions           int
	fetchTimeout            time.Duration
}

// batchFlags holds batch options.
type batchFlags struct {
	common   commonFlags
	workers  int
	failFast bool
}

// doctorFlags holds doctor options.
type doctorFlags struct {
	config string
	home   string
	json   bool
}

// verifyFlags holds verify options.
type verifyFlags struct {
	contains []string
	minPages int
	title    string
	json     bool
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.SortFlags = false
	return fs
}

// parseFlagSet parses args and returns the positional arguments.
// flag.ErrHelp is returned unwrapped so callers can print usage.
func parseFlagSet(fs *flag.FlagSet, args []string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidFlags, err)
	}
	return fs.Args(), nil
}

func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file path or name")
	fs.StringVar(&f.home, "home", "", "tool installation directory")
	fs.StringVar(&f.workingDir, "working-dir", "", "subprocess working directory")
	fs.DurationVar(&f.timeout, "timeout", 0, "per-invocation timeout (e.g., 30s, 2m; 0 = none)")
	fs.StringArrayVarP(&f.env, "env", "e", nil, "subprocess environment KEY=VALUE (repeatable)")
	fs.StringArrayVar(&f.extra, "extra", nil, "raw argument passed to the tool (repeatable)")
	fs.BoolVar(&f.noShellEnv, "no-shell-env", false, "do not inherit the shell environment")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "debug logs and verbose tool output")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only print errors")
	fs.StringVar(&f.logFormat, "log-format", "text", "log format: text or json")
}

// finishCommon records which common flags were set explicitly.
func finishCommon(fs *flag.FlagSet, f *commonFlags) error {
	f.timeoutSet = fs.Changed("timeout")
	if f.timeout < 0 {
		return fmt.Errorf("%w: --timeout cannot be negative", ErrInvalidFlags)
	}
	if f.verbose && f.quiet {
		return fmt.Errorf("%w: --verbose and --quiet are mutually exclusive", ErrInvalidFlags)
	}
	return nil
}

func parsePDFFlags(args []string) (*pdfFlags, []string, error) {
	fs := newFlagSet("pdf")
	f := &pdfFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output PDF path")
	fs.StringVar(&f.html, "html", "", "inline HTML used as the first page")
	fs.BoolVar(&f.collate, "collate", false, "collate when printing multiple copies")
	fs.StringVar(&f.cookieJar, "cookie-jar", "", "read and write cookies from and to this file")
	fs.IntVar(&f.copies, "copies", 0, "number of copies")
	fs.IntVarP(&f.dpi, "dpi", "d", 0, "output DPI")
	fs.BoolVarP(&f.grayscale, "grayscale", "g", false, "generate a grayscale PDF")
	fs.IntVar(&f.imageDPI, "image-dpi", 0, "embedded image DPI")
	fs.StringVarP(&f.orientation, "orientation", "O", "", "Portrait or Landscape")
	fs.StringVarP(&f.pageSize, "page-size", "s", "", "page size (A4, Letter, ...)")
	fs.StringVar(&f.title, "title", "", "document title")
	fs.StringVar(&f.encoding, "encoding", "", "default text encoding")
	fs.DurationVar(&f.jsDelay, "javascript-delay", 0, "wait for JavaScript (e.g., 500ms)")
	addCommonFlags(fs, &f.common)

	rest, err := parseFlagSet(fs, args)
	if err != nil {
		return nil, nil, err
	}
	if err := finishCommon(fs, &f.common); err != nil {
		return nil, nil, err
	}
	return f, rest, nil
}

func parseImageFlags(args []string) (*imageFlags, []string, error) {
	fs := newFlagSet("image")
	f := &imageFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output image path")
	fs.StringVar(&f.html, "html", "", "inline HTML to render instead of an input")
	fs.StringVar(&f.cookieJar, "cookie-jar", "", "read and write cookies from and to this file")
	fs.StringVar(&f.encoding, "encoding", "", "default text encoding")
	fs.StringVarP(&f.format, "format", "f", "", "image format (png, jpg, bmp, svg)")
	fs.IntVar(&f.width, "width", 0, "screen width in pixels")
	fs.IntVar(&f.height, "height", 0, "screen height in pixels")
	fs.IntVar(&f.quality, "quality", 0, "compression quality 1-100")
	fs.DurationVar(&f.jsDelay, "javascript-delay", 0, "wait for JavaScript (e.g., 500ms)")
	addCommonFlags(fs, &f.common)

	rest, err := parseFlagSet(fs, args)
	if err != nil {
		return nil, nil, err
	}
	if err := finishCommon(fs, &f.common); err != nil {
		return nil, nil, err
	}
	return f, rest, nil
}

func parseMirrorFlags(args []string) (*mirrorFlags, []string, error) {
	fs := newFlagSet("mirror")
	f := &mirrorFlags{}

	fs.StringVarP(&f.baseDir, "base-dir", "d", "", "directory to store downloaded files")
	fs.DurationVar(&f.delay, "delay", 0, "delay between downloads (e.g., 1s)")
	fs.BoolVar(&f.dontDownloadStylesheets, "dont-download-stylesheets", false, "skip stylesheets")
	fs.StringVar(&f.encoding, "encoding", "", "character encoding of the site")
	fs.StringVar(&f.filter, "filter-regexp", "", "skip links matching this regexp")
	fs.StringVar(&f.match, "match-regexp", "", "only follow links matching this regexp")
	fs.Int64VarP(&f.maxFiles, "max-files", "n", 0, "maximum number of files to download (0 = unlimited)")
	fs.IntVarP(&f.maxRecursions, "max-recursions", "r", 1, "maximum link depth")
	fs.DurationVar(&f.fetchTimeout, "fetch-timeout", 10*time.Second, "timeout for each network fetch")
	addCommonFlags(fs, &f.common)

	rest, err := parseFlagSet(fs, args)
	if err != nil {
		return nil, nil, err
	}
	if err := finishCommon(fs, &f.common); err != nil {
		return nil, nil, err
	}
	return f, rest, nil
}

func parseBatchFlags(args []string) (*batchFlags, []string, error) {
	fs := newFlagSet("batch")
	f := &batchFlags{}

	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel jobs (0 = auto)")
	fs.BoolVar(&f.failFast, "fail-fast", false, "cancel remaining jobs after the first failure")
	addCommonFlags(fs, &f.common)

	rest, err := parseFlagSet(fs, args)
	if err != nil {
		return nil, nil, err
	}
	if err := finishCommon(fs, &f.common); err != nil {
		return nil, nil, err
	}
	if f.workers < 0 {
		return nil, nil, fmt.Errorf("%w: --workers cannot be negative", ErrInvalidFlags)
	}
	return f, rest, nil
}

func parseDoctorFlags(args []string) (*doctorFlags, error) {
	fs := newFlagSet("doctor")
	f := &doctorFlags{}

	fs.StringVarP(&f.config, "config", "c", "", "config file path or name")
	fs.StringVar(&f.home, "home", "", "tool installation directory")
	fs.BoolVar(&f.json, "json", false, "output in JSON format")

	rest, err := parseFlagSet(fs, args)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: doctor takes no arguments", ErrInvalidFlags)
	}
	return f, nil
}

func parseVerifyFlags(args []string) (*verifyFlags, []string, error) {
	fs := newFlagSet("verify")
	f := &verifyFlags{}

	fs.StringArrayVar(&f.contains, "contains", nil, "text the PDF must contain (repeatable)")
	fs.IntVar(&f.minPages, "min-pages", 0, "minimum page count")
	fs.StringVar(&f.title, "title", "", "expected document title")
	fs.BoolVar(&f.json, "json", false, "output in JSON format")

	rest, err := parseFlagSet(fs, args)
	if err != nil {
		return nil, nil, err
	}
	if f.minPages < 0 {
		return nil, nil, fmt.Errorf("%w: --min-pages cannot be negative", ErrInvalidFlags)
	}
	return f, rest, nil
}
