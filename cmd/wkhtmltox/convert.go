package main

import (
	"context"
	"fmt"
	"os"
	"time"

	wkhtmltox "github.com/alnah/go-wkhtmltox"
	"github.com/alnah/go-wkhtmltox/internal/fileutil"
)

// runPDF converts one or more pages to a PDF.
func runPDF(ctx context.Context, args []string, env *Environment) error {
	f, inputs, err := parsePDFFlags(args)
	if err != nil {
		return err
	}
	s, err := resolveSettings(env, &f.common)
	if err != nil {
		return err
	}

	if f.html != "" {
		path, cleanup, err := fileutil.WriteTempFile(f.html, "html")
		if err != nil {
			return err
		}
		defer cleanup()
		inputs = append([]string{path}, inputs...)
	}
	if len(inputs) == 0 {
		return ErrNoInput
	}
	f.output = s.resolvePath(f.output)
	if err := checkOutput(f.output); err != nil {
		return err
	}

	req := &wkhtmltox.PDFRequest{
		Inputs:          inputs,
		Output:          f.output,
		Collate:         f.collate,
		CookieJar:       f.cookieJar,
		Copies:          f.copies,
		DPI:             f.dpi,
		Grayscale:       f.grayscale,
		ImageDPI:        f.imageDPI,
		Orientation:     f.orientation,
		PageSize:        f.pageSize,
		Title:           f.title,
		Encoding:        f.encoding,
		JavaScriptDelay: f.jsDelay,
	}
	s.apply(&req.Options, nil)
	attachStdin(&req.Options, env, inputs...)

	result, err := execute(ctx, env, s, req)
	if err != nil {
		return err
	}
	reportCreated(env, s, f.output, result)
	return nil
}

// runImage renders a page to an image.
func runImage(ctx context.Context, args []string, env *Environment) error {
	f, inputs, err := parseImageFlags(args)
	if err != nil {
		return err
	}
	s, err := resolveSettings(env, &f.common)
	if err != nil {
		return err
	}

	if f.html != "" {
		if len(inputs) > 0 {
			return fmt.Errorf("%w: --html replaces the input argument", ErrTooManyInputs)
		}
		path, cleanup, err := fileutil.WriteTempFile(f.html, "html")
		if err != nil {
			return err
		}
		defer cleanup()
		inputs = []string{path}
	}
	switch {
	case len(inputs) == 0:
		return ErrNoInput
	case len(inputs) > 1:
		return fmt.Errorf("%w: image takes one input, got %d", ErrTooManyInputs, len(inputs))
	}
	f.output = s.resolvePath(f.output)
	if err := checkOutput(f.output); err != nil {
		return err
	}

	req := &wkhtmltox.ImageRequest{
		Input:           inputs[0],
		Output:          f.output,
		CookieJar:       f.cookieJar,
		Encoding:        f.encoding,
		Format:          f.format,
		Width:           f.width,
		Height:          f.height,
		Quality:         f.quality,
		JavaScriptDelay: f.jsDelay,
	}
	s.apply(&req.Options, nil)
	attachStdin(&req.Options, env, req.Input)

	result, err := execute(ctx, env, s, req)
	if err != nil {
		return err
	}
	reportCreated(env, s, f.output, result)
	return nil
}

// runMirror downloads a website with web2disk.
func runMirror(ctx context.Context, args []string, env *Environment) error {
	f, urls, err := parseMirrorFlags(args)
	if err != nil {
		return err
	}
	s, err := resolveSettings(env, &f.common)
	if err != nil {
		return err
	}

	switch {
	case len(urls) == 0:
		return ErrNoInput
	case len(urls) > 1:
		return fmt.Errorf("%w: mirror takes one URL, got %d", ErrTooManyInputs, len(urls))
	case !fileutil.IsURL(urls[0]):
		return fmt.Errorf("%w: %q", ErrNotURL, urls[0])
	}
	f.baseDir = s.resolvePath(f.baseDir)
	if err := ensureDir(f.baseDir); err != nil {
		return err
	}

	req := wkhtmltox.NewMirrorRequest(urls[0])
	req.BaseDir = f.baseDir
	req.Delay = f.delay
	req.DontDownloadStylesheets = f.dontDownloadStylesheets
	req.Encoding = f.encoding
	req.FilterRegexp = f.filter
	req.MatchRegexp = f.match
	req.MaxFiles = f.maxFiles
	req.MaxRecursions = f.maxRecursions
	req.Timeout = f.fetchTimeout
	s.apply(&req.Options, nil)

	result, err := execute(ctx, env, s, req)
	if err != nil {
		return err
	}
	if !s.quiet {
		dir := req.BaseDir
		if dir == "" {
			dir = "."
		}
		fmt.Fprintf(env.Stdout, "Mirrored %s into %s%s\n", req.URL, dir, details(s, result))
	}
	return nil
}

// execute runs req under the configured timeout and turns a failed
// result into an error.
func execute(ctx context.Context, env *Environment, s *settings, req wkhtmltox.Request) (*wkhtmltox.Result, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tool := req.Tool()
	result, err := s.executor(env, tool).Execute(ctx, req)
	if err != nil {
		return nil, &toolError{Tool: tool, Code: -1, Err: err}
	}
	if err := resultError(tool, result); err != nil {
		return result, err
	}
	return result, nil
}

// checkOutput validates an output path and creates its directory.
func checkOutput(output string) error {
	switch output {
	case "":
		return ErrNoOutput
	case fileutil.Stdio:
		return ErrStdoutOutput
	}
	if err := fileutil.EnsureParentDir(output); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputDir, err)
	}
	return nil
}

// ensureDir creates dir when set.
func ensureDir(dir string) error {
	if dir == "" || fileutil.DirExists(dir) {
		return nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputDir, err)
	}
	return nil
}

// attachStdin connects the CLI's stdin when an input is "-".
func attachStdin(opts *wkhtmltox.Options, env *Environment, inputs ...string) {
	for _, in := range inputs {
		if in == fileutil.Stdio {
			opts.Stdin = env.Stdin
			return
		}
	}
}

func reportCreated(env *Environment, s *settings, output string, result *wkhtmltox.Result) {
	if s.quiet {
		return
	}
	fmt.Fprintf(env.Stdout, "Created %s%s\n", output, details(s, result))
}

// details describes the invocation in verbose mode.
func details(s *settings, result *wkhtmltox.Result) string {
	if !s.verbose || result == nil {
		return ""
	}
	return fmt.Sprintf(" (%s, id %s)", result.Duration.Round(time.Millisecond), result.ID)
}
