package main

import (
	"fmt"
	"slices"

	wkhtmltox "github.com/alnah/go-wkhtmltox"
	"github.com/alnah/go-wkhtmltox/internal/config"
	"github.com/alnah/go-wkhtmltox/internal/fileutil"
)

// jobRequest converts a batch job into a request carrying the run settings.
// target is the output file, or the mirrored URL. Tool output lines are
// prefixed with label.
func jobRequest(job *config.Job, label string, s *settings) (req wkhtmltox.Request, target string, err error) {
	var (
		opts   *wkhtmltox.Options
		common *config.CommonJob
	)

	switch {
	case job.PDF != nil:
		j := job.PDF
		if slices.Contains(j.Inputs, fileutil.Stdio) {
			return nil, "", fmt.Errorf("%w: %s: stdin input is not supported in batch", config.ErrInvalidJob, label)
		}
		output := s.resolvePath(j.Output)
		if err := checkOutput(output); err != nil {
			return nil, "", err
		}
		r := &wkhtmltox.PDFRequest{
			Inputs:          j.Inputs,
			Output:          output,
			Collate:         j.Collate,
			CookieJar:       j.CookieJar,
			Copies:          j.Copies,
			DPI:             j.DPI,
			Grayscale:       j.Grayscale,
			ImageDPI:        j.ImageDPI,
			Orientation:     j.Orientation,
			PageSize:        j.PageSize,
			Title:           j.Title,
			Encoding:        j.Encoding,
			JavaScriptDelay: j.JavaScriptDelay.Std(),
		}
		req, target, opts, common = r, output, &r.Options, &j.CommonJob

	case job.Image != nil:
		j := job.Image
		if j.Input == fileutil.Stdio {
			return nil, "", fmt.Errorf("%w: %s: stdin input is not supported in batch", config.ErrInvalidJob, label)
		}
		output := s.resolvePath(j.Output)
		if err := checkOutput(output); err != nil {
			return nil, "", err
		}
		r := &wkhtmltox.ImageRequest{
			Input:           j.Input,
			Output:          output,
			CookieJar:       j.CookieJar,
			Encoding:        j.Encoding,
			Format:          j.Format,
			Width:           j.Width,
			Height:          j.Height,
			Quality:         j.Quality,
			JavaScriptDelay: j.JavaScriptDelay.Std(),
		}
		req, target, opts, common = r, output, &r.Options, &j.CommonJob

	case job.Mirror != nil:
		j := job.Mirror
		if !fileutil.IsURL(j.URL) {
			return nil, "", fmt.Errorf("%w: %s: %q", ErrNotURL, label, j.URL)
		}
		baseDir := s.resolvePath(j.BaseDir)
		if err := ensureDir(baseDir); err != nil {
			return nil, "", err
		}
		r := wkhtmltox.NewMirrorRequest(j.URL)
		r.BaseDir = baseDir
		r.Delay = j.Delay.Std()
		r.DontDownloadStylesheets = j.DontDownloadStylesheets
		r.Encoding = j.Encoding
		r.FilterRegexp = j.FilterRegexp
		r.MatchRegexp = j.MatchRegexp
		r.MaxFiles = j.MaxFiles
		if j.MaxRecursions != nil {
			r.MaxRecursions = *j.MaxRecursions
		}
		if j.Timeout != nil {
			r.Timeout = j.Timeout.Std()
		}
		req, target, opts, common = r, j.URL, &r.Options, &j.CommonJob

	default:
		return nil, "", fmt.Errorf("%w: %s: no pdf, image or mirror section", config.ErrInvalidJob, label)
	}

	s.apply(opts, common)
	opts.OutputHandler = prefixed(s.stdout, label)
	opts.ErrorHandler = prefixed(s.stderr, label)
	return req, target, nil
}

// prefixed tags every line with the job label.
func prefixed(h wkhtmltox.OutputHandler, label string) wkhtmltox.OutputHandler {
	return func(line string) {
		h("[" + label + "] " + line)
	}
}
