package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/alnah/go-wkhtmltox/internal/pdfcheck"
)

// ErrVerifyFailed is returned when a PDF does not meet the expectations.
var ErrVerifyFailed = errors.New("verification failed")

// verifyCheck is the outcome of one expectation.
type verifyCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// verifyResult describes an inspected PDF and its checks.
type verifyResult struct {
	Path   string        `json:"path"`
	Size   int64         `json:"size"`
	Pages  int           `json:"pages"`
	Title  string        `json:"title,omitempty"`
	Checks []verifyCheck `json:"checks,omitempty"`
	OK     bool          `json:"ok"`
}

// runVerify inspects a PDF produced by the pdf command.
func runVerify(args []string, env *Environment) error {
	f, rest, err := parseVerifyFlags(args)
	if err != nil {
		return err
	}
	switch {
	case len(rest) == 0:
		return ErrNoInput
	case len(rest) > 1:
		return fmt.Errorf("%w: verify takes one PDF, got %d", ErrTooManyInputs, len(rest))
	}

	report, err := pdfcheck.Inspect(rest[0])
	if err != nil {
		return err
	}

	result := checkReport(report, f)
	if f.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printVerifyResult(env.Stdout, result)
	}

	if !result.OK {
		return fmt.Errorf("%w: %s", ErrVerifyFailed, report.Path)
	}
	return nil
}

// checkReport evaluates the flags against report.
func checkReport(report *pdfcheck.Report, f *verifyFlags) *verifyResult {
	result := &verifyResult{
		Path:  report.Path,
		Size:  report.Size,
		Pages: report.Pages,
		Title: report.Title,
		OK:    true,
	}
	add := func(c verifyCheck) {
		result.Checks = append(result.Checks, c)
		result.OK = result.OK && c.OK
	}

	if f.minPages > 0 {
		add(verifyCheck{
			Name:   fmt.Sprintf("at least %d pages", f.minPages),
			OK:     report.Pages >= f.minPages,
			Detail: fmt.Sprintf("%d pages", report.Pages),
		})
	}
	if f.title != "" {
		add(verifyCheck{
			Name:   fmt.Sprintf("title %q", f.title),
			OK:     report.Title == f.title,
			Detail: fmt.Sprintf("title is %q", report.Title),
		})
	}
	for _, text := range f.contains {
		c := verifyCheck{Name: fmt.Sprintf("contains %q", text), OK: report.Contains(text)}
		if !c.OK {
			c.Detail = "not found"
		}
		add(c)
	}

	return result
}

func printVerifyResult(w io.Writer, r *verifyResult) {
	fmt.Fprintf(w, "%s: %d pages, %d bytes", r.Path, r.Pages, r.Size)
	if r.Title != "" {
		fmt.Fprintf(w, ", title %q", r.Title)
	}
	fmt.Fprintln(w)

	for _, c := range r.Checks {
		status := "[OK]"
		if !c.OK {
			status = "[FAIL]"
		}
		if c.Detail != "" && !c.OK {
			fmt.Fprintf(w, "  %s %s (%s)\n", status, c.Name, c.Detail)
		} else {
			fmt.Fprintf(w, "  %s %s\n", status, c.Name)
		}
	}
}
