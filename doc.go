// Package wkhtmltox runs the wkhtmltopdf, wkhtmltoimage and Calibre
// web2disk command-line tools.
//
// The package does no rendering itself: it maps a typed request to the
// tool's flags, locates the executable, and runs it as a subprocess.
//
// # Quick Start
//
//	inv := wkhtmltox.NewInvoker(wkhtmltox.WithHome("/opt/wkhtmltox"))
//
//	result, err := inv.Execute(ctx, &wkhtmltox.PDFRequest{
//	    Inputs:    []string{"https://example.com"},
//	    Output:    "example.pdf",
//	    PageSize:  "A4",
//	    Grayscale: true,
//	})
//	if err != nil {
//	    log.Fatal(err) // configuration error, nothing was run
//	}
//	if result.Err != nil {
//	    log.Fatal(result.Err) // the tool could not be launched
//	}
//	if result.ExitCode != 0 {
//	    log.Fatalf("wkhtmltopdf exited with %d", result.ExitCode)
//	}
//
// # Requests
//
// Each wrapped tool has its own request type:
//
//   - PDFRequest: wkhtmltopdf (HTML to PDF)
//   - ImageRequest: wkhtmltoimage (HTML to PNG/JPG/BMP/SVG)
//   - MirrorRequest: web2disk (website to disk)
//
// Options left at their zero value are not passed to the tool, except the
// web2disk delay which is always emitted.
//
// # Locating the Executable
//
// The home directory is taken from WithHome, then Options.Home, then the
// WKHTMLTOPDF_HOME (wkhtmltopdf, wkhtmltoimage) or CALIBRE_HOME (web2disk)
// environment variable. The executable is looked up as <home>/<name> and
// <home>/bin/<name>; without a home it is searched on PATH. WithExecutable
// overrides the file name.
//
// # Environment
//
// The subprocess inherits the current environment unless
// Options.NoShellEnv is set. The home variable is then set to the resolved
// home, and Options.Env is applied last.
//
// # Output
//
// Standard output and error are forwarded line by line to OutputHandler
// callbacks. The defaults copy them to the console; LineBuffer collects
// them in memory.
package wkhtmltox
