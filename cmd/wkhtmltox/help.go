package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: wkhtmltox <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  pdf        Convert pages to PDF with wkhtmltopdf")
	fmt.Fprintln(w, "  image      Render a page to an image with wkhtmltoimage")
	fmt.Fprintln(w, "  mirror     Download a website with Calibre's web2disk")
	fmt.Fprintln(w, "  batch      Run the jobs of a batch file or config")
	fmt.Fprintln(w, "  verify     Check a PDF's pages, title and text")
	fmt.Fprintln(w, "  doctor     Check the tools are installed")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'wkhtmltox help <command>' for details on a specific command.")
}

// printCommonUsage prints the flags shared by the tool commands.
func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --home <dir>          Tool installation directory")
	fmt.Fprintln(w, "      --working-dir <dir>   Subprocess working directory")
	fmt.Fprintln(w, "      --timeout <d>         Per-invocation timeout (0 = none)")
	fmt.Fprintln(w, "  -e, --env KEY=VALUE       Subprocess environment (repeatable)")
	fmt.Fprintln(w, "      --no-shell-env        Do not inherit the shell environment")
	fmt.Fprintln(w, "      --extra <arg>         Raw tool argument (repeatable)")
	fmt.Fprintln(w, "  -v, --verbose             Debug logs and verbose tool output")
	fmt.Fprintln(w, "  -q, --quiet               Only print errors")
	fmt.Fprintln(w, "      --log-format <s>      text or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  WKHTMLTOX_CONFIG, WKHTMLTOX_HOME, WKHTMLTOX_WORKING_DIR, WKHTMLTOX_TIMEOUT,")
	fmt.Fprintln(w, "  WKHTMLTOX_WORKERS, WKHTMLTOX_VERBOSE, WKHTMLTOX_NO_SHELL_ENV")
	fmt.Fprintln(w, "  WKHTMLTOPDF_HOME and CALIBRE_HOME locate the tools when --home is not set.")
}

func printPDFUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: wkhtmltox pdf <input>... -o <output.pdf> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert URLs or HTML files to one PDF. Use - to read HTML from stdin.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -o, --output <path>       Output PDF path")
	fmt.Fprintln(w, "      --html <s>            Inline HTML used as the first page")
	fmt.Fprintln(w, "      --collate             Collate copies")
	fmt.Fprintln(w, "      --cookie-jar <path>   Cookie jar file")
	fmt.Fprintln(w, "      --copies <n>          Number of copies")
	fmt.Fprintln(w, "  -d, --dpi <n>             Output DPI")
	fmt.Fprintln(w, "  -g, --grayscale           Grayscale PDF")
	fmt.Fprintln(w, "      --image-dpi <n>       Embedded image DPI")
	fmt.Fprintln(w, "  -O, --orientation <s>     Portrait or Landscape")
	fmt.Fprintln(w, "  -s, --page-size <s>       A4, Letter, ...")
	fmt.Fprintln(w, "      --title <s>           Document title")
	fmt.Fprintln(w, "      --encoding <s>        Default text encoding")
	fmt.Fprintln(w, "      --javascript-delay <d> Wait for JavaScript")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

func printImageUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: wkhtmltox image <input> -o <output> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render a URL or HTML file to an image. Use - to read HTML from stdin.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -o, --output <path>       Output image path")
	fmt.Fprintln(w, "      --html <s>            Inline HTML instead of an input")
	fmt.Fprintln(w, "  -f, --format <s>          png, jpg, bmp, svg")
	fmt.Fprintln(w, "      --width <n>           Screen width in pixels")
	fmt.Fprintln(w, "      --height <n>          Screen height in pixels")
	fmt.Fprintln(w, "      --quality <n>         Compression quality 1-100")
	fmt.Fprintln(w, "      --cookie-jar <path>   Cookie jar file")
	fmt.Fprintln(w, "      --encoding <s>        Default text encoding")
	fmt.Fprintln(w, "      --javascript-delay <d> Wait for JavaScript")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

func printMirrorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: wkhtmltox mirror <url> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Download a website and its resources with web2disk.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -d, --base-dir <dir>      Download directory")
	fmt.Fprintln(w, "      --delay <d>           Delay between downloads")
	fmt.Fprintln(w, "      --dont-download-stylesheets")
	fmt.Fprintln(w, "                            Skip stylesheets")
	fmt.Fprintln(w, "      --encoding <s>        Site character encoding")
	fmt.Fprintln(w, "      --filter-regexp <re>  Skip matching links")
	fmt.Fprintln(w, "      --match-regexp <re>   Only follow matching links")
	fmt.Fprintln(w, "  -n, --max-files <n>       Maximum files (0 = unlimited)")
	fmt.Fprintln(w, "  -r, --max-recursions <n>  Maximum link depth (default 1)")
	fmt.Fprintln(w, "      --fetch-timeout <d>   Timeout per fetch (default 10s)")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

func printBatchUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: wkhtmltox batch [jobs.yaml] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run pdf, image and mirror jobs concurrently. Without a file, the")
	fmt.Fprintln(w, "jobs of the config are used.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel jobs (0 = auto)")
	fmt.Fprintln(w, "      --fail-fast           Skip remaining jobs after a failure")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

func printVerifyUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: wkhtmltox verify <file.pdf> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Inspect a PDF and check its content.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --contains <s>        Required text (repeatable)")
	fmt.Fprintln(w, "      --min-pages <n>       Minimum page count")
	fmt.Fprintln(w, "      --title <s>           Expected document title")
	fmt.Fprintln(w, "      --json                Output in JSON format")
}

func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: wkhtmltox doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Locate wkhtmltopdf, wkhtmltoimage and web2disk and report their versions.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --home <dir>          Tool installation directory")
	fmt.Fprintln(w, "      --json                Output in JSON format")
}

// commandUsage maps command names to their usage printers.
var commandUsage = map[string]func(io.Writer){
	"pdf":    printPDFUsage,
	"image":  printImageUsage,
	"mirror": printMirrorUsage,
	"batch":  printBatchUsage,
	"verify": printVerifyUsage,
	"doctor": printDoctorUsage,
}

// runHelp prints help for the named command, or the main usage.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}
	usage, ok := commandUsage[args[0]]
	if !ok {
		fmt.Fprintf(env.Stderr, "unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	usage(env.Stdout)
	return ExitSuccess
}
