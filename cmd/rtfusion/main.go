package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

// version is set at build time via -ldflags
var version = "dev"

// errUsage marks command-line mistakes; run exits with 2 for them.
var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one rtfusion command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printHelp(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "scan":
		err = runScan(args[1:], stdout, stderr)
	case "import":
		err = runImport(args[1:], stdout, stderr)
	case "convert":
		err = runConvert(args[1:], stdout, stderr)
	case "synth":
		err = runSynth(args[1:], stdout, stderr)
	case "version", "--version", "-version":
		fmt.Fprintf(stdout, "rtfusion %s\n", version)
		return 0
	case "help", "--help", "-help", "-h":
		printHelp(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", args[0])
		printHelp(stderr)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	default:
		fmt.Fprintf(stderr, "Error: %s\n", describe(err))
		return 1
	}
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "rtfusion - DICOM series and RT structure set import")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  rtfusion <command> [options] <files or directories...>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  scan      Group DICOM files into series and list them")
	fmt.Fprintln(w, "  import    Select a series and resolve its orientation and window")
	fmt.Fprintln(w, "  convert   Convert the contours of an RT structure set into curve stacks")
	fmt.Fprintln(w, "  synth     Write a synthetic prostate MR case with its structure set")
	fmt.Fprintln(w, "  version   Show version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Common options:")
	fmt.Fprintln(w, "  --config <FILE>       YAML configuration (default: none, built-in settings)")
	fmt.Fprintln(w, "  --log-level <LEVEL>   Override logging.level (debug, info, warn, error)")
	fmt.Fprintln(w, "  --quiet               Only print results")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Series selection (import, convert):")
	fmt.Fprintln(w, "  --series <N>          Index of the series to load, as listed by scan")
	fmt.Fprintln(w, "  -i, --interactive     Pick the series from a list when there are several")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  # Generate a 16 slice case with two lesions and a DICOMDIR")
	fmt.Fprintln(w, "  rtfusion synth --output case --lesions 2 --dicomdir")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  # List the series of a directory")
	fmt.Fprintln(w, "  rtfusion scan case")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  # Convert the structure set found next to the images, as CSV")
	fmt.Fprintln(w, "  rtfusion convert --format csv --output curves.csv case")
}
