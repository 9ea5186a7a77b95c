package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/kr/pretty"
	"github.com/logrusorgru/aurora/v4"

	"strata/pkg/engine"
	"strata/pkg/errors"
	"strata/pkg/exprfile"
	"strata/pkg/value"
)

const (
	exitUsage    = 64 // command line usage error
	exitData     = 65 // expectation mismatch
	exitSoftware = 70 // internal software error
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run evaluates the expression files named in args and returns the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("strata", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFlag := fs.String("config", "", "YAML configuration file")
	workersFlag := fs.Int("workers", -1, "Number of evaluation workers (default from config)")
	sitesFlag := fs.Bool("sites", false, "Show dispatch site statistics after execution")
	dumpConfigFlag := fs.Bool("dump-config", false, "Print the effective configuration and exit")
	noColorFlag := fs.Bool("no-color", false, "Disable colored output")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	config := engine.DefaultConfig()
	if *configFlag != "" {
		var err error
		if config, err = engine.LoadConfig(*configFlag); err != nil {
			fmt.Fprintf(stderr, "Error: %s\n", err)
			return exitUsage
		}
	}
	if *workersFlag >= 0 {
		config.Workers = *workersFlag
	}

	if *dumpConfigFlag {
		pretty.Fprintf(stdout, "%# v\n", config)
		return 0
	}

	if fs.NArg() == 0 {
		fmt.Fprintf(stderr, "Usage: strata [options] <file.yaml>...\n")
		fs.PrintDefaults()
		return exitUsage
	}

	au := aurora.New(aurora.WithColors(!*noColorFlag))
	e, err := engine.New(config)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return exitUsage
	}

	code := 0
	for _, path := range fs.Args() {
		c := runFile(ctx, e, au, path, stdout, stderr)
		if c > code {
			code = c
		}
	}
	if *sitesFlag {
		fmt.Fprintln(stdout)
		e.PrintSites(stdout)
	}
	return code
}

func runFile(ctx context.Context, e *engine.Engine, au *aurora.Aurora, path string, stdout, stderr io.Writer) int {
	f, err := exprfile.Load(path, e)
	if err != nil {
		errors.DisplayErrors(stderr, []error{err})
		return exitSoftware
	}

	results, err := e.EvaluateRows(ctx, f.Program, f.Rows)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return exitSoftware
	}

	fmt.Fprintf(stdout, "%s\n", au.Colorize(path, aurora.BoldFm))
	code := 0
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(stdout, "  [%d] %s\n", r.Row, au.Colorize(r.Err.Error(), aurora.RedFg|aurora.BrightFg))
		} else {
			fmt.Fprintf(stdout, "  [%d] %s\n", r.Row, au.Colorize(r.Value.Inspect(), aurora.YellowFg|aurora.BrightFg))
		}
		if f.Expect == nil {
			continue
		}
		want := f.Expect[r.Row]
		if r.Err != nil || !value.SameValue(want, r.Value) {
			msg := fmt.Sprintf("expected %s", want.Inspect())
			fmt.Fprintf(stdout, "      %s\n", au.Colorize(msg, aurora.RedFg|aurora.BrightFg|aurora.BoldFm))
			code = exitData
		}
	}
	return code
}
