// Command sack runs sack scripts and hosts the interactive session.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/thomasrohde/sack/pkg/config"
	"github.com/thomasrohde/sack/pkg/diagnostics"
	"github.com/thomasrohde/sack/pkg/evaluator"
	"github.com/thomasrohde/sack/pkg/formatter"
	"github.com/thomasrohde/sack/pkg/runtime"
)

const usage = `usage: sack [flags] <file> [trace]
       sack                       start an interactive session
       sack --summarize <trace.jsonl>

flags:
  --pretty          human-readable diagnostics
  --check           parse and lint only
  --dump-ast        print the parsed program and exit
  --fmt [--write]   print the program in canonical layout
  --config <path>   read settings from this YAML file
A second positional argument turns on JSON-lines tracing to stdout.
Use - as the file to read the program from stdin.`

// Exit codes.
const (
	exitOK      = 0
	exitUsage   = 1
	exitDiag    = 2
	exitRuntime = 4
)

type cliOptions struct {
	file       string
	trace      bool
	pretty     bool
	check      bool
	dumpAST    bool
	format     bool
	write      bool
	configPath string
	summarize  string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		fmt.Fprintln(stderr, usage)
		return exitUsage
	}

	if opts.summarize != "" {
		return cmdSummarize(opts, stdin, stdout, stderr)
	}

	cwd, _ := os.Getwd()
	cfg, err := config.Load(opts.configPath, cwd)
	if err != nil {
		printDiags(stderr, runtime.DiagnosticsOf(err), opts.pretty)
		return exitUsage
	}
	opts.pretty = opts.pretty || cfg.Pretty
	opts.trace = opts.trace || cfg.Trace

	if opts.file == "" {
		return runREPL(cfg, opts, stdout, stderr)
	}

	source, filename, code := readSource(opts.file, stdin, stderr, opts.pretty)
	if code != exitOK {
		return code
	}

	switch {
	case opts.check:
		return cmdCheck(cfg, opts, source, filename, stdout, stderr)
	case opts.dumpAST:
		return cmdDumpAST(cfg, opts, source, filename, stdout, stderr)
	case opts.format:
		return cmdFmt(cfg, opts, source, filename, stdout, stderr)
	}
	return cmdRun(cfg, opts, source, filename, stdout, stderr)
}

func parseArgs(args []string) (*cliOptions, error) {
	opts := &cliOptions{}
	var positional []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--pretty":
			opts.pretty = true
		case "--check":
			opts.check = true
		case "--dump-ast":
			opts.dumpAST = true
		case "--fmt":
			opts.format = true
		case "--write":
			opts.write = true
		case "--config", "--summarize":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%s needs a path", args[i])
			}
			if args[i] == "--config" {
				opts.configPath = args[i+1]
			} else {
				opts.summarize = args[i+1]
			}
			i++
		case "-":
			positional = append(positional, "-")
		default:
			if strings.HasPrefix(args[i], "-") {
				return nil, fmt.Errorf("unknown flag %s", args[i])
			}
			positional = append(positional, args[i])
		}
	}

	switch len(positional) {
	case 0:
	case 1:
		opts.file = positional[0]
	case 2:
		opts.file, opts.trace = positional[0], true
	default:
		return nil, errors.New("too many arguments")
	}
	if opts.write && !opts.format {
		return nil, errors.New("--write needs --fmt")
	}
	if opts.write && opts.file == "-" {
		return nil, errors.New("--write needs a file")
	}
	if opts.file == "" && (opts.check || opts.dumpAST || opts.format) {
		return nil, errors.New("missing file")
	}
	return opts, nil
}

func cmdRun(cfg *config.Config, opts *cliOptions, source, filename string, stdout, stderr io.Writer) int {
	rtOpts := []runtime.Option{runtime.WithConfig(cfg), runtime.WithStdout(stdout)}
	if opts.trace {
		rtOpts = append(rtOpts, runtime.WithTrace(jsonTracer(stdout, stderr)))
	}
	rt := runtime.New(rtOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if _, err := rt.Run(ctx, source, filename); err != nil {
		printDiags(stderr, runtime.DiagnosticsOf(err), opts.pretty)
		return exitCodeFor(err)
	}
	return exitOK
}

func cmdCheck(cfg *config.Config, opts *cliOptions, source, filename string, stdout, stderr io.Writer) int {
	rt := runtime.New(runtime.WithConfig(cfg))
	diags := rt.Check(source, filename)
	if len(diags) == 0 {
		if opts.pretty {
			fmt.Fprintln(stdout, "No problems found.")
		} else {
			fmt.Fprintln(stdout, "[]")
		}
		return exitOK
	}
	printDiags(stderr, diags, opts.pretty)
	for _, d := range diags {
		if !d.IsWarning() {
			return exitDiag
		}
	}
	return exitOK
}

func cmdDumpAST(cfg *config.Config, opts *cliOptions, source, filename string, stdout, stderr io.Writer) int {
	rt := runtime.New(runtime.WithConfig(cfg))
	dump, err := rt.DumpAST(source, filename)
	if err != nil {
		printDiags(stderr, runtime.DiagnosticsOf(err), opts.pretty)
		return exitDiag
	}
	if dump != "" {
		fmt.Fprintln(stdout, dump)
	}
	return exitOK
}

func cmdFmt(cfg *config.Config, opts *cliOptions, source, filename string, stdout, stderr io.Writer) int {
	rt := runtime.New(runtime.WithConfig(cfg))
	formatted, err := rt.Format(source, filename)
	if err != nil {
		printDiags(stderr, runtime.DiagnosticsOf(err), opts.pretty)
		return exitDiag
	}

	if formatter.HasComments(source, cfg.Marker()) {
		fmt.Fprintln(stderr, "warning: comments are not preserved by the formatter")
	}

	if opts.write {
		if err := os.WriteFile(opts.file, []byte(formatted), 0o644); err != nil {
			diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot write file: %s", err), nil, "")
			printDiags(stderr, []diagnostics.Diagnostic{diag}, opts.pretty)
			return exitUsage
		}
		return exitOK
	}
	fmt.Fprint(stdout, formatted)
	return exitOK
}

// jsonTracer writes each trace event as one JSON line.
func jsonTracer(stdout, stderr io.Writer) func(evaluator.TraceEvent) {
	enc := json.NewEncoder(stdout)
	failed := false
	return func(ev evaluator.TraceEvent) {
		if failed {
			return
		}
		if err := enc.Encode(ev); err != nil {
			failed = true
			fmt.Fprintf(stderr, "trace: %s\n", err)
		}
	}
}

func readSource(file string, stdin io.Reader, stderr io.Writer, pretty bool) (string, string, int) {
	if file == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read stdin: %s", err), nil, "")
			printDiags(stderr, []diagnostics.Diagnostic{diag}, pretty)
			return "", "", exitUsage
		}
		return string(data), "<stdin>", exitOK
	}

	source, err := os.ReadFile(file)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, "")
		printDiags(stderr, []diagnostics.Diagnostic{diag}, pretty)
		return "", "", exitUsage
	}
	return string(source), file, exitOK
}

func printDiags(w io.Writer, diags []diagnostics.Diagnostic, pretty bool) {
	fmt.Fprintln(w, diagnostics.FormatDiagnostics(diags, pretty))
}

func exitCodeFor(err error) int {
	var de *runtime.DiagnosticError
	if errors.As(err, &de) {
		return exitDiag
	}
	var re *evaluator.RuntimeError
	if errors.As(err, &re) {
		return exitRuntime
	}
	return exitUsage
}
