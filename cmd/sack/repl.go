package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/peterh/liner"

	"github.com/thomasrohde/sack/pkg/config"
	"github.com/thomasrohde/sack/pkg/diagnostics"
	"github.com/thomasrohde/sack/pkg/runtime"
)

const banner = "sack interactive session. Type :help for commands, Ctrl+D to leave."

const replHelp = `commands:
  :help            show this help
  :quit, :exit     leave the session
  :names           list bound variables and declared functions
  :reset           forget every binding and function
  :load <file>     run a file inside this session
  :check <code>    lint code against the session without running it
  :ast <code>      print the parse tree of code
Input continues on the next line while a ( or { is left open.
Ctrl+C abandons the current input or interrupts a running loop.
`

// lineReader is the part of *liner.State the session loop needs.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

type repl struct {
	in      lineReader
	out     io.Writer
	cfg     *config.Config
	session *runtime.Session
	pretty  bool
}

func runREPL(cfg *config.Config, opts *cliOptions, stdout, stderr io.Writer) int {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := cfg.HistoryPath()
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}

	fmt.Fprintln(stdout, banner)
	r := newREPL(ln, cfg, opts, stdout, stderr)
	r.loop()

	if histPath != "" {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}
	return exitOK
}

func newREPL(in lineReader, cfg *config.Config, opts *cliOptions, stdout, stderr io.Writer) *repl {
	rtOpts := []runtime.Option{
		runtime.WithConfig(cfg),
		runtime.WithStdout(stdout),
		runtime.WithRunID("repl"),
	}
	if opts.trace {
		rtOpts = append(rtOpts, runtime.WithTrace(jsonTracer(stdout, stderr)))
	}
	rt := runtime.New(rtOpts...)
	return &repl{
		in:      in,
		out:     stdout,
		cfg:     cfg,
		session: rt.NewSession("<repl>"),
		pretty:  opts.pretty,
	}
}

func (r *repl) loop() {
	for {
		code, ok := r.read()
		if !ok {
			fmt.Fprintln(r.out)
			return
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if done := r.command(trimmed); done {
				return
			}
			continue
		}
		r.in.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}
}

// read collects lines until they form a complete input and evaluates it.
// Commands are returned unevaluated. ok is false at end of input.
func (r *repl) read() (code string, ok bool) {
	var b strings.Builder
	for {
		prompt := r.cfg.REPL.Prompt
		if b.Len() > 0 {
			prompt = r.cfg.REPL.Continuation
		}
		line, err := r.in.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			fmt.Fprintf(r.out, "input: %s\n", err)
			return "", false
		}

		if b.Len() == 0 && strings.HasPrefix(strings.TrimSpace(line), ":") {
			return line, true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.TrimSpace(src) == "" {
			return "", true
		}
		if err := r.eval(src); errors.Is(err, runtime.ErrIncomplete) {
			continue
		}
		return src, true
	}
}

func (r *repl) eval(src string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_, err := r.session.Eval(ctx, src)
	if err != nil && !errors.Is(err, runtime.ErrIncomplete) {
		r.report(runtime.DiagnosticsOf(err))
	}
	return err
}

func (r *repl) report(diags []diagnostics.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(r.out, diagnostics.FormatDiagnostic(d, r.pretty))
	}
}

// command runs a colon command and reports whether the session should end.
func (r *repl) command(line string) (exit bool) {
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])
	arg := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

	switch cmd {
	case ":help":
		fmt.Fprint(r.out, replHelp)

	case ":quit", ":exit":
		return true

	case ":names":
		vars, fns := r.session.Names()
		fmt.Fprintf(r.out, "variables: %s\n", joinOrNone(vars))
		fmt.Fprintf(r.out, "functions: %s\n", joinOrNone(fns))

	case ":reset":
		r.session.Reset()
		fmt.Fprintln(r.out, "session reset.")

	case ":load":
		if arg == "" {
			fmt.Fprintln(r.out, "usage: :load <file>")
			return false
		}
		src, err := os.ReadFile(arg)
		if err != nil {
			fmt.Fprintf(r.out, "cannot read %s: %v\n", arg, err)
			return false
		}
		if err := r.eval(string(src)); errors.Is(err, runtime.ErrIncomplete) {
			fmt.Fprintf(r.out, "%s: unexpected end of input\n", arg)
			return false
		}
		r.in.AppendHistory(":load " + arg)

	case ":check":
		if arg == "" {
			fmt.Fprintln(r.out, "usage: :check <code>")
			return false
		}
		diags := r.session.Check(arg)
		if len(diags) == 0 {
			fmt.Fprintln(r.out, "no problems found.")
			return false
		}
		r.report(diags)

	case ":ast":
		if arg == "" {
			fmt.Fprintln(r.out, "usage: :ast <code>")
			return false
		}
		dump, err := r.session.DumpAST(arg)
		if err != nil {
			r.report(runtime.DiagnosticsOf(err))
			return false
		}
		fmt.Fprintln(r.out, dump)

	default:
		fmt.Fprintln(r.out, "unknown command. Type :help for help.")
	}
	return false
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
