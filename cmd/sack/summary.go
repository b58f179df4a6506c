package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/thomasrohde/sack/pkg/diagnostics"
	"github.com/thomasrohde/sack/pkg/evaluator"
)

// TraceSummary aggregates a JSON-lines trace written by a traced run.
type TraceSummary struct {
	RunID         string         `json:"runId"`
	TotalEvents   int            `json:"totalEvents"`
	Statements    int            `json:"statements"`
	FnCalls       int            `json:"fnCalls"`
	FnCallsByName map[string]int `json:"fnCallsByName"`
	Loops         int            `json:"loops"`
	Iterations    int64          `json:"iterations"`
	StartTime     string         `json:"startTime,omitempty"`
	EndTime       string         `json:"endTime,omitempty"`
	DurationMs    float64        `json:"durationMs"`
}

type traceLine struct {
	Event string         `json:"event"`
	RunID string         `json:"runId"`
	TS    string         `json:"ts"`
	Data  map[string]any `json:"data,omitempty"`
}

// maxTraceLine bounds a single trace event; stmt_start events carry the whole
// formatted statement.
const maxTraceLine = 16 << 20

func cmdSummarize(opts *cliOptions, stdin io.Reader, stdout, stderr io.Writer) int {
	in := stdin
	if opts.summarize != "-" {
		f, err := os.Open(opts.summarize)
		if err != nil {
			diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", opts.summarize), nil, "")
			printDiags(stderr, []diagnostics.Diagnostic{diag}, opts.pretty)
			return exitUsage
		}
		defer f.Close()
		in = f
	}

	summary, err := computeTraceSummary(in)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read trace: %v", err), nil, "")
		printDiags(stderr, []diagnostics.Diagnostic{diag}, opts.pretty)
		return exitUsage
	}
	if opts.pretty {
		printTraceSummaryText(stdout, summary)
		return exitOK
	}
	b, _ := json.Marshal(summary)
	fmt.Fprintln(stdout, string(b))
	return exitOK
}

// computeTraceSummary reads trace events line by line. Lines that are not
// trace events, such as program output mixed into the same stream, are
// skipped.
func computeTraceSummary(r io.Reader) (*TraceSummary, error) {
	summary := &TraceSummary{FnCallsByName: make(map[string]int)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxTraceLine)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var event traceLine
		if err := json.Unmarshal([]byte(line), &event); err != nil || event.Event == "" {
			continue
		}

		summary.TotalEvents++
		if summary.RunID == "" {
			summary.RunID = event.RunID
		}

		switch evaluator.TraceEventType(event.Event) {
		case evaluator.TraceRunStart:
			if summary.StartTime == "" {
				summary.StartTime = event.TS
			}
		case evaluator.TraceRunEnd:
			summary.EndTime = event.TS
			if n, ok := event.Data["iterations"].(float64); ok {
				summary.Iterations += int64(n)
			}
		case evaluator.TraceStmtStart:
			summary.Statements++
		case evaluator.TraceFnCallStart:
			summary.FnCalls++
			if name, ok := event.Data["name"].(string); ok {
				summary.FnCallsByName[name]++
			}
		case evaluator.TraceLoopStart:
			summary.Loops++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if summary.StartTime != "" && summary.EndTime != "" {
		start, err1 := time.Parse(time.RFC3339Nano, summary.StartTime)
		end, err2 := time.Parse(time.RFC3339Nano, summary.EndTime)
		if err1 == nil && err2 == nil {
			summary.DurationMs = float64(end.Sub(start).Microseconds()) / 1000
		}
	}
	return summary, nil
}

func printTraceSummaryText(w io.Writer, s *TraceSummary) {
	fmt.Fprintf(w, "Run: %s\n", s.RunID)
	fmt.Fprintf(w, "Events: %d\n", s.TotalEvents)
	fmt.Fprintf(w, "Statements: %d\n", s.Statements)
	fmt.Fprintf(w, "Calls: %d\n", s.FnCalls)
	names := make([]string, 0, len(s.FnCallsByName))
	for name := range s.FnCallsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %d\n", name, s.FnCallsByName[name])
	}
	fmt.Fprintf(w, "Loops: %d (%d iterations)\n", s.Loops, s.Iterations)
	if s.DurationMs > 0 {
		fmt.Fprintf(w, "Duration: %.3fms\n", s.DurationMs)
	}
}
