// Package report renders the final per-child outcome of a supervised run.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/smazurov/multistream/internal/process"
	"golang.org/x/term"
)

// Format selects how a report is written.
type Format string

// Report formats.
const (
	FormatAuto Format = "auto" // text on a terminal, json otherwise
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatNone Format = "none"
)

// ParseFormat validates a format name. Empty means auto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatText, FormatJSON, FormatNone:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want auto, text, json or none)", s)
	}
}

// Failure is a child that could not be launched.
type Failure struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Report is the summary of one launch-and-wait cycle.
type Report struct {
	StartedAt time.Time         `json:"started_at"`
	Duration  time.Duration     `json:"-"`
	Outcomes  []process.Outcome `json:"outcomes"`
	Failures  []Failure         `json:"launch_failures,omitempty"`
}

// New builds a report from WaitAll outcomes and LaunchAll failures.
func New(startedAt time.Time, outcomes []process.Outcome, failures []*process.Error) Report {
	r := Report{
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Outcomes:  outcomes,
	}
	for _, f := range failures {
		r.Failures = append(r.Failures, Failure{Index: f.Index, Name: f.Name, Error: f.Error()})
	}
	return r
}

// Counts returns how many children exited on their own, were terminated,
// and failed to launch.
func (r Report) Counts() (exited, terminated, failed int) {
	for _, o := range r.Outcomes {
		if o.State == process.StateTerminated {
			terminated++
		} else {
			exited++
		}
	}
	return exited, terminated, len(r.Failures)
}

// Write renders r to w in the given format.
func Write(w io.Writer, r Report, format Format) error {
	if format == FormatAuto {
		format = FormatJSON
		if isTerminal(w) {
			format = FormatText
		}
	}

	switch format {
	case FormatNone:
		return nil
	case FormatJSON:
		return writeJSON(w, r)
	default:
		return writeText(w, r)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func writeJSON(w io.Writer, r Report) error {
	out := struct {
		Report
		DurationSeconds float64 `json:"duration_seconds"`
	}{r, r.Duration.Seconds()}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeText(w io.Writer, r Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCHILD\tPID\tSTATE\tEXIT\tRUNTIME")
	for _, o := range r.Outcomes {
		exit := "-"
		if o.State == process.StateExited {
			exit = fmt.Sprint(o.ExitCode)
		}
		runtime := o.ExitedAt.Sub(o.StartedAt).Truncate(time.Second)
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n", o.Index, o.Name, o.PID, o.State, exit, runtime)
	}
	for _, f := range r.Failures {
		fmt.Fprintf(tw, "%d\t%s\t-\tnot started\t-\t-\n", f.Index, f.Name)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, f := range r.Failures {
		fmt.Fprintf(w, "\n%s: %s\n", f.Name, f.Error)
	}
	for _, o := range r.Outcomes {
		if len(o.Tail) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s exited %d, last output:\n", o.Name, o.ExitCode)
		for _, line := range o.Tail {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}

	exited, terminated, failed := r.Counts()
	_, err := fmt.Fprintf(w, "\n%d exited, %d terminated, %d failed to launch in %s\n",
		exited, terminated, failed, r.Duration.Truncate(time.Millisecond))
	return err
}
