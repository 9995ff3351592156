package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/smazurov/multistream/internal/process"
)

func sampleReport() Report {
	start := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	outcomes := []process.Outcome{
		{Status: process.Status{Index: 0, Name: "A/k1", PID: 10, State: process.StateExited, ExitCode: 0, StartedAt: start, ExitedAt: start.Add(90 * time.Second)}},
		{
			Status: process.Status{Index: 2, Name: "C/k3", PID: 12, State: process.StateExited, ExitCode: 1, StartedAt: start, ExitedAt: start.Add(2 * time.Second)},
			Tail:   []string{"[error] Connection refused"},
		},
		{Status: process.Status{Index: 3, Name: "D/k4", PID: 13, State: process.StateTerminated, ExitCode: 130, StartedAt: start, ExitedAt: start.Add(time.Minute)}},
	}
	failures := []*process.Error{{Code: process.ErrCodeLaunchFailed, Index: 1, Name: "B/k2", Message: "empty command"}}

	r := New(start, outcomes, failures)
	r.Duration = 95 * time.Second
	return r
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleReport(), FormatText); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"CHILD",
		"A/k1",
		"1m30s",
		"not started",
		"B/k2: LAUNCH_FAILED",
		"C/k3 exited 1, last output:",
		"  [error] Connection refused",
		"2 exited, 1 terminated, 1 failed to launch in 1m35s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q:\n%s", want, out)
		}
	}

	// Terminated children show no exit code.
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 6 && fields[1] == "D/k4" && fields[4] != "-" {
			t.Errorf("terminated row should have no exit code: %q", line)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleReport(), FormatJSON); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var decoded struct {
		Outcomes []struct {
			Name     string   `json:"name"`
			State    string   `json:"state"`
			ExitCode int      `json:"exit_code"`
			Tail     []string `json:"tail"`
		} `json:"outcomes"`
		Failures        []Failure `json:"launch_failures"`
		DurationSeconds float64   `json:"duration_seconds"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}

	if len(decoded.Outcomes) != 3 || decoded.Outcomes[2].State != "terminated" {
		t.Errorf("unexpected outcomes %+v", decoded.Outcomes)
	}
	if len(decoded.Outcomes[1].Tail) != 1 {
		t.Errorf("tail missing: %+v", decoded.Outcomes[1])
	}
	if len(decoded.Failures) != 1 || decoded.Failures[0].Index != 1 {
		t.Errorf("unexpected failures %+v", decoded.Failures)
	}
	if decoded.DurationSeconds != 95 {
		t.Errorf("duration_seconds = %v, want 95", decoded.DurationSeconds)
	}
}

func TestWriteAutoAndNone(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleReport(), FormatAuto); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("auto format on a non-terminal should be json, got %q", buf.String()[:20])
	}

	buf.Reset()
	if err := Write(&buf, sampleReport(), FormatNone); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("none format wrote %q", buf.String())
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"": FormatAuto, "TEXT": FormatText, "json": FormatJSON, "none": FormatNone}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
