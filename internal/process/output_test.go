package process

import (
	"slices"
	"strings"
	"testing"
)

func collect() (*lineWriter, *[]string) {
	var lines []string
	w := &lineWriter{source: "stderr", emit: func(source, line string) {
		lines = append(lines, source+":"+line)
	}}
	return w, &lines
}

func TestLineWriterSplitsAcrossWrites(t *testing.T) {
	w, lines := collect()
	for _, chunk := range []string{"fra", "me=1\rfr", "ame=2\r\n", "\n\nerr", "or"} {
		if _, err := w.Write([]byte(chunk)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	w.Flush()

	want := []string{"stderr:frame=1", "stderr:frame=2", "stderr:error"}
	if !slices.Equal(*lines, want) {
		t.Errorf("lines = %q, want %q", *lines, want)
	}
}

func TestLineWriterFlushesLongLines(t *testing.T) {
	w, lines := collect()
	long := strings.Repeat("x", maxLineLength+1)
	if n, _ := w.Write([]byte(long)); n != len(long) {
		t.Errorf("Write returned %d, want %d", n, len(long))
	}
	if len(*lines) != 1 {
		t.Fatalf("expected oversized partial line to be flushed, got %d lines", len(*lines))
	}
	w.Flush()
	if len(*lines) != 1 {
		t.Errorf("Flush emitted an empty line")
	}
}

func TestTailBuffer(t *testing.T) {
	tb := newTailBuffer(3)
	if tb.Lines() != nil {
		t.Error("expected no lines from empty buffer")
	}
	for _, l := range []string{"a", "b"} {
		tb.Write(l)
	}
	if got := tb.Lines(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Lines() = %v", got)
	}
	for _, l := range []string{"c", "d", "e"} {
		tb.Write(l)
	}
	if got := tb.Lines(); !slices.Equal(got, []string{"c", "d", "e"}) {
		t.Errorf("Lines() after wrap = %v", got)
	}
}

func TestTailBufferDisabled(t *testing.T) {
	tb := newTailBuffer(0)
	if tb != nil {
		t.Fatal("expected nil buffer for size 0")
	}
	tb.Write("ignored")
	if tb.Lines() != nil {
		t.Error("expected nil lines from disabled buffer")
	}
}
