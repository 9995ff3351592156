package process

import (
	"bytes"
	"log/slog"
)

// LogParser extracts a log level and message from one line of child
// output (ffmpeg, gstreamer, ...).
type LogParser func(line string) (level slog.Level, msg string)

// OutputHandler receives every output line of every child.
// Implementations can record progress metrics, forward output, etc.
type OutputHandler interface {
	HandleLine(child, source, line string)
}

// maxLineLength bounds a partial line held while waiting for a newline.
const maxLineLength = 16 * 1024

// lineWriter splits a child's output stream into lines. ffmpeg ends
// progress lines with '\r', so both '\r' and '\n' terminate a line.
// Each writer is fed by a single exec copy goroutine.
type lineWriter struct {
	source string
	emit   func(source, line string)
	buf    []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexAny(w.buf, "\r\n")
		if i < 0 {
			break
		}
		if i > 0 {
			w.emit(w.source, string(w.buf[:i]))
		}
		w.buf = w.buf[i+1:]
	}
	if len(w.buf) > maxLineLength {
		w.Flush()
	}
	return len(p), nil
}

// Flush emits any buffered partial line.
func (w *lineWriter) Flush() {
	if len(w.buf) > 0 {
		w.emit(w.source, string(w.buf))
	}
	w.buf = nil
}
