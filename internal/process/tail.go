package process

import "sync"

// tailBuffer keeps the most recent output lines of a child.
type tailBuffer struct {
	lines []string
	size  int
	head  int
	count int
	mu    sync.Mutex
}

func newTailBuffer(size int) *tailBuffer {
	if size <= 0 {
		return nil
	}
	return &tailBuffer{
		lines: make([]string, size),
		size:  size,
	}
}

// Write appends a line, overwriting the oldest one when full.
func (tb *tailBuffer) Write(line string) {
	if tb == nil {
		return
	}
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.lines[tb.head] = line
	tb.head = (tb.head + 1) % tb.size
	if tb.count < tb.size {
		tb.count++
	}
}

// Lines returns the buffered lines oldest first.
func (tb *tailBuffer) Lines() []string {
	if tb == nil {
		return nil
	}
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if tb.count == 0 {
		return nil
	}
	result := make([]string, 0, tb.count)
	start := (tb.head - tb.count + tb.size) % tb.size
	for i := range tb.count {
		result = append(result, tb.lines[(start+i)%tb.size])
	}
	return result
}
