package ffmpeg

import "testing"

func TestParseProgress(t *testing.T) {
	line := "frame=  120 fps= 24 q=28.0 size=    1024kB time=00:00:05.00 bitrate=1677.7kbits/s dup=1 drop=3 speed=1.01x"
	p, ok := ParseProgress(line)
	if !ok {
		t.Fatal("expected stats line to parse")
	}
	want := Progress{Frame: 120, FPS: 24, BitrateKbps: 1677.7, Speed: 1.01, Dropped: 3, Duplicated: 1}
	if p != want {
		t.Errorf("ParseProgress() = %+v, want %+v", p, want)
	}
}

func TestParseProgressNotAvailable(t *testing.T) {
	p, ok := ParseProgress("frame=    0 fps=0.0 q=0.0 size=       0kB time=N/A bitrate=N/A speed=N/A")
	if !ok {
		t.Fatal("expected stats line to parse")
	}
	if p.BitrateKbps != 0 || p.Speed != 0 {
		t.Errorf("expected N/A fields to stay zero, got %+v", p)
	}
}

func TestParseProgressIgnoresLogLines(t *testing.T) {
	if _, ok := ParseProgress("[error] Connection refused"); ok {
		t.Error("log line parsed as progress")
	}
}
