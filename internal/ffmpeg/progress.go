package ffmpeg

import (
	"regexp"
	"strconv"
	"strings"
)

// Progress is one parsed ffmpeg stats line.
type Progress struct {
	Frame       int64
	FPS         float64
	BitrateKbps float64
	Speed       float64
	Dropped     int64
	Duplicated  int64
}

var statPattern = regexp.MustCompile(`(\w+)=\s*(\S+)`)

// ParseProgress parses a stats line such as
// "frame=  120 fps= 24 q=28.0 size=1024kB time=00:00:05.00 bitrate=1677.7kbits/s dup=0 drop=3 speed=1.00x".
// Fields ffmpeg reports as N/A are left zero.
func ParseProgress(line string) (Progress, bool) {
	if !strings.HasPrefix(line, "frame=") {
		return Progress{}, false
	}

	var p Progress
	for _, m := range statPattern.FindAllStringSubmatch(line, -1) {
		value := m[2]
		switch m[1] {
		case "frame":
			p.Frame, _ = strconv.ParseInt(value, 10, 64)
		case "fps":
			p.FPS, _ = strconv.ParseFloat(value, 64)
		case "bitrate":
			p.BitrateKbps, _ = strconv.ParseFloat(strings.TrimSuffix(value, "kbits/s"), 64)
		case "speed":
			p.Speed, _ = strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64)
		case "drop":
			p.Dropped, _ = strconv.ParseInt(value, 10, 64)
		case "dup":
			p.Duplicated, _ = strconv.ParseInt(value, 10, 64)
		}
	}
	return p, true
}
