package ffmpeg

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/smazurov/multistream/internal/process"
)

// DefaultProgram is the encoder looked up on PATH when none is configured.
const DefaultProgram = "ffmpeg"

// BuildRelayArgs builds the ffmpeg argument vector for one relay. The
// program name is not included.
func BuildRelayArgs(p *Params) []string {
	r := p.withDefaults()

	args := []string{"-hide_banner", "-nostdin", "-loglevel", "level+" + r.LogLevel}

	// Input side
	args = append(args, inputOptionArgs(r.Options)...)
	if r.Loop {
		args = append(args, "-stream_loop", "-1")
	}
	args = append(args, "-re", "-i", r.Input)
	args = append(args, outputOptionArgs(r.Options)...)

	// Video
	args = append(args, "-c:v", r.VideoCodec)
	if r.VideoCodec != "copy" {
		gop := strconv.Itoa(r.GOP)
		args = append(args,
			"-pix_fmt", r.PixelFormat,
			"-g", gop,
			"-keyint_min", gop,
			"-b:v", r.VideoBitrate,
			"-maxrate", r.VideoBitrate,
		)
	}

	// Audio
	args = append(args, "-c:a", r.AudioCodec)
	if r.AudioCodec != "copy" {
		if r.AudioCodec == "aac" {
			args = append(args, "-strict", "-2")
		}
		args = append(args,
			"-ar", strconv.Itoa(r.AudioRate),
			"-b:a", r.AudioBitrate,
			"-ac", strconv.Itoa(r.AudioChannels),
		)
	}
	if r.VideoCodec != "copy" {
		args = append(args, "-bufsize", r.BufferSize)
	}

	args = append(args, r.ExtraArgs...)

	// Output
	if r.Format == "flv" {
		// RTMP servers reject the duration/filesize rewrite flv does on close.
		args = append(args, "-flvflags", "no_duration_filesize")
	}
	args = append(args, "-f", r.Format, r.OutputURL)

	return args
}

// JoinURL appends a stream key to a server URL. An empty server yields the
// key itself, which lets a key carry a full URL.
func JoinURL(server, key string) string {
	if server == "" {
		return key
	}
	return strings.TrimRight(server, "/") + "/" + strings.TrimLeft(key, "/")
}

// Locate resolves program on PATH. A missing program is a precondition
// failure: nothing may be launched without it.
func Locate(program string) (string, error) {
	if program == "" {
		program = DefaultProgram
	}
	path, err := exec.LookPath(program)
	if err != nil {
		return "", process.NewPreconditionError(fmt.Sprintf("%s not found on PATH", program), err)
	}
	return path, nil
}
