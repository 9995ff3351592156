package ffmpeg

// Params describes one relay: read Input once in real time and push it,
// re-encoded, to OutputURL. Zero values fall back to the defaults of
// DefaultParams.
type Params struct {
	// Input
	Input string // file or URL read with -re
	Loop  bool   // -stream_loop -1

	// Video
	VideoCodec   string // libx264, copy, ...
	PixelFormat  string // yuv420p
	GOP          int    // keyframe interval and keyint_min
	VideoBitrate string // -b:v and -maxrate
	BufferSize   string // -bufsize

	// Audio
	AudioCodec    string // aac, copy, ...
	AudioRate     int    // Hz
	AudioBitrate  string // -b:a
	AudioChannels int

	// Output
	Format    string // container, flv for RTMP
	OutputURL string // server URL joined with the stream key

	LogLevel  string       // ffmpeg -loglevel, prefixed with level+
	Options   []OptionType // input-side behavior flags
	ExtraArgs []string     // inserted before the output
}

// DefaultParams returns the encoding settings used for a relay when no
// override is configured.
func DefaultParams() Params {
	return Params{
		VideoCodec:    "libx264",
		PixelFormat:   "yuv420p",
		GOP:           24,
		VideoBitrate:  "6000k",
		BufferSize:    "3000k",
		AudioCodec:    "aac",
		AudioRate:     44100,
		AudioBitrate:  "160k",
		AudioChannels: 2,
		Format:        "flv",
		LogLevel:      "warning",
	}
}

// withDefaults returns a copy of p with every unset field filled in.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.VideoCodec == "" {
		p.VideoCodec = d.VideoCodec
	}
	if p.PixelFormat == "" {
		p.PixelFormat = d.PixelFormat
	}
	if p.GOP <= 0 {
		p.GOP = d.GOP
	}
	if p.VideoBitrate == "" {
		p.VideoBitrate = d.VideoBitrate
	}
	if p.BufferSize == "" {
		p.BufferSize = d.BufferSize
	}
	if p.AudioCodec == "" {
		p.AudioCodec = d.AudioCodec
	}
	if p.AudioRate <= 0 {
		p.AudioRate = d.AudioRate
	}
	if p.AudioBitrate == "" {
		p.AudioBitrate = d.AudioBitrate
	}
	if p.AudioChannels <= 0 {
		p.AudioChannels = d.AudioChannels
	}
	if p.Format == "" {
		p.Format = d.Format
	}
	if p.LogLevel == "" {
		p.LogLevel = d.LogLevel
	}
	return p
}
