package cmd

import (
	"time"

	"github.com/smazurov/multistream/internal/config"
	"github.com/smazurov/multistream/internal/ffmpeg"
	"github.com/smazurov/multistream/internal/process"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// options is the flat configuration of the run and check commands. Each
// field can come from a flag, a MULTISTREAM_* variable or the config file,
// in that order of precedence.
type options struct {
	Config string

	Program string   `toml:"streams.program" env:"PROGRAM"`
	Input   string   `toml:"streams.input" env:"INPUT"`
	Server  string   `toml:"streams.server" env:"SERVER"`
	Targets []string `toml:"streams.targets" env:"TARGETS"`
	Keys    []string `toml:"streams.keys" env:"KEYS"`
	Loop    bool     `toml:"streams.loop" env:"LOOP"`

	VideoCodec   string   `toml:"ffmpeg.video_codec" env:"VIDEO_CODEC"`
	AudioCodec   string   `toml:"ffmpeg.audio_codec" env:"AUDIO_CODEC"`
	VideoBitrate string   `toml:"ffmpeg.video_bitrate" env:"VIDEO_BITRATE"`
	AudioBitrate string   `toml:"ffmpeg.audio_bitrate" env:"AUDIO_BITRATE"`
	Format       string   `toml:"ffmpeg.format" env:"FORMAT"`
	Options      []string `toml:"ffmpeg.options" env:"FFMPEG_OPTIONS" flag:"ffmpeg-option"`
	ExtraArgs    []string `toml:"ffmpeg.extra_args" env:"FFMPEG_EXTRA_ARGS" flag:"ffmpeg-arg"`

	GracePeriod time.Duration `toml:"supervisor.grace_period" env:"GRACE_PERIOD"`
	KillTimeout time.Duration `toml:"supervisor.kill_timeout" env:"KILL_TIMEOUT"`
	TailLines   int           `toml:"supervisor.tail_lines" env:"TAIL_LINES"`
	Watch       bool          `toml:"supervisor.watch" env:"WATCH"`
	Report      string        `toml:"supervisor.report" env:"REPORT"`

	Listen       string `toml:"api.listen" env:"API_LISTEN" flag:"listen"`
	AuthUsername string `toml:"api.username" env:"API_USERNAME" flag:"auth-username"`
	AuthPassword string `toml:"api.password" env:"API_PASSWORD" flag:"auth-password"`
}

func addStreamFlags(f *pflag.FlagSet, o *options) {
	f.StringVar(&o.Program, "program", ffmpeg.DefaultProgram, "Encoder program, looked up on PATH")
	f.StringVarP(&o.Input, "input", "i", "input.mp4", "Media file or URL to relay")
	f.StringVarP(&o.Server, "server", "s", "", "Server URL shared by every key, e.g. rtmp://live.example.com/app")
	f.StringSliceVarP(&o.Targets, "targets", "t", nil, "One server URL per key, paired by position")
	f.BoolVar(&o.Loop, "loop", false, "Loop the input forever")
	f.StringVar(&o.VideoCodec, "video-codec", "", "Video codec (default libx264, copy to pass through)")
	f.StringVar(&o.AudioCodec, "audio-codec", "", "Audio codec (default aac, copy to pass through)")
	f.StringVar(&o.VideoBitrate, "video-bitrate", "", "Video bitrate (default 6000k)")
	f.StringVar(&o.AudioBitrate, "audio-bitrate", "", "Audio bitrate (default 160k)")
	f.StringVar(&o.Format, "format", "", "Output container (default flv)")
	f.StringSliceVar(&o.Options, "ffmpeg-option", nil, "ffmpeg behavior option, repeatable (genpts, low_latency, ...)")
	f.StringArrayVar(&o.ExtraArgs, "ffmpeg-arg", nil, "Extra ffmpeg argument inserted before the output, repeatable")
}

// load applies the config file and environment on top of o. Flags set on
// cmd keep their values; positional keys replace configured ones.
func (o options) load(cmd *cobra.Command, configPath string, args []string) (options, error) {
	o.Config = configPath
	if err := config.LoadConfig(&o, cmd); err != nil {
		return o, err
	}
	return o.withKeys(args), nil
}

// withKeys returns o with positional keys, if any, replacing configured ones.
func (o options) withKeys(args []string) options {
	if len(args) > 0 {
		o.Keys = args
	}
	return o
}

func (o options) streamSet() config.StreamSet {
	return config.StreamSet{
		Program:      o.Program,
		Input:        o.Input,
		Server:       o.Server,
		Targets:      o.Targets,
		Keys:         o.Keys,
		Loop:         o.Loop,
		VideoCodec:   o.VideoCodec,
		AudioCodec:   o.AudioCodec,
		VideoBitrate: o.VideoBitrate,
		AudioBitrate: o.AudioBitrate,
		Format:       o.Format,
		Options:      o.Options,
		ExtraArgs:    o.ExtraArgs,
	}
}

// resolve checks the program is on PATH, then builds one ChildSpec per key.
// Every failure is a precondition error and nothing has been started.
func (o options) resolve() ([]process.ChildSpec, error) {
	set := o.streamSet()
	if err := set.Validate(); err != nil {
		return nil, err
	}
	program, err := ffmpeg.Locate(o.Program)
	if err != nil {
		return nil, err
	}
	return set.Resolve(program)
}

func addSupervisorFlags(f *pflag.FlagSet, o *options) {
	f.DurationVar(&o.GracePeriod, "grace-period", 5*time.Second, "Time children get to exit after the stop signal before being killed (0 disables the kill)")
	f.DurationVar(&o.KillTimeout, "kill-timeout", 5*time.Second, "Time after the kill before children still running are reported")
	f.IntVar(&o.TailLines, "tail-lines", 20, "Output lines kept per child for the final report")
	f.BoolVarP(&o.Watch, "watch", "w", false, "Relaunch the group when the config file changes the child set")
	f.StringVar(&o.Report, "report", "auto", "Final report format (auto, text, json, none)")
	f.StringVar(&o.Listen, "listen", "", "Serve the status API and /metrics on this address, e.g. :9090")
	f.StringVar(&o.AuthUsername, "auth-username", "", "Basic auth username for the status API")
	f.StringVar(&o.AuthPassword, "auth-password", "", "Basic auth password for the status API")
}
