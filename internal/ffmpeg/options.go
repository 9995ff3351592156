package ffmpeg

import (
	"fmt"
	"strings"
)

// OptionType is a named ffmpeg behavior flag that can be enabled per relay.
type OptionType string

// FFmpeg option constants
const (
	OptionGeneratePTS        OptionType = "genpts"
	OptionIgnoreDTS          OptionType = "igndts"
	OptionDiscardCorrupt     OptionType = "discardcorrupt"
	OptionIgnoreErrors       OptionType = "ignore_err"
	OptionWallclockTimestamp OptionType = "wallclock_ts"
	OptionThreadQueue1024    OptionType = "thread_queue_1024"
	OptionThreadQueue4096    OptionType = "thread_queue_4096"
	OptionLowLatency         OptionType = "low_latency"
	OptionCopyTimestamps     OptionType = "copyts"
	OptionReconnect          OptionType = "reconnect"
)

// ExclusiveGroup names a set of options of which at most one may be enabled.
type ExclusiveGroup string

const (
	GroupThreadQueue ExclusiveGroup = "thread_queue"
)

// Option describes an OptionType.
type Option struct {
	Key            OptionType      `json:"key"`
	Description    string          `json:"description"`
	ExclusiveGroup *ExclusiveGroup `json:"exclusive_group,omitempty"`
	ConflictsWith  []OptionType    `json:"conflicts_with,omitempty"`
}

var threadQueueGroup = GroupThreadQueue

// AllOptions lists every supported option.
var AllOptions = []Option{
	{
		Key:           OptionGeneratePTS,
		Description:   "Generate missing presentation timestamps",
		ConflictsWith: []OptionType{OptionWallclockTimestamp, OptionCopyTimestamps},
	},
	{
		Key:         OptionIgnoreDTS,
		Description: "Ignore decode timestamps of a damaged input",
	},
	{
		Key:         OptionDiscardCorrupt,
		Description: "Drop corrupted input packets",
	},
	{
		Key:         OptionIgnoreErrors,
		Description: "Keep decoding past stream errors",
	},
	{
		Key:           OptionWallclockTimestamp,
		Description:   "Stamp input packets with the wall clock",
		ConflictsWith: []OptionType{OptionGeneratePTS},
	},
	{
		Key:            OptionThreadQueue1024,
		Description:    "Input thread queue of 1024 packets",
		ExclusiveGroup: &threadQueueGroup,
	},
	{
		Key:            OptionThreadQueue4096,
		Description:    "Input thread queue of 4096 packets",
		ExclusiveGroup: &threadQueueGroup,
	},
	{
		Key:         OptionLowLatency,
		Description: "Flush packets immediately and disable input buffering",
	},
	{
		Key:           OptionCopyTimestamps,
		Description:   "Keep input timestamps, starting at zero",
		ConflictsWith: []OptionType{OptionGeneratePTS},
	},
	{
		Key:         OptionReconnect,
		Description: "Reconnect to a network input after a dropped connection",
	},
}

// GetOptionByKey returns an option by its key
func GetOptionByKey(key OptionType) *Option {
	for i := range AllOptions {
		if AllOptions[i].Key == key {
			return &AllOptions[i]
		}
	}
	return nil
}

// ParseOptions converts configured option names and validates the
// combination.
func ParseOptions(names []string) ([]OptionType, error) {
	options := make([]OptionType, 0, len(names))
	for _, name := range names {
		key := OptionType(strings.TrimSpace(name))
		if GetOptionByKey(key) == nil {
			return nil, fmt.Errorf("unknown ffmpeg option %q", name)
		}
		options = append(options, key)
	}
	if err := ValidateOptions(options); err != nil {
		return nil, err
	}
	return options, nil
}

// ValidateOptions checks for conflicts and exclusive group violations
func ValidateOptions(selected []OptionType) error {
	groups := make(map[ExclusiveGroup][]string)
	set := make(map[OptionType]bool, len(selected))
	for _, key := range selected {
		set[key] = true
		if opt := GetOptionByKey(key); opt != nil && opt.ExclusiveGroup != nil {
			groups[*opt.ExclusiveGroup] = append(groups[*opt.ExclusiveGroup], string(key))
		}
	}

	for group, keys := range groups {
		if len(keys) > 1 {
			return fmt.Errorf("multiple options from exclusive group '%s' selected: %s", group, strings.Join(keys, ", "))
		}
	}

	for _, key := range selected {
		opt := GetOptionByKey(key)
		if opt == nil {
			continue
		}
		for _, conflict := range opt.ConflictsWith {
			if set[conflict] {
				return fmt.Errorf("option '%s' conflicts with '%s'", key, conflict)
			}
		}
	}
	return nil
}

// inputOptionArgs returns the arguments options contribute before -i.
func inputOptionArgs(options []OptionType) []string {
	var args, fflags []string
	for _, opt := range options {
		switch opt {
		case OptionGeneratePTS:
			fflags = append(fflags, "+genpts")
		case OptionIgnoreDTS:
			fflags = append(fflags, "+igndts")
		case OptionDiscardCorrupt:
			fflags = append(fflags, "+discardcorrupt")
		case OptionLowLatency:
			fflags = append(fflags, "+nobuffer")
			args = append(args, "-flags", "low_delay")
		case OptionIgnoreErrors:
			args = append(args, "-err_detect", "ignore_err")
		case OptionWallclockTimestamp:
			args = append(args, "-use_wallclock_as_timestamps", "1")
		case OptionThreadQueue1024:
			args = append(args, "-thread_queue_size", "1024")
		case OptionThreadQueue4096:
			args = append(args, "-thread_queue_size", "4096")
		case OptionReconnect:
			args = append(args, "-reconnect", "1", "-reconnect_streamed", "1", "-reconnect_delay_max", "5")
		}
	}
	if len(fflags) > 0 {
		args = append(args, "-fflags", strings.Join(fflags, ""))
	}
	return args
}

// outputOptionArgs returns the arguments options contribute after -i.
func outputOptionArgs(options []OptionType) []string {
	var args []string
	for _, opt := range options {
		switch opt {
		case OptionCopyTimestamps:
			args = append(args, "-copyts", "-start_at_zero")
		case OptionLowLatency:
			args = append(args, "-flush_packets", "1")
		}
	}
	return args
}
