package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/smazurov/multistream/internal/ffmpeg"
	"github.com/smazurov/multistream/internal/process"
)

// StreamSet is the resolved stream configuration for one invocation: one
// input relayed once per key. Either Server applies to every key, or
// Targets pairs one server URL with each key by position.
type StreamSet struct {
	Program string
	Input   string
	Server  string
	Targets []string
	Keys    []string
	Loop    bool

	VideoCodec   string
	AudioCodec   string
	VideoBitrate string
	AudioBitrate string
	Format       string
	Options      []string
	ExtraArgs    []string
}

// Validate checks the set before anything is launched. Every failure is a
// precondition error.
func (s StreamSet) Validate() error {
	if len(s.Keys) == 0 {
		return process.NewPreconditionError("no stream keys given", nil)
	}
	for i, key := range s.Keys {
		if strings.TrimSpace(key) == "" {
			return process.NewPreconditionError(fmt.Sprintf("stream key %d is empty", i), nil)
		}
	}
	if strings.TrimSpace(s.Input) == "" {
		return process.NewPreconditionError("no input given", nil)
	}

	if len(s.Targets) > 0 {
		if s.Server != "" {
			return process.NewPreconditionError("server and targets are mutually exclusive", nil)
		}
		if len(s.Targets) != len(s.Keys) {
			return process.NewPreconditionError(cardinalityMessage(len(s.Targets), len(s.Keys)), nil)
		}
		for i, target := range s.Targets {
			if strings.TrimSpace(target) == "" {
				return process.NewPreconditionError(fmt.Sprintf("target %d is empty", i), nil)
			}
		}
	} else if s.Server == "" {
		for i, key := range s.Keys {
			if !strings.Contains(key, "://") {
				return process.NewPreconditionError(fmt.Sprintf("stream key %d has no server; set a server or targets", i), nil)
			}
		}
	}

	if _, err := ffmpeg.ParseOptions(s.Options); err != nil {
		return process.NewPreconditionError("invalid ffmpeg options", err)
	}
	return nil
}

func cardinalityMessage(targets, keys int) string {
	shorter := "targets"
	if keys < targets {
		shorter = "keys"
	}
	return fmt.Sprintf("%s list is shorter: %d targets for %d keys", shorter, targets, keys)
}

// Resolve validates the set and produces one ChildSpec per key, in key
// order, running program. Child names are unique: a key repeated on the
// same server gets its index appended.
func (s StreamSet) Resolve(program string) ([]process.ChildSpec, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	options, _ := ffmpeg.ParseOptions(s.Options)

	specs := make([]process.ChildSpec, len(s.Keys))
	seen := make(map[string]bool, len(s.Keys))
	for i, key := range s.Keys {
		server := s.Server
		if len(s.Targets) > 0 {
			server = s.Targets[i]
		}
		params := ffmpeg.Params{
			Input:        s.Input,
			Loop:         s.Loop,
			VideoCodec:   s.VideoCodec,
			AudioCodec:   s.AudioCodec,
			VideoBitrate: s.VideoBitrate,
			AudioBitrate: s.AudioBitrate,
			Format:       s.Format,
			OutputURL:    ffmpeg.JoinURL(server, key),
			Options:      options,
			ExtraArgs:    slices.Clone(s.ExtraArgs),
		}
		name := childName(server, key)
		if seen[name] {
			name = fmt.Sprintf("%s#%d", name, i)
		}
		seen[name] = true
		specs[i] = process.ChildSpec{
			Name:    name,
			Program: program,
			Args:    ffmpeg.BuildRelayArgs(&params),
		}
	}
	return specs, nil
}

// childName labels a relay as target/key with the key masked.
func childName(server, key string) string {
	if server == "" {
		if u, err := url.Parse(key); err == nil && u.Host != "" {
			return u.Host + "/" + MaskKey(strings.TrimPrefix(u.Path, "/"))
		}
		return MaskKey(key)
	}
	label := server
	if u, err := url.Parse(server); err == nil && u.Host != "" {
		label = u.Host + u.Path
	}
	return strings.TrimRight(label, "/") + "/" + MaskKey(key)
}

// MaskKey hides most of a stream key. Keys of eight characters or fewer
// are shown as-is. Longer keys keep their first four characters followed
// by a short digest of the whole key, so keys sharing a prefix (every
// Twitch key starts with "live_") still mask differently.
func MaskKey(key string) string {
	runes := []rune(key)
	if len(runes) <= 8 {
		return key
	}
	sum := sha256.Sum256([]byte(key))
	return string(runes[:4]) + "****-" + hex.EncodeToString(sum[:3])
}
