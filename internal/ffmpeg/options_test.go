package ffmpeg

import "testing"

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    int
		wantErr bool
	}{
		{"empty", nil, 0, false},
		{"valid", []string{"genpts", " igndts "}, 2, false},
		{"unknown", []string{"turbo"}, 0, true},
		{"exclusive group", []string{"thread_queue_1024", "thread_queue_4096"}, 0, true},
		{"conflict", []string{"copyts", "genpts"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOptions(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseOptions(%v) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOptions(%v) unexpected error: %v", tt.in, err)
			}
			if len(got) != tt.want {
				t.Errorf("ParseOptions(%v) returned %d options, want %d", tt.in, len(got), tt.want)
			}
		})
	}
}

func TestEveryOptionProducesArgs(t *testing.T) {
	for _, opt := range AllOptions {
		in := inputOptionArgs([]OptionType{opt.Key})
		out := outputOptionArgs([]OptionType{opt.Key})
		if len(in)+len(out) == 0 {
			t.Errorf("option %s adds no arguments", opt.Key)
		}
	}
}
