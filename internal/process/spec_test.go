package process

import "testing"

func TestCommandLine(t *testing.T) {
	spec := ChildSpec{
		Program: "/usr/bin/ffmpeg",
		Args:    []string{"-i", "my video.mp4", "-metadata", "title=", "", "rtmp://host/live/key"},
	}
	want := `/usr/bin/ffmpeg -i "my video.mp4" -metadata title= "" rtmp://host/live/key`
	if got := spec.CommandLine(); got != want {
		t.Errorf("CommandLine() = %s, want %s", got, want)
	}
}

func TestCloneDoesNotShareArgs(t *testing.T) {
	spec := ChildSpec{Name: "a", Program: "true", Args: []string{"x"}}
	c := spec.clone()
	c.Args[0] = "y"
	if spec.Args[0] != "x" {
		t.Error("clone shares the argument slice")
	}
}
