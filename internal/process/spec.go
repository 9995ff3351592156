package process

import (
	"slices"
	"strconv"
	"strings"
)

// ChildSpec describes one process to launch. The argument vector is passed
// to the program as-is; no shell is involved.
type ChildSpec struct {
	Name    string
	Program string
	Args    []string
	Env     []string // KEY=VALUE entries appended to the current environment
	Dir     string
}

// clone returns a copy that shares no slices with the caller's value.
func (s ChildSpec) clone() ChildSpec {
	s.Args = slices.Clone(s.Args)
	s.Env = slices.Clone(s.Env)
	return s
}

// CommandLine renders the program and arguments for display, quoting
// arguments that would otherwise be ambiguous.
func (s ChildSpec) CommandLine() string {
	parts := make([]string, 0, len(s.Args)+1)
	parts = append(parts, displayArg(s.Program))
	for _, arg := range s.Args {
		parts = append(parts, displayArg(arg))
	}
	return strings.Join(parts, " ")
}

func displayArg(arg string) string {
	if arg == "" || strings.ContainsAny(arg, " \t\n\"'\\$`") {
		return strconv.Quote(arg)
	}
	return arg
}
