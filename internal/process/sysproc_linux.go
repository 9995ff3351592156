package process

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// processExited reports whether p has exited, whether or not it has been
// reaped yet. WNOWAIT leaves the zombie in place for exec.Cmd.Wait.
func processExited(p *os.Process) bool {
	for {
		var info unix.Siginfo
		err := unix.Waitid(unix.P_PID, p.Pid, &info, unix.WEXITED|unix.WNOHANG|unix.WNOWAIT, nil)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.ECHILD):
			// Already reaped by Wait.
			return true
		case err != nil:
			return false
		}
		return info.Signo != 0
	}
}
