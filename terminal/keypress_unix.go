//go:build unix

package terminal

import (
	"golang.org/x/sys/unix"
)

// pollKeypress checks fd for pending input without blocking and drains
// whatever is there.
func pollKeypress(fd int) bool {
	fds := []unix.PollFd{
		{Fd: int32(fd), Events: unix.POLLIN},
	}

	n, err := unix.Poll(fds, 0)
	if err != nil || n == 0 || fds[0].Revents&unix.POLLIN == 0 {
		return false
	}

	buf := make([]byte, 64)

	rn, err := unix.Read(fd, buf)
	if err != nil || rn == 0 {
		return false
	}

	return true
}
