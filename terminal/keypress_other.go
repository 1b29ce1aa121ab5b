//go:build !unix

package terminal

// pollKeypress is unsupported here; playback cannot be interrupted by a key.
func pollKeypress(int) bool {
	return false
}
