// Package terminal implements the cursor and keypress capabilities used by
// playback.
//
// Two variants exist. [ANSI] drives escape-sequence capable terminals and,
// once [ANSI.Start] has switched stdin to raw mode, reports keypresses
// without blocking. [Plain] is the reduced fallback for dumb terminals and
// redirected output: it writes frames as-is, performs no cursor control, and
// never reports a keypress. [Detect] picks between them.
package terminal

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"
)

// ANSI is a terminal that understands VT100-style escape sequences.
//
// Create instances with [NewANSI].
type ANSI struct {
	out   io.Writer
	in    *os.File
	state *term.State
	inFd  int
}

// NewANSI returns an [ANSI] terminal writing to out and polling in for
// keypresses. in may be nil, in which case keypresses are never reported.
func NewANSI(out io.Writer, in *os.File) *ANSI {
	t := &ANSI{out: out, in: in, inFd: -1}
	if in != nil {
		t.inFd = int(in.Fd())
	}

	return t
}

// Start switches stdin to raw mode so single keypresses can be polled. It is
// a no-op when stdin is not a terminal.
func (t *ANSI) Start() error {
	if t.in == nil || t.state != nil || !term.IsTerminal(t.inFd) {
		return nil
	}

	state, err := term.MakeRaw(t.inFd)
	if err != nil {
		return fmt.Errorf("enabling raw mode: %w", err)
	}

	t.state = state

	return nil
}

// Close restores the terminal mode saved by [ANSI.Start].
func (t *ANSI) Close() error {
	if t.state == nil {
		return nil
	}

	err := term.Restore(t.inFd, t.state)
	t.state = nil

	if err != nil {
		return fmt.Errorf("restoring terminal: %w", err)
	}

	return nil
}

// Write writes p to the terminal. In raw mode output post-processing is off,
// so bare LFs are expanded to CRLF.
func (t *ANSI) Write(p []byte) (int, error) {
	if t.state == nil || !bytes.ContainsRune(p, '\n') {
		return t.out.Write(p)
	}

	_, err := io.WriteString(t.out, strings.ReplaceAll(string(p), "\n", "\r\n"))
	if err != nil {
		return 0, err
	}

	return len(p), nil
}

// ClearScreen erases the display and homes the cursor.
func (t *ANSI) ClearScreen() error {
	return t.writeSeq(ansi.EraseEntireScreen + ansi.CursorHomePosition)
}

// MoveCursorHome moves the cursor to the top-left cell without clearing.
func (t *ANSI) MoveCursorHome() error {
	return t.writeSeq(ansi.CursorHomePosition)
}

// HideCursor hides the text cursor.
func (t *ANSI) HideCursor() error {
	return t.writeSeq(ansi.HideCursor)
}

// ShowCursor shows the text cursor.
func (t *ANSI) ShowCursor() error {
	return t.writeSeq(ansi.ShowCursor)
}

// PollKeypress reports whether a key was pressed since the last call. It
// never blocks and always reports false outside raw mode.
func (t *ANSI) PollKeypress() bool {
	if t.state == nil {
		return false
	}

	return pollKeypress(t.inFd)
}

func (t *ANSI) writeSeq(seq string) error {
	_, err := io.WriteString(t.out, seq)

	return err
}

// Plain is a terminal without cursor control or keypress support.
type Plain struct {
	out io.Writer
}

// NewPlain returns a [Plain] terminal writing to out.
func NewPlain(out io.Writer) *Plain {
	return &Plain{out: out}
}

// Write writes p unchanged.
func (t *Plain) Write(p []byte) (int, error) {
	return t.out.Write(p)
}

// Start is a no-op.
func (*Plain) Start() error { return nil }

// Close is a no-op.
func (*Plain) Close() error { return nil }

// ClearScreen is a no-op.
func (*Plain) ClearScreen() error { return nil }

// MoveCursorHome is a no-op; frames are appended one after another.
func (*Plain) MoveCursorHome() error { return nil }

// HideCursor is a no-op.
func (*Plain) HideCursor() error { return nil }

// ShowCursor is a no-op.
func (*Plain) ShowCursor() error { return nil }

// PollKeypress always reports false.
func (*Plain) PollKeypress() bool { return false }

// Terminal is the union of both variants' method sets.
type Terminal interface {
	io.Writer
	Start() error
	Close() error
	ClearScreen() error
	MoveCursorHome() error
	HideCursor() error
	ShowCursor() error
	PollKeypress() bool
}

// Detect returns an [ANSI] terminal when out is a terminal and TERM is not
// "dumb", and a [Plain] one otherwise.
func Detect(out, in *os.File) Terminal {
	if !term.IsTerminal(int(out.Fd())) || strings.EqualFold(os.Getenv("TERM"), "dumb") {
		return NewPlain(out)
	}

	return NewANSI(out, in)
}
