// Package arttest provides helpers for asserting on rendered text art in
// tests.
package arttest

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Rows joins rows the way the monochrome renderer lays them out: every row,
// including the last, is terminated by LF.
//
// Example:
//
//	want := arttest.Rows(
//		"  ..",
//		"##@@",
//	) // -> "  ..\n##@@\n"
func Rows(rows ...string) string {
	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(row)
		sb.WriteByte('\n')
	}

	return sb.String()
}

// StripANSI removes escape sequences (colors, cursor movement, mode
// switches, OSC strings) from s. Line breaks are kept.
func StripANSI(s string) string {
	return ansi.Strip(s)
}

// Lines splits art into rows, dropping the empty element after the final LF.
// Escape sequences are left in place.
func Lines(art string) []string {
	if art == "" {
		return nil
	}

	return strings.Split(strings.TrimSuffix(art, "\n"), "\n")
}

// Grid strips escape sequences from art and returns it as rows of runes.
func Grid(art string) [][]rune {
	lines := Lines(StripANSI(art))
	grid := make([][]rune, len(lines))

	for i, line := range lines {
		grid[i] = []rune(line)
	}

	return grid
}
