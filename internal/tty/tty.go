// Package tty provides TTY detection helpers for expbox commands.
package tty

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// IsTTY returns true if the given file is a terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// IsTerminalWriter reports whether w is a terminal-backed *os.File.
// Buffers and pipes are never terminals.
func IsTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && IsTTY(f)
}
