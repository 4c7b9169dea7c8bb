package output

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
)

// WriteReport renders doc with f. An empty path writes to stdout; otherwise
// the file is replaced while holding an exclusive lock on path+".lock".
func WriteReport(path string, f Formatter, doc Document, stdout io.Writer) error {
	if path == "" {
		return f.Format(stdout, doc)
	}

	var buf bytes.Buffer
	if err := f.Format(&buf, doc); err != nil {
		return fmt.Errorf("format report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock report file: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
