package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// OpenOutput resolves a log destination:
//   - "" or "stderr": os.Stderr
//   - "stdout": os.Stdout
//   - "file:///path" or any path containing a separator: the file, opened
//     for append with parent directories created
//
// Closing the returned writer closes files only.
func OpenOutput(output string) (io.WriteCloser, error) {
	switch {
	case output == "" || output == "stderr":
		return nopCloser{os.Stderr}, nil
	case output == "stdout":
		return nopCloser{os.Stdout}, nil
	case strings.HasPrefix(output, "file://"):
		return openFile(strings.TrimPrefix(output, "file://"))
	case strings.Contains(output, "://"):
		return nil, fmt.Errorf("unsupported log output: %s", output)
	case strings.ContainsAny(output, `/\`):
		return openFile(output)
	default:
		return nil, fmt.Errorf("unsupported log output: %s", output)
	}
}

func openFile(path string) (io.WriteCloser, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return f, nil
}
