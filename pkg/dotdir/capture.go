package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const capturesDirName = "captures"

// CapturesDir returns the absolute path to the captures/ subdirectory of the
// resolved .spool/ directory, creating it if necessary. Raw stream bytes teed
// off during decoding are written here.
func (m *Manager) CapturesDir(overrideDir string) (string, error) {
	target, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(target, capturesDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating captures directory %s: %w", dir, err)
	}

	return dir, nil
}

// NewCapturePath returns a fresh timestamped capture file path for the given
// dialect under the captures/ directory.
func (m *Manager) NewCapturePath(overrideDir, dialect string) (string, error) {
	dir, err := m.CapturesDir(overrideDir)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s-%s.sse", dialect, time.Now().UTC().Format("20060102T150405"))
	return filepath.Join(dir, name), nil
}
