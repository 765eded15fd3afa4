// Package workspace manages the temp-file directory some primary
// extractor backends need to stage source under disk before parsing
// (spec §5 "Temp file workspace"). Files are created owner-only and
// swept on startup and release, the same way cagent's userconfig
// package uses natefinch/atomic for crash-safe file writes.
package workspace

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
)

// Workspace owns a directory of scratch files used during extraction.
type Workspace struct {
	dir string
	mu  sync.Mutex
	n   int
}

// Startup creates (or reuses) the workspace directory. When
// initialCleanup is true, any files left behind by a previous,
// ungracefully terminated process are removed first.
func Startup(dir string, initialCleanup bool) (*Workspace, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("workspace: create dir: %w", err)
	}

	w := &Workspace{dir: dir}

	if initialCleanup {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("workspace: read dir: %w", err)
		}
		for _, e := range entries {
			full := filepath.Join(dir, e.Name())
			if err := os.RemoveAll(full); err != nil {
				slog.Warn("workspace: failed to remove stale file", "path", full, "error", err)
			}
		}
	}

	return w, nil
}

// Acquire writes content to a new owner-only scratch file and returns
// its path plus a release function. Callers must defer the release
// function so the file never outlives the extraction that needed it.
func (w *Workspace) Acquire(content []byte) (path string, release func(), err error) {
	w.mu.Lock()
	w.n++
	name := fmt.Sprintf("extract-%s-%d.tsx", uuid.NewString(), w.n)
	w.mu.Unlock()

	path = filepath.Join(w.dir, name)
	if err := atomic.WriteFile(path, bytes.NewReader(content)); err != nil {
		return "", nil, fmt.Errorf("workspace: write scratch file: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		slog.Warn("workspace: failed to tighten scratch file permissions", "path", path, "error", err)
	}

	release = func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("workspace: failed to remove scratch file", "path", path, "error", err)
		}
	}
	return path, release, nil
}

// Shutdown removes the workspace directory. It never waits for
// in-flight acquisitions, whatever the value of drain (the caller is
// responsible for having already stopped accepting new extraction
// requests).
func (w *Workspace) Shutdown(drain bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = drain
	return os.RemoveAll(w.dir)
}
