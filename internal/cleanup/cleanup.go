// Package cleanup removes previously produced output artifacts before a build.
package cleanup

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
)

// Warning records an output file (or root) that could not be cleaned.
type Warning struct {
	Path string
	Err  error
}

// Result summarizes one Clean call.
type Result struct {
	Removed  int
	Warnings []Warning
}

// Coordinator removes regular files cataloged directly under declared output roots.
// It never recurses: subdirectories, symlinks and other non-regular entries are left alone.
type Coordinator struct {
	remove  func(path string) error
	readDir func(dir string) ([]os.DirEntry, error)
	logger  *slog.Logger
}

// NewCoordinator returns a Coordinator operating on the real filesystem.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		remove:  os.Remove,
		readDir: os.ReadDir,
		logger:  slog.Default(),
	}
}

// WithRemoveFunc replaces the removal primitive (for testing).
func (c *Coordinator) WithRemoveFunc(fn func(path string) error) *Coordinator {
	c.remove = fn
	return c
}

// WithLogger sets the logger used for per-file diagnostics.
func (c *Coordinator) WithLogger(logger *slog.Logger) *Coordinator {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Clean removes the cataloged files of every root. A missing root is already clean. A
// failure on one file is recorded and cleanup continues with the remaining files.
func (c *Coordinator) Clean(roots []string) Result {
	var res Result
	seen := make(map[string]struct{}, len(roots))

	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		if _, dup := seen[root]; dup {
			continue
		}
		seen[root] = struct{}{}

		entries, err := c.readDir(root)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				c.logger.Debug("Output root missing; nothing to clean", logfields.Path(root))
				continue
			}
			res.Warnings = append(res.Warnings, Warning{
				Path: root,
				Err:  foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "cannot list output root").Warning().WithContext("path", root).Build(),
			})
			continue
		}

		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			path := filepath.Join(root, entry.Name())
			if err := c.remove(path); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				c.logger.Warn("Failed to remove output file", logfields.Path(path), logfields.Error(err))
				res.Warnings = append(res.Warnings, Warning{
					Path: path,
					Err:  foundationerrors.CleanupWarning("cannot remove output file").WithCause(err).WithContext("path", path).Build(),
				})
				continue
			}
			c.logger.Debug("Removed output file", logfields.Path(path))
			res.Removed++
		}
	}
	return res
}
