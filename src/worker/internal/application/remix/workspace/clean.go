package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/gofrs/flock"
)

type CleanResult struct {
	Removed []string
	Skipped []string
	Errors  []CleanupError
}

type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes job directories older than maxAge whose lock isn't held.
// These are leftovers from processes that died before releasing.
func (a Arena) CleanStale(ctx context.Context, maxAge time.Duration) CleanResult {
	result := CleanResult{}

	entries, err := os.ReadDir(a.root)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: a.root, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)

	for _, entry := range entries {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, CleanupError{Path: a.root, Error: ctx.Err()})
			return result
		}

		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), dirPrefix) {
			continue
		}

		dirPath := filepath.Join(a.root, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}

		if !info.ModTime().Before(cutoff) {
			continue
		}

		logger := log.WithFields(log.Fields{
			"workspace_dir": dirPath,
			"age":           time.Since(info.ModTime()).Round(time.Second).String(),
		})

		lockPath := dirPath + lockSuffix
		lock := flock.New(lockPath)
		locked, err := lock.TryLock()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}

		if !locked {
			logger.Info("Skipping stale workspace that is still in use")
			result.Skipped = append(result.Skipped, dirPath)
			continue
		}

		if err := os.RemoveAll(dirPath); err != nil {
			logger.WithError(err).Warn("Failed to remove stale workspace")
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
		} else {
			logger.Info("Removed stale workspace")
			result.Removed = append(result.Removed, dirPath)
		}

		_ = os.Remove(lockPath)
		_ = lock.Unlock()
	}

	return result
}
