package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"payloadseed/internal/logging"
)

// CleanStaleResult contains the outcome of a stale directory cleanup.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes run directories under root older than maxAge. Paths in
// keep are never removed.
func CleanStale(ctx context.Context, root string, maxAge time.Duration, logger *slog.Logger, keep ...string) CleanStaleResult {
	result := CleanStaleResult{}
	dirs, err := List(root)
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: root, Error: err})
		return result
	}

	skip := make(map[string]struct{}, len(keep))
	for _, path := range keep {
		skip[filepath.Clean(path)] = struct{}{}
	}
	cutoff := time.Now().Add(-maxAge)

	for _, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		if _, ok := skip[filepath.Clean(dir.Path)]; ok {
			continue
		}
		if !dir.ModTime.Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(dir.Path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dir.Path, Error: err})
			logging.WarnWithContext(logger, "failed to remove stale staging directory", "staging_cleanup_failed",
				logging.String("path", dir.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, dir.Path)
		if logger != nil {
			logger.Info("removed stale staging directory",
				logging.String("path", dir.Path),
				logging.Duration("age", time.Since(dir.ModTime).Round(time.Second)),
				logging.String(logging.FieldEventType, "staging_cleanup"),
			)
		}
	}
	return result
}

// DirInfo describes a run directory.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Files   int
	Size    int64
}

// List returns the run directories under root. A missing root yields no
// entries.
func List(root string) ([]DirInfo, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), runDirPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(root, entry.Name())
		files, size := dirUsage(path)
		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			Path:    path,
			ModTime: info.ModTime(),
			Files:   files,
			Size:    size,
		})
	}
	return dirs, nil
}

func dirUsage(path string) (int, int64) {
	var (
		files int
		size  int64
	)
	_ = filepath.WalkDir(path, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			files++
			size += info.Size()
		}
		return nil
	})
	return files, size
}
