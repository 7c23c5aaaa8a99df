package logs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"payloadseed/internal/logging"
)

// ErrNoRuns is returned when no run log exists yet.
var ErrNoRuns = errors.New("no run logs found")

// RunLog describes one per-run JSON log file.
type RunLog struct {
	RunID   string    `json:"run_id"`
	Path    string    `json:"path"`
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`
}

// ListRuns returns the run logs under logDir, newest first. A missing
// directory yields no entries.
func ListRuns(logDir string) ([]RunLog, error) {
	dir := filepath.Join(logDir, logging.RunLogDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read run log directory: %w", err)
	}

	var runs []RunLog
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		runs = append(runs, RunLog{
			RunID:   strings.TrimSuffix(name, ".jsonl"),
			Path:    filepath.Join(dir, name),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].ModTime.After(runs[j].ModTime)
	})
	return runs, nil
}

// Resolve returns the log path for runID, or the newest run when runID is
// empty.
func Resolve(logDir, runID string) (string, error) {
	runID = strings.TrimSpace(runID)
	if runID != "" {
		path := logging.RunLogPath(logDir, runID)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("run %s: %w", runID, err)
		}
		return path, nil
	}
	runs, err := ListRuns(logDir)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", ErrNoRuns
	}
	return runs[0].Path, nil
}
