package staging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"payloadseed/internal/services"
)

const (
	runDirPrefix = "run-"
	lockFileName = ".payloadseed.lock"
)

// File is a staged image awaiting upload.
type File struct {
	Path     string
	Name     string
	Size     int64
	MimeType string
}

// Manager stages files for a single run.
type Manager struct {
	root   string
	runDir string

	mu   sync.Mutex
	lock *flock.Flock
}

// NewManager returns a manager writing into <root>/run-<runID>.
func NewManager(root, runID string) (*Manager, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, services.Wrap(services.ErrConfiguration, "staging", "init", "staging root is empty", nil)
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, services.Wrap(services.ErrConfiguration, "staging", "init", "run id is empty", nil)
	}
	return &Manager{root: root, runDir: filepath.Join(root, runDirPrefix+runID)}, nil
}

// RunDir returns the per-run directory.
func (m *Manager) RunDir() string { return m.runDir }

// Stage writes data to a uniquely named file for item index. The extension
// and mime type are sniffed from the content. A partially written file is
// removed before the error is returned.
func (m *Manager) Stage(ctx context.Context, index int, data []byte) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, services.Wrap(services.ErrStaging, "staging", "write", "context done", err)
	}
	if len(data) == 0 {
		return nil, services.Wrap(services.ErrStaging, "staging", "write", fmt.Sprintf("item %d has no data", index), nil)
	}
	if err := os.MkdirAll(m.runDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrStaging, "staging", "mkdir", m.runDir, err)
	}

	mtype := mimetype.Detect(data)
	ext := mtype.Extension()
	if ext == "" {
		ext = ".bin"
	}
	name := fmt.Sprintf("image-%d-%s%s", index, uuid.NewString()[:8], ext)
	path := filepath.Join(m.runDir, name)

	if err := writeFile(path, data); err != nil {
		_ = os.Remove(path)
		return nil, services.Wrap(services.ErrStaging, "staging", "write", path, err)
	}
	return &File{
		Path:     path,
		Name:     name,
		Size:     int64(len(data)),
		MimeType: baseMime(mtype.String()),
	}, nil
}

func writeFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func baseMime(value string) string {
	if idx := strings.IndexByte(value, ';'); idx >= 0 {
		value = value[:idx]
	}
	return strings.TrimSpace(value)
}

// Unstage removes a staged file. Removing a file that is already gone is not
// an error, so Unstage may be called more than once.
func (m *Manager) Unstage(f *File) error {
	if f == nil || f.Path == "" {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return services.Wrap(services.ErrStaging, "staging", "remove", f.Path, err)
	}
	return nil
}

// Close removes the run directory and releases the staging lock if held.
func (m *Manager) Close() error {
	err := os.RemoveAll(m.runDir)
	if unlockErr := m.Unlock(); unlockErr != nil && err == nil {
		err = unlockErr
	}
	return err
}

// Lock takes an exclusive advisory lock on the staging root.
func (m *Manager) Lock() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lock != nil {
		return nil
	}
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return services.Wrap(services.ErrStaging, "staging", "lock", "create staging root", err)
	}
	lock := flock.New(filepath.Join(m.root, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrStaging, "staging", "lock", "acquire lock", err)
	}
	if !ok {
		return services.Wrap(services.ErrStaging, "staging", "lock", "another payloadseed run is using "+m.root, nil)
	}
	m.lock = lock
	return nil
}

// Unlock releases the staging root lock.
func (m *Manager) Unlock() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lock == nil {
		return nil
	}
	err := m.lock.Unlock()
	m.lock = nil
	return err
}
