package store

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"ghostchat/internal/domain"
)

const handleFile = "handle.json"

// HandleFileStore persists the rejoin handle to disk.
type HandleFileStore struct {
	dir string
	mu  sync.Mutex

	now func() time.Time
}

// NewHandleFileStore returns a HandleFileStore rooted at dir, creating
// the directory if needed.
func NewHandleFileStore(dir string) (*HandleFileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &HandleFileStore{dir: dir, now: time.Now}, nil
}

// SaveHandle stores or replaces the handle, stamping it with the current
// time.
func (s *HandleFileStore) SaveHandle(h domain.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.TS == 0 {
		h.TS = s.now().UnixMilli()
	}
	return writeJSON(s.path(), h, 0o600)
}

// LoadHandle returns the stored handle and whether it is still usable.
// An expired handle is removed from disk and reported as absent.
func (s *HandleFileStore) LoadHandle() (domain.Handle, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var h domain.Handle
	found, err := readJSON(s.path(), &h)
	if err != nil || !found {
		return domain.Handle{}, false, err
	}
	if h.RoomID == "" {
		return domain.Handle{}, false, nil
	}
	if h.Expired(s.now().UnixMilli()) {
		_ = os.Remove(s.path())
		return domain.Handle{}, false, nil
	}
	return h, true, nil
}

// ClearHandle deletes the stored handle, if any.
func (s *HandleFileStore) ClearHandle() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *HandleFileStore) path() string {
	return filepath.Join(s.dir, handleFile)
}

// Compile-time assertion that HandleFileStore implements domain.HandleStore.
var _ domain.HandleStore = (*HandleFileStore)(nil)
