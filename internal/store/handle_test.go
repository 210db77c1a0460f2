package store

import (
	"testing"
	"time"

	"ghostchat/internal/domain"
)

func newTestStore(t *testing.T) *HandleFileStore {
	t.Helper()
	s, err := NewHandleFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewHandleFileStore: %v", err)
	}
	return s
}

func TestSaveAndLoadHandle(t *testing.T) {
	s := newTestStore(t)

	in := domain.Handle{RoomID: "room-abc", IsHost: true}
	if err := s.SaveHandle(in); err != nil {
		t.Fatalf("SaveHandle: %v", err)
	}

	out, ok, err := s.LoadHandle()
	if err != nil {
		t.Fatalf("LoadHandle: %v", err)
	}
	if !ok {
		t.Fatal("expected a stored handle")
	}
	if out.RoomID != in.RoomID || out.IsHost != in.IsHost {
		t.Fatalf("handle mismatch: got %+v", out)
	}
	if out.TS == 0 {
		t.Fatal("expected save to stamp the handle")
	}
}

func TestLoadHandleMissing(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.LoadHandle()
	if err != nil {
		t.Fatalf("LoadHandle: %v", err)
	}
	if ok {
		t.Fatal("expected no handle in an empty store")
	}
}

func TestLoadHandleExpired(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveHandle(domain.Handle{RoomID: "room-abc"}); err != nil {
		t.Fatalf("SaveHandle: %v", err)
	}

	// Jump past the rejoin window.
	s.now = func() time.Time {
		return time.Now().Add(domain.HandleTTLMillis*time.Millisecond + time.Minute)
	}

	_, ok, err := s.LoadHandle()
	if err != nil {
		t.Fatalf("LoadHandle: %v", err)
	}
	if ok {
		t.Fatal("expected the expired handle to be discarded")
	}

	// The expired file is gone, so a fresh clock still finds nothing.
	s.now = time.Now
	if _, ok, _ := s.LoadHandle(); ok {
		t.Fatal("expected the expired handle to be removed from disk")
	}
}

func TestClearHandle(t *testing.T) {
	s := newTestStore(t)

	if err := s.ClearHandle(); err != nil {
		t.Fatalf("ClearHandle on empty store: %v", err)
	}

	if err := s.SaveHandle(domain.Handle{RoomID: "room-abc"}); err != nil {
		t.Fatalf("SaveHandle: %v", err)
	}
	if err := s.ClearHandle(); err != nil {
		t.Fatalf("ClearHandle: %v", err)
	}
	if _, ok, _ := s.LoadHandle(); ok {
		t.Fatal("expected the handle to be gone after ClearHandle")
	}
}
