package app

import (
	"ghostchat/internal/domain"
	"ghostchat/internal/relay"
	"ghostchat/internal/session"
	"ghostchat/internal/store"
)

// Wire bundles the stores and clients the CLI needs.
type Wire struct {
	cfg     Config
	Handles domain.HandleStore
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	handles, err := store.NewHandleFileStore(cfg.Home)
	if err != nil {
		return nil, err
	}
	return &Wire{cfg: cfg, Handles: handles}, nil
}

// NewSession builds a fresh session with its own relay connection. Each
// session owns its signaler and key material for exactly one room.
func (w *Wire) NewSession() (*session.Session, error) {
	client := relay.New(w.cfg.RelayURL)
	return session.New(client, session.Config{
		Privacy:  w.cfg.Privacy,
		STUNURLs: w.cfg.STUNURLs,
		TURN:     client,
		Handles:  w.Handles,
	})
}
