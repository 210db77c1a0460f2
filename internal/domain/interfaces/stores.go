package interfaces

import domaintypes "ghostchat/internal/domain/types"

// HandleStore persists the non-sensitive rejoin handle between runs.
type HandleStore interface {
	SaveHandle(h domaintypes.Handle) error
	// LoadHandle returns ok=false for a missing or expired handle; an
	// expired handle is discarded on load.
	LoadHandle() (domaintypes.Handle, bool, error)
	ClearHandle() error
}
