package session

import (
	"time"

	"github.com/wricardo/blockpush/game/engine"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session record to storage
	Save(data *PersistedSessionData) error

	// Load retrieves a session record from storage by ID
	Load(id string) (*PersistedSessionData, error)

	// Delete removes a session record from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData is the JSON document written for a session. The grid
// is stored as integer cell codes, the same encoding levels use.
type PersistedSessionData struct {
	ID             string           `json:"id"`
	LevelID        int              `json:"level"`
	Player         Player           `json:"player"`
	CreatedAt      time.Time        `json:"created_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	Grid           [][]int          `json:"grid"`
	Goal           *engine.Position `json:"goal,omitempty"`
	Elapsed        int              `json:"elapsed"`
	Moves          int              `json:"moves"`
	Pushes         int              `json:"pushes"`
	Cleared        bool             `json:"cleared"`
}
