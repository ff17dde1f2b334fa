package session

import (
	"time"

	"github.com/BrendanBurkhart/RoboTiles/game/board"
	"github.com/BrendanBurkhart/RoboTiles/game/service"
)

// RunPersistence defines the interface for persisting runs
type RunPersistence interface {
	// Save persists a run to storage
	Save(run *service.Run) error

	// Load retrieves a run from storage by ID
	Load(id string) (*service.Run, error)

	// Delete removes a run from storage
	Delete(id string) error

	// ListAll returns all persisted run IDs
	ListAll() ([]string, error)

	// Exists checks if a run exists in storage
	Exists(id string) bool
}

// PersistedRunData represents the JSON structure for persisted runs. The
// board is stored as its serialized source so obstacle edits survive a
// restart; the robot's position is stored separately because the source
// format does not carry it.
type PersistedRunData struct {
	ID             string         `json:"id"`
	BoardName      string         `json:"board_name"`
	Size           int            `json:"size"`
	BoardSource    string         `json:"board_source"`
	Robot          board.Position `json:"robot"`
	Steps          int            `json:"steps"`
	Program        string         `json:"program"`
	LastError      string         `json:"last_error,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	LastAccessedAt time.Time      `json:"last_accessed_at"`
}
