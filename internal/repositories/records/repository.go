// Package records persists the encounter aggregate's records: the encounter
// itself, combatants, status effects, spell pools and log entries.
package records

//go:generate mockgen -destination=mock/mock_repository.go -package=recordsmock github.com/KirkDiggler/rpg-tracker/internal/repositories/records Repository

import (
	"context"
	"encoding/json"
)

// Kind names a record family. Ids are unique within a kind.
type Kind string

// Record kinds
const (
	KindEncounter Kind = "encounter"
	KindCombatant Kind = "combatant"
	KindEffect    Kind = "effect"
	KindPool      Kind = "pool"
	KindLogEntry  Kind = "log_entry"
)

// Record is the stored envelope of one domain record
type Record struct {
	Kind        Kind   `json:"kind"`
	ID          string `json:"id"`
	EncounterID string `json:"encounter_id"`
	// Sequence orders records within an encounter. Zero means the order the
	// record was first saved in.
	Sequence int64           `json:"sequence,omitempty"`
	Data     json.RawMessage `json:"data"`
}

// Repository defines the storage interface for encounter records
type Repository interface {
	// Get retrieves a record
	// Returns errors.InvalidArgument for an empty kind or id
	// Returns errors.NotFound if the record doesn't exist
	Get(ctx context.Context, input *GetInput) (*GetOutput, error)

	// Save creates or replaces a record
	// Returns errors.InvalidArgument for a record missing kind, id or encounter id
	Save(ctx context.Context, input *SaveInput) (*SaveOutput, error)

	// Delete removes a record
	// Returns errors.NotFound if the record doesn't exist
	Delete(ctx context.Context, input *DeleteInput) (*DeleteOutput, error)

	// ListByEncounter returns one kind of record for an encounter in order
	ListByEncounter(ctx context.Context, input *ListByEncounterInput) (*ListByEncounterOutput, error)
}

// GetInput defines the request for retrieving a record
type GetInput struct {
	Kind Kind
	ID   string
}

// GetOutput defines the response for retrieving a record
type GetOutput struct {
	Record *Record
}

// SaveInput defines the request for saving a record
type SaveInput struct {
	Record *Record
}

// SaveOutput defines the response for saving a record
type SaveOutput struct{}

// DeleteInput defines the request for deleting a record
type DeleteInput struct {
	Kind Kind
	ID   string
}

// DeleteOutput defines the response for deleting a record
type DeleteOutput struct{}

// ListByEncounterInput defines the request for listing an encounter's records
type ListByEncounterInput struct {
	Kind        Kind
	EncounterID string
}

// ListByEncounterOutput defines the response for listing an encounter's records
type ListByEncounterOutput struct {
	Records []*Record
}
