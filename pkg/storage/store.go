package storage

import (
	"errors"

	"github.com/cuemby/towerctl/pkg/types"
)

// ErrNoRecord is returned by Get when the host has no credential record yet
var ErrNoRecord = errors.New("credential record not found")

// RecordStore persists the singleton credential record for this host.
// Implementations must make Update atomic: fn sees the current record and
// its changes are stored only if it returns nil.
type RecordStore interface {
	// Get returns the current record, or ErrNoRecord
	Get() (*types.Record, error)

	// Update loads the record (creating an empty one if absent), applies fn
	// and persists the result in a single transaction
	Update(fn func(rec *types.Record) error) error

	// Delete destroys the record
	Delete() error

	Close() error
}
