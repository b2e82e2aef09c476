// Package store provides the session store interface and its SQLite
// implementation.
package store

import (
	"context"
	"fmt"

	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/model"
)

// Default retention bounds.
const (
	DefaultCeiling = 1000
	DefaultFloor   = 500
)

// MaxKnowledgeResults caps QueryKnowledge.
const MaxKnowledgeResults = 3

// Retention configures compaction: once more than Ceiling exchanges are
// stored, all but the newest Floor are discarded.
type Retention struct {
	Ceiling int `json:"ceiling"`
	Floor   int `json:"floor"`
}

// DefaultRetention returns the default bounds.
func DefaultRetention() Retention {
	return Retention{Ceiling: DefaultCeiling, Floor: DefaultFloor}
}

// Validate checks that the bounds are usable.
func (r Retention) Validate() error {
	if r.Floor < 1 {
		return fmt.Errorf("retention floor must be >= 1, got %d", r.Floor)
	}
	if r.Ceiling <= r.Floor {
		return fmt.Errorf("retention ceiling (%d) must exceed floor (%d)", r.Ceiling, r.Floor)
	}
	return nil
}

// StorageError reports an unrecoverable persistence failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "storage " + e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// Store defines the session store used by the dispatcher.
type Store interface {
	// Append durably records an exchange and returns it with its assigned ID.
	// Compaction runs in the same transaction when the ceiling is exceeded.
	Append(ctx context.Context, ex model.Exchange) (model.Exchange, error)

	// Recent returns up to n most recent exchanges, oldest first.
	Recent(ctx context.Context, n int) ([]model.Exchange, error)

	// LoadPreferences returns stored preferences, or defaults when none exist
	// or the stored record is corrupt.
	LoadPreferences(ctx context.Context) (model.Preferences, error)

	// SavePreferences overwrites the stored preferences.
	SavePreferences(ctx context.Context, p model.Preferences) error

	// QueryKnowledge returns up to three facts whose topic contains topic,
	// newest first.
	QueryKnowledge(ctx context.Context, topic string) ([]string, error)

	// AddKnowledge appends a fact. Duplicates are kept.
	AddKnowledge(ctx context.Context, topic, information, source string) error

	// Flush makes pending writes durable in the main database file.
	Flush(ctx context.Context) error

	// Close closes the store.
	Close() error
}
