// Package store persists saved properties. Every back end hands out ids from
// a counter that only grows, so ids are never reused after a delete.
package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"sfproperty/internal/config"
	"sfproperty/internal/types"
)

// ErrNotFound is returned by Delete for an id that is not stored.
var ErrNotFound = errors.New("no saved property with that id")

// Store is a saved-property collection. Implementations are safe for
// concurrent use; Append and Delete are atomic.
type Store interface {
	List(ctx context.Context) ([]types.SavedProperty, error)
	Append(ctx context.Context, data map[string]any) (types.SavedProperty, error)
	Delete(ctx context.Context, id int64) error
	Close() error
}

// Open returns the back end cfg selects.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "file":
		return OpenFile(cfg.Path)
	case "sqlite3", "mysql", "oracle":
		return OpenSQL(ctx, cfg)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// newRecord copies the caller's document, dropping any id or saved_date it
// carries so the stored ones win.
func newRecord(id int64, now time.Time, data map[string]any) types.SavedProperty {
	doc := maps.Clone(data)
	if doc == nil {
		doc = map[string]any{}
	}
	delete(doc, "id")
	delete(doc, "saved_date")
	return types.SavedProperty{ID: id, SavedDate: now, Data: doc}
}
