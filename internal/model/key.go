package model

import (
	"context"
	"time"
)

// KeyEntry is one generation of symmetric key material. Entries are
// append-only: once written they are never mutated, and a key is never
// reused for a later generation.
type KeyEntry struct {
	Key       []byte    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
}

// KeyRing persists the full list of key entries, newest first. Save always
// rewrites the whole ring; backends must preserve entry order.
type KeyRing interface {
	Load(ctx context.Context) ([]KeyEntry, error)
	Save(ctx context.Context, entries []KeyEntry) error
}
