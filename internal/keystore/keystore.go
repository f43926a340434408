package keystore

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/JSayWhat/go-auth-api/internal/logger"
	"github.com/JSayWhat/go-auth-api/internal/model"
)

// KeySize is the symmetric key length in bytes (AES-256).
const KeySize = 32

// DefaultMaxCount bounds the number of retained key generations. The bound
// is a compatibility contract: ciphertext older than the oldest retained
// key is permanently undecryptable, so the window must cover the maximum
// lifetime of any encrypted field.
const DefaultMaxCount = 200

// Store is a time-versioned symmetric key repository. Entries are kept
// newest first, are never mutated after creation, and are only removed by
// retention trimming during rotation. The in-memory ring is a cache of the
// persisted one; rotation persists first, then swaps the cache, so an
// in-flight encrypt that already read the previous head keeps a valid entry.
type Store struct {
	ring     model.KeyRing
	maxCount int
	logger   *logger.Logger

	mu      sync.RWMutex
	entries []model.KeyEntry
}

// New creates a Store backed by the given ring. maxCount <= 0 falls back to
// DefaultMaxCount.
func New(ring model.KeyRing, maxCount int, logger *logger.Logger) *Store {
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}
	return &Store{
		ring:     ring,
		maxCount: maxCount,
		logger:   logger,
	}
}

// Initialize loads the persisted ring and, when it is empty, generates and
// persists the first key. Safe to call on every boot.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.ring.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load key ring: %w", err)
	}

	if len(entries) == 0 {
		entry, err := newEntry(time.Now().UTC())
		if err != nil {
			return err
		}
		entries = []model.KeyEntry{entry}
		if err := s.ring.Save(ctx, entries); err != nil {
			return fmt.Errorf("failed to persist initial key: %w", err)
		}
		s.logger.Info("generated initial encryption key")
	} else {
		s.logger.Info("loaded encryption keys", "count", len(entries))
	}

	s.entries = entries
	return nil
}

// Rotate generates a new key entry as the new head and persists the ring,
// trimming the oldest entries beyond the retention bound. Previous entries
// are retained untouched so older ciphertext stays decryptable.
func (s *Store) Rotate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := newEntry(time.Now().UTC())
	if err != nil {
		return err
	}

	next := make([]model.KeyEntry, 0, len(s.entries)+1)
	next = append(next, entry)
	next = append(next, s.entries...)
	if len(next) > s.maxCount {
		s.logger.Warn("trimming key ring to retention bound",
			"retained", s.maxCount,
			"dropped", len(next)-s.maxCount)
		next = next[:s.maxCount]
	}

	if err := s.ring.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to persist rotated key ring: %w", err)
	}

	s.entries = next
	s.logger.Info("rotated encryption key", "count", len(next))
	return nil
}

// Current returns the most recently created key entry.
func (s *Store) Current() (model.KeyEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return model.KeyEntry{}, model.ErrNoKeyAvailable
	}
	return s.entries[0], nil
}

// ResolveAt returns the key entry that was current at the given time: the
// entry with the greatest CreatedAt not after at. Returns ErrNoKeyForDate
// when at predates every retained entry; that is a hard decryption failure,
// not a retryable condition.
func (s *Store) ResolveAt(at time.Time) (model.KeyEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.entries {
		if !entry.CreatedAt.After(at) {
			return entry, nil
		}
	}
	return model.KeyEntry{}, model.ErrNoKeyForDate
}

// Len returns the number of retained key generations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func newEntry(createdAt time.Time) (model.KeyEntry, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return model.KeyEntry{}, fmt.Errorf("failed to generate key material: %w", err)
	}
	return model.KeyEntry{Key: key, CreatedAt: createdAt}, nil
}
