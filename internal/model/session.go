package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionStore persists session accounting records.
type SessionStore interface {
	Start(ctx context.Context, userID uuid.UUID) (Session, error)
	// Touch advances LastActivity on the user's open session.
	Touch(ctx context.Context, userID uuid.UUID) error
	// End stamps EndedAt on the user's open session. Ending an already
	// ended or missing session is a no-op.
	End(ctx context.Context, userID uuid.UUID) error
	// SweepExpired ends every open session idle for longer than threshold
	// and returns the number of sessions closed.
	SweepExpired(ctx context.Context, threshold time.Duration) (int64, error)
}

// Session describes one authenticated session. EndedAt is nil while the
// session is active and is set exactly once, by logout or by the idle sweep.
type Session struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	StartedAt    time.Time
	LastActivity time.Time
	EndedAt      *time.Time
}
