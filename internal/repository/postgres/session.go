package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JSayWhat/go-auth-api/internal/model"
)

var _ model.SessionStore = (*SessionRepository)(nil)

type SessionRepository struct {
	db *Connection
}

func NewSessionRepository(db *Connection) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Start(ctx context.Context, userID uuid.UUID) (model.Session, error) {
	const query = `
        INSERT INTO sessions (id, user_id, started_at, last_activity)
        VALUES ($1, $2, NOW(), NOW())
        RETURNING id, user_id, started_at, last_activity, ended_at
    `

	var s model.Session
	err := r.db.QueryRow(ctx, query, uuid.New(), userID).Scan(
		&s.ID, &s.UserID, &s.StartedAt, &s.LastActivity, &s.EndedAt,
	)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to start session: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) Touch(ctx context.Context, userID uuid.UUID) error {
	const query = `
        UPDATE sessions SET last_activity = NOW()
        WHERE user_id = $1 AND ended_at IS NULL
    `
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

func (r *SessionRepository) End(ctx context.Context, userID uuid.UUID) error {
	const query = `
        UPDATE sessions SET ended_at = NOW()
        WHERE user_id = $1 AND ended_at IS NULL
    `
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

func (r *SessionRepository) SweepExpired(ctx context.Context, threshold time.Duration) (int64, error) {
	const query = `
        UPDATE sessions SET ended_at = NOW()
        WHERE ended_at IS NULL AND last_activity < NOW() - make_interval(secs => $1)
    `
	tag, err := r.db.Exec(ctx, query, threshold.Seconds())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
