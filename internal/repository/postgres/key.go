package postgres

import (
	"context"
	"fmt"

	"github.com/JSayWhat/go-auth-api/internal/model"
)

var _ model.KeyRing = (*KeyRepository)(nil)

// KeyRepository persists the encryption key ring in postgres. Save rewrites
// the whole table in one transaction; the key store owns ordering and
// retention, the repository only reproduces them.
type KeyRepository struct {
	db *Connection
}

func NewKeyRepository(db *Connection) *KeyRepository {
	return &KeyRepository{db: db}
}

func (r *KeyRepository) Load(ctx context.Context) ([]model.KeyEntry, error) {
	const query = `SELECT key, created_at FROM encryption_keys ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load encryption keys: %w", err)
	}
	defer rows.Close()

	var entries []model.KeyEntry
	for rows.Next() {
		var entry model.KeyEntry
		if err := rows.Scan(&entry.Key, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan encryption key: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read encryption keys: %w", err)
	}
	return entries, nil
}

func (r *KeyRepository) Save(ctx context.Context, entries []model.KeyEntry) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin key save: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM encryption_keys`); err != nil {
		return fmt.Errorf("failed to clear encryption keys: %w", err)
	}

	const insert = `INSERT INTO encryption_keys (key, created_at) VALUES ($1, $2)`
	for _, entry := range entries {
		if _, err := tx.Exec(ctx, insert, entry.Key, entry.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert encryption key: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit key save: %w", err)
	}
	return nil
}
