package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users. Token columns hold the
// currently active pair; overwriting them is what invalidates the previous
// pair server-side.
type UserStore interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmailLookup(ctx context.Context, lookup string) (User, error)
	GetByAccessToken(ctx context.Context, token string) (User, error)
	GetByRefreshToken(ctx context.Context, token string) (User, error)
	// UpdateTokens unconditionally stores a new pair for the user.
	UpdateTokens(ctx context.Context, userID uuid.UUID, access, refresh string) error
	// SwapTokens stores a new pair only if the user's current refresh token
	// still equals oldRefresh. Returns ErrNotFound when another writer got
	// there first; callers treat that as a lost refresh race.
	SwapTokens(ctx context.Context, userID uuid.UUID, oldRefresh, access, refresh string) error
	ClearTokens(ctx context.Context, userID uuid.UUID) error
	UpdateProfile(ctx context.Context, user User) error
	CountByRole(ctx context.Context, role Role) (int, error)
}

// User represents a stored user. EmailLookup holds the deterministic
// ciphertext of the email address; FirstName, LastName, Phone and Address
// hold field-cipher envelopes, never plaintext.
type User struct {
	ID           uuid.UUID
	EmailLookup  string
	PasswordHash string
	Role         Role
	AccessToken  *string
	RefreshToken *string
	FirstName    string
	LastName     string
	Phone        string
	Address      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
