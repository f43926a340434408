package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/JSayWhat/go-auth-api/internal/credentials"
	"github.com/JSayWhat/go-auth-api/internal/logger"
	"github.com/JSayWhat/go-auth-api/internal/model"
)

// FieldEncryptor encrypts and decrypts opaque profile field values.
type FieldEncryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(encrypted string) (string, error)
}

// Profile is the decrypted view of a user's PII fields.
type Profile struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Address   string
}

// Users manages registration and profile PII. Profile fields are stored as
// field-cipher envelopes; the email additionally gets a deterministic
// ciphertext column so login can look it up by exact match.
type Users struct {
	store  model.UserStore
	fields FieldEncryptor
	lookup LookupCipher
	logger *logger.Logger
}

func NewUsers(store model.UserStore, fields FieldEncryptor, lookup LookupCipher, logger *logger.Logger) *Users {
	return &Users{
		store:  store,
		fields: fields,
		lookup: lookup,
		logger: logger,
	}
}

// Register creates a user with the given role. The password is hashed, the
// email is deterministically encrypted for lookup and the remaining PII is
// sealed under the current key generation.
func (u *Users) Register(ctx context.Context, password string, role model.Role, p Profile) (model.Identity, error) {
	if !role.Valid() {
		return model.Identity{}, fmt.Errorf("unknown role %q", role)
	}

	lookup, err := u.lookup.Encrypt(p.Email)
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to encrypt email lookup: %w", err)
	}

	if _, err := u.store.GetByEmailLookup(ctx, lookup); err == nil {
		return model.Identity{}, model.ErrEmailTaken
	} else if !errors.Is(err, model.ErrNotFound) {
		return model.Identity{}, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := credentials.HashPassword(password)
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := model.User{
		ID:           uuid.New(),
		EmailLookup:  lookup,
		PasswordHash: hash,
		Role:         role,
	}
	if user.FirstName, err = u.fields.Encrypt(p.FirstName); err != nil {
		return model.Identity{}, err
	}
	if user.LastName, err = u.fields.Encrypt(p.LastName); err != nil {
		return model.Identity{}, err
	}
	if user.Phone, err = u.fields.Encrypt(p.Phone); err != nil {
		return model.Identity{}, err
	}
	if user.Address, err = u.fields.Encrypt(p.Address); err != nil {
		return model.Identity{}, err
	}

	saved, err := u.store.Create(ctx, user)
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to create user: %w", err)
	}

	u.logger.Info("registered user", "user_id", saved.ID, "role", saved.Role)
	return model.Identity{UserID: saved.ID, Email: p.Email, Role: saved.Role}, nil
}

// GetProfile decrypts and returns the user's PII fields. Decryption
// failures are surfaced as-is; callers map them to a generic server error
// without leaking detail.
func (u *Users) GetProfile(ctx context.Context, userID uuid.UUID) (Profile, error) {
	user, err := u.store.GetByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	var p Profile
	if p.Email, err = u.lookup.Decrypt(user.EmailLookup); err != nil {
		return Profile{}, err
	}
	if p.FirstName, err = u.fields.Decrypt(user.FirstName); err != nil {
		return Profile{}, err
	}
	if p.LastName, err = u.fields.Decrypt(user.LastName); err != nil {
		return Profile{}, err
	}
	if p.Phone, err = u.fields.Decrypt(user.Phone); err != nil {
		return Profile{}, err
	}
	if p.Address, err = u.fields.Decrypt(user.Address); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// UpdateProfile re-encrypts the PII fields under the current key generation
// and stores them. The email lookup column is immutable here; changing the
// address of record is an account-level operation, not a profile edit.
func (u *Users) UpdateProfile(ctx context.Context, userID uuid.UUID, p Profile) error {
	user := model.User{ID: userID}

	var err error
	if user.FirstName, err = u.fields.Encrypt(p.FirstName); err != nil {
		return err
	}
	if user.LastName, err = u.fields.Encrypt(p.LastName); err != nil {
		return err
	}
	if user.Phone, err = u.fields.Encrypt(p.Phone); err != nil {
		return err
	}
	if user.Address, err = u.fields.Encrypt(p.Address); err != nil {
		return err
	}

	if err := u.store.UpdateProfile(ctx, user); err != nil {
		return err
	}

	u.logger.Debug("updated profile", "user_id", userID)
	return nil
}

// EnsureAdmin bootstraps the initial admin account when no admin exists.
// Blank credentials skip the bootstrap.
func (u *Users) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	count, err := u.store.CountByRole(ctx, model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	if _, err := u.Register(ctx, password, model.RoleAdmin, Profile{Email: email}); err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			return nil
		}
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}

	u.logger.Info("bootstrapped admin account")
	return nil
}
