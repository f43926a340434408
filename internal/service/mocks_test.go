package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/JSayWhat/go-auth-api/internal/model"
)

// MockUserStore mocks the UserStore interface
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, user model.User) (model.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) GetByEmailLookup(ctx context.Context, lookup string) (model.User, error) {
	args := m.Called(ctx, lookup)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) GetByAccessToken(ctx context.Context, token string) (model.User, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) GetByRefreshToken(ctx context.Context, token string) (model.User, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserStore) UpdateTokens(ctx context.Context, userID uuid.UUID, access, refresh string) error {
	args := m.Called(ctx, userID, access, refresh)
	return args.Error(0)
}

func (m *MockUserStore) SwapTokens(ctx context.Context, userID uuid.UUID, oldRefresh, access, refresh string) error {
	args := m.Called(ctx, userID, oldRefresh, access, refresh)
	return args.Error(0)
}

func (m *MockUserStore) ClearTokens(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserStore) UpdateProfile(ctx context.Context, user model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) CountByRole(ctx context.Context, role model.Role) (int, error) {
	args := m.Called(ctx, role)
	return args.Int(0), args.Error(1)
}

// MockSessionStore mocks the SessionStore interface
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Start(ctx context.Context, userID uuid.UUID) (model.Session, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.Session), args.Error(1)
}

func (m *MockSessionStore) Touch(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockSessionStore) End(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockSessionStore) SweepExpired(ctx context.Context, threshold time.Duration) (int64, error) {
	args := m.Called(ctx, threshold)
	return args.Get(0).(int64), args.Error(1)
}

// MockTokenManager mocks the TokenManager interface
type MockTokenManager struct {
	mock.Mock
}

func (m *MockTokenManager) GenerateAccessToken(identity model.Identity) (string, error) {
	args := m.Called(identity)
	return args.String(0), args.Error(1)
}

func (m *MockTokenManager) GenerateRefreshToken(userID uuid.UUID) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *MockTokenManager) ParseAccessToken(token string) (model.Identity, error) {
	args := m.Called(token)
	return args.Get(0).(model.Identity), args.Error(1)
}

func (m *MockTokenManager) ParseRefreshToken(token string) (uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// MockCipher mocks the LookupCipher and FieldEncryptor interfaces
type MockCipher struct {
	mock.Mock
}

func (m *MockCipher) Encrypt(plaintext string) (string, error) {
	args := m.Called(plaintext)
	return args.String(0), args.Error(1)
}

func (m *MockCipher) Decrypt(encrypted string) (string, error) {
	args := m.Called(encrypted)
	return args.String(0), args.Error(1)
}
