package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JSayWhat/go-auth-api/internal/api/http/cookie"
	"github.com/JSayWhat/go-auth-api/internal/fieldcrypto"
	"github.com/JSayWhat/go-auth-api/internal/keystore"
	"github.com/JSayWhat/go-auth-api/internal/model"
	"github.com/JSayWhat/go-auth-api/internal/service"
	"github.com/JSayWhat/go-auth-api/internal/testutil"
	"github.com/JSayWhat/go-auth-api/internal/token"
)

// memUserStore is a map-backed UserStore for exercising full request flows
// without a database.
type memUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[uuid.UUID]model.User{}}
}

func (s *memUserStore) Create(_ context.Context, user model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = user
	return user, nil
}

func (s *memUserStore) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return user, nil
}

func (s *memUserStore) GetByEmailLookup(_ context.Context, lookup string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.EmailLookup == lookup {
			return user, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (s *memUserStore) GetByAccessToken(_ context.Context, token string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.AccessToken != nil && *user.AccessToken == token {
			return user, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (s *memUserStore) GetByRefreshToken(_ context.Context, token string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.RefreshToken != nil && *user.RefreshToken == token {
			return user, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (s *memUserStore) UpdateTokens(_ context.Context, userID uuid.UUID, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return model.ErrNotFound
	}
	user.AccessToken = &access
	user.RefreshToken = &refresh
	s.users[userID] = user
	return nil
}

func (s *memUserStore) SwapTokens(_ context.Context, userID uuid.UUID, oldRefresh, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok || user.RefreshToken == nil || *user.RefreshToken != oldRefresh {
		return model.ErrNotFound
	}
	user.AccessToken = &access
	user.RefreshToken = &refresh
	s.users[userID] = user
	return nil
}

func (s *memUserStore) ClearTokens(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return model.ErrNotFound
	}
	user.AccessToken = nil
	user.RefreshToken = nil
	s.users[userID] = user
	return nil
}

func (s *memUserStore) UpdateProfile(_ context.Context, in model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[in.ID]
	if !ok {
		return model.ErrNotFound
	}
	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.Phone = in.Phone
	user.Address = in.Address
	user.UpdatedAt = time.Now()
	s.users[in.ID] = user
	return nil
}

func (s *memUserStore) CountByRole(_ context.Context, role model.Role) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, user := range s.users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: map[uuid.UUID]*model.Session{}}
}

func (s *memSessionStore) Start(_ context.Context, userID uuid.UUID) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := model.Session{ID: uuid.New(), UserID: userID, StartedAt: time.Now(), LastActivity: time.Now()}
	s.sessions[userID] = &session
	return session, nil
}

func (s *memSessionStore) Touch(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[userID]; ok && session.EndedAt == nil {
		session.LastActivity = time.Now()
	}
	return nil
}

func (s *memSessionStore) End(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[userID]; ok && session.EndedAt == nil {
		now := time.Now()
		session.EndedAt = &now
	}
	return nil
}

func (s *memSessionStore) SweepExpired(_ context.Context, _ time.Duration) (int64, error) {
	return 0, nil
}

type testEnv struct {
	engine   *gin.Engine
	users    *service.Users
	keys     *keystore.Store
	sessions *memSessionStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := testutil.MakeNoopLogger()

	keys := keystore.New(keystore.NewFileRing(filepath.Join(t.TempDir(), "keys.json")), 10, logger)
	require.NoError(t, keys.Initialize(context.Background()))

	lookupKey := bytes.Repeat([]byte{0x42}, 32)
	lookup, err := fieldcrypto.NewDeterministicCipher(lookupKey)
	require.NoError(t, err)
	fields := fieldcrypto.NewFieldCipher(keys)

	userStore := newMemUserStore()
	sessionStore := newMemSessionStore()

	tokens := service.NewTokenService(token.NewJWT("access-secret", "refresh-secret", time.Minute, time.Hour), logger)
	authService := service.NewAuth(userStore, sessionStore, tokens, lookup, logger)
	userService := service.NewUsers(userStore, fields, lookup, logger)

	r := New(authService, userService, keys, cookie.Options{}, logger)

	return &testEnv{
		engine:   r.Register(),
		users:    userService,
		keys:     keys,
		sessions: sessionStore,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, prepare func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if prepare != nil {
		prepare(req)
	}

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func refreshCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == cookie.RefreshCookieName {
			return c
		}
	}
	return nil
}

func registerAndLogin(t *testing.T, env *testEnv, email string) (userID string, accessToken string, refresh *http.Cookie) {
	t.Helper()

	w := env.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"email":     email,
		"password":  "password123",
		"firstName": "Alice",
		"lastName":  "Liddell",
		"phone":     "+1 555 0100",
		"address":   "12 Rabbit Hole Ln",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	userID = decodeBody(t, w)["userId"].(string)

	w = env.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"email":    email,
		"password": "password123",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	accessToken = decodeBody(t, w)["accessToken"].(string)
	refresh = refreshCookie(w)
	require.NotNil(t, refresh)
	return userID, accessToken, refresh
}

func TestRouter_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	t.Run("register, login, read own profile", func(t *testing.T) {
		userID, accessToken, _ := registerAndLogin(t, env, "alice@example.com")

		w := env.do(t, http.MethodGet, "/api/users/"+userID+"/profile", nil, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+accessToken)
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		body := decodeBody(t, w)
		assert.Equal(t, "alice@example.com", body["email"])
		assert.Equal(t, "Alice", body["firstName"])
		assert.Equal(t, "12 Rabbit Hole Ln", body["address"])
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/register", gin.H{
			"email":    "alice@example.com",
			"password": "password123",
		}, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/login", gin.H{
			"email":    "alice@example.com",
			"password": "not-the-password",
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/register", gin.H{
			"email":    "not-an-email",
			"password": "password123",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRouter_ProfileAccessControl(t *testing.T) {
	env := newTestEnv(t)

	aliceID, aliceToken, _ := registerAndLogin(t, env, "alice@example.com")
	bobID, bobToken, _ := registerAndLogin(t, env, "bob@example.com")

	t.Run("user cannot read another profile", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/users/"+aliceID+"/profile", nil, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+bobToken)
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("user updates own profile", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/api/users/"+bobID+"/profile", gin.H{
			"firstName": "Robert",
			"lastName":  "Builder",
		}, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+bobToken)
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = env.do(t, http.MethodGet, "/api/users/"+bobID+"/profile", nil, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+bobToken)
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Robert", decodeBody(t, w)["firstName"])
	})

	t.Run("user cannot update another profile", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/api/users/"+aliceID+"/profile", gin.H{
			"firstName": "Mallory",
		}, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+bobToken)
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("no token", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/users/"+aliceID+"/profile", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("keepalive extends the session", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/auth/keepalive", nil, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+aliceToken)
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRouter_RefreshFlow(t *testing.T) {
	env := newTestEnv(t)

	userID, accessToken, refresh := registerAndLogin(t, env, "alice@example.com")

	w := env.do(t, http.MethodGet, "/api/auth/refresh", nil, func(req *http.Request) {
		req.AddCookie(refresh)
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	newAccess := decodeBody(t, w)["accessToken"].(string)
	newRefresh := refreshCookie(w)
	require.NotNil(t, newRefresh)
	assert.NotEqual(t, accessToken, newAccess)
	assert.NotEqual(t, refresh.Value, newRefresh.Value)

	t.Run("new access token works", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/users/"+userID+"/profile", nil, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+newAccess)
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("superseded refresh token is rejected", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/auth/refresh", nil, func(req *http.Request) {
			req.AddCookie(refresh)
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing cookie", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/auth/refresh", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("superseded access token refreshes through the cookie", func(t *testing.T) {
		// the pre-refresh access token is no longer the stored one
		w := env.do(t, http.MethodGet, "/api/users/"+userID+"/profile", nil, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+accessToken)
			req.AddCookie(newRefresh)
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.NotEmpty(t, w.Header().Get("Authorization"))
		assert.NotNil(t, refreshCookie(w))
	})
}

func TestRouter_Logout(t *testing.T) {
	env := newTestEnv(t)

	userID, accessToken, refresh := registerAndLogin(t, env, "alice@example.com")

	w := env.do(t, http.MethodPost, "/api/auth/logout", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+accessToken)
		req.AddCookie(refresh)
	})
	require.Equal(t, http.StatusOK, w.Code)

	cleared := refreshCookie(w)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)

	t.Run("old access token no longer authenticates", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/users/"+userID+"/profile", nil, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+accessToken)
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("logout is idempotent", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/logout", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRouter_AdminKeys(t *testing.T) {
	env := newTestEnv(t)

	_, userToken, _ := registerAndLogin(t, env, "alice@example.com")

	_, err := env.users.Register(context.Background(), "admin-pass-123", model.RoleAdmin, service.Profile{Email: "admin@example.com"})
	require.NoError(t, err)

	w := env.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "admin@example.com",
		"password": "admin-pass-123",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	adminToken := decodeBody(t, w)["accessToken"].(string)

	t.Run("regular user is rejected", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/admin/keys", nil, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+userToken)
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin reads key status and rotates", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/admin/keys", nil, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+adminToken)
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(1), decodeBody(t, w)["keyCount"])

		w = env.do(t, http.MethodPost, "/api/admin/keys/rotate", nil, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+adminToken)
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(2), decodeBody(t, w)["keyCount"])
	})

	t.Run("fields written before rotation stay readable", func(t *testing.T) {
		userID, userToken2, _ := registerAndLogin(t, env, "carol@example.com")

		require.NoError(t, env.keys.Rotate(context.Background()))

		w := env.do(t, http.MethodGet, "/api/users/"+userID+"/profile", nil, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+userToken2)
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "carol@example.com", decodeBody(t, w)["email"])
	})
}
