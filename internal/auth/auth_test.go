// AngelaMos | 2026
// auth_test.go

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arusey/Huduma/internal/config"
	"github.com/Arusey/Huduma/internal/core"
	"github.com/Arusey/Huduma/internal/middleware"
)

func newTestJWT(t *testing.T) *JWTManager {
	t.Helper()

	dir := t.TempDir()
	priv := filepath.Join(dir, "keys", "private.pem")
	pub := filepath.Join(dir, "keys", "public.pem")
	require.NoError(t, GenerateKeyPair(priv, pub))

	m, err := NewJWTManager(config.JWTConfig{
		PrivateKeyPath:    priv,
		PublicKeyPath:     pub,
		AccessTokenExpire: time.Hour,
		Issuer:            "huduma",
		Audience:          "huduma-api",
	})
	require.NoError(t, err)
	return m
}

type fakeUsers struct {
	mu       sync.Mutex
	byID     map[string]*UserInfo
	password map[string]string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byID:     make(map[string]*UserInfo),
		password: make(map[string]string),
	}
}

func (f *fakeUsers) FindByCredentials(
	_ context.Context,
	email, password string,
) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, u := range f.byID {
		if strings.EqualFold(u.Email, email) && f.password[id] == password {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) Create(_ context.Context, email, password string) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.byID {
		if strings.EqualFold(u.Email, email) {
			return nil, fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
	}

	id := fmt.Sprintf("user-%d", len(f.byID)+1)
	f.byID[id] = &UserInfo{ID: id, Email: strings.ToLower(email), CreatedAt: time.Now()}
	f.password[id] = password
	cp := *f.byID[id]
	return &cp, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) IncrementTokenVersion(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byID[id]
	if !ok {
		return fmt.Errorf("increment token version: %w", core.ErrNotFound)
	}
	u.TokenVersion++
	return nil
}

type memBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newMemBlacklist() *memBlacklist {
	return &memBlacklist{revoked: make(map[string]time.Duration)}
}

func (b *memBlacklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ttl > 0 {
		b.revoked[jti] = ttl
	}
	return nil
}

func (b *memBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.revoked[jti]
	return ok, nil
}

func TestJWTRoundTrip(t *testing.T) {
	m := newTestJWT(t)

	issued, err := m.CreateAccessToken("user-1", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.TokenID)

	claims, err := m.ParseAccessToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, issued.TokenID, claims.TokenID)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.Equal(t, issued.ExpiresAt.Unix(), claims.ExpiresAt)
}

func TestKeyIDIsStableForSameKey(t *testing.T) {
	dir := t.TempDir()
	cfg := config.JWTConfig{
		PrivateKeyPath:    filepath.Join(dir, "private.pem"),
		PublicKeyPath:     filepath.Join(dir, "public.pem"),
		AccessTokenExpire: time.Hour,
		Issuer:            "huduma",
		Audience:          "huduma-api",
	}
	require.NoError(t, GenerateKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath))

	a, err := NewJWTManager(cfg)
	require.NoError(t, err)
	b, err := NewJWTManager(cfg)
	require.NoError(t, err)

	assert.Len(t, a.KeyID(), 16)
	assert.Equal(t, a.KeyID(), b.KeyID())

	issued, err := a.CreateAccessToken("user-1", 0)
	require.NoError(t, err)
	_, err = b.ParseAccessToken(issued.Token)
	assert.NoError(t, err)
}

func TestJWTExpired(t *testing.T) {
	m := newTestJWT(t)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	issued, err := m.CreateAccessToken("user-1", 0)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ParseAccessToken(issued.Token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestJWTRejectsForeignSignature(t *testing.T) {
	a := newTestJWT(t)
	b := newTestJWT(t)

	issued, err := a.CreateAccessToken("user-1", 0)
	require.NoError(t, err)

	_, err = b.ParseAccessToken(issued.Token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	_, err = a.ParseAccessToken("not-a-token")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

// downBlacklist behaves like the Redis blacklist while Redis is unreachable.
type downBlacklist struct{}

func (downBlacklist) Revoke(context.Context, string, time.Duration) error {
	return errors.New("dial tcp 127.0.0.1:6379: connection refused")
}

func (downBlacklist) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("dial tcp 127.0.0.1:6379: connection refused")
}

func newTestService(t *testing.T) (*Service, *fakeUsers) {
	t.Helper()
	users := newFakeUsers()
	return NewService(newTestJWT(t), users, newMemBlacklist()), users
}

func TestLoginAndVerify(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, LoginRequest{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "You have been successfully logged in", resp.Message)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	claims, err := svc.VerifyAccessToken(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)

	_, err = svc.Login(ctx, LoginRequest{Email: "a@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "password1"})
	require.ErrorIs(t, err, core.ErrDuplicateKey)

	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	resp, err := svc.Login(ctx, LoginRequest{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	claims, err := svc.VerifyAccessToken(ctx, resp.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))

	_, err = svc.VerifyAccessToken(ctx, resp.Token)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestLogoutAllInvalidatesOlderTokens(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	old, err := svc.Login(ctx, LoginRequest{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	require.NoError(t, svc.LogoutAll(ctx, user.ID))

	_, err = svc.VerifyAccessToken(ctx, old.Token)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	fresh, err := svc.Login(ctx, LoginRequest{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	_, err = svc.VerifyAccessToken(ctx, fresh.Token)
	assert.NoError(t, err)
}

func TestVerifyReportsUnavailableBlacklist(t *testing.T) {
	jwt := newTestJWT(t)
	users := newFakeUsers()
	ctx := context.Background()

	healthy := NewService(jwt, users, newMemBlacklist())
	_, err := healthy.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	resp, err := healthy.Login(ctx, LoginRequest{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	svc := NewService(jwt, users, downBlacklist{})
	_, err = svc.VerifyAccessToken(ctx, resp.Token)
	require.ErrorIs(t, err, core.ErrUnavailable)
	assert.NotErrorIs(t, err, core.ErrTokenInvalid)

	req := httptest.NewRequest(http.MethodGet, "/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rec := httptest.NewRecorder()
	middleware.Authenticator(svc)(http.NotFoundHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "SERVICE_UNAVAILABLE")
}

func newTestRouter(svc *Service) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Route("/user", func(r chi.Router) {
		h.RegisterRoutes(r, middleware.Authenticator(svc))
	})
	return r
}

func post(t *testing.T, h http.Handler, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerFlow(t *testing.T) {
	svc, _ := newTestService(t)
	router := newTestRouter(svc)

	rec := post(t, router, "/user/register", `{"email":"kamau@example.com","password":"password1"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = post(t, router, "/user/register", `{"email":"kamau@example.com","password":"password1"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "DUPLICATE")

	rec = post(t, router, "/user/register", `{"email":"not-an-email","password":"short"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(t, router, "/user/login", `{"email":"kamau@example.com","password":"nope"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password")

	rec = post(t, router, "/user/login", `{"email":"kamau@example.com","password":"password1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var login struct {
		Data LoginResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&login))
	require.NotEmpty(t, login.Data.Token)

	rec = post(t, router, "/user/logout", ``, login.Data.Token)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = post(t, router, "/user/logout", ``, login.Data.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "TOKEN_REVOKED")
}
