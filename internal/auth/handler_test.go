package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/academe-sis/academe/internal/shared"
)

// ===== MOCK REPOSITORY =====

type mockRepository struct {
	users    map[string]*User
	sessions map[string]int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: map[string]*User{}, sessions: map[string]int64{}}
}

func (m *mockRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (m *mockRepository) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	m.sessions[id] = userID
	return nil
}

func (m *mockRepository) DeleteSession(ctx context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func newTestHandler(t *testing.T, repo Repository) (*Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "academe_session", "test-secret", time.Hour, false)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(logger, NewService(repo), sessions), sessions
}

func seedUser(t *testing.T, repo *mockRepository, email, password string, active bool) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &User{ID: int64(len(repo.users) + 1), Email: email, PasswordHash: string(hash), IsActive: active}
	repo.users[strings.ToLower(email)] = user
	return user
}

func loginRequestWithSession(sessions *shared.SessionManager, body string) (*http.Request, *shared.Session, error) {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess, err := sessions.Load(req.Context(), req)
	if err != nil {
		return nil, nil, err
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess)), sess, nil
}

func TestLoginSuccess(t *testing.T) {
	repo := newMockRepository()
	user := seedUser(t, repo, "student@example.edu", "correct-horse", true)
	handler, sessions := newTestHandler(t, repo)

	req, sess, err := loginRequestWithSession(sessions, `{"email":"student@example.edu","password":"correct-horse"}`)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	handler.handleLogin(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"student@example.edu"`)
	assert.Equal(t, "1", sess.User())
	assert.Equal(t, user.ID, repo.sessions[sess.ID])
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newMockRepository()
	seedUser(t, repo, "student@example.edu", "correct-horse", true)
	handler, sessions := newTestHandler(t, repo)

	req, sess, err := loginRequestWithSession(sessions, `{"email":"student@example.edu","password":"wrong-horse"}`)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	handler.handleLogin(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, sess.User())
	assert.Empty(t, repo.sessions)
}

func TestLoginInactiveUser(t *testing.T) {
	repo := newMockRepository()
	seedUser(t, repo, "gone@example.edu", "correct-horse", false)
	handler, sessions := newTestHandler(t, repo)

	req, _, err := loginRequestWithSession(sessions, `{"email":"gone@example.edu","password":"correct-horse"}`)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	handler.handleLogin(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginValidation(t *testing.T) {
	repo := newMockRepository()
	handler, sessions := newTestHandler(t, repo)

	req, _, err := loginRequestWithSession(sessions, `{"email":"not-an-email","password":"short"}`)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	handler.handleLogin(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutClearsSession(t *testing.T) {
	repo := newMockRepository()
	seedUser(t, repo, "student@example.edu", "correct-horse", true)
	handler, sessions := newTestHandler(t, repo)

	req, sess, err := loginRequestWithSession(sessions, `{"email":"student@example.edu","password":"correct-horse"}`)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	handler.handleLogin(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, repo.sessions, sess.ID)

	out := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	out = out.WithContext(shared.ContextWithSession(out.Context(), sess))
	rec = httptest.NewRecorder()
	handler.handleLogout(rec, out)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, repo.sessions, sess.ID)
}
