package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/academe-sis/academe/internal/shared"
)

// ===== MOCK REPOSITORY =====

type mockRepository struct {
	users  map[int64]*User
	hashes map[int64]string
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: map[int64]*User{}, hashes: map[int64]string{}, nextID: 1}
}

func (m *mockRepository) ListUsers(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockRepository) GetUser(ctx context.Context, id int64) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockRepository) CreateUser(ctx context.Context, email, passwordHash, firstName, lastName string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return nil, ErrDuplicateEmail
		}
	}
	id := m.nextID
	m.nextID++
	u := &User{ID: id, Email: email, FirstName: firstName, LastName: lastName, IsActive: true}
	m.users[id] = u
	m.hashes[id] = passwordHash
	copied := *u
	return &copied, nil
}

func (m *mockRepository) SetActive(ctx context.Context, id int64, active bool) error {
	u, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.IsActive = active
	return nil
}

func TestCreateHashesPasswordAndNormalizes(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	user, err := svc.Create(context.Background(), "  Ada.Lovelace@Example.EDU ", "s3cret-pass", "ada", "LOVELACE")
	require.NoError(t, err)

	assert.Equal(t, "ada.lovelace@example.edu", user.Email)
	assert.Equal(t, "Ada", user.FirstName)
	assert.Equal(t, "Lovelace", user.LastName)
	assert.Equal(t, "Ada Lovelace", user.FullName())

	hash := repo.hashes[user.ID]
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret-pass")))
}

func TestCreateDuplicateEmail(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), "dup@example.edu", "password1", "First", "User")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "dup@example.edu", "password2", "Second", "User")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestDeactivateAndActivate(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	user, err := svc.Create(context.Background(), "prof@example.edu", "password1", "Grace", "Hopper")
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), user.ID))
	got, err := svc.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	require.NoError(t, svc.Activate(context.Background(), user.ID))
	got, err = svc.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	assert.ErrorIs(t, svc.Deactivate(context.Background(), 999), shared.ErrNotFound)
}
