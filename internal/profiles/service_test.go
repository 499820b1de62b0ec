package profiles

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academe-sis/academe/internal/authz"
	"github.com/academe-sis/academe/internal/shared"
)

type stubRepo struct {
	rows      map[int64][]Row
	flags     map[int64]UserFlags
	flagsErr  error
	listCalls int
}

func (s *stubRepo) ListByUser(ctx context.Context, userID int64) ([]Row, error) {
	s.listCalls++
	return s.rows[userID], nil
}

func (s *stubRepo) GetUserFlags(ctx context.Context, userID int64) (UserFlags, error) {
	flags, ok := s.flags[userID]
	if !ok {
		if s.flagsErr != nil {
			return UserFlags{}, s.flagsErr
		}
		return UserFlags{}, shared.ErrNotFound
	}
	return flags, nil
}

func (s *stubRepo) Create(ctx context.Context, userID int64, roleName string, studentID, professorID *int64) (Row, error) {
	row := Row{ID: 99, UserID: userID, RoleName: roleName, Active: true, StudentID: studentID, ProfessorID: professorID}
	s.rows[userID] = append(s.rows[userID], row)
	return row, nil
}

func (s *stubRepo) Deactivate(ctx context.Context, profileID int64) error {
	return nil
}

func newRegistry(t *testing.T) *authz.Registry {
	t.Helper()
	reg, err := authz.NewRegistry([]authz.RoleSeed{
		{Name: "Student", Active: true, Permissions: []string{authz.PermViewOwnEnrollment}},
		{Name: "Professor", Active: true, Permissions: []string{authz.PermViewSectionEnrollments, authz.PermGradeEnrollment}},
	})
	require.NoError(t, err)
	return reg
}

func TestActorResolvesRoles(t *testing.T) {
	repo := &stubRepo{
		rows: map[int64][]Row{
			7: {
				{ID: 1, UserID: 7, RoleName: "Student", Active: true},
				{ID: 2, UserID: 7, RoleName: "Professor", Active: false},
			},
		},
		flags: map[int64]UserFlags{7: {IsActive: true}},
	}
	svc := NewService(repo, newRegistry(t))

	actor, ok, err := svc.Actor(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(7), actor.UserID)
	assert.False(t, actor.Superuser)
	require.Len(t, actor.Profiles, 2)
	assert.True(t, actor.Profiles[0].IsStudent())
	assert.Len(t, actor.ActiveProfiles(), 1)
}

func TestActorUnknownOrInactiveUser(t *testing.T) {
	repo := &stubRepo{
		rows:  map[int64][]Row{},
		flags: map[int64]UserFlags{8: {IsActive: false}},
	}
	svc := NewService(repo, newRegistry(t))

	_, ok, err := svc.Actor(context.Background(), 8)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = svc.Actor(context.Background(), 999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestActorWrappedNotFound(t *testing.T) {
	// Repositories may wrap the sentinel with query context; the service
	// still treats it as an unknown user, not a failure.
	repo := &stubRepo{
		rows:     map[int64][]Row{},
		flags:    map[int64]UserFlags{},
		flagsErr: fmt.Errorf("query user flags: %w", shared.ErrNotFound),
	}
	svc := NewService(repo, newRegistry(t))

	_, ok, err := svc.Actor(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestActorUnregisteredRoleFails(t *testing.T) {
	repo := &stubRepo{
		rows: map[int64][]Row{
			7: {{ID: 1, UserID: 7, RoleName: "Provost", Active: true}},
		},
		flags: map[int64]UserFlags{7: {IsActive: true}},
	}
	svc := NewService(repo, newRegistry(t))

	_, _, err := svc.Actor(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unregistered role")
}

func TestGrantRejectsUnknownRole(t *testing.T) {
	repo := &stubRepo{rows: map[int64][]Row{}, flags: map[int64]UserFlags{}}
	svc := NewService(repo, newRegistry(t))

	_, err := svc.Grant(context.Background(), 7, "Provost", nil, nil)
	require.Error(t, err)

	p, err := svc.Grant(context.Background(), 7, "Professor", nil, nil)
	require.NoError(t, err)
	assert.True(t, p.IsProfessor())
}
