package profiles

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/academe-sis/academe/internal/authz"
	"github.com/academe-sis/academe/internal/shared"
)

// RepositoryPort defines data access methods for profiles.
type RepositoryPort interface {
	ListByUser(ctx context.Context, userID int64) ([]Row, error)
	GetUserFlags(ctx context.Context, userID int64) (UserFlags, error)
	Create(ctx context.Context, userID int64, roleName string, studentID, professorID *int64) (Row, error)
	Deactivate(ctx context.Context, profileID int64) error
}

// Service resolves actors and manages profile grants.
type Service struct {
	repo     RepositoryPort
	registry *authz.Registry
	group    singleflight.Group
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, registry *authz.Registry) *Service {
	return &Service{repo: repo, registry: registry}
}

type actorResult struct {
	actor authz.Actor
	ok    bool
}

// Actor loads the full actor for a user: account flags plus every profile,
// with roles resolved against the registry. Concurrent loads for the same
// user within a burst are collapsed into one set of queries.
func (s *Service) Actor(ctx context.Context, userID int64) (authz.Actor, bool, error) {
	v, err, _ := s.group.Do(strconv.FormatInt(userID, 10), func() (any, error) {
		return s.loadActor(ctx, userID)
	})
	if err != nil {
		return authz.Actor{}, false, err
	}
	res := v.(actorResult)
	return res.actor, res.ok, nil
}

func (s *Service) loadActor(ctx context.Context, userID int64) (actorResult, error) {
	flags, err := s.repo.GetUserFlags(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return actorResult{}, nil
		}
		return actorResult{}, err
	}
	if !flags.IsActive {
		return actorResult{}, nil
	}

	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return actorResult{}, err
	}

	actor := authz.Actor{UserID: userID, Superuser: flags.IsSuperuser}
	for _, row := range rows {
		profile, err := s.toProfile(row)
		if err != nil {
			return actorResult{}, err
		}
		actor.Profiles = append(actor.Profiles, profile)
	}
	return actorResult{actor: actor, ok: true}, nil
}

// List returns a user's profiles resolved against the registry.
func (s *Service) List(ctx context.Context, userID int64) ([]authz.Profile, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]authz.Profile, 0, len(rows))
	for _, row := range rows {
		profile, err := s.toProfile(row)
		if err != nil {
			return nil, err
		}
		out = append(out, profile)
	}
	return out, nil
}

// Grant creates an active profile binding the user to the named role.
func (s *Service) Grant(ctx context.Context, userID int64, roleName string, studentID, professorID *int64) (authz.Profile, error) {
	if _, ok := s.registry.Role(roleName); !ok {
		return authz.Profile{}, fmt.Errorf("profiles: unknown role %q", roleName)
	}
	row, err := s.repo.Create(ctx, userID, roleName, studentID, professorID)
	if err != nil {
		return authz.Profile{}, err
	}
	return s.toProfile(row)
}

// Revoke deactivates a profile. The row survives so graded_by references
// stay intact.
func (s *Service) Revoke(ctx context.Context, profileID int64) error {
	return s.repo.Deactivate(ctx, profileID)
}

func (s *Service) toProfile(row Row) (authz.Profile, error) {
	role, ok := s.registry.Role(row.RoleName)
	if !ok {
		// A profile pointing at a role missing from the registry means the
		// seed data and the profiles table diverged.
		return authz.Profile{}, fmt.Errorf("profiles: profile %d references unregistered role %q", row.ID, row.RoleName)
	}
	return authz.Profile{
		ID:          row.ID,
		UserID:      row.UserID,
		Role:        role,
		Active:      row.Active,
		StudentID:   row.StudentID,
		ProfessorID: row.ProfessorID,
	}, nil
}
