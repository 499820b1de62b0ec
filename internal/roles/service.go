package roles

import (
	"context"
	"fmt"

	"github.com/academe-sis/academe/internal/authz"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoleSeeds(ctx context.Context) ([]authz.RoleSeed, error)
}

// Service builds and hands out the immutable role registry.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// LoadRegistry reads the seeded roles and validates them against the
// permission catalog. Called once at startup; a seed referencing an unknown
// codename aborts the boot before the engine becomes usable.
func (s *Service) LoadRegistry(ctx context.Context) (*authz.Registry, error) {
	seeds, err := s.repo.ListRoleSeeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("roles: load seeds: %w", err)
	}
	registry, err := authz.NewRegistry(seeds)
	if err != nil {
		return nil, fmt.Errorf("roles: build registry: %w", err)
	}
	return registry, nil
}
