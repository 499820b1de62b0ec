package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	CreateUser(ctx context.Context, email, passwordHash, firstName, lastName string) (*User, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// Service handles account management.
type Service struct {
	repo  RepositoryPort
	title cases.Caser
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, title: cases.Title(language.Und)}
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// Get fetches one account.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

// Create registers an account. The password is bcrypt hashed and names are
// normalized to title case before persisting.
func (s *Service) Create(ctx context.Context, email, password, firstName, lastName string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("users: hash password: %w", err)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	firstName = s.title.String(strings.TrimSpace(firstName))
	lastName = s.title.String(strings.TrimSpace(lastName))
	return s.repo.CreateUser(ctx, email, string(hash), firstName, lastName)
}

// Deactivate disables sign-in for an account. Profiles stay untouched; actor
// resolution already refuses inactive users.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, false)
}

// Activate re-enables sign-in for an account.
func (s *Service) Activate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, true)
}
