package auth

import (
	"context"
	"strings"
	"time"

	"github.com/peerchamps/peerchamps/internal/shared"
)

// Service owns the credential check and the session registry rows kept in
// postgres for auditing active logins.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate verifies email/password credentials. Lookup misses, inactive
// accounts and bad passwords all collapse into ErrInvalidCredentials so the
// response never reveals which check failed.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.CanSignIn() || !user.PasswordMatches(password) {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// RegisterSession records session metadata for the active-logins registry.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession drops a session from the registry on logout.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
