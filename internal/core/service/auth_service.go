package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/autoworks/jobcard-service/internal/core/domain"
	"github.com/autoworks/jobcard-service/internal/core/ports"
)

// AuthService implements principal registration and login.
type AuthService struct {
	repo   ports.PrincipalRepository
	creds  *CredentialStore
	tokens *TokenIssuer
	log    zerolog.Logger
	now    func() time.Time
}

func NewAuthService(repo ports.PrincipalRepository, creds *CredentialStore, tokens *TokenIssuer, log zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, creds: creds, tokens: tokens, log: log, now: time.Now}
}

// Register creates a principal. A taken username is a validation error,
// whether caught here or by the store's unique index.
func (s *AuthService) Register(ctx context.Context, username, password string, role domain.Role) (*domain.Principal, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, domain.Validation("username and password are required")
	}
	if !role.Valid() {
		return nil, domain.Validation("role must be admin or employee")
	}

	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, domain.AsError(err, "find principal")
	}
	if existing != nil {
		return nil, domain.Validation("User " + username + " already exists")
	}

	hash, err := s.creds.Hash(password)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, &domain.Principal{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return nil, domain.AsError(err, "create principal")
	}

	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Str("role", string(created.Role)).Msg("principal created")
	return created, nil
}

// Login resolves credentials into the public projection of a principal.
// Unknown users and wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.PrincipalView, error) {
	if username == "" || password == "" {
		return nil, domain.Validation("Missing username and/or password")
	}

	p, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, domain.AsError(err, "find principal")
	}
	if p == nil {
		s.creds.burn(password)
		s.log.Warn().Str("username", username).Str("reason", "unknown_user").Msg("login failed")
		return nil, domain.ErrWrongCredentials
	}

	ok, err := s.creds.Verify(password, p.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.log.Warn().Str("username", username).Str("reason", "wrong_password").Msg("login failed")
		return nil, domain.ErrWrongCredentials
	}

	return p.View(), nil
}

func (s *AuthService) IssueToken(p *domain.PrincipalView) (string, error) {
	return s.tokens.Issue(p)
}
