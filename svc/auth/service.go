package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/classloop/classloop/pkg/jwt"
)

// Config holds session settings.
type Config struct {
	SessionSecret string        `env:"SESSION_SECRET,required"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	SecureCookies bool          `env:"SECURE_COOKIES" envDefault:"true"`
}

// sessionClaims is what a session token carries. The user is rebuilt from
// claims on every request; no database lookup sits on the hot path.
type sessionClaims struct {
	jwt.StandardClaims
	Email       string `json:"email"`
	DisplayName string `json:"name"`
	AvatarURL   string `json:"avatar,omitempty"`
	Role        string `json:"role"`
}

// Service runs the OAuth sign-in flow and session token lifecycle.
type Service struct {
	adapter ProviderAdapter
	store   Store
	tokens  *jwt.Service
	ttl     time.Duration
	log     *slog.Logger
}

// ServiceOption configures optional service collaborators.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger. Defaults to slog.Default.
func WithServiceLogger(log *slog.Logger) ServiceOption {
	if log == nil {
		panic("auth: logger cannot be nil")
	}
	return func(s *Service) { s.log = log }
}

// NewService creates the auth service.
func NewService(adapter ProviderAdapter, store Store, cfg Config, opts ...ServiceOption) (*Service, error) {
	if adapter == nil {
		panic("auth: provider adapter cannot be nil")
	}
	if store == nil {
		panic("auth: store cannot be nil")
	}

	tokens, err := jwt.NewFromString(cfg.SessionSecret)
	if err != nil {
		return nil, fmt.Errorf("session token service: %w", err)
	}

	s := &Service{
		adapter: adapter,
		store:   store,
		tokens:  tokens,
		ttl:     cfg.SessionTTL,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SignInURL builds the provider authorization URL for the given state token.
func (s *Service) SignInURL(state string) string {
	return s.adapter.AuthURL(state)
}

// CompleteSignIn resolves the callback code into a local user, provisioning
// the account on first sign-in. New accounts default to the teacher role;
// students get accounts when they join a classroom with a code. The second
// return reports whether the account was just created.
func (s *Service) CompleteSignIn(ctx context.Context, code string) (*User, bool, error) {
	profile, err := s.adapter.ResolveProfile(ctx, code)
	if err != nil {
		return nil, false, err
	}
	if !profile.EmailVerified {
		return nil, false, ErrEmailNotVerified
	}

	email := strings.ToLower(strings.TrimSpace(profile.Email))
	user, err := s.store.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrUserNotFound):
		user = &User{
			ID:          uuid.New(),
			Email:       email,
			DisplayName: displayNameFor(profile.Name, email),
			AvatarURL:   profile.AvatarURL,
			Role:        RoleTeacher,
		}
		if err := s.store.Create(ctx, user); err != nil {
			return nil, false, err
		}
		s.log.InfoContext(ctx, "user provisioned",
			slog.String("user_id", user.ID.String()),
			slog.String("role", user.Role))
		return user, true, nil

	case err != nil:
		return nil, false, err
	}

	// Keep the roster name and avatar in sync with the provider profile.
	name := displayNameFor(profile.Name, email)
	if user.DisplayName != name || user.AvatarURL != profile.AvatarURL {
		if err := s.store.UpdateProfile(ctx, user.ID, name, profile.AvatarURL); err != nil {
			return nil, false, err
		}
		user.DisplayName = name
		user.AvatarURL = profile.AvatarURL
	}
	return user, false, nil
}

// IssueSession signs a session token for the user.
func (s *Service) IssueSession(user *User) (string, error) {
	now := time.Now()
	return s.tokens.Generate(sessionClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   user.ID.String(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
		},
		Email:       user.Email,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		Role:        user.Role,
	})
}

// ParseSession validates a session token and rebuilds the user it was issued
// for.
func (s *Service) ParseSession(token string) (User, error) {
	var claims sessionClaims
	if err := s.tokens.Parse(token, &claims); err != nil {
		return User{}, errors.Join(ErrInvalidSession, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return User{}, ErrInvalidSession
	}

	return User{
		ID:          userID,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		AvatarURL:   claims.AvatarURL,
		Role:        claims.Role,
	}, nil
}

// SessionTTL exposes the configured token lifetime for cookie expiry.
func (s *Service) SessionTTL() time.Duration {
	return s.ttl
}
