package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/wricardo/blockpush/game/results"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthorized       = errors.New("unauthorized")
)

// DefaultTokenTTL is used when Config.TokenTTL is zero
const DefaultTokenTTL = 24 * time.Hour

// ResultLister is the part of a results store the profile needs
type ResultLister interface {
	ByUser(ctx context.Context, userID string) ([]results.Result, error)
}

// Config tunes the identity service
type Config struct {
	TokenTTL time.Duration
	HashCost int
}

// Claims is the verified content of an access token
type Claims struct {
	UserID    string
	Username  string
	TokenID   string
	ExpiresAt time.Time
}

// Profile is what the profile and select screens show
type Profile struct {
	ID               string           `json:"id"`
	Username         string           `json:"username"`
	Nickname         string           `json:"nickname"`
	Results          []results.Result `json:"results"`
	TotalPlayMinutes int              `json:"total_play_minutes"`
}

// ProfileUpdate carries the editable profile fields
type ProfileUpdate struct {
	Username string `json:"username"`
	Nickname string `json:"nickname"`
}

// Service handles registration, login and profiles
type Service struct {
	users   Repository
	tokens  TokenService
	revoked Revoker
	results ResultLister
	cfg     Config
}

// NewService wires the identity service. results may be nil, in which case
// profiles carry no results.
func NewService(users Repository, tokens TokenService, revoked Revoker, resultList ResultLister, cfg Config) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if revoked == nil {
		revoked = NewMemoryRevoker()
	}
	return &Service{
		users:   users,
		tokens:  tokens,
		revoked: revoked,
		results: resultList,
		cfg:     cfg,
	}
}

// Register creates a user. The nickname starts out equal to the username.
func (s *Service) Register(ctx context.Context, username, password string) (*User, error) {
	user, err := NewUser(UserConfig{
		Username:      strings.TrimSpace(username),
		PlainPassword: password,
		HashCost:      s.cfg.HashCost,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.users.ByUsername(ctx, user.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	log.WithField("user", user.Username).Info("[AUTH] registered")
	return user, nil
}

// Login checks the credentials and returns a signed token
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.ByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !user.VerifyPassword(password) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(map[string]interface{}{
		"sub":      user.ID,
		"username": user.Username,
		"jti":      uuid.New().String(),
	}, s.cfg.TokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	log.WithField("user", user.Username).Info("[AUTH] login")
	return token, nil
}

// Logout revokes the token until it would have expired
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.Authenticate(ctx, token)
	if err != nil {
		return err
	}
	if err := s.revoked.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return err
	}

	log.WithField("user", claims.Username).Info("[AUTH] logout")
	return nil
}

// Authenticate verifies a token and returns its claims with the current
// username of the user it was issued to
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	raw, err := s.tokens.Decode(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	claims := &Claims{}
	claims.UserID, _ = raw["sub"].(string)
	claims.TokenID, _ = raw["jti"].(string)
	if exp, ok := raw["exp"].(float64); ok {
		claims.ExpiresAt = time.Unix(int64(exp), 0)
	}
	if claims.UserID == "" || claims.TokenID == "" {
		return nil, fmt.Errorf("%w: incomplete token", ErrUnauthorized)
	}

	revoked, err := s.revoked.Revoked(ctx, claims.TokenID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", ErrUnauthorized)
	}

	user, err := s.users.ByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("%w: unknown user", ErrUnauthorized)
		}
		return nil, err
	}
	claims.Username = user.Username
	return claims, nil
}

// Profile returns the user with their results
func (s *Service) Profile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &Profile{
		ID:       user.ID,
		Username: user.Username,
		Nickname: user.Nickname,
		Results:  []results.Result{},
	}
	if s.results != nil {
		list, err := s.results.ByUser(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load results: %w", err)
		}
		profile.Results = list
		profile.TotalPlayMinutes = results.TotalPlayMinutes(list)
	}
	return profile, nil
}

// UpdateProfile changes username and nickname. A username already held by
// another user yields ErrUsernameTaken.
func (s *Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*User, error) {
	username := strings.TrimSpace(update.Username)
	nickname := strings.TrimSpace(update.Nickname)
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidateNickname(nickname); err != nil {
		return nil, err
	}

	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if username != user.Username {
		if other, err := s.users.ByUsername(ctx, username); err == nil && other.ID != user.ID {
			return nil, ErrUsernameTaken
		} else if err != nil && !errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
	}

	user.Username = username
	user.Nickname = nickname
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	log.WithField("user", user.Username).Info("[AUTH] profile updated")
	return user, nil
}
