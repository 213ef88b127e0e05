package identity

import (
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/nbutton23/zxcvbn-go"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordStrengthScore = 3

	usernamePattern   = `^[a-zA-Z0-9]+$`
	minUsernameLength = 5
	maxUsernameLength = 20

	minNicknameLength = 4
	maxNicknameLength = 32
)

var (
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidNickname = errors.New("invalid nickname")
	ErrWeakPassword    = errors.New("weak password")

	usernameRegex = regexp.MustCompile(usernamePattern)
)

// User is a registered player
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Username     string    `bson:"username" json:"username"`
	Nickname     string    `bson:"nickname" json:"nickname"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updated_at"`
}

// UserConfig holds parameters for creating a User
type UserConfig struct {
	ID            string
	Username      string
	Nickname      string
	PlainPassword string
	// HashCost is the bcrypt cost, bcrypt.DefaultCost when zero
	HashCost int
}

// NewUser validates the config and hashes the password
func NewUser(config UserConfig) (*User, error) {
	if err := ValidateUsername(config.Username); err != nil {
		return nil, err
	}

	nickname := config.Nickname
	if nickname == "" {
		nickname = config.Username
	}
	if err := ValidateNickname(nickname); err != nil {
		return nil, err
	}

	if err := validatePassword(config.PlainPassword); err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(config.PlainPassword, config.HashCost)
	if err != nil {
		return nil, err
	}

	id := config.ID
	if id == "" {
		id = uuid.New().String()
	}

	now := time.Now().UTC()
	return &User{
		ID:           id,
		Username:     config.Username,
		Nickname:     nickname,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// VerifyPassword verifies if the given password matches the stored hash.
func (u *User) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// ValidateUsername checks length and that only ASCII letters and digits are used
func ValidateUsername(username string) error {
	if len(username) < minUsernameLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrInvalidUsername, minUsernameLength)
	}
	if len(username) > maxUsernameLength {
		return fmt.Errorf("%w: must be at most %d characters", ErrInvalidUsername, maxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("%w: only letters and digits are allowed", ErrInvalidUsername)
	}
	return nil
}

// ValidateNickname checks the display name length in characters
func ValidateNickname(nickname string) error {
	n := utf8.RuneCountInString(nickname)
	if n < minNicknameLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrInvalidNickname, minNicknameLength)
	}
	if n > maxNicknameLength {
		return fmt.Errorf("%w: must be at most %d characters", ErrInvalidNickname, maxNicknameLength)
	}
	return nil
}

// validatePassword checks the strength of the password.
func validatePassword(password string) error {
	result := zxcvbn.PasswordStrength(password, nil)
	if result.Score < minPasswordStrengthScore {
		return ErrWeakPassword
	}
	return nil
}

// hashPassword generates a bcrypt hash for the given password.
func hashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}
