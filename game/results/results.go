package results

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidResult = errors.New("invalid result")

// Result is one cleared level
type Result struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Level     int       `json:"level"`
	Time      int       `json:"time"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists results
type Store interface {
	// Record validates r, fills in ID and CreatedAt when missing and stores it
	Record(ctx context.Context, r *Result) error
	// ByLevel returns all results for a level, fastest first
	ByLevel(ctx context.Context, level int) ([]Result, error)
	// ByUser returns a user's results, oldest first
	ByUser(ctx context.Context, userID string) ([]Result, error)
	Close() error
}

// prepare validates r and assigns the generated fields
func prepare(r *Result) error {
	if r.Level <= 0 {
		return fmt.Errorf("%w: level must be positive, got %d", ErrInvalidResult, r.Level)
	}
	if r.Time < 0 {
		return fmt.Errorf("%w: time must not be negative, got %d", ErrInvalidResult, r.Time)
	}
	if r.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidResult)
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return nil
}

// sortFastest orders by time, then by when the result was recorded
func sortFastest(list []Result) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Time != list[j].Time {
			return list[i].Time < list[j].Time
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}

func sortOldest(list []Result) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}

// TotalPlayMinutes sums the times of results, rounded up to whole minutes
func TotalPlayMinutes(list []Result) int {
	total := 0
	for _, r := range list {
		total += r.Time
	}
	return (total + 59) / 60
}
