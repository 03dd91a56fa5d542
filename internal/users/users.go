// Package users stores user profiles and poll records.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Age bounds accepted by registration.
const (
	MinAge = 1
	MaxAge = 120
)

var (
	// ErrNotFound is returned when no profile exists for a user id.
	ErrNotFound = errors.New("users: profile not found")
	// ErrInvalidAge is returned for ages outside [MinAge, MaxAge].
	ErrInvalidAge = errors.New("users: age out of range")
)

// Profile is what the bot knows about a user.
type Profile struct {
	ID           int64
	Username     *string
	FirstName    string
	RegisteredAt time.Time
	FullName     *string
	Age          *int
}

// PollRecord describes a poll the bot sent. It is written and never read back.
type PollRecord struct {
	PollID    string
	Question  string
	Options   []string
	MessageID int
	ChatID    int64
	Answers   int
	CreatedAt time.Time
}

// Store is the user record store injected into handlers.
type Store interface {
	// EnsureUser stores p unless a profile with the same id exists and
	// returns the stored profile. created reports whether p was inserted.
	EnsureUser(ctx context.Context, p Profile) (stored Profile, created bool, err error)
	Get(ctx context.Context, id int64) (Profile, error)
	// SaveRegistration sets the full name and age of an existing profile.
	SaveRegistration(ctx context.Context, id int64, fullName string, age int) error
	Count(ctx context.Context) (int, error)
	SavePoll(ctx context.Context, rec PollRecord) error
}

// ValidateAge reports ErrInvalidAge for ages outside [MinAge, MaxAge].
func ValidateAge(age int) error {
	if age < MinAge || age > MaxAge {
		return fmt.Errorf("%w: %d", ErrInvalidAge, age)
	}
	return nil
}

// OptionalString returns nil for an empty s.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
