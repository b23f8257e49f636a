package domain

import (
	"errors"
	"time"
)

var (
	// ErrMemberNotFound is returned when no member matches a lookup.
	ErrMemberNotFound = errors.New("member not found")
	// ErrMemberExists is returned when an email is already registered.
	ErrMemberExists = errors.New("member already exists")
)

// Member is the account a token identity resolves to.
type Member struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
