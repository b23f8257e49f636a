package ledger

import (
	"fmt"
	"strings"
)

// State tags what a ledger value means.
type State int

const (
	// StateActive holds the single currently valid refresh token for a key.
	StateActive State = iota + 1
	// StateLoggedOut revokes an access token or ends a refresh session.
	StateLoggedOut
	// StateAccountDeleted revokes every token of a withdrawn identity.
	StateAccountDeleted
)

const (
	activePrefix   = "active:"
	loggedOutValue = "logout"
	deletedValue   = "delete"
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateLoggedOut:
		return "logged_out"
	case StateAccountDeleted:
		return "account_deleted"
	default:
		return "unknown"
	}
}

// Entry is a decoded ledger value.
type Entry struct {
	State State
	Token string
}

// Active records token as the live refresh token.
func Active(token string) Entry {
	return Entry{State: StateActive, Token: token}
}

// LoggedOut is the logout sentinel.
func LoggedOut() Entry {
	return Entry{State: StateLoggedOut}
}

// AccountDeleted is the withdrawal sentinel.
func AccountDeleted() Entry {
	return Entry{State: StateAccountDeleted}
}

// Revoked reports whether the entry is one of the sentinels.
func (e Entry) Revoked() bool {
	return e.State == StateLoggedOut || e.State == StateAccountDeleted
}

// Holds reports whether e is the active entry for exactly token.
func (e Entry) Holds(token string) bool {
	return e.State == StateActive && token != "" && e.Token == token
}

// Encode serializes the entry into its stored string form.
func (e Entry) Encode() (string, error) {
	switch e.State {
	case StateActive:
		if e.Token == "" {
			return "", fmt.Errorf("%w: active entry without token", ErrCorruptEntry)
		}
		return activePrefix + e.Token, nil
	case StateLoggedOut:
		return loggedOutValue, nil
	case StateAccountDeleted:
		return deletedValue, nil
	default:
		return "", fmt.Errorf("%w: state %d", ErrCorruptEntry, e.State)
	}
}

// Decode parses a stored value.
func Decode(raw string) (Entry, error) {
	switch raw {
	case loggedOutValue:
		return LoggedOut(), nil
	case deletedValue:
		return AccountDeleted(), nil
	}
	if token, ok := strings.CutPrefix(raw, activePrefix); ok && token != "" {
		return Active(token), nil
	}
	return Entry{}, ErrCorruptEntry
}
