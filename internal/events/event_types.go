package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRegistered EventType = "auth_registered"
	EventLoggedIn   EventType = "auth_logged_in"
	EventLoggedOut  EventType = "auth_logged_out"
	EventReissued   EventType = "auth_reissued"
	EventWithdrawn  EventType = "auth_withdrawn"
)

// AuthEvent records a token lifecycle change. It never carries token material.
type AuthEvent struct {
	Type       EventType `json:"type"`
	Identity   string    `json:"identity,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
