package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType identifies an auth lifecycle event
type EventType string

const (
	EventUserRegistered    EventType = "auth.user.registered"
	EventUserAuthenticated EventType = "auth.user.authenticated"
	EventTokenRefreshed    EventType = "auth.token.refreshed"
)

// AuthEvent is published after a successful auth use case.
// It never carries passwords or tokens.
type AuthEvent struct {
	EventID    string    `json:"event_id"`
	EventType  EventType `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Version    int       `json:"version"`
	IdentityID int64     `json:"identity_id"`
	Email      string    `json:"email"`
	Role       string    `json:"role,omitempty"`
}

// NewAuthEvent stamps a new event
func NewAuthEvent(eventType EventType, identityID int64, email, role string) *AuthEvent {
	return &AuthEvent{
		EventID:    uuid.New().String(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Version:    1,
		IdentityID: identityID,
		Email:      email,
		Role:       role,
	}
}

// Key partitions events per identity so they stay ordered
func (e *AuthEvent) Key() string {
	return fmt.Sprintf("identity-%d", e.IdentityID)
}

// Publisher announces auth events
type Publisher interface {
	Publish(ctx context.Context, event *AuthEvent) error
}

// NopPublisher drops every event. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *AuthEvent) error { return nil }
