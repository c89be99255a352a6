// Package store persists agents, profiles and short links.
package store

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when a single-row lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Agent is a discoverable mirror agent.
type Agent struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	TrustScore  int       `json:"trust_score"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AgentUpdate carries a partial agent update; nil fields are left unchanged.
type AgentUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	TrustScore  *int    `json:"trust_score,omitempty"`
}

// Profile is a user profile, optionally linked to a mirror agent.
type Profile struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	XUsername   string    `json:"x_username,omitempty"`
	Image       string    `json:"image,omitempty"`
	AgentID     *string   `json:"agent_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfileUpsert carries profile fields for create-or-update by user_id.
// Nil fields are left unchanged on update and empty on create.
type ProfileUpsert struct {
	UserID      string  `json:"user_id"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	XUsername   *string `json:"x_username,omitempty"`
	Image       *string `json:"image,omitempty"`
	AgentID     *string `json:"agent_id,omitempty"`
}

// ShortLink maps a short code to a destination URL.
type ShortLink struct {
	Code      string    `json:"code"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// IsConnectivityError reports whether an error denotes a store that is
// unreachable or locked rather than a bad query.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "unable to open database")
}
