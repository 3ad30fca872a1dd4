// Package service defines the backend-agnostic types and capabilities for
// tasks, organizations and auth sessions.
package service

import (
	"strings"
	"time"
)

// Task is a single row of the todos collection.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	IsPublic  bool      `json:"is_public"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTask is the insert payload for a task. The server assigns id and created_at.
type NewTask struct {
	Title     string `json:"title"`
	UserID    string `json:"user_id"`
	Completed bool   `json:"completed"`
	IsPublic  bool   `json:"is_public"`
}

// TaskPatch updates a subset of task fields. Nil fields are left alone.
type TaskPatch struct {
	Completed *bool `json:"completed,omitempty"`
	IsPublic  *bool `json:"is_public,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Completed == nil && p.IsPublic == nil
}

// TaskQuery selects the rows a viewer loads.
type TaskQuery struct {
	// PublicOnly restricts the result to is_public rows (guest viewers).
	PublicOnly bool
}

// User is the identity behind an auth session.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Image         string    `json:"image,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
	IsAnonymous   bool      `json:"isAnonymous,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`

	// Custom sign-up fields.
	Company    string `json:"company,omitempty"`
	Age        *int   `json:"age,omitempty"`
	Newsletter *bool  `json:"newsletter,omitempty"`
}

// DisplayName returns the name, falling back to the email and then "User".
func (u User) DisplayName() string {
	if n := strings.TrimSpace(u.Name); n != "" {
		return n
	}
	if e := strings.TrimSpace(u.Email); e != "" {
		return e
	}
	return "User"
}

// Greeting returns the name, falling back to the local part of the email.
func (u User) Greeting() string {
	if n := strings.TrimSpace(u.Name); n != "" {
		return n
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

// SessionInfo describes one auth session of a user.
type SessionInfo struct {
	ID                   string    `json:"id"`
	Token                string    `json:"token"`
	UserID               string    `json:"userId"`
	ExpiresAt            time.Time `json:"expiresAt"`
	CreatedAt            time.Time `json:"createdAt"`
	IPAddress            string    `json:"ipAddress,omitempty"`
	UserAgent            string    `json:"userAgent,omitempty"`
	ActiveOrganizationID string    `json:"activeOrganizationId,omitempty"`
}

// AuthSession is the result of a session read for a signed-in caller.
type AuthSession struct {
	Session SessionInfo `json:"session"`
	User    User        `json:"user"`
}

// SignUp is the email sign-up payload.
type SignUp struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	Company    string `json:"company,omitempty"`
	Age        *int   `json:"age,omitempty"`
	Newsletter *bool  `json:"newsletter,omitempty"`
}

// ProfileUpdate changes the editable profile fields.
type ProfileUpdate struct {
	Name       string `json:"name,omitempty"`
	Company    string `json:"company,omitempty"`
	Age        *int   `json:"age,omitempty"`
	Newsletter *bool  `json:"newsletter,omitempty"`
}

// Organization is a tenant the user belongs to.
type Organization struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Slug      string         `json:"slug"`
	Logo      string         `json:"logo,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// MemberUser is the user summary embedded in a membership.
type MemberUser struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Image string `json:"image,omitempty"`
}

// Member is a user's membership in an organization.
type Member struct {
	ID             string      `json:"id"`
	OrganizationID string      `json:"organizationId"`
	UserID         string      `json:"userId"`
	Role           string      `json:"role"`
	CreatedAt      time.Time   `json:"createdAt"`
	User           *MemberUser `json:"user,omitempty"`
}

// FullOrganization is an organization with its members.
type FullOrganization struct {
	Organization
	Members []Member `json:"members"`
}

// ImportedTask is an open task read from an external source.
type ImportedTask struct {
	ID    string
	Title string
}
