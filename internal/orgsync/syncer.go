// Package orgsync provisions and activates a personal organization for
// signed-in users, and loads the active organization for display.
package orgsync

import (
	"context"
	"fmt"
	"log/slog"

	"authdemo/internal/service"
)

// Guard records, per scope, the last user id a sync pass ran for.
type Guard interface {
	// Begin atomically records userID for scope and reports whether it
	// differs from the previously recorded user.
	Begin(ctx context.Context, scope, userID string) (bool, error)

	// Reset forgets the recorded user for scope.
	Reset(ctx context.Context, scope string) error
}

// Observer is notified when an organization is provisioned.
type Observer interface {
	OrganizationProvisioned()
}

// State is the outcome class of a sync pass.
type State string

const (
	// StateSkipped means no pass ran: no user, an anonymous user, or the
	// scope was already synced for this user.
	StateSkipped State = "skipped"

	// StateSynced means a pass ran to completion or stopped on an error.
	StateSynced State = "synced"
)

// Result describes what a sync pass did.
type Result struct {
	State     State
	Created   *service.Organization
	Activated string
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Syncer) { s.logger = l }
}

// WithObserver sets the provisioning observer.
func WithObserver(o Observer) Option {
	return func(s *Syncer) { s.observer = o }
}

// Syncer ensures a signed-in user has exactly one active organization.
type Syncer struct {
	orgs     service.Organizations
	guard    Guard
	logger   *slog.Logger
	observer Observer
}

// New creates a Syncer over the organization namespace of the auth client.
func New(orgs service.Organizations, guard Guard, opts ...Option) *Syncer {
	s := &Syncer{
		orgs:   orgs,
		guard:  guard,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync runs at most one pass per (scope, user id). A user with no
// organization gets "<name>'s Organization" created and activated; a user
// with organizations but none active gets the first one activated.
//
// Remote errors are logged and end the pass. They are returned as well,
// but the guard is not reset, so the pass does not repeat until the user
// changes or Reset is called.
func (s *Syncer) Sync(ctx context.Context, scope string, user service.User) (Result, error) {
	if user.ID == "" || user.IsAnonymous {
		return Result{State: StateSkipped}, nil
	}

	fresh, err := s.guard.Begin(ctx, scope, user.ID)
	if err != nil {
		return Result{State: StateSkipped}, fmt.Errorf("sync guard: %w", err)
	}
	if !fresh {
		return Result{State: StateSkipped}, nil
	}

	res := Result{State: StateSynced}
	logger := s.logger.With("user_id", user.ID)

	orgs, err := s.orgs.ListOrganizations(ctx)
	if err != nil {
		logger.Error("Failed to fetch organizations", "error", err)
		return res, fmt.Errorf("list organizations: %w", err)
	}

	if len(orgs) == 0 {
		name := user.DisplayName()
		created, err := s.orgs.CreateOrganization(ctx, name+"'s Organization", GenerateSlug(name))
		if err != nil {
			logger.Error("Failed to create organization", "error", err)
			return res, fmt.Errorf("create organization: %w", err)
		}
		res.Created = &created
		if s.observer != nil {
			s.observer.OrganizationProvisioned()
		}
		logger.Info("Organization created", "organization_id", created.ID, "slug", created.Slug)

		if created.ID == "" {
			return res, nil
		}
		if err := s.orgs.SetActiveOrganization(ctx, created.ID); err != nil {
			logger.Error("Failed to activate organization", "organization_id", created.ID, "error", err)
			return res, fmt.Errorf("set active organization: %w", err)
		}
		res.Activated = created.ID
		return res, nil
	}

	active, err := s.orgs.FullOrganization(ctx)
	if err != nil {
		logger.Error("Failed to read active organization", "error", err)
		return res, fmt.Errorf("get full organization: %w", err)
	}
	if active != nil || orgs[0].ID == "" {
		return res, nil
	}
	if err := s.orgs.SetActiveOrganization(ctx, orgs[0].ID); err != nil {
		logger.Error("Failed to activate organization", "organization_id", orgs[0].ID, "error", err)
		return res, fmt.Errorf("set active organization: %w", err)
	}
	res.Activated = orgs[0].ID
	return res, nil
}

// Reset forgets the synced user for scope, typically on sign-out.
func (s *Syncer) Reset(ctx context.Context, scope string) error {
	return s.guard.Reset(ctx, scope)
}
