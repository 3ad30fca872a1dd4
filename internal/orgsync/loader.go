package orgsync

import (
	"context"
	"fmt"

	"authdemo/internal/service"
)

// OrganizationData is the active organization as shown to a user.
type OrganizationData struct {
	Organization *service.Organization
	Members      []service.Member
	UserRole     string
}

// Loader reads the active organization, activating the first listed one
// when none is active.
type Loader struct {
	orgs service.Organizations
}

// NewLoader creates a Loader.
func NewLoader(orgs service.Organizations) *Loader {
	return &Loader{orgs: orgs}
}

// Load returns the active organization of user. A nil user yields empty data.
func (l *Loader) Load(ctx context.Context, user *service.User) (OrganizationData, error) {
	if user == nil || user.ID == "" {
		return OrganizationData{}, nil
	}

	full, err := l.orgs.FullOrganization(ctx)
	if err != nil {
		return OrganizationData{}, fmt.Errorf("get full organization: %w", err)
	}
	if full == nil {
		orgs, err := l.orgs.ListOrganizations(ctx)
		if err != nil {
			return OrganizationData{}, fmt.Errorf("list organizations: %w", err)
		}
		if len(orgs) == 0 {
			return OrganizationData{}, nil
		}
		if err := l.orgs.SetActiveOrganization(ctx, orgs[0].ID); err != nil {
			return OrganizationData{}, fmt.Errorf("set active organization: %w", err)
		}
		full, err = l.orgs.FullOrganization(ctx)
		if err != nil {
			return OrganizationData{}, fmt.Errorf("get full organization: %w", err)
		}
		if full == nil {
			return OrganizationData{}, nil
		}
	}

	data := OrganizationData{
		Organization: &full.Organization,
		Members:      full.Members,
	}
	for _, m := range full.Members {
		if m.UserID == user.ID {
			data.UserRole = m.Role
			break
		}
	}
	return data, nil
}
