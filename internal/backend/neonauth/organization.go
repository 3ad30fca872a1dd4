package neonauth

import (
	"context"
	"net/http"

	"authdemo/internal/service"
)

// ListOrganizations implements service.Organizations.
func (c *Client) ListOrganizations(ctx context.Context) ([]service.Organization, error) {
	var out []service.Organization
	if err := c.do(ctx, http.MethodGet, "/organization/list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FullOrganization implements service.Organizations.
func (c *Client) FullOrganization(ctx context.Context) (*service.FullOrganization, error) {
	var out *service.FullOrganization
	if err := c.do(ctx, http.MethodGet, "/organization/get-full-organization", nil, &out); err != nil {
		return nil, err
	}
	if out == nil || out.ID == "" {
		return nil, nil
	}
	return out, nil
}

// CreateOrganization implements service.Organizations.
func (c *Client) CreateOrganization(ctx context.Context, name, slug string) (service.Organization, error) {
	var out service.Organization
	err := c.do(ctx, http.MethodPost, "/organization/create", map[string]any{
		"name": name,
		"slug": slug,
	}, &out)
	return out, err
}

// SetActiveOrganization implements service.Organizations.
func (c *Client) SetActiveOrganization(ctx context.Context, organizationID string) error {
	return c.do(ctx, http.MethodPost, "/organization/set-active", map[string]any{
		"organizationId": organizationID,
	}, nil)
}
