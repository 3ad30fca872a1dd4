package orgsync_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authdemo/internal/orgsync"
	"authdemo/internal/service"
	"authdemo/internal/syncstate"
	"authdemo/internal/testutil"
)

var jane = service.User{ID: "user-1", Name: "Jane Doe", Email: "jane@example.com"}

type provisionCounter struct{ n int }

func (p *provisionCounter) OrganizationProvisioned() { p.n++ }

func TestSyncCreatesAndActivatesWhenNoOrganizations(t *testing.T) {
	orgs := testutil.NewFakeOrganizations(jane.ID)
	counter := &provisionCounter{}
	s := orgsync.New(orgs, syncstate.NewMemory(), orgsync.WithObserver(counter))

	res, err := s.Sync(context.Background(), "browser-1", jane)
	require.NoError(t, err)

	assert.Equal(t, orgsync.StateSynced, res.State)
	require.NotNil(t, res.Created)
	assert.Equal(t, "Jane Doe's Organization", res.Created.Name)
	assert.Regexp(t, regexp.MustCompile(`^jane-doe-org-[a-z0-9]{6}$`), res.Created.Slug)
	assert.Equal(t, res.Created.ID, res.Activated)
	assert.Equal(t, 1, orgs.CallCount("CreateOrganization"))
	assert.Equal(t, 1, orgs.CallCount("SetActiveOrganization"))
	assert.Equal(t, res.Created.ID, orgs.Active())
	assert.Equal(t, 1, counter.n)
}

func TestSyncActivatesFirstWhenNoneActive(t *testing.T) {
	orgs := testutil.NewFakeOrganizations(jane.ID)
	orgs.AddOrganization("org-a", "A", "a")
	orgs.AddOrganization("org-b", "B", "b")
	s := orgsync.New(orgs, syncstate.NewMemory())

	res, err := s.Sync(context.Background(), "browser-1", jane)
	require.NoError(t, err)

	assert.Nil(t, res.Created)
	assert.Equal(t, "org-a", res.Activated)
	assert.Zero(t, orgs.CallCount("CreateOrganization"))
	assert.Equal(t, []string{"org-a"}, orgs.Activated)
}

func TestSyncLeavesActiveOrganization(t *testing.T) {
	orgs := testutil.NewFakeOrganizations(jane.ID)
	orgs.AddOrganization("org-a", "A", "a")
	orgs.AddOrganization("org-b", "B", "b")
	orgs.SetActive("org-b")
	s := orgsync.New(orgs, syncstate.NewMemory())

	res, err := s.Sync(context.Background(), "browser-1", jane)
	require.NoError(t, err)

	assert.Empty(t, res.Activated)
	assert.Zero(t, orgs.CallCount("SetActiveOrganization"))
	assert.Equal(t, "org-b", orgs.Active())
}

func TestSyncUsesEmailThenDefaultName(t *testing.T) {
	orgs := testutil.NewFakeOrganizations("user-2")
	s := orgsync.New(orgs, syncstate.NewMemory())

	_, err := s.Sync(context.Background(), "a", service.User{ID: "user-2", Email: "bob@example.com"})
	require.NoError(t, err)
	require.Len(t, orgs.Created, 1)
	assert.Equal(t, "bob@example.com's Organization", orgs.Created[0].Name)

	orgs = testutil.NewFakeOrganizations("user-3")
	s = orgsync.New(orgs, syncstate.NewMemory())
	_, err = s.Sync(context.Background(), "a", service.User{ID: "user-3"})
	require.NoError(t, err)
	require.Len(t, orgs.Created, 1)
	assert.Equal(t, "User's Organization", orgs.Created[0].Name)
	assert.Regexp(t, regexp.MustCompile(`^user-org-[a-z0-9]{6}$`), orgs.Created[0].Slug)
}

func TestSyncRunsOncePerUser(t *testing.T) {
	orgs := testutil.NewFakeOrganizations(jane.ID)
	guard := syncstate.NewMemory()
	s := orgsync.New(orgs, guard)
	ctx := context.Background()

	_, err := s.Sync(ctx, "browser-1", jane)
	require.NoError(t, err)
	res, err := s.Sync(ctx, "browser-1", jane)
	require.NoError(t, err)

	assert.Equal(t, orgsync.StateSkipped, res.State)
	assert.Equal(t, 1, orgs.CallCount("ListOrganizations"))
	assert.Equal(t, 1, orgs.CallCount("CreateOrganization"))

	require.NoError(t, s.Reset(ctx, "browser-1"))
	_, err = s.Sync(ctx, "browser-1", jane)
	require.NoError(t, err)
	assert.Equal(t, 2, orgs.CallCount("ListOrganizations"))
	assert.Equal(t, 1, orgs.CallCount("CreateOrganization"))
}

func TestSyncSkipsAnonymousAndEmpty(t *testing.T) {
	orgs := testutil.NewFakeOrganizations("")
	s := orgsync.New(orgs, syncstate.NewMemory())

	res, err := s.Sync(context.Background(), "b", service.User{ID: "anon", IsAnonymous: true})
	require.NoError(t, err)
	assert.Equal(t, orgsync.StateSkipped, res.State)

	res, err = s.Sync(context.Background(), "b", service.User{})
	require.NoError(t, err)
	assert.Equal(t, orgsync.StateSkipped, res.State)

	assert.Zero(t, orgs.CallCount("ListOrganizations"))
}

func TestSyncErrorEndsPassWithoutRetry(t *testing.T) {
	orgs := testutil.NewFakeOrganizations(jane.ID)
	orgs.CreateErr = testutil.ErrRemote
	s := orgsync.New(orgs, syncstate.NewMemory())
	ctx := context.Background()

	res, err := s.Sync(ctx, "browser-1", jane)
	require.ErrorIs(t, err, testutil.ErrRemote)
	assert.Equal(t, orgsync.StateSynced, res.State)
	assert.Zero(t, orgs.CallCount("SetActiveOrganization"))

	orgs.CreateErr = nil
	res, err = s.Sync(ctx, "browser-1", jane)
	require.NoError(t, err)
	assert.Equal(t, orgsync.StateSkipped, res.State)
	assert.Equal(t, 1, orgs.CallCount("CreateOrganization"))
}

func TestSyncListError(t *testing.T) {
	orgs := testutil.NewFakeOrganizations(jane.ID)
	orgs.ListErr = testutil.ErrRemote
	s := orgsync.New(orgs, syncstate.NewMemory())

	_, err := s.Sync(context.Background(), "browser-1", jane)
	require.ErrorIs(t, err, testutil.ErrRemote)
	assert.Zero(t, orgs.CallCount("CreateOrganization"))
}
