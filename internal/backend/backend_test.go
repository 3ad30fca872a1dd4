package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authdemo/internal/backend/dataapi"
	"authdemo/internal/config"
	"authdemo/internal/logging"
	"authdemo/internal/service"
)

func TestCookiesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "session.json")

	got, err := LoadCookies(path)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, SaveCookies(path, []*http.Cookie{{Name: "better-auth.session_token", Value: "abc", Path: "/x"}}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err = LoadCookies(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "better-auth.session_token", got[0].Name)
	assert.Equal(t, "abc", got[0].Value)

	require.NoError(t, SaveCookies(path, nil))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadCookiesInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0600))

	_, err := LoadCookies(path)
	assert.ErrorContains(t, err, "invalid session.json")
}

func TestNeonGuestStoreHasNoToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}))
	t.Cleanup(srv.Close)

	cfg, err := config.New(t.TempDir())
	require.NoError(t, err)
	cfg.AuthURL = "https://auth.example.com/neondb/auth"
	cfg.DataAPIURL = srv.URL

	n, err := Open(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(n.Close)

	s, err := n.Session(nil)
	require.NoError(t, err)

	store, err := n.TaskStore(context.Background(), s, nil)
	require.NoError(t, err)
	require.IsType(t, &dataapi.Client{}, store)
	assert.False(t, store.(*dataapi.Client).Authenticated())

	_, err = store.ListTasks(context.Background(), service.TaskQuery{PublicOnly: true})
	require.NoError(t, err)
	assert.Empty(t, auth)

	store, err = n.TaskStore(context.Background(), s, &service.User{ID: "u1"})
	require.NoError(t, err)
	assert.True(t, store.(*dataapi.Client).Authenticated())
}
