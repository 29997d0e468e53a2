package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hobbynet/hobnet/internal/api"
	"github.com/hobbynet/hobnet/internal/bus"
	"github.com/hobbynet/hobnet/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBackend struct {
	mux        *http.ServeMux
	loginFails bool
	meFails    bool
	user       api.User
}

func newFakeBackend() *fakeBackend {
	fb := &fakeBackend{
		user: api.User{ID: 7, Name: "Ada", Email: "a@x.com", GroupMemberships: []int{1}},
	}
	fb.mux = http.NewServeMux()
	fb.mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		if fb.loginFails {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid credentials"})
			return
		}
		_ = json.NewEncoder(w).Encode(api.Credentials{AccessToken: "tok-1", TokenType: "bearer"})
	})
	fb.mux.HandleFunc("POST /auth/signup", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(fb.user)
	})
	fb.mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
		if fb.meFails || r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Could not validate credentials"})
			return
		}
		_ = json.NewEncoder(w).Encode(fb.user)
	})
	return fb
}

func newTestService(t *testing.T) (*Service, *fakeBackend, *api.Client, string) {
	t.Helper()
	fb := newFakeBackend()
	srv := httptest.NewServer(fb.mux)
	t.Cleanup(srv.Close)

	client := api.New(srv.URL, zap.NewNop())
	credsPath := filepath.Join(t.TempDir(), "credentials.json")
	svc := New(client, bus.New(), zap.NewNop(), credsPath)
	return svc, fb, client, credsPath
}

func TestLoginSuccess(t *testing.T) {
	svc, _, client, credsPath := newTestService(t)

	require.NoError(t, svc.Login(context.Background(), "a@x.com", "pw"))

	assert.True(t, svc.IsLoggedIn())
	assert.Equal(t, status.Succeeded, svc.Status())
	assert.Equal(t, "tok-1", svc.Token())
	assert.Equal(t, "tok-1", client.Token())
	require.NotNil(t, svc.User())
	assert.Equal(t, 7, svc.User().ID)

	// Persisted storage contains matching user and credential.
	data, err := os.ReadFile(credsPath)
	require.NoError(t, err)
	var p persisted
	require.NoError(t, json.Unmarshal(data, &p))
	assert.Equal(t, "tok-1", p.Token)
	require.NotNil(t, p.User)
	assert.Equal(t, 7, p.User.ID)
}

func TestLoginFailure(t *testing.T) {
	svc, fb, client, credsPath := newTestService(t)
	fb.loginFails = true

	err := svc.Login(context.Background(), "a@x.com", "bad")
	require.Error(t, err)

	assert.False(t, svc.IsLoggedIn())
	assert.Equal(t, status.Failed, svc.Status())
	assert.Equal(t, "Invalid credentials", svc.Err())
	assert.Empty(t, client.Token())
	_, statErr := os.Stat(credsPath)
	assert.True(t, os.IsNotExist(statErr), "credentials must not be persisted on failed login")
}

func TestLoginPartialFailureClearsToken(t *testing.T) {
	svc, fb, client, _ := newTestService(t)
	fb.meFails = true

	err := svc.Login(context.Background(), "a@x.com", "pw")
	require.Error(t, err)

	assert.False(t, svc.IsLoggedIn())
	assert.Empty(t, client.Token(), "token must be dropped when the profile fetch fails")
	assert.Equal(t, status.Failed, svc.Status())
}

func TestRegisterDelegatesToLogin(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	require.NoError(t, svc.Register(context.Background(), "Ada", "a@x.com", "pw", []string{"chess"}))
	assert.True(t, svc.IsLoggedIn())
}

func TestRegisterPartialSuccess(t *testing.T) {
	svc, fb, _, _ := newTestService(t)
	fb.loginFails = true

	err := svc.Register(context.Background(), "Ada", "a@x.com", "pw", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account created but login failed")
	assert.False(t, svc.IsLoggedIn())
}

func TestLogoutClearsEverything(t *testing.T) {
	svc, _, client, credsPath := newTestService(t)
	require.NoError(t, svc.Login(context.Background(), "a@x.com", "pw"))

	svc.Logout()

	assert.False(t, svc.IsLoggedIn())
	assert.Nil(t, svc.User())
	assert.Empty(t, svc.Token())
	assert.Empty(t, client.Token())
	assert.Equal(t, status.Idle, svc.Status())
	_, err := os.Stat(credsPath)
	assert.True(t, os.IsNotExist(err))
}

func TestUnauthorizedPrivateCallForcesLogout(t *testing.T) {
	svc, fb, client, _ := newTestService(t)
	require.NoError(t, svc.Login(context.Background(), "a@x.com", "pw"))

	// Any later private call rejected with 401 triggers the same logout
	// transition as an explicit logout.
	fb.meFails = true
	_, err := client.Me(context.Background())
	require.Error(t, err)

	assert.False(t, svc.IsLoggedIn())
	assert.Equal(t, status.Idle, svc.Status())
}

func TestMembershipSetSemantics(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	require.NoError(t, svc.Login(context.Background(), "a@x.com", "pw"))

	svc.AddMembership(5)
	svc.AddMembership(5)
	assert.Equal(t, []int{1, 5}, svc.User().GroupMemberships, "repeat join must not duplicate")

	svc.RemoveMembership(1)
	assert.Equal(t, []int{5}, svc.User().GroupMemberships)

	svc.RemoveMembership(99)
	assert.Equal(t, []int{5}, svc.User().GroupMemberships)

	assert.True(t, svc.IsMember(5))
	assert.False(t, svc.IsMember(1))
}

func TestRestoreRoundTrip(t *testing.T) {
	svc, _, _, credsPath := newTestService(t)
	require.NoError(t, svc.Login(context.Background(), "a@x.com", "pw"))

	// Simulate a fresh process reading the same credentials file.
	client2 := api.New("http://unused", zap.NewNop())
	svc2 := New(client2, bus.New(), zap.NewNop(), credsPath)

	require.True(t, svc2.Restore())
	assert.True(t, svc2.IsLoggedIn())
	assert.Equal(t, status.Succeeded, svc2.Status())
	assert.Equal(t, "tok-1", client2.Token())
}

func TestRestoreDiscardsExpiredToken(t *testing.T) {
	credsPath := filepath.Join(t.TempDir(), "credentials.json")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	tokenStr, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)

	data, err := json.Marshal(persisted{Token: tokenStr, User: &api.User{ID: 1}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(credsPath, data, 0600))

	client := api.New("http://unused", zap.NewNop())
	svc := New(client, bus.New(), zap.NewNop(), credsPath)

	assert.False(t, svc.Restore())
	assert.False(t, svc.IsLoggedIn())
	_, statErr := os.Stat(credsPath)
	assert.True(t, os.IsNotExist(statErr), "expired credentials file should be removed")
}

func TestRestoreMissingFile(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	assert.False(t, svc.Restore())
	assert.Equal(t, status.Idle, svc.Status())
}
