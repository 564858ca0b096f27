package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abezemskiy/gophauth/internal/common/identity/tools/token"
	"github.com/abezemskiy/gophauth/internal/repositories/identity"
	"github.com/abezemskiy/gophauth/internal/server/handlers"
	"github.com/abezemskiy/gophauth/internal/server/identity/auth"
	"github.com/abezemskiy/gophauth/internal/server/identity/authenticator"
	"github.com/abezemskiy/gophauth/internal/server/identity/login"
	"github.com/abezemskiy/gophauth/internal/server/identity/serializer"
	"github.com/abezemskiy/gophauth/internal/server/router"
	"github.com/abezemskiy/gophauth/internal/server/sessions/memory"
	"github.com/abezemskiy/gophauth/internal/server/storage/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	token.SetSecretKey("client secret key")
	token.SetExpireHour(1)

	users := inmemory.NewStore(inmemory.WithUniqueUsernames())
	sessions, err := memory.NewStore(time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { sessions.Close() })

	srv := httptest.NewServer(router.New(router.Dependencies{
		Users:     users,
		Login:     login.NewController(authenticator.New(users), sessions, time.Hour),
		Resolver:  auth.NewResolver(sessions, serializer.NewDeserializer(users)),
		Redirects: handlers.Redirects{Success: "/welcome", Failure: "/login"},
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientFlow(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	c := New(srv.URL)
	creds := identity.Credentials{Username: "feathers", Password: "supersecret"}

	user, err := c.Register(ctx, creds)
	require.NoError(t, err)
	assert.Equal(t, "feathers", user.Username)
	assert.NotEmpty(t, user.ID)

	_, err = c.Register(ctx, creds)
	assert.True(t, errors.Is(err, ErrConflict))

	_, err = c.Me(ctx)
	assert.True(t, errors.Is(err, ErrUnauthorized))

	_, err = c.Login(ctx, identity.Credentials{Username: "feathers", Password: "wrong"})
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	assert.Empty(t, c.Token())

	result, err := c.Login(ctx, creds)
	require.NoError(t, err)
	assert.Equal(t, "/welcome", result.Redirect)
	assert.NotEmpty(t, c.Token())

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)

	require.NoError(t, c.Logout(ctx))
	assert.Empty(t, c.Token())
	_, err = c.Me(ctx)
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestClientDeleteAccount(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	c := New(srv.URL)
	creds := identity.Credentials{Username: "feathers", Password: "supersecret"}

	_, err := c.Register(ctx, creds)
	require.NoError(t, err)
	_, err = c.Login(ctx, creds)
	require.NoError(t, err)

	require.NoError(t, c.DeleteAccount(ctx))

	_, err = c.Login(ctx, creds)
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	assert.True(t, errors.Is(c.DeleteAccount(ctx), ErrUnauthorized))
}

func TestUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(res http.ResponseWriter, _ *http.Request) {
		http.Error(res, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Register(context.Background(), identity.Credentials{Username: "u", Password: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")

	// сервер недоступен
	srv.Close()
	_, err = c.Me(context.Background())
	require.Error(t, err)
}
