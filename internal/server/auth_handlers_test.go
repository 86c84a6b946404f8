package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"glimpse/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func TestSignup(t *testing.T) {
	s, app := newTestServer(t)

	signup := func(username, email, password string) *http.Response {
		return doRequest(t, app, http.MethodPost, "/api/auth/signup", "",
			jsonBody(t, map[string]string{
				"username": username,
				"email":    email,
				"password": password,
			}), fiber.MIMEApplicationJSON)
	}

	t.Run("creates user and returns token", func(t *testing.T) {
		resp := signup("alice", "alice@example.com", "password1")
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var body struct {
			Token string      `json:"token"`
			User  models.User `json:"user"`
		}
		decodeBody(t, resp, &body)
		assert.NotEmpty(t, body.Token)
		assert.Equal(t, "alice", body.User.Username)
		assert.Empty(t, body.User.Password, "password must not be serialized")

		var count int64
		s.db.Model(&models.User{}).Where("username = ?", "alice").Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		resp := signup("alice2", "alice@example.com", "password1")
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("rejects invalid username", func(t *testing.T) {
		resp := signup("a!", "fresh@example.com", "password1")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects short password", func(t *testing.T) {
		resp := signup("bob", "bob@example.com", "short")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		resp := signup("", "", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLogin(t *testing.T) {
	s, app := newTestServer(t)
	createUser(t, s, "carol", false)

	login := func(email, password string) *http.Response {
		return doRequest(t, app, http.MethodPost, "/api/auth/login", "",
			jsonBody(t, map[string]string{
				"email":    email,
				"password": password,
			}), fiber.MIMEApplicationJSON)
	}

	t.Run("valid credentials", func(t *testing.T) {
		resp := login("carol@example.com", "password1")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Token string `json:"token"`
		}
		decodeBody(t, resp, &body)
		assert.NotEmpty(t, body.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := login("carol@example.com", "nope12345")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown email", func(t *testing.T) {
		resp := login("ghost@example.com", "password1")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestAuthRequired(t *testing.T) {
	s, app := newTestServer(t)
	_, token := createUser(t, s, "dave", false)

	t.Run("missing token", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodGet, "/api/users/me", "", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodGet, "/api/users/me", "not.a.jwt", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodGet, "/api/users/me", token, nil, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("token signed with wrong secret", func(t *testing.T) {
		forgedCfg := *s.config
		forgedCfg.JWTSecret = "another-secret-entirely-0123456789"
		forged := &Server{config: &forgedCfg}
		badToken, err := forged.generateToken(99, "mallory")
		require.NoError(t, err)

		resp := doRequest(t, app, http.MethodGet, "/api/users/me", badToken, nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestLogoutRevokesToken(t *testing.T) {
	s, app := newTestServer(t)
	mr := miniredis.RunT(t)
	s.redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	_, token := createUser(t, s, "erin", false)

	// Token works before logout
	resp := doRequest(t, app, http.MethodGet, "/api/users/me", token, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, "/api/auth/logout", token, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// And is rejected afterwards
	resp = doRequest(t, app, http.MethodGet, "/api/users/me", token, nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefresh(t *testing.T) {
	s, app := newTestServer(t)
	mr := miniredis.RunT(t)
	s.redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	_, token := createUser(t, s, "frank", false)

	resp := doRequest(t, app, http.MethodPost, "/api/auth/refresh", token, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body.Token)
	assert.NotEqual(t, token, body.Token)

	// Old token is revoked, new one works.
	resp = doRequest(t, app, http.MethodGet, "/api/users/me", token, nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/api/users/me", body.Token, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
