package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/battle-arena/internal/service"
	"github.com/battle-arena/internal/testutil"
)

func TestIssueToken_ReturnsSameTokenWhileFresh(t *testing.T) {
	h := newHarness(t, false)
	_, first := h.login("alice")
	require.NotEmpty(t, first)

	w := h.do(http.MethodPost, "/api/token", nil, withBasic("alice", testutil.DefaultPassword))
	require.Equal(t, http.StatusOK, w.Code)

	var again service.TokenResponse
	decode(t, w, &again)
	assert.Equal(t, first, again.Token)
	assert.False(t, again.ExpiresAt.IsZero())
}

func TestIssueToken_BadCredentials(t *testing.T) {
	h := newHarness(t, false)
	testutil.CreateUser(t, h.db, "alice")

	w := h.do(http.MethodPost, "/api/token", nil, withBasic("alice", "wrong"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Basic")

	w = h.do(http.MethodPost, "/api/token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe(t *testing.T) {
	h := newHarness(t, false)
	alice, token := h.login("alice")

	w := h.do(http.MethodGet, "/api/me", nil, withBearer(token))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	decode(t, w, &body)
	assert.Equal(t, float64(alice.ID), body["id"])
	assert.Equal(t, "alice", body["username"])
	assert.NotContains(t, body, "password")

	w = h.do(http.MethodGet, "/api/me", nil, withBearer("not-a-token"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")
}

func TestRevokeToken(t *testing.T) {
	h := newHarness(t, false)
	_, token := h.login("alice")

	w := h.do(http.MethodDelete, "/api/token", nil, withBearer(token))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":"token revoked"}`, w.Body.String())

	w = h.do(http.MethodGet, "/api/me", nil, withBearer(token))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodPost, "/api/token", nil, withBasic("alice", testutil.DefaultPassword))
	require.Equal(t, http.StatusOK, w.Code)
	var fresh service.TokenResponse
	decode(t, w, &fresh)
	assert.NotEqual(t, token, fresh.Token)
}
