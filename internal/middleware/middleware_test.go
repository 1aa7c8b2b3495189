package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/battle-arena/internal/config"
	"github.com/battle-arena/internal/metrics"
	"github.com/battle-arena/internal/repository"
	"github.com/battle-arena/internal/service"
	fixtures "github.com/battle-arena/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(t *testing.T) (*gin.Engine, *service.AuthService, *repository.UserRepository) {
	t.Helper()
	db := fixtures.NewDB(t)
	users := repository.NewUserRepository(db)
	authService := service.NewAuthService(users, config.Default().Auth, nil, nil, nil)
	fixtures.CreateUser(t, db, "alice")

	r := gin.New()
	whoami := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c), "username": GetUser(c).Username})
	}
	r.GET("/bearer", BearerAuthMiddleware(authService), whoami)
	r.POST("/basic", BasicAuthMiddleware(authService), whoami)
	return r, authService, users
}

func TestBasicAuthMiddleware(t *testing.T) {
	r, _, _ := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/basic", nil)
	req.SetBasicAuth("alice", fixtures.DefaultPassword)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)

	req = httptest.NewRequest(http.MethodPost, "/basic", nil)
	req.SetBasicAuth("alice", "wrong")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Basic")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/basic", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerAuthMiddleware(t *testing.T) {
	r, authService, users := newAuthRouter(t)
	alice, err := users.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	tok, err := authService.IssueToken(context.Background(), alice)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + tok.Token, http.StatusOK},
		{"lowercase scheme", "bearer " + tok.Token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + tok.Token, http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/bearer", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusUnauthorized {
				var body map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestIDMiddleware(logger), RequestLoggerMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping?x=1", nil))
	generated := w.Header().Get(HeaderRequestID)
	assert.Len(t, generated, 36)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, generated, entry["request_id"])
	assert.Equal(t, "/ping?x=1", entry["url"])
	assert.EqualValues(t, 200, entry["status"])

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "caller-chosen-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "caller-chosen-id", w.Header().Get(HeaderRequestID))
}

func TestAuditLoggerRedactsPassword(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestIDMiddleware(logger), AuditLoggerMiddleware())
	r.POST("/users", func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(body))
	})

	payload := `{"username":"alice","password":"hunter22"}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(payload)))

	assert.Equal(t, payload, w.Body.String(), "the handler still sees the full body")
	assert.NotContains(t, buf.String(), "hunter22")
	assert.Contains(t, buf.String(), "alice")
}

func TestRedactBody(t *testing.T) {
	assert.Equal(t, "(empty)", redactBody(nil))
	assert.Equal(t, "(unparseable)", redactBody([]byte("{not json")))
	assert.Equal(t, `{"password":"***"}`, redactBody([]byte(`{"password":"x"}`)))
	assert.True(t, strings.HasSuffix(redactBody([]byte(`{"description":"`+strings.Repeat("a", 2000)+`"}`)), "..."))
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.New()
	r := gin.New()
	r.Use(MetricsMiddleware(m))
	r.GET("/characters/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/characters/1", "/characters/2", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/characters/:id", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
}
