package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/battle-arena/internal/config"
	"github.com/battle-arena/internal/handler"
	"github.com/battle-arena/internal/metrics"
	"github.com/battle-arena/internal/models"
	"github.com/battle-arena/internal/repository"
	"github.com/battle-arena/internal/service"
	"github.com/battle-arena/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	t       *testing.T
	db      *gorm.DB
	router  *gin.Engine
	gateway *testutil.FakeGateway
	prober  *testutil.FakeProber
	metrics *metrics.Metrics
}

func newHarness(t *testing.T, ownerOnlyUpdate bool) *harness {
	t.Helper()

	cfg := config.Default()
	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	characters := repository.NewCharacterRepository(db)
	gw := &testutil.FakeGateway{}
	prober := testutil.NewFakeProber()
	m := metrics.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := handler.NewRouter(handler.Dependencies{
		AuthService: service.NewAuthService(users, cfg.Auth, nil, m, logger),
		UserService: service.NewUserService(users),
		CharacterService: service.NewCharacterService(characters, gw, prober,
			service.WithMetrics(m),
			service.WithLogger(logger),
			service.WithOwnerOnlyUpdate(ownerOnlyUpdate),
		),
		BattleService:   service.NewBattleService(characters, gw, cfg.Gateway),
		Metrics:         m,
		Logger:          logger,
		Build:           handler.BuildInfo{Version: "test", Commit: "abc123", BuildTime: "now"},
		BasePath:        cfg.Server.BasePath,
		OwnerOnlyUpdate: ownerOnlyUpdate,
	})

	return &harness{t: t, db: db, router: router, gateway: gw, prober: prober, metrics: m}
}

type requestOption func(*http.Request)

func withBearer(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withBasic(username, password string) requestOption {
	return func(r *http.Request) { r.SetBasicAuth(username, password) }
}

func (h *harness) do(method, path string, body any, opts ...requestOption) *httptest.ResponseRecorder {
	h.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

// login creates a user and returns a bearer token for it
func (h *harness) login(username string) (*models.User, string) {
	h.t.Helper()
	user := testutil.CreateUser(h.t, h.db, username)

	w := h.do(http.MethodPost, "/api/token", nil, withBasic(username, testutil.DefaultPassword))
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())

	var token service.TokenResponse
	decode(h.t, w, &token)
	return user, token.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decode(t, w, &body)
	return body["error"]
}

func characterBody(name string) map[string]any {
	return map[string]any{
		"name":         name,
		"type":         "brute",
		"description":  "a towering " + name + " in the style of Moebius",
		"link":         "a towering " + name,
		"strength":     8,
		"agility":      3,
		"intelligence": 2,
		"speed":        4,
		"endurance":    9,
		"camouflage":   1,
		"health":       120,
	}
}
