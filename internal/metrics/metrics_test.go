package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := New()

	m.RecordRequest("GET", "/api/hof", "200", 0.01)
	m.RecordRequest("GET", "/api/hof", "200", 0.02)
	m.RecordGeneration("image", "ok")
	m.RecordGeneration("text", "error")
	m.RecordLinkRepair()
	m.RecordLoginFailure()
	m.RecordLoginFailure()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/hof", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationRequests.WithLabelValues("image", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationRequests.WithLabelValues("text", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LinkRepairs))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoginFailures))
}

func TestNilReceiverIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("GET", "/", "200", 0)
		m.RecordGeneration("image", "ok")
		m.RecordLinkRepair()
		m.RecordLoginFailure()
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordLinkRepair()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "arena_link_repairs_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
