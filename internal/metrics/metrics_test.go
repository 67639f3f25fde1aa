package metrics_test

import (
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/edithx/rewarder/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var errBoom = errors.New("boom")

func TestNilMetricsIsSafe(t *testing.T) {
	t.Parallel()

	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.ItemEvaluated("approved")
		m.PassFinished("evaluate", nil, time.Second)
		m.SocialRequest("thread", errBoom)
		m.RateLimitWait("social-api")
		m.LLMRequest("quality", "success")
		m.PayoutRun(nil, 10)
		m.BreakerStateChanged("openai", gobreaker.StateClosed, gobreaker.StateOpen)
	})
}

func TestCounters(t *testing.T) {
	t.Parallel()

	m := metrics.New()

	m.ItemEvaluated("approved")
	m.ItemEvaluated("approved")
	m.ItemEvaluated("rejected")
	m.SocialRequest("thread", nil)
	m.SocialRequest("thread", errBoom)
	m.PayoutRun(nil, 1000)
	m.PayoutRun(errBoom, 1000)

	count, err := testutil.GatherAndCount(m.Registry, "rewarder_items_evaluated_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per outcome")

	count, err = testutil.GatherAndCount(m.Registry, "rewarder_social_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(m.Registry, "rewarder_payout_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestServe(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.BreakerStateChanged("openai", gobreaker.StateClosed, gobreaker.StateOpen)

	srv, err := m.Serve("127.0.0.1:0", zaptest.NewLogger(t))
	require.NoError(t, err)
	defer srv.Shutdown(t.Context()) //nolint:errcheck

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, "http://"+srv.Addr()+"/metrics", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `rewarder_circuit_breaker_state{name="openai"} 2`)
}
