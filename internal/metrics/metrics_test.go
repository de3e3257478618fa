package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestRecordTick(t *testing.T) {
	r := NewRegistry()
	r.RecordTick("alpha", 1.5, 0, time.Millisecond)
	r.RecordTick("alpha", 2.5, 2, time.Millisecond)

	assert.Equal(t, 2.0, counterValue(t, r.TicksTotal))
	assert.Equal(t, 2.0, counterValue(t, r.OverheatsTotal))

	g, err := r.RoomProduction.GetMetricWithLabelValues("alpha")
	require.NoError(t, err)
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	assert.Equal(t, 2.5, m.GetGauge().GetValue())
}

func TestRecordCommand(t *testing.T) {
	r := NewRegistry()
	r.RecordCommand("connect", nil)
	r.RecordCommand("connect", nil)
	r.RecordCommand("connect", errors.New("nope"))

	ok, err := r.CommandsTotal.GetMetricWithLabelValues("connect", "ok")
	require.NoError(t, err)
	assert.Equal(t, 2.0, counterValue(t, ok))

	rejected, err := r.CommandsTotal.GetMetricWithLabelValues("connect", "rejected")
	require.NoError(t, err)
	assert.Equal(t, 1.0, counterValue(t, rejected))
}

// TestHandlerExposesMetrics scrapes the handler like Prometheus would.
func TestHandlerExposesMetrics(t *testing.T) {
	r := NewRegistry()
	r.RecordSave(nil, 5*time.Millisecond)
	r.SetMarketPrice("alpha", 1.25)
	r.WSConnections.Inc()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `unitcoin_saves_total{status="ok"} 1`), text)
	assert.Contains(t, text, `unitcoin_market_price{room="alpha"} 1.25`)
	assert.Contains(t, text, "unitcoin_ws_connections 1")
	assert.Contains(t, text, "go_goroutines")
}
