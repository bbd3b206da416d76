package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAction(t *testing.T) {
	tracked := 2
	m, err := New(prometheus.NewRegistry(), func() int { return tracked })
	require.NoError(t, err)

	m.RecordAction(KindCast, 100, 0)
	m.RecordAction(KindCast, 100, 0)
	m.RecordAction(KindReset, 100, 0)
	m.RecordAction(KindReact, 200, 12*time.Second)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.actions.WithLabelValues(KindCast, "100")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.actions.WithLabelValues(KindReset, "100")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.actions.WithLabelValues(KindReact, "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.reaction))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.targets))

	tracked = 5
	assert.Equal(t, float64(5), testutil.ToFloat64(m.targets))
}

func TestRecordStop(t *testing.T) {
	m, err := New(prometheus.NewRegistry(), func() int { return 0 })
	require.NoError(t, err)
	m.RecordStop()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.stops))
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg, func() int { return 0 })
	require.NoError(t, err)
	_, err = New(reg, func() int { return 0 })
	assert.Error(t, err)
}

func TestHandler(t *testing.T) {
	m, err := New(prometheus.NewRegistry(), func() int { return 1 })
	require.NoError(t, err)
	m.RecordAction(KindBite, 7, 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `bitebot_actions_total{kind="bite",pid="7"} 1`)
	assert.Contains(t, string(body), "bitebot_targets 1")
}
