package main

import (
	"BiteBot/internal/app/discovery"
	"BiteBot/internal/app/engine"
	"BiteBot/internal/config"
	"BiteBot/internal/service/audio"
	"BiteBot/internal/service/metrics"
	"BiteBot/internal/service/registry"
	"BiteBot/internal/service/stats"
	"BiteBot/internal/service/window"
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	zapobserver "go.uber.org/zap/zaptest/observer"
)

func TestVersionCommand(t *testing.T) {
	cfg := config.Defaults()
	cfg.Engine.BiteThreshold = 5 // версия не проверяет конфиг
	cmd := newRootCmd(cfg)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "bitebot dev\n", out.String())
}

func TestInvalidFlagsRejectedBeforeRun(t *testing.T) {
	cmd := newRootCmd(config.Defaults())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "--bite-threshold=2"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bite threshold")
}

func TestPrintCandidates(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printCandidates(&out, []discovery.Candidate{
		{Session: audio.Session{PID: 100, Identifier: "warcraft", State: audio.SessionActive, Peak: 0.25}, Process: "Wow.exe", Matched: true, Window: 0x10, Title: "World of Warcraft"},
		{Session: audio.Session{PID: 200, Identifier: "chrome", State: audio.SessionInactive}},
		{Session: audio.Session{PID: 300, Identifier: "warcraft", State: audio.SessionActive}, Matched: true, Err: window.ErrNotFound},
	}))
	s := out.String()
	assert.Contains(t, s, "PID")
	assert.Contains(t, s, `0x10 "World of Warcraft"`)
	assert.Contains(t, s, "0.250")
	assert.Contains(t, s, "inactive")
	assert.Contains(t, s, "error: window: no window for process")
}

func TestMetricsObserver(t *testing.T) {
	m, err := metrics.New(prometheus.NewRegistry(), func() int { return 0 })
	require.NoError(t, err)
	obs := metricsObserver(m)
	obs.Observe(engine.Event{Kind: engine.EventCast, TargetID: 1})
	obs.Observe(engine.Event{Kind: engine.EventReact, TargetID: 1, Duration: 3 * time.Second})
	obs.Observe(engine.Event{Kind: engine.EventStopped, Error: "device lost"})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `bitebot_actions_total{kind="cast",pid="1"} 1`)
	assert.Contains(t, body, `bitebot_actions_total{kind="react",pid="1"} 1`)
	assert.Contains(t, body, "bitebot_engine_stops_total 1")
	assert.Contains(t, body, "bitebot_reaction_duration_seconds_count 1")
}

func TestFlushStatsLogsEveryTarget(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Insert(registry.Target{ID: 100, DisplayName: "WoW 1"},
		stats.Stats{}.WithCast().WithCast().WithReaction(4*time.Second).WithReaction(6*time.Second)))
	require.NoError(t, reg.Insert(registry.Target{ID: 200, DisplayName: "WoW 2"}, stats.Stats{}))

	core, logs := zapobserver.New(zapcore.InfoLevel)
	flushStats(zap.New(core).Sugar(), reg)

	entries := logs.FilterMessage("Final stats").All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.EqualValues(t, 100, first["pid"])
	assert.Equal(t, "WoW 1", first["name"])
	assert.EqualValues(t, 2, first["casts"])
	assert.EqualValues(t, 2, first["reacts"])
	assert.InDelta(t, 5.0, first["avgReactionSec"], 1e-9)

	second := entries[1].ContextMap()
	assert.EqualValues(t, 200, second["pid"])
	assert.EqualValues(t, 0, second["casts"])
}

func TestFlushStatsEmptyRegistry(t *testing.T) {
	core, logs := zapobserver.New(zapcore.InfoLevel)
	flushStats(zap.New(core).Sugar(), registry.New())
	assert.Zero(t, logs.Len())
}
