package input

import (
	"BiteBot/internal/service/window"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorder struct {
	calls   []string
	downErr error
}

func (r *recorder) KeyDown(h window.Handle) error {
	r.calls = append(r.calls, "down")
	return r.downErr
}

func (r *recorder) KeyUp(h window.Handle) error {
	r.calls = append(r.calls, "up")
	return nil
}

type fixedRand int64

func (f fixedRand) Int63n(n int64) int64 { return int64(f) % n }

func newTestSequencer(rec *recorder, slept *[]time.Duration) *Sequencer {
	s := NewSequencer(rec, Timing{
		PreDelayMin: 100 * time.Millisecond,
		PreDelayMax: 200 * time.Millisecond,
		Hold:        10 * time.Millisecond,
	}, fixedRand(int64(40*time.Millisecond)), zap.NewNop().Sugar())
	s.sleep = func(ctx context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return context.Cause(ctx)
	}
	return s
}

func TestInjectSequence(t *testing.T) {
	rec := &recorder{}
	var slept []time.Duration
	s := newTestSequencer(rec, &slept)

	require.NoError(t, s.Inject(context.Background(), 1))

	assert.Equal(t, []string{"down", "up"}, rec.calls)
	assert.Equal(t, []time.Duration{140 * time.Millisecond, 10 * time.Millisecond}, slept)
	assert.Equal(t, 110*time.Millisecond, s.MinLatency())
}

func TestInjectCanceledBeforeKeyDown(t *testing.T) {
	rec := &recorder{}
	var slept []time.Duration
	s := newTestSequencer(rec, &slept)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Inject(ctx, 1), context.Canceled)
	assert.Empty(t, rec.calls)
}

func TestInjectKeyDownError(t *testing.T) {
	rec := &recorder{downErr: errors.New("no window")}
	var slept []time.Duration
	s := newTestSequencer(rec, &slept)

	err := s.Inject(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key down")
	assert.Equal(t, []string{"down"}, rec.calls)
}

func TestSleepCtxRealTimer(t *testing.T) {
	start := time.Now()
	require.NoError(t, sleepCtx(context.Background(), 5*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
	assert.NoError(t, sleepCtx(context.Background(), 0))
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		in   string
		want Key
	}{
		{"F8", Key{Name: "F8", VK: 0x77}},
		{" f1 ", Key{Name: "F1", VK: 0x70}},
		{"F12", Key{Name: "F12", VK: 0x7B}},
		{"space", Key{Name: "SPACE", VK: 0x20}},
		{"1", Key{Name: "1", VK: '1'}},
		{"q", Key{Name: "Q", VK: 'Q'}},
	}
	for _, tt := range tests {
		got, err := ParseKey(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "F0", "F13", "ctrl", "FF"} {
		_, err := ParseKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewSenderUnknownMethod(t *testing.T) {
	_, err := NewSender("telepathy", Key{Name: "F8", VK: 0x77})
	assert.Error(t, err)
}
