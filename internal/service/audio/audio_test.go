package audio

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	sessions []Session
	err      error
}

func (f fakeLister) Sessions(ctx context.Context) ([]Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sessions, nil
}

// ctxLister ведёт себя как поток WASAPI: на отменённом контексте возвращает ctx.Err().
type ctxLister struct{}

func (ctxLister) Sessions(ctx context.Context) ([]Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Reading
		want Sample
	}{
		{"absent", Reading{}, Inactive},
		{"inactive session", Reading{Found: true, Peak: 0.5}, Inactive},
		{"active", Reading{Found: true, Active: true, Peak: 0.25}, Sample{Active: true, Level: 0.25}},
		{"clamped high", Reading{Found: true, Active: true, Peak: 1.7}, Sample{Active: true, Level: 1}},
		{"clamped low", Reading{Found: true, Active: true, Peak: -0.2}, Sample{Active: true, Level: 0}},
		{"nan", Reading{Found: true, Active: true, Peak: float32(math.NaN())}, Inactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestSamplerWrapsSourceError(t *testing.T) {
	s := NewSampler(fakeLister{err: errors.New("com: device lost")})

	got, err := s.Snapshot(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "device lost")
	assert.Nil(t, got)
}

func TestSamplerKeepsAlreadyWrappedError(t *testing.T) {
	s := NewSampler(fakeLister{err: ErrSourceUnavailable})

	_, err := s.Snapshot(context.Background())
	assert.Equal(t, ErrSourceUnavailable, err)
}

func TestSamplerCancelIsNotSourceFailure(t *testing.T) {
	stop := errors.New("shutdown")
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(stop)

	_, err := NewSampler(ctxLister{}).Snapshot(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, stop)
	assert.NotErrorIs(t, err, ErrSourceUnavailable)
}

func TestSnapshotSample(t *testing.T) {
	s := NewSampler(fakeLister{sessions: []Session{
		{PID: 1, State: SessionActive, Peak: 0.05},
		{PID: 2, State: SessionInactive, Peak: 0.5},
	}})

	levels, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	got := levels.Sample(1)
	assert.True(t, got.Active)
	assert.InDelta(t, 0.05, got.Level, 1e-6)
	assert.Equal(t, Inactive, levels.Sample(2))
	assert.Equal(t, Inactive, levels.Sample(3))
}

func TestLookupPrefersActiveSession(t *testing.T) {
	sessions := []Session{
		{PID: 7, State: SessionExpired, Peak: 0.9},
		{PID: 8, State: SessionActive, Peak: 0.3},
		{PID: 7, State: SessionActive, Peak: 0.1},
	}

	assert.Equal(t, Reading{Found: true, Active: true, Peak: 0.1}, Lookup(sessions, 7))
	assert.Equal(t, Reading{}, Lookup(sessions, 9))
	assert.Equal(t, Reading{Found: true}, Lookup(sessions[:1], 7))
}

func TestSessionStateString(t *testing.T) {
	assert.Equal(t, "active", SessionActive.String())
	assert.Equal(t, "state(9)", SessionState(9).String())
}
