package wasapi

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadRunsCallsInOrder(t *testing.T) {
	var cleaned bool
	th, err := startThread(func() error { return nil }, func() { cleaned = true })
	require.NoError(t, err)

	var got []int
	for i := range 3 {
		require.NoError(t, th.do(context.Background(), func() error {
			got = append(got, i)
			return nil
		}))
	}
	th.stop()

	assert.Equal(t, []int{0, 1, 2}, got)
	assert.True(t, cleaned)
}

func TestThreadInitError(t *testing.T) {
	boom := errors.New("CoInitialize failed")
	var cleaned bool
	th, err := startThread(func() error { return boom }, func() { cleaned = true })

	assert.Nil(t, th)
	assert.ErrorIs(t, err, boom)
	assert.False(t, cleaned)
}

func TestThreadPropagatesCallError(t *testing.T) {
	th, err := startThread(func() error { return nil }, func() {})
	require.NoError(t, err)
	defer th.stop()

	boom := errors.New("GetCount")
	assert.ErrorIs(t, th.do(context.Background(), func() error { return boom }), boom)
}

func TestThreadCanceledContext(t *testing.T) {
	th, err := startThread(func() error { return nil }, func() {})
	require.NoError(t, err)
	defer th.stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = th.do(ctx, func() error { return nil })
	// либо вызов успел пройти, либо вернулась причина отмены
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestThreadAfterStop(t *testing.T) {
	th, err := startThread(func() error { return nil }, func() {})
	require.NoError(t, err)
	th.stop()

	assert.ErrorIs(t, th.do(context.Background(), func() error { return nil }), errClosed)
}
