package retry

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, JitterFraction: 0}
}

func TestDoValSucceedsFirstTry(t *testing.T) {
	var calls int
	val, err := DoVal(context.Background(), fastConfig(), "test", func(context.Context) (int, error) {
		calls++
		return 7, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 7, val)
	assert.Equal(t, 1, calls)
}

func TestDoValRetriesTransient(t *testing.T) {
	var calls int
	val, err := DoVal(context.Background(), fastConfig(), "test", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", Transient(eris.New("status 503"), 503)
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, 3, calls)
}

func TestDoValStopsOnPermanentError(t *testing.T) {
	permanent := eris.New("bad request")

	var calls int
	_, err := DoVal(context.Background(), fastConfig(), "test", func(context.Context) (int, error) {
		calls++
		return 0, permanent
	})

	assert.True(t, eris.Is(err, permanent))
	assert.Equal(t, 1, calls)
}

func TestDoValExhaustsAttempts(t *testing.T) {
	var calls int
	_, err := DoVal(context.Background(), fastConfig(), "test", func(context.Context) (int, error) {
		calls++
		return 0, Transient(eris.New("still down"), 500)
	})

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoValStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	_, err := DoVal(ctx, fastConfig(), "test", func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, Transient(eris.New("down"), 502)
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastConfig(), "test", func(context.Context) error {
		calls++
		if calls == 1 {
			return Transient(eris.New("flaky"), 500)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(eris.New("validation failed")))
	assert.True(t, IsTransient(Transient(eris.New("status 500"), 500)))
	assert.True(t, IsTransient(eris.Wrap(Transient(eris.New("status 429"), 429), "outer")))
	assert.True(t, IsTransient(syscall.ECONNRESET))
}

func TestTransientStatus(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		assert.True(t, TransientStatus(code), code)
	}
	for _, code := range []int{200, 400, 401, 404} {
		assert.False(t, TransientStatus(code), code)
	}
}
