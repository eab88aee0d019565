package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClassString(t *testing.T) {
	assert.Equal(t, "transient", ErrorTransient.String())
	assert.Equal(t, "invalid", ErrorInvalid.String())
	assert.Equal(t, "fatal", ErrorFatal.String())
	assert.Equal(t, "unknown", ErrorClass(42).String())
}

func TestWrap(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(base, "Annotator", "Start", "subscribe")
	require.Error(t, err)
	assert.Equal(t, "Annotator.Start: subscribe failed: boom", err.Error())
	assert.ErrorIs(t, err, base)

	assert.NoError(t, Wrap(nil, "Annotator", "Start", "subscribe"))
}

func TestWrapClassified(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name  string
		wrap  func(error, string, string, string) error
		class ErrorClass
	}{
		{"transient", WrapTransient, ErrorTransient},
		{"invalid", WrapInvalid, ErrorInvalid},
		{"fatal", WrapFatal, ErrorFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.wrap(base, "Comp", "Method", "action")
			require.Error(t, err)

			var ce *ClassifiedError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.class, ce.Class)
			assert.Equal(t, "Comp", ce.Component)
			assert.ErrorIs(t, err, base)

			assert.NoError(t, tt.wrap(nil, "Comp", "Method", "action"))
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"connection timeout", ErrConnectionTimeout, true},
		{"connection lost wrapped", fmt.Errorf("publish: %w", ErrConnectionLost), true},
		{"no connection", ErrNoConnection, true},
		{"context deadline", context.DeadlineExceeded, true},
		{"classified transient", WrapTransient(errors.New("x"), "C", "M", "a"), true},
		{"classified invalid", WrapInvalid(errors.New("timeout"), "C", "M", "a"), false},
		{"message pattern", errors.New("server unavailable"), true},
		{"plain invalid", ErrInvalidData, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsTransient(tt.err))
		})
	}
}

func TestIsInvalidAndFatal(t *testing.T) {
	assert.True(t, IsInvalid(ErrInvalidData))
	assert.True(t, IsInvalid(fmt.Errorf("decode: %w", ErrParsingFailed)))
	assert.False(t, IsInvalid(nil))

	assert.True(t, IsFatal(ErrInvalidConfig))
	assert.True(t, IsFatal(ErrMissingConfig))
	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(ErrInvalidData))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ErrorTransient, Classify(nil))
	assert.Equal(t, ErrorTransient, Classify(ErrConnectionLost))
	assert.Equal(t, ErrorFatal, Classify(ErrMissingConfig))
	assert.Equal(t, ErrorInvalid, Classify(ErrParsingFailed))
	// Unknown errors default to transient so callers can retry.
	assert.Equal(t, ErrorTransient, Classify(errors.New("mystery")))
}

func TestClassifiedErrorUnwrap(t *testing.T) {
	base := errors.New("root cause")
	err := WrapFatal(base, "Config", "Load", "read file")

	var ce *ClassifiedError
	require.True(t, errors.As(err, &ce))
	assert.ErrorIs(t, ce.Unwrap(), base)
}

func TestRetryConfigShouldRetry(t *testing.T) {
	cfg := DefaultRetryConfig()

	assert.False(t, cfg.ShouldRetry(nil, 0))
	assert.False(t, cfg.ShouldRetry(ErrConnectionLost, cfg.MaxRetries))
	assert.True(t, cfg.ShouldRetry(ErrConnectionLost, 0))
	assert.False(t, cfg.ShouldRetry(ErrInvalidData, 0))
}

func TestToRetryConfig(t *testing.T) {
	cfg := RetryConfig{
		MaxRetries:    4,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 1.5,
	}

	rc := cfg.ToRetryConfig()
	assert.Equal(t, 5, rc.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, rc.InitialDelay)
	assert.Equal(t, 2*time.Second, rc.MaxDelay)
	assert.Equal(t, 1.5, rc.Multiplier)
	assert.True(t, rc.AddJitter)
}
