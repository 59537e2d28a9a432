package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Error(t *testing.T) {
	t.Run("without wrapped error", func(t *testing.T) {
		err := NewDomainError(ErrorTypeValidation, "image data cannot be empty", nil)
		assert.Equal(t, "validation: image data cannot be empty", err.Error())
	})

	t.Run("with wrapped error", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := NewDomainError(ErrorTypeExternal, "provider request failed", cause)
		assert.Contains(t, err.Error(), "provider request failed")
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := NewDomainError(ErrorTypeInternal, "internal error", cause)
	assert.ErrorIs(t, err, cause)
}

func TestDomainError_Is(t *testing.T) {
	wrapped := fmt.Errorf("describe image: %w", ErrServiceUnavailable)
	assert.ErrorIs(t, wrapped, ErrServiceUnavailable)

	// Errors of the same type match each other.
	other := NewDomainError(ErrorTypeUnavailable, "breaker open for gemini", nil)
	assert.ErrorIs(t, other, ErrServiceUnavailable)

	// Different types do not.
	assert.NotErrorIs(t, ErrInvalidInput, ErrServiceUnavailable)
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeRateLimit, "rate limit exceeded", nil).
		WithDetail("limit", 60).
		WithDetail("window", "1m")

	require.NotNil(t, err.Details)
	assert.Equal(t, 60, err.Details["limit"])
	assert.Equal(t, "1m", err.Details["window"])
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, IsNotFound(ErrServiceNotFound))
	assert.True(t, IsValidation(fmt.Errorf("request: %w", ErrEmptyImage)))
	assert.True(t, IsUnauthorized(ErrInvalidToken))
	assert.True(t, IsRateLimit(ErrRateLimitExceeded))

	assert.False(t, IsNotFound(ErrRateLimitExceeded))
	assert.False(t, IsValidation(errors.New("plain error")))
}
