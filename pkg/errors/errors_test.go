package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusErr struct {
	status int
	msg    string
}

func (e *statusErr) Error() string              { return e.msg }
func (e *statusErr) HTTPStatus() (int, string) { return e.status, e.msg }

// TestNewCLIError creates and validates a CLI error
func TestNewCLIError(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewCLIError(ErrorTypeValidation, "Test error", cause)

	require.NotNil(t, err)
	assert.Equal(t, ErrorTypeValidation, err.Type)
	assert.Equal(t, "Test error", err.Error())
	assert.True(t, errors.Is(err, cause), "cause should unwrap")
}

func TestWithSuggestion(t *testing.T) {
	err := NewCLIError(ErrorTypeValidation, "Test", nil)
	assert.False(t, err.HasSuggestion())

	result := err.WithSuggestion("Try something else")
	assert.True(t, result.HasSuggestion())
	assert.Equal(t, "Try something else", result.Suggestion)
}

func TestFieldErrorsAreSortedAndKept(t *testing.T) {
	err := FieldErrors(map[string]string{
		"username": "is required",
		"email":    "must be a valid email",
	})

	assert.Equal(t, ErrorTypeValidation, err.Type)
	assert.Equal(t, "Validation error: email - must be a valid email; username - is required", err.Message)
	assert.Len(t, err.Fields, 2)
}

func TestCategorizeStatusErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		msg      string
		wantType ErrorType
		wantMsg  string
	}{
		{"unauthorized", 401, "", ErrorTypeAuth, "Invalid credentials"},
		{"forbidden", 403, "nope", ErrorTypeForbidden, "Access denied"},
		{"not found", 404, "Post", ErrorTypeNotFound, "Resource not found: Post"},
		{"rate limit", 429, "", ErrorTypeRateLimit, "Rate limit exceeded. Too many requests."},
		{"server", 502, "bad gateway", ErrorTypeServer, "Server error"},
		{"domain message verbatim", 400, "Content cannot exceed 280 characters", ErrorTypeDomain, "Content cannot exceed 280 characters"},
		{"domain without message", 409, "", ErrorTypeDomain, "Request failed with status 409"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("calling api: %w", &statusErr{status: tt.status, msg: tt.msg})
			got := CategorizeError(wrapped)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantMsg, got.Message)
		})
	}
}

func TestCategorizeTransportErrors(t *testing.T) {
	assert.Equal(t, ErrorTypeNetwork, CategorizeError(errors.New("dial tcp: connection refused")).Type)
	assert.Equal(t, ErrorTypeTimeout, CategorizeError(errors.New("context deadline exceeded")).Type)
	assert.Equal(t, ErrorTypeUnknown, CategorizeError(errors.New("something odd")).Type)
	assert.Nil(t, CategorizeError(nil))
}

func TestCategorizeKeepsCLIError(t *testing.T) {
	orig := SessionExpiredError()
	got := CategorizeError(fmt.Errorf("wrapped: %w", orig))
	assert.Same(t, orig, got)
	assert.True(t, IsType(orig, ErrorTypeSessionExpired))
	assert.False(t, IsType(errors.New("x"), ErrorTypeSessionExpired))
}

func TestFormatError(t *testing.T) {
	assert.Empty(t, FormatError(nil))

	out := FormatError(RateLimitError(30))
	assert.True(t, strings.Contains(out, "(rate_limit)"))
	assert.Contains(t, out, "Suggestion: Please wait 30 seconds")
	assert.Contains(t, out, "Retry in: 30 seconds")

	out = FormatError(errors.New("plain failure"))
	assert.Contains(t, out, "Error: plain failure")
	assert.NotContains(t, out, "(unknown)")
}
