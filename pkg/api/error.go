package api

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"
)

// APIError represents an API error response
type APIError struct {
	StatusCode int
	Message    string
	// Fields holds per-field messages from a serializer error body
	Fields map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("[%d] %s", e.StatusCode, e.Message)
}

// HTTPStatus exposes the status and the backend's message for error
// categorization.
func (e *APIError) HTTPStatus() (int, string) {
	return e.StatusCode, e.Message
}

// ParseError parses an error response from the API. The backend answers with
// {"error"}, {"message"}, {"detail"}, {"non_field_errors": [...]} or a
// serializer body of {"field": ["msg", ...]}.
func ParseError(resp *resty.Response) error {
	statusCode := resp.StatusCode()
	body := resp.Body()

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		switch {
		case errResp.Error != "":
			return &APIError{StatusCode: statusCode, Message: errResp.Error}
		case errResp.Detail != "":
			return &APIError{StatusCode: statusCode, Message: errResp.Detail}
		case errResp.Message != "":
			return &APIError{StatusCode: statusCode, Message: errResp.Message}
		case len(errResp.NonFieldErrors) > 0:
			return &APIError{StatusCode: statusCode, Message: errResp.NonFieldErrors[0]}
		}
	}

	var fieldErrs map[string][]string
	if err := json.Unmarshal(body, &fieldErrs); err == nil && len(fieldErrs) > 0 {
		fields := make(map[string]string, len(fieldErrs))
		names := make([]string, 0, len(fieldErrs))
		for name, msgs := range fieldErrs {
			if len(msgs) == 0 {
				continue
			}
			fields[name] = msgs[0]
			names = append(names, name)
		}
		if len(names) > 0 {
			sort.Strings(names)
			return &APIError{
				StatusCode: statusCode,
				Message:    fmt.Sprintf("%s: %s", names[0], fields[names[0]]),
				Fields:     fields,
			}
		}
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" || len(msg) > 200 || strings.HasPrefix(msg, "<") {
		msg = http.StatusText(statusCode)
	}
	return &APIError{StatusCode: statusCode, Message: msg}
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsUnauthorized checks if error is due to missing/invalid authentication
func IsUnauthorized(err error) bool {
	return statusOf(err) == http.StatusUnauthorized
}

// IsForbidden checks if error is due to insufficient permissions
func IsForbidden(err error) bool {
	return statusOf(err) == http.StatusForbidden
}

// IsNotFound checks if error is due to resource not found
func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}

// IsServerError checks if error is due to server error (5xx)
func IsServerError(err error) bool {
	return statusOf(err) >= 500
}

// CheckResponse checks if response is successful and returns error if not
func CheckResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}

	if !resp.IsSuccess() {
		return ParseError(resp)
	}

	return nil
}
