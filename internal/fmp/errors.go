package fmp

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Category classifies a failed provider call. The orchestrator's retry
// policy depends only on this classification, never on wire details.
type Category string

const (
	// CategoryAuth covers missing or rejected API keys. Permanent.
	CategoryAuth Category = "auth"
	// CategoryNotFound covers unknown symbols or endpoints. Permanent.
	CategoryNotFound Category = "not_found"
	// CategoryRateLimited is an explicit provider 429. Retried after
	// the limiter extends its window.
	CategoryRateLimited Category = "rate_limited"
	// CategoryTransient covers timeouts, connection resets, and 5xx.
	CategoryTransient Category = "transient"
	// CategoryMalformed covers bad request parameters and unparseable
	// payloads. Permanent.
	CategoryMalformed Category = "malformed"
)

// Error is a categorized provider failure.
type Error struct {
	Category Category
	Status   int
	Message  string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("fmp: ")
	b.WriteString(string(e.Category))
	if e.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// IsPermanent reports whether the failure must not be retried.
func IsPermanent(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Category {
	case CategoryAuth, CategoryNotFound, CategoryMalformed:
		return true
	}
	return false
}

// IsRateLimited reports whether the provider signalled a 429.
func IsRateLimited(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Category == CategoryRateLimited
}

func transientErr(err error) *Error {
	return &Error{Category: CategoryTransient, Err: err}
}

func malformedErr(msg string, err error) *Error {
	return &Error{Category: CategoryMalformed, Message: msg, Err: err}
}

// categorizeStatus maps a non-200 HTTP status onto the taxonomy.
func categorizeStatus(status int, body string) *Error {
	msg := strings.TrimSpace(body)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{Category: CategoryAuth, Status: status, Message: msg}
	case status == http.StatusNotFound:
		return &Error{Category: CategoryNotFound, Status: status, Message: msg}
	case status == http.StatusTooManyRequests:
		return &Error{Category: CategoryRateLimited, Status: status, Message: msg}
	case status >= 500:
		return &Error{Category: CategoryTransient, Status: status, Message: msg}
	default:
		return &Error{Category: CategoryMalformed, Status: status, Message: msg}
	}
}

// categorizeBodyError handles FMP's habit of returning errors inside a
// 200 payload as {"Error Message": "..."}.
func categorizeBodyError(msg string) *Error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "api key"), strings.Contains(lower, "apikey"):
		return &Error{Category: CategoryAuth, Message: msg}
	case strings.Contains(lower, "limit reach"), strings.Contains(lower, "limit exceed"):
		return &Error{Category: CategoryRateLimited, Message: msg}
	default:
		return &Error{Category: CategoryNotFound, Message: msg}
	}
}
