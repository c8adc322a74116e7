package inference

import (
	"errors"
	"fmt"
)

// Kind classifies a normalized inference failure.
type Kind string

const (
	KindConfig          Kind = "config"
	KindHTTP            Kind = "http"
	KindTimeout         Kind = "timeout"
	KindInvalidResponse Kind = "invalid_response"
	KindInvalidJSON     Kind = "invalid_json"
	KindSchema          Kind = "schema"
)

// maxBodyChars bounds the provider body kept on HTTP errors.
const maxBodyChars = 500

// Error is the single error type produced by the client for failures of the
// request/response contract. Lower-level transport errors are not wrapped in it.
type Error struct {
	Kind    Kind
	Message string

	// HTTP failures
	StatusCode int
	StatusText string
	Body       string

	// Invalid JSON content
	Content string

	// Schema failures. Schema is the body sent to the provider; the check
	// itself runs against the target type's tags.
	Value  any
	Schema map[string]any
	Issues []string

	Err error
}

func (e *Error) Error() string {
	return "inference: " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an inference Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ie *Error
	return errors.As(err, &ie) && ie.Kind == kind
}

func configError(field string) *Error {
	return &Error{
		Kind:    KindConfig,
		Message: fmt.Sprintf("missing required configuration: %s", field),
	}
}

func httpError(status int, statusText, body string) *Error {
	body = truncate(body, maxBodyChars)
	msg := fmt.Sprintf("HTTP %d %s", status, statusText)
	if body != "" {
		msg += ": " + body
	}
	return &Error{
		Kind:       KindHTTP,
		Message:    msg,
		StatusCode: status,
		StatusText: statusText,
		Body:       body,
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
