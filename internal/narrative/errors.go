package narrative

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a ClientError.
type Kind int

const (
	// AuthenticationMissing means no credential was configured. It is fatal
	// at startup.
	AuthenticationMissing Kind = iota + 1
	// RequestFailed covers transport errors, rejected credentials, rate
	// limits, timeouts and empty responses. The caller may retry.
	RequestFailed
)

func (k Kind) String() string {
	switch k {
	case AuthenticationMissing:
		return "authentication missing"
	case RequestFailed:
		return "request failed"
	default:
		return "unknown"
	}
}

// ClientError is returned by CheckCredential and Generator.Generate.
type ClientError struct {
	Kind Kind
	Err  error
}

func (e *ClientError) Error() string {
	if e.Err == nil {
		return "narrative: " + e.Kind.String()
	}
	return fmt.Sprintf("narrative: %s: %v", e.Kind, e.Err)
}

func (e *ClientError) Unwrap() error { return e.Err }

// IsKind reports whether err is a ClientError of the given kind.
func IsKind(err error, kind Kind) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Kind == kind
}

// ErrEmptyResponse is wrapped in a RequestFailed error when the model answers
// with no choices or only whitespace.
var ErrEmptyResponse = errors.New("model returned no narrative text")

// CheckCredential fails with AuthenticationMissing when apiKey is blank.
func CheckCredential(apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return &ClientError{Kind: AuthenticationMissing, Err: errors.New("no API key configured")}
	}
	return nil
}
