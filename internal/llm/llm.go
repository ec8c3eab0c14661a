package llm

import (
	"context"
	"errors"
	"net"
)

var ErrNotConfigured = errors.New("llm not configured")

// Client sends one prompt to a language model and returns its text reply.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// IsTimeout reports whether err came from a deadline on the outbound call.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
