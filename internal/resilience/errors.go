// Package resilience classifies external-call failures and guards the
// generation provider with a circuit breaker. Nothing here retries: the
// pipeline's only second attempt is the generation fallback, which its
// client owns.
package resilience

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
)

// IsTimeout reports whether the error chain indicates an exceeded deadline:
// context expiry, a net.Error timeout, or a timeout surfaced as text by an
// HTTP client. Fetch normalization uses this to separate "the site was slow"
// from "the site was unreachable".
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range []string{"i/o timeout", "deadline exceeded", "timeout awaiting", "handshake timeout"} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
