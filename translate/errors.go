package translate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Failure classes a provider can report.
var (
	ErrRateLimited     = errors.New("rate limited")
	ErrResponseInvalid = errors.New("response invalid")
)

// ProviderError is a failed provider call. Transient failures are worth
// retrying; everything else fails immediately.
type ProviderError struct {
	Provider  string
	Status    int
	Transient bool
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsTransient reports whether err is worth retrying: rate limits, gateway
// errors, timeouts, and messages that say as much. Cancellation never is.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Transient
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"rate limit", "too many requests", "timeout", "timed out"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// transientStatus lists HTTP statuses that are retried.
func transientStatus(code int) bool {
	switch code {
	case 408, 429, 502, 503, 504:
		return true
	}
	return false
}

// ItemError stops a fail-fast run at the first key that could not be
// translated.
type ItemError struct {
	File string
	Key  string
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("translation failed for key: %s (%s)", e.Key, e.File)
}

// FailureError is returned after a complete run that left items
// untranslated or targets unread.
type FailureError struct {
	Failed      int
	ParseErrors int
}

func (e *FailureError) Error() string {
	switch {
	case e.Failed > 0 && e.ParseErrors > 0:
		return fmt.Sprintf("translation failed for %d item(s); %d target file(s) could not be read", e.Failed, e.ParseErrors)
	case e.ParseErrors > 0:
		return fmt.Sprintf("%d target file(s) could not be read", e.ParseErrors)
	}
	return fmt.Sprintf("translation failed for %d item(s)", e.Failed)
}
