package smartrouter

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrNoAvailableModel    = errors.New("smartrouter: no available model")
	ErrUnknownModel        = errors.New("smartrouter: unknown model")
	ErrUnknownStrategy     = errors.New("smartrouter: unknown strategy")
	ErrDuplicateRule       = errors.New("smartrouter: duplicate rule")
	ErrRuleNotFound        = errors.New("smartrouter: rule not found")
	ErrInvalidRule         = errors.New("smartrouter: invalid rule")
	ErrInvalidPeriod       = errors.New("smartrouter: period must be positive")
	ErrEmptyMessages       = errors.New("smartrouter: at least one message is required")
	ErrNoProvider          = errors.New("smartrouter: a provider is required")
	ErrProviderTimeout     = errors.New("smartrouter: provider timeout")
	ErrProviderRateLimited = errors.New("smartrouter: rate limited by provider")
	ErrProviderMalformed   = errors.New("smartrouter: malformed provider response")
	ErrProviderAuth        = errors.New("smartrouter: authentication failed")
	ErrProviderInvalid     = errors.New("smartrouter: invalid request")
)

// RouterError wraps an error with routing context. Model and Rule identify
// the offending catalog entry or routing rule when one is involved; they are
// never populated with provider credentials.
type RouterError struct {
	Err      error
	Op       string
	Model    string
	Rule     string
	Attempts int
}

func (e *RouterError) Error() string {
	msg := "smartrouter: " + e.Op
	if e.Model != "" {
		msg += " model=" + e.Model
	}
	if e.Rule != "" {
		msg += " rule=" + e.Rule
	}
	if e.Attempts > 0 {
		msg += fmt.Sprintf(" attempts=%d", e.Attempts)
	}
	return msg + ": " + e.Err.Error()
}

func (e *RouterError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if a provider error should not be retried on the
// fallback model.
func IsFatal(err error) bool {
	return errors.Is(err, ErrProviderAuth) ||
		errors.Is(err, ErrProviderInvalid) ||
		errors.Is(err, context.Canceled)
}

// IsRetryable returns true if a provider error can be retried on the
// fallback model. Unclassified provider errors are treated as retryable.
func IsRetryable(err error) bool {
	return err != nil && !IsFatal(err)
}
