package resolve

import (
	"errors"
	"fmt"
)

// ErrNoMatchingVersion reports that the selection expression matched none
// of an object's available audio-language versions.
var ErrNoMatchingVersion = errors.New("none of the requested audio languages are available")

// UnknownKindError reports an object type the resolver has no handler for.
type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown object type %q", e.Kind)
}

// PremiumError reports content gated behind a subscription. LoggedIn
// distinguishes an insufficient plan from a missing login, so callers can
// offer the login flow in the latter case.
type PremiumError struct {
	Kind     string
	LoggedIn bool
}

func (e *PremiumError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "media"
	}
	if e.LoggedIn {
		return fmt.Sprintf("this %s is for premium members only", kind)
	}
	return fmt.Sprintf("this %s is for premium members only, log in with a premium account", kind)
}
