package intent

import "context"

// UnavailableError is the strategy-level outcome meaning "could not produce
// a result". It is distinct from a valid unknown intent: unavailable triggers
// fallback to the next strategy, unknown does not.
type UnavailableError struct {
	Strategy string
	Reason   string
}

func (e *UnavailableError) Error() string {
	return "strategy " + e.Strategy + " unavailable: " + e.Reason
}

// Strategy turns free-form text into an Intent. Implementations either
// succeed with an Intent (possibly Unknown) or fail with *UnavailableError.
// They must never propagate raw transport errors.
type Strategy interface {
	Name() Source
	Resolve(ctx context.Context, text string) (Intent, error)
}
