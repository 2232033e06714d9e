package storefront

import "time"

// MutationPolicy says when a local change is applied relative to the
// remote call that persists it.
type MutationPolicy int

const (
	// Confirmed applies the change after the remote call succeeds.
	Confirmed MutationPolicy = iota
	// Optimistic applies the change first and does not wait for the call.
	Optimistic
)

func (p MutationPolicy) String() string {
	if p == Optimistic {
		return "optimistic"
	}
	return "confirmed"
}

// Policies picks a MutationPolicy per cart operation.
type Policies struct {
	Quantity MutationPolicy
	Delete   MutationPolicy
}

// DefaultPolicies edits quantities optimistically and deletes only after
// the server confirms.
func DefaultPolicies() Policies {
	return Policies{Quantity: Optimistic, Delete: Confirmed}
}

// FinalizePolicy controls the order finalization saga.
type FinalizePolicy struct {
	// Retries is the number of extra attempts per remote step.
	Retries int
	// Backoff is the delay before the first retry; it doubles each time.
	Backoff time.Duration
	// Compensate cancels a created order when its cart items cannot be cleared.
	Compensate bool
}

func DefaultFinalizePolicy() FinalizePolicy {
	return FinalizePolicy{Retries: 2, Backoff: 200 * time.Millisecond, Compensate: true}
}
