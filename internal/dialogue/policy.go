package dialogue

import "github.com/ordervox/ordervox/internal/order"

// DefaultMaxFailures is the number of consecutive non-actionable turns after
// which the call is escalated to a human operator.
const DefaultMaxFailures = 3

// Policy is the retry/escalation policy. It is consulted before the
// per-state transition logic on every turn, because escalation overrides
// whatever the current state would do.
type Policy struct {
	// MaxFailures is the escalation threshold. Zero means DefaultMaxFailures.
	MaxFailures int
}

func (p Policy) threshold() int {
	if p.MaxFailures > 0 {
		return p.MaxFailures
	}
	return DefaultMaxFailures
}

// Fail records a turn that produced no actionable interpretation. It returns
// true when the failure count reached the threshold, in which case the
// session has been moved to its terminal cancelled state.
func (p Policy) Fail(s *order.Session) (escalated bool) {
	s.FailCount++
	if s.FailCount < p.threshold() {
		return false
	}
	s.Lifecycle = order.LifecycleCancelled
	s.State = order.StateCancelled
	return true
}

// Reset clears the failure counter after an actionable turn.
func (p Policy) Reset(s *order.Session) {
	s.FailCount = 0
}
