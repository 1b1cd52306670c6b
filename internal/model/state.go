package model

// State is a document's position in its processing lifecycle.
type State string

const (
	StateReceived              State = "RECEIVED"
	StateStored                State = "STORED"
	StateInterpreted           State = "INTERPRETED"
	StateCompleted             State = "COMPLETED"
	StateCompletedWithFallback State = "COMPLETED_WITH_FALLBACK"
	StateFailed                State = "FAILED"
	StateRateLimited           State = "RATE_LIMITED"
	StateUnauthorized          State = "UNAUTHORIZED"
	StateFlagged               State = "FLAGGED"
)

// Agent identifies which component performed a transition. A closed enumeration
// keeps the ledger machine-checkable; free-text agent names are not accepted.
type Agent string

const (
	AgentGateway    Agent = "ingress_gateway"
	AgentDispatcher Agent = "dispatcher"
	AgentFeedback   Agent = "feedback_api"
)

// transitions is the complete set of legal state transitions. FAILED,
// RATE_LIMITED, UNAUTHORIZED and FLAGGED are terminal; FLAGGED is reachable
// only from the two COMPLETED states via feedback.
var transitions = map[State][]State{
	StateReceived:              {StateStored, StateFailed, StateRateLimited, StateUnauthorized},
	StateStored:                {StateInterpreted, StateFailed},
	StateInterpreted:           {StateCompleted, StateCompletedWithFallback, StateFailed},
	StateCompleted:             {StateFlagged},
	StateCompletedWithFallback: {StateFlagged},
}

// CanTransition reports whether from -> to is a legal transition.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are accepted from s.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// Completed reports whether s is one of the COMPLETED states, the only states
// from which feedback may flag a document.
func (s State) Completed() bool {
	return s == StateCompleted || s == StateCompletedWithFallback
}
