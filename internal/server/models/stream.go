package models

// StreamState is the explicit lifecycle state of a user's stream. It replaces
// inference from nullable provider-id columns and a separate live flag.
//
// Valid transitions:
//
//	unconfigured -> idle          (provision)
//	idle         -> live          (start)
//	live         -> idle          (stop)
//	idle         -> unconfigured  (delete)
type StreamState string

const (
	StreamUnconfigured StreamState = "unconfigured"
	StreamIdle         StreamState = "idle"
	StreamLive         StreamState = "live"
)

var streamTransitions = map[StreamState][]StreamState{
	StreamUnconfigured: {StreamIdle},
	StreamIdle:         {StreamLive, StreamUnconfigured},
	StreamLive:         {StreamIdle},
}

// CanTransition reports whether moving from s to next is a legal lifecycle
// step.
func (s StreamState) CanTransition(next StreamState) bool {
	for _, allowed := range streamTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is one of the known states.
func (s StreamState) Valid() bool {
	switch s {
	case StreamUnconfigured, StreamIdle, StreamLive:
		return true
	}
	return false
}
