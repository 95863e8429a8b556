// Package scope tracks per-bean instantiation state for one container and
// caches singleton instances.
//
// Singleton ids move ABSENT -> IN_CREATION -> CREATED. Prototype requests
// move ABSENT -> IN_CREATION -> RELEASED and start again from ABSENT on the
// next request; the manager never keeps a prototype instance.
//
// Creation of a singleton is exclusive per id: the first caller builds it
// while concurrent callers wait for the outcome and share it, error
// included. Settled singletons are read without locking.
package scope

// State is the instantiation state of one bean id.
type State int

const (
	StateAbsent State = iota
	StateInCreation
	StateCreated
	StateReleased
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateInCreation:
		return "in-creation"
	case StateCreated:
		return "created"
	case StateReleased:
		return "released"
	default:
		return "unknown"
	}
}
