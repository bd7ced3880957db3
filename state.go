package coreemu

// State is a session lifecycle state. Transitions are mostly forward;
// Clear is the only state-machine action that moves backward, returning
// a session to StateDefinition.
type State uint8

const (
	StateNone State = iota
	StateDefinition
	StateConfiguration
	StateInstantiation
	StateRuntime
	StateDataCollect
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateDefinition:
		return "definition"
	case StateConfiguration:
		return "configuration"
	case StateInstantiation:
		return "instantiation"
	case StateRuntime:
		return "runtime"
	case StateDataCollect:
		return "datacollect"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}
