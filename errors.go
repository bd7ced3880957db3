package coreemu

import "fmt"

// Sentinel errors for conditions that carry no extra data. Callers compare
// with errors.Is.
var (
	ErrDuplicateID          = fmt.Errorf("coreemu: duplicate id")
	ErrUnknownNode          = fmt.Errorf("coreemu: unknown node")
	ErrNoCommonNetwork      = fmt.Errorf("coreemu: no common network between endpoints")
	ErrCannotUpdateWireless = fmt.Errorf("coreemu: cannot apply static link params to a wireless-managed link")
	ErrPrefixTooShort       = fmt.Errorf("coreemu: prefix too short for requested node count")
)

// InvalidArgumentError reports a caller-supplied value that fails
// validation before any state is mutated.
type InvalidArgumentError struct {
	Field   string
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Field, e.Message)
}

// HookFailureError wraps the exit status of a failed script hook, or the
// recovered panic of a callback hook.
type HookFailureError struct {
	State    string
	Filename string
	Err      error
}

func (e *HookFailureError) Error() string {
	return fmt.Sprintf("hook %s (state %s) failed: %v", e.Filename, e.State, e.Err)
}

func (e *HookFailureError) Unwrap() error { return e.Err }

// ServiceBootError reports a single node's service boot failure. Several
// of these are usually combined with errors.Join.
type ServiceBootError struct {
	NodeID  NodeID
	Service string
	Err     error
}

func (e *ServiceBootError) Error() string {
	return fmt.Sprintf("node %d: service %s boot failed: %v", e.NodeID, e.Service, e.Err)
}

func (e *ServiceBootError) Unwrap() error { return e.Err }
