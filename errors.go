package hsm

import (
	"errors"
	"fmt"
)

var (
	// ErrResourceExhausted is returned when the machine cannot grow its storage,
	// i.e. the handle space is used up.
	ErrResourceExhausted = errors.New("hsm: resource exhausted")

	// ErrDestroyed is returned by every operation on a machine after Destroy.
	ErrDestroyed = errors.New("hsm: machine destroyed")
)

// ErrInvalidTransition is returned by AddTransition when either end of the
// transition names a handle that is not registered. The transition is not added.
type ErrInvalidTransition struct {
	From  Handle
	Event Event
	To    Handle
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("hsm: invalid transition %d --(%s)--> %d; unregistered state handle", e.From, e.Event, e.To)
}

// ErrInvalidState is returned when a state handle is out of range, e.g. by
// SetState, by RegisterState for an unknown parent, or by Handle before the
// machine has been given a state.
type ErrInvalidState struct {
	Handle Handle
}

func (e *ErrInvalidState) Error() string {
	return fmt.Sprintf("hsm: invalid state handle %d", e.Handle)
}

// ErrUnhandledEvent is returned when no state in the active chain handles the
// event and the machine is not configured to ignore such events.
type ErrUnhandledEvent struct {
	State Handle
	Event Event
}

func (e *ErrUnhandledEvent) Error() string {
	return fmt.Sprintf("hsm: event %q unhandled in state %d", e.Event, e.State)
}

// ErrCallback is returned when a handler, guard, hook (OnEnter, OnExit) or
// OnTransition hook returns an error or panics. It wraps the original error,
// allowing it to be inspected using errors.Is and errors.As.
type ErrCallback struct {
	// HookType is where the error occurred: "Handler", "Guard", "OnEnter", "OnExit" or "OnTransition".
	HookType string
	// State is the state associated with the callback. It is NoState for global hooks.
	State Handle
	// Name is the registered name of State, if any.
	Name string
	// Err is the original error returned by the callback or the error created after recovering from a panic.
	Err error
}

func (e *ErrCallback) Error() string {
	if e.State != NoState {
		return fmt.Sprintf("hsm: error in %s callback for state %d %q: %v", e.HookType, e.State, e.Name, e.Err)
	}

	return fmt.Sprintf("hsm: error in %s hook: %v", e.HookType, e.Err)
}

// Unwrap provides compatibility with the standard library's errors package.
func (e *ErrCallback) Unwrap() error { return e.Err }

// Code classifies the errors returned by the machine.
type Code int

const (
	CodeOK Code = iota
	CodeError
	CodeInvalidTransition
	CodeInvalidState
	CodeUnhandledEvent
	CodeResourceExhausted
	CodeDestroyed
)

// String returns a human-readable description of the code.
func (c Code) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeError:
		return "Error"
	case CodeInvalidTransition:
		return "Invalid Transition"
	case CodeInvalidState:
		return "Invalid State"
	case CodeUnhandledEvent:
		return "Unhandled Event"
	case CodeResourceExhausted:
		return "Resource Exhausted"
	case CodeDestroyed:
		return "Destroyed"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// CodeOf maps an error returned by the machine to its Code.
// nil maps to CodeOK; errors not produced by the machine map to CodeError.
func CodeOf(err error) Code {
	var (
		invTrans  *ErrInvalidTransition
		invState  *ErrInvalidState
		unhandled *ErrUnhandledEvent
	)

	switch {
	case err == nil:
		return CodeOK
	case errors.As(err, &invTrans):
		return CodeInvalidTransition
	case errors.As(err, &invState):
		return CodeInvalidState
	case errors.As(err, &unhandled):
		return CodeUnhandledEvent
	case errors.Is(err, ErrResourceExhausted):
		return CodeResourceExhausted
	case errors.Is(err, ErrDestroyed):
		return CodeDestroyed
	default:
		return CodeError
	}
}
