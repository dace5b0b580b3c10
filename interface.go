package hsm

import "github.com/enetx/g"

// StateMachine is implemented by both Machine and SyncMachine.
type StateMachine interface {
	RegisterState(State) (Handle, error)
	AddTransition(from Handle, event Event, to Handle) error
	AddTransitionWhen(from Handle, event Event, to Handle, guard GuardFunc) error
	Handle(Event, ...any) error
	SetState(Handle) error
	Current() Handle
	IsInState(Handle) bool
	Name(Handle) g.String
	Context() *Context
	History() g.Slice[Handle]
	Destroy()
}
