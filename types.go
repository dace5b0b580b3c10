package hsm

import (
	"sync"

	"github.com/enetx/g"
)

type (
	// Handle identifies a registered state. Handles are assigned sequentially
	// starting at 1; NoState (0) is reserved.
	Handle uint32
	// Event represents an application-defined event tag.
	Event g.String
	// Status is the outcome of a state's event handler.
	Status int

	// Callback is a function called on entering or exiting a state.
	Callback func(ctx *Context) error
	// Handler reacts to an event while the machine is in the state (or one of its
	// descendants). A non-nil error aborts the dispatch; the status is then ignored.
	Handler func(ctx *Context) (Status, error)
	// GuardFunc determines whether a transition is allowed.
	GuardFunc func(ctx *Context) bool
	// TransitionHook is a global callback called on every state change.
	// It runs after the exit hooks and before the enter hooks.
	TransitionHook func(from, to Handle, event Event, ctx *Context) error

	// State is the definition passed to RegisterState.
	// Nil hooks default to no-ops; a nil Handler never handles anything.
	State struct {
		Name    g.String
		Parent  Handle
		OnEnter Callback
		OnExit  Callback
		Handler Handler
	}

	// Config holds machine-wide settings fixed at creation time.
	Config struct {
		// IgnoreUnhandledEvents turns an event no state handles into a silent
		// no-op instead of an *ErrUnhandledEvent.
		IgnoreUnhandledEvents bool
		// StatesCapacity and TransitionsCapacity are initial storage hints.
		StatesCapacity      int
		TransitionsCapacity int
		// HistoryLimit bounds the number of remembered states. Zero disables history.
		HistoryLimit int
	}

	// state is the registered record stored in the machine's arena.
	state struct {
		name    g.String
		parent  Handle
		onEnter Callback
		onExit  Callback
		handler Handler
	}

	// transition is an internal struct representing a possible path between states.
	transition struct {
		from  Handle
		event Event
		to    Handle
		guard GuardFunc
	}

	// Machine is a hierarchical state machine.
	// States are kept in a contiguous arena indexed by handle; index 0 holds the
	// sentinel record.
	Machine struct {
		cfg          Config
		states       g.Slice[state]
		transitions  g.Slice[transition]
		current      Handle
		history      g.Slice[Handle]
		onTransition g.Slice[TransitionHook]

		ctx       *Context
		destroyed bool
	}

	// SyncMachine is a thread-safe wrapper around a Machine.
	// Mutating calls take the write lock; queries share the read lock.
	// All methods on SyncMachine are the thread-safe counterparts to the methods on the base Machine.
	SyncMachine struct {
		m  *Machine
		mu sync.RWMutex
	}
)

// NoState is the sentinel handle: no state, no parent.
const NoState Handle = 0

const (
	// Unhandled passes the event on to the parent state.
	Unhandled Status = iota
	// Handled stops bubbling.
	Handled
)

func (s Status) String() string {
	if s == Handled {
		return "Handled"
	}

	return "Unhandled"
}
