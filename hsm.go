// Package hsm provides a hierarchical state machine with handler bubbling,
// hierarchical transition fallback, guarded transitions and full enter/exit
// hook sequencing. It is built with types and utilities from the
// github.com/enetx/g library.
//
// States form a tree. Being in a state means also being in every ancestor of
// that state: an event the current state does not handle is offered to its
// parent, and a transition missing from the current state is looked up on its
// ancestors. Every state change exits the whole current chain (leaf to root)
// and enters the whole destination chain (root to leaf); ancestors shared by
// both chains are not pruned.
//
// A Machine is not safe for concurrent use. Use Sync to obtain a wrapper that
// serialises calls.
package hsm

import (
	"math"

	"github.com/enetx/g"
)

// New creates an empty machine. The machine has no current state until SetState
// is called.
func New(cfg Config) *Machine {
	m := &Machine{
		cfg:          cfg,
		states:       make(g.Slice[state], 0, max(cfg.StatesCapacity, 0)+1),
		transitions:  make(g.Slice[transition], 0, max(cfg.TransitionsCapacity, 0)),
		current:      NoState,
		onTransition: g.NewSlice[TransitionHook](),
		ctx:          newContext(),
	}

	// The sentinel occupies index 0 so that handle == index.
	m.states.Push(state{name: "<none>", parent: NoState})

	return m
}

// Clone creates a new machine with the same states, transitions and hooks
// but no current state, no history and a fresh context.
func (m *Machine) Clone() *Machine {
	return &Machine{
		cfg:          m.cfg,
		states:       m.states.Clone(),
		transitions:  m.transitions.Clone(),
		current:      NoState,
		onTransition: m.onTransition.Clone(),
		ctx:          newContext(),
		destroyed:    m.destroyed,
	}
}

// Sync wraps the machine for use across goroutines. The machine must not be
// used directly afterwards.
func (m *Machine) Sync() *SyncMachine { return &SyncMachine{m: m} }

// RegisterState appends a new state and returns its handle.
// The parent must be NoState or an already registered handle, which keeps
// parent chains acyclic.
func (m *Machine) RegisterState(def State) (Handle, error) {
	if m.destroyed {
		return NoState, ErrDestroyed
	}

	if def.Parent != NoState && !m.valid(def.Parent) {
		return NoState, &ErrInvalidState{Handle: def.Parent}
	}

	if uint64(len(m.states)) > math.MaxUint32 {
		return NoState, ErrResourceExhausted
	}

	h := Handle(len(m.states))
	m.states.Push(state{
		name:    def.Name,
		parent:  def.Parent,
		onEnter: def.OnEnter,
		onExit:  def.OnExit,
		handler: def.Handler,
	})

	return h, nil
}

// AddTransition adds a transition from -> event -> to.
func (m *Machine) AddTransition(from Handle, event Event, to Handle) error {
	return m.AddTransitionWhen(from, event, to, nil)
}

// AddTransitionWhen adds a guarded transition from -> event -> to.
// Several transitions may share a (from, event) pair; they are tried in
// declaration order and the first whose guard passes is taken.
func (m *Machine) AddTransitionWhen(from Handle, event Event, to Handle, guard GuardFunc) error {
	if m.destroyed {
		return ErrDestroyed
	}

	if !m.valid(from) || !m.valid(to) {
		return &ErrInvalidTransition{From: from, Event: event, To: to}
	}

	m.transitions.Push(transition{from: from, event: event, to: to, guard: guard})

	return nil
}

// OnTransition registers a global transition hook.
func (m *Machine) OnTransition(hook TransitionHook) *Machine {
	m.onTransition.Push(hook)
	return m
}

// Destroy releases all storage. Every later call returns ErrDestroyed.
func (m *Machine) Destroy() {
	m.states = nil
	m.transitions = nil
	m.history = nil
	m.onTransition = nil
	m.current = NoState
	m.ctx = newContext()
	m.destroyed = true
}

// Current returns the machine's current state, or NoState before SetState.
func (m *Machine) Current() Handle { return m.current }

// Context returns the machine's context for managing data.
func (m *Machine) Context() *Context { return m.ctx }

// Name returns the registered name of h, or an empty string for unknown handles.
func (m *Machine) Name(h Handle) g.String {
	if int(h) >= len(m.states) {
		return ""
	}

	return m.states[h].name
}

// Parent returns the parent of h, or NoState for root and unknown handles.
func (m *Machine) Parent(h Handle) Handle {
	if int(h) >= len(m.states) {
		return NoState
	}

	return m.states[h].parent
}

// IsInState reports whether h is the current state or one of its ancestors.
func (m *Machine) IsInState(h Handle) bool {
	if h == NoState {
		return false
	}

	for s := m.current; s != NoState; s = m.states[s].parent {
		if s == h {
			return true
		}
	}

	return false
}

// History returns a copy of the most recently entered states, oldest first.
// It is empty unless Config.HistoryLimit is positive.
func (m *Machine) History() g.Slice[Handle] { return m.history.Clone() }

// valid reports whether h names a registered, non-sentinel state.
func (m *Machine) valid(h Handle) bool {
	return h != NoState && int(h) < len(m.states)
}

func (m *Machine) record(h Handle) {
	if m.cfg.HistoryLimit <= 0 {
		return
	}

	if len(m.history) >= m.cfg.HistoryLimit {
		m.history = append(m.history[:0], m.history[len(m.history)-m.cfg.HistoryLimit+1:]...)
	}

	m.history.Push(h)
}
