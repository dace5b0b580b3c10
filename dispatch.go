package hsm

import "fmt"

// chainBuf is the stack buffer used to collect an ancestor chain without
// allocating for hierarchies of ordinary depth.
const chainBuf = 16

// Handle dispatches an event to the machine.
// It accepts an optional single payload argument, exposed to callbacks as
// Context.Input for the duration of this dispatch.
//
// The event is first offered to the current state's handler and then to each
// ancestor in turn until one reports Handled. Independently of which state
// handled it, a transition for (current, event) is looked up on the current
// state and then on its ancestors; the first declared candidate whose guard
// passes is taken. If none matches, Handle returns nil without changing state.
func (m *Machine) Handle(event Event, payload ...any) error {
	if m.destroyed {
		return ErrDestroyed
	}

	if m.current == NoState {
		return &ErrInvalidState{Handle: NoState}
	}

	m.ctx.begin(event, payload)

	handled, err := m.bubble()
	if err != nil {
		return err
	}

	if !handled && !m.cfg.IgnoreUnhandledEvents {
		return &ErrUnhandledEvent{State: m.current, Event: event}
	}

	t, err := m.lookup(m.current, event)
	if err != nil || t == nil {
		return err
	}

	return m.change(t.to, event)
}

// SetState forces the machine into h, bypassing transition lookup.
// The exit and enter hooks run exactly as for a transition.
func (m *Machine) SetState(h Handle) error {
	if m.destroyed {
		return ErrDestroyed
	}

	if !m.valid(h) {
		return &ErrInvalidState{Handle: h}
	}

	m.ctx.begin("", nil)

	return m.change(h, "")
}

// bubble offers the current event to the current state and its ancestors.
func (m *Machine) bubble() (bool, error) {
	for h := m.current; h != NoState; h = m.states[h].parent {
		s := &m.states[h]
		if s.handler == nil {
			continue
		}

		status, err := m.invokeHandler(h, s.handler)
		if err != nil {
			return false, err
		}

		if status == Handled {
			return true, nil
		}
	}

	return false, nil
}

// lookup finds the transition for event starting at from and falling back to
// its ancestors. Guards are evaluated; a failing guard skips the candidate.
func (m *Machine) lookup(from Handle, event Event) (*transition, error) {
	for h := from; h != NoState; h = m.states[h].parent {
		for i := range m.transitions {
			t := &m.transitions[i]
			if t.from != h || t.event != event {
				continue
			}

			if t.guard == nil {
				return t, nil
			}

			pass, err := m.invokeGuard(h, t.guard)
			if err != nil {
				return nil, err
			}

			if pass {
				return t, nil
			}
		}
	}

	return nil, nil
}

// change exits the whole current chain, runs the transition hooks, moves the
// cursor and enters the whole destination chain. The cursor is updated before
// any enter hook runs, so a failing enter hook leaves the machine in the new
// state with its entry only partially performed.
func (m *Machine) change(to Handle, event Event) error {
	from := m.current

	for h := from; h != NoState; h = m.states[h].parent {
		if err := m.invokeCallback(m.states[h].onExit, "OnExit", h); err != nil {
			return err
		}
	}

	for _, hook := range m.onTransition {
		if err := m.invokeHook(hook, from, to, event); err != nil {
			return err
		}
	}

	m.current = to
	m.record(to)

	var buf [chainBuf]Handle
	chain := buf[:0]

	for h := to; h != NoState; h = m.states[h].parent {
		chain = append(chain, h)
	}

	for i := len(chain) - 1; i >= 0; i-- {
		h := chain[i]
		if err := m.invokeCallback(m.states[h].onEnter, "OnEnter", h); err != nil {
			return err
		}
	}

	return nil
}

// invokeHandler safely executes a state's handler, recovering from panics.
func (m *Machine) invokeHandler(h Handle, fn Handler) (status Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			status, err = Unhandled, m.callbackErr("Handler", h, fmt.Errorf("panic: %v", r))
		}
	}()

	m.ctx.State = h

	status, err = fn(m.ctx)
	if err != nil {
		return Unhandled, m.callbackErr("Handler", h, err)
	}

	return status, nil
}

// invokeGuard safely executes a transition guard, recovering from panics.
func (m *Machine) invokeGuard(h Handle, fn GuardFunc) (pass bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			pass, err = false, m.callbackErr("Guard", h, fmt.Errorf("panic: %v", r))
		}
	}()

	m.ctx.State = h

	return fn(m.ctx), nil
}

// invokeCallback safely executes an enter or exit hook, recovering from panics.
func (m *Machine) invokeCallback(cb Callback, hookType string, h Handle) (err error) {
	if cb == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = m.callbackErr(hookType, h, fmt.Errorf("panic: %v", r))
		}
	}()

	m.ctx.State = h

	if cbErr := cb(m.ctx); cbErr != nil {
		err = m.callbackErr(hookType, h, cbErr)
	}

	return err
}

func (m *Machine) invokeHook(hook TransitionHook, from, to Handle, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ErrCallback{HookType: "OnTransition", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	m.ctx.State = from

	if hookErr := hook(from, to, event, m.ctx); hookErr != nil {
		err = &ErrCallback{HookType: "OnTransition", Err: hookErr}
	}

	return err
}

func (m *Machine) callbackErr(hookType string, h Handle, err error) *ErrCallback {
	return &ErrCallback{HookType: hookType, State: h, Name: string(m.states[h].name), Err: err}
}
