package hsm

import "github.com/enetx/g"

// Interface compliance checks.
var (
	_ StateMachine = (*Machine)(nil)
	_ StateMachine = (*SyncMachine)(nil)
)

// RegisterState is the thread-safe version of Machine.RegisterState.
func (sm *SyncMachine) RegisterState(def State) (Handle, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.m.RegisterState(def)
}

// AddTransition is the thread-safe version of Machine.AddTransition.
func (sm *SyncMachine) AddTransition(from Handle, event Event, to Handle) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.m.AddTransition(from, event, to)
}

// AddTransitionWhen is the thread-safe version of Machine.AddTransitionWhen.
func (sm *SyncMachine) AddTransitionWhen(from Handle, event Event, to Handle, guard GuardFunc) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.m.AddTransitionWhen(from, event, to, guard)
}

// OnTransition is the thread-safe version of Machine.OnTransition.
func (sm *SyncMachine) OnTransition(hook TransitionHook) *SyncMachine {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.m.OnTransition(hook)
	return sm
}

// Handle is the thread-safe version of Machine.Handle.
// Callbacks run with the lock held and must not call back into sm.
func (sm *SyncMachine) Handle(event Event, payload ...any) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.m.Handle(event, payload...)
}

// SetState is the thread-safe version of Machine.SetState.
func (sm *SyncMachine) SetState(h Handle) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.m.SetState(h)
}

// Current is the thread-safe version of Machine.Current.
func (sm *SyncMachine) Current() Handle {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.m.Current()
}

// IsInState is the thread-safe version of Machine.IsInState.
func (sm *SyncMachine) IsInState(h Handle) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.m.IsInState(h)
}

// Name is the thread-safe version of Machine.Name.
func (sm *SyncMachine) Name(h Handle) g.String {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.m.Name(h)
}

// Context is the thread-safe version of Machine.Context.
// The returned Data map is itself safe for concurrent use; the other fields are
// only meaningful inside callbacks.
func (sm *SyncMachine) Context() *Context {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.m.Context()
}

// History is the thread-safe version of Machine.History.
func (sm *SyncMachine) History() g.Slice[Handle] {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.m.History()
}

// Destroy is the thread-safe version of Machine.Destroy.
func (sm *SyncMachine) Destroy() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.m.Destroy()
}
