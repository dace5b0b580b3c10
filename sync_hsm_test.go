package hsm_test

import (
	"sync"
	"testing"

	. "github.com/enetx/hsm"
)

func TestSyncMachine_ConcurrentHandle(t *testing.T) {
	var ticks int

	m := New(Config{HistoryLimit: 8})
	a := mustRegister(t, m, State{Name: "a", Handler: func(*Context) (Status, error) {
		ticks++
		return Handled, nil
	}})
	b := mustRegister(t, m, State{Name: "b", Handler: func(*Context) (Status, error) {
		ticks++
		return Handled, nil
	}})
	assertNoError(t, m.AddTransition(a, "flip", b))
	assertNoError(t, m.AddTransition(b, "flip", a))

	sm := m.Sync()
	assertNoError(t, sm.SetState(a))

	const workers, rounds = 8, 250

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range rounds {
				if err := sm.Handle("flip"); err != nil {
					t.Errorf("handle: %v", err)
					return
				}
				_ = sm.Current()
			}
		}()
	}
	wg.Wait()

	assertEqual(t, ticks, workers*rounds)

	// An even number of flips lands back on a.
	assertEqual(t, sm.Current(), a)
	assertTrue(t, sm.IsInState(a))
	assertEqual(t, len(sm.History()), 8)
}

func TestSyncMachine_Registry(t *testing.T) {
	sm := New(Config{}).Sync()

	root, err := sm.RegisterState(State{Name: "root", Handler: handled})
	assertNoError(t, err)
	leaf, err := sm.RegisterState(State{Name: "leaf", Parent: root})
	assertNoError(t, err)
	other, err := sm.RegisterState(State{Name: "other", Handler: handled})
	assertNoError(t, err)

	assertError(t, sm.AddTransition(leaf, "go", other+1))
	assertNoError(t, sm.AddTransitionWhen(root, "go", other, func(*Context) bool { return true }))

	var seen Handle
	sm.OnTransition(func(_, to Handle, _ Event, _ *Context) error {
		seen = to
		return nil
	})

	assertNoError(t, sm.SetState(leaf))
	assertNoError(t, sm.Handle("go"))
	assertEqual(t, sm.Current(), other)
	assertEqual(t, seen, other)
	assertEqual(t, string(sm.Name(leaf)), "leaf")

	sm.Context().Data.Set("k", 1)
	assertEqual(t, sm.Context().Data.Get("k").Unwrap(), any(1))

	sm.Destroy()
	assertEqual(t, CodeOf(sm.Handle("go")), CodeDestroyed)
}

func TestSyncMachine_QueriesDuringDispatch(t *testing.T) {
	m := New(Config{HistoryLimit: 4})
	root := mustRegister(t, m, State{Name: "root", Handler: handled})
	a := mustRegister(t, m, State{Name: "a", Parent: root})
	b := mustRegister(t, m, State{Name: "b", Parent: root})
	assertNoError(t, m.AddTransition(a, "flip", b))
	assertNoError(t, m.AddTransition(b, "flip", a))

	sm := m.Sync()
	assertNoError(t, sm.SetState(a))

	done := make(chan struct{})

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}

				cur := sm.Current()
				if cur != a && cur != b {
					t.Errorf("current = %d, want a or b", cur)
					return
				}
				if !sm.IsInState(root) {
					t.Error("root not active")
					return
				}
				_ = sm.Name(cur)
				_ = sm.History()
			}
		}()
	}

	for range 500 {
		assertNoError(t, sm.Handle("flip"))
	}
	close(done)
	wg.Wait()

	assertEqual(t, sm.Current(), a)
}
