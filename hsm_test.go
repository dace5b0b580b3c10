package hsm_test

import (
	"errors"
	"testing"

	"github.com/enetx/g"
	. "github.com/enetx/hsm"
)

func assertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func assertTrue(t *testing.T, cond bool) {
	t.Helper()
	if !cond {
		t.Fatalf("expected true, got false")
	}
}

func assertFalse(t *testing.T, cond bool) {
	t.Helper()
	if cond {
		t.Fatalf("expected false, got true")
	}
}

func handled(*Context) (Status, error)   { return Handled, nil }
func unhandled(*Context) (Status, error) { return Unhandled, nil }

func mustRegister(t *testing.T, m *Machine, def State) Handle {
	t.Helper()

	h, err := m.RegisterState(def)
	assertNoError(t, err)

	return h
}

func TestHSM_HandlesAreSequential(t *testing.T) {
	m := New(Config{StatesCapacity: 1})

	for i := 1; i <= 20; i++ {
		h := mustRegister(t, m, State{Name: g.Format("s{}", i), Handler: handled})
		assertEqual(t, h, Handle(i))
	}

	assertEqual(t, m.Name(7), g.String("s7"))
	assertEqual(t, m.Name(NoState), g.String("<none>"))
	assertEqual(t, m.Name(99), g.String(""))
}

func TestHSM_RegisterUnknownParent(t *testing.T) {
	m := New(Config{})
	a := mustRegister(t, m, State{Name: "a"})

	_, err := m.RegisterState(State{Name: "b", Parent: a + 1})
	assertError(t, err)

	var invState *ErrInvalidState
	assertTrue(t, errors.As(err, &invState))
	assertEqual(t, invState.Handle, a+1)

	// The rejected state did not consume a handle.
	b := mustRegister(t, m, State{Name: "b", Parent: a})
	assertEqual(t, b, a+1)
	assertEqual(t, m.Parent(b), a)
	assertEqual(t, m.Parent(a), NoState)
}

func TestHSM_AddTransitionRejectsUnknownHandles(t *testing.T) {
	m := New(Config{})
	a := mustRegister(t, m, State{Name: "a", Handler: handled})
	b := mustRegister(t, m, State{Name: "b", Handler: handled})

	cases := []struct {
		from, to Handle
	}{
		{a, 42},
		{42, b},
		{NoState, b},
		{a, NoState},
	}

	for _, c := range cases {
		err := m.AddTransition(c.from, "go", c.to)
		assertError(t, err)
		assertEqual(t, CodeOf(err), CodeInvalidTransition)
	}

	assertNoError(t, m.SetState(a))
	assertNoError(t, m.Handle("go"))

	// None of the rejected transitions is visible to lookups.
	assertEqual(t, m.Current(), a)
}

func TestHSM_SetStateValidation(t *testing.T) {
	entered := 0

	m := New(Config{})
	a := mustRegister(t, m, State{Name: "a", OnEnter: func(*Context) error { entered++; return nil }})

	for _, h := range []Handle{NoState, a + 1, 1000} {
		err := m.SetState(h)
		assertError(t, err)
		assertEqual(t, CodeOf(err), CodeInvalidState)
		assertEqual(t, m.Current(), NoState)
	}

	assertEqual(t, entered, 0)
	assertNoError(t, m.SetState(a))
	assertEqual(t, m.Current(), a)
	assertEqual(t, entered, 1)
}

func TestHSM_SetStateRunsHooks(t *testing.T) {
	order := g.Slice[g.String]{}
	rec := func(s g.String) Callback {
		return func(*Context) error {
			order.Push(s)
			return nil
		}
	}

	m := New(Config{})
	root := mustRegister(t, m, State{Name: "root", OnEnter: rec("enter_root"), OnExit: rec("exit_root")})
	leaf := mustRegister(t, m, State{Name: "leaf", Parent: root, OnEnter: rec("enter_leaf"), OnExit: rec("exit_leaf")})

	assertNoError(t, m.SetState(leaf))
	assertNoError(t, m.SetState(leaf))

	want := g.SliceOf[g.String]("enter_root", "enter_leaf", "exit_leaf", "exit_root", "enter_root", "enter_leaf")
	if !order.Eq(want) {
		t.Fatalf("expected order %v, got %v", want, order)
	}
}

func TestHSM_HandleBeforeSetState(t *testing.T) {
	m := New(Config{})
	mustRegister(t, m, State{Name: "a", Handler: handled})

	err := m.Handle("go")
	assertError(t, err)
	assertEqual(t, CodeOf(err), CodeInvalidState)
}

func TestHSM_IsInState(t *testing.T) {
	m := New(Config{})
	on := mustRegister(t, m, State{Name: "on"})
	red := mustRegister(t, m, State{Name: "red", Parent: on})
	off := mustRegister(t, m, State{Name: "off"})

	assertFalse(t, m.IsInState(on))
	assertNoError(t, m.SetState(red))

	assertTrue(t, m.IsInState(red))
	assertTrue(t, m.IsInState(on))
	assertFalse(t, m.IsInState(off))
	assertFalse(t, m.IsInState(NoState))
}

func TestHSM_History(t *testing.T) {
	m := New(Config{HistoryLimit: 3})
	a := mustRegister(t, m, State{Name: "a"})
	b := mustRegister(t, m, State{Name: "b"})
	c := mustRegister(t, m, State{Name: "c"})

	for _, h := range []Handle{a, b, c, a, b} {
		assertNoError(t, m.SetState(h))
	}

	h := m.History()
	assertEqual(t, len(h), 3)
	assertEqual(t, h[0], c)
	assertEqual(t, h[1], a)
	assertEqual(t, h[2], b)

	disabled := New(Config{})
	x := mustRegister(t, disabled, State{Name: "x"})
	assertNoError(t, disabled.SetState(x))
	assertEqual(t, len(disabled.History()), 0)
}

func TestHSM_Clone(t *testing.T) {
	template := New(Config{})
	a := mustRegister(t, template, State{Name: "a", Handler: handled})
	b := mustRegister(t, template, State{Name: "b", Handler: handled})
	assertNoError(t, template.AddTransition(a, "next", b))

	m1 := template.Clone()
	m2 := template.Clone()

	assertNoError(t, m1.SetState(a))
	assertNoError(t, m1.Handle("next"))
	assertNoError(t, m2.SetState(a))

	// Registering on a clone does not leak into the template.
	c := mustRegister(t, m2, State{Name: "c"})
	assertEqual(t, template.Name(c), g.String(""))

	assertEqual(t, m1.Current(), b)
	assertEqual(t, m2.Current(), a)
	assertEqual(t, template.Current(), NoState)
}

func TestHSM_ContextData(t *testing.T) {
	m := New(Config{})
	a := mustRegister(t, m, State{
		Name: "a",
		Handler: func(ctx *Context) (Status, error) {
			ctx.Data.Set("last", ctx.Input)
			return Handled, nil
		},
	})

	assertNoError(t, m.SetState(a))
	assertNoError(t, m.Handle("ping", 7))
	assertEqual(t, m.Context().Data.Get("last").Unwrap(), any(7))
	assertTrue(t, m.Context().Data.Get("missing").IsNone())
}

func TestHSM_Destroy(t *testing.T) {
	m := New(Config{})
	a := mustRegister(t, m, State{Name: "a", Handler: handled})
	assertNoError(t, m.SetState(a))

	m.Destroy()

	_, err := m.RegisterState(State{Name: "b"})
	assertTrue(t, errors.Is(err, ErrDestroyed))
	assertTrue(t, errors.Is(m.AddTransition(a, "go", a), ErrDestroyed))
	assertTrue(t, errors.Is(m.Handle("go"), ErrDestroyed))
	assertTrue(t, errors.Is(m.SetState(a), ErrDestroyed))
	assertEqual(t, CodeOf(m.Handle("go")), CodeDestroyed)
	assertEqual(t, m.Current(), NoState)
	assertFalse(t, m.IsInState(a))
}

func TestHSM_CodeStrings(t *testing.T) {
	cases := map[Code]string{
		CodeOK:                "OK",
		CodeError:             "Error",
		CodeInvalidTransition: "Invalid Transition",
		CodeInvalidState:      "Invalid State",
		CodeUnhandledEvent:    "Unhandled Event",
		CodeResourceExhausted: "Resource Exhausted",
		CodeDestroyed:         "Destroyed",
	}

	for code, want := range cases {
		assertEqual(t, code.String(), want)
	}

	assertEqual(t, CodeOf(nil), CodeOK)
	assertEqual(t, CodeOf(errors.New("boom")), CodeError)
	assertEqual(t, CodeOf(ErrResourceExhausted), CodeResourceExhausted)
}
