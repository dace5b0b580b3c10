package lights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/enetx/hsm/internal/config"
	"github.com/enetx/hsm/internal/logging"
)

type nopSink struct{}

func (nopSink) Set(Light, bool) error { return nil }
func (nopSink) ResetAll() error       { return nil }

// A tick queued on the machine before an off/on pair must not advance the
// phase of the new run.
func TestController_RejectsStaleEvents(t *testing.T) {
	cfg := config.Default()
	cfg.Cycle.Interval = time.Hour

	c, err := New(context.Background(), cfg, nopSink{}, logging.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	oldRun, halt := context.WithCancel(context.Background())
	halt()

	if err := c.TurnOn(); err != nil {
		t.Fatalf("TurnOn: %v", err)
	}

	err = c.machine.Handle(Change, Tick{Interval: time.Second, ctx: oldRun})
	if !errors.Is(err, ErrStaleTick) {
		t.Errorf("stale change: expected ErrStaleTick, got %v", err)
	}
	if c.State() != "RED" {
		t.Errorf("stale change moved the lights to %s", c.State())
	}

	err = c.machine.Handle(Fault, &LightError{Type: PowerFailure, Cause: "Fried mice", ctx: oldRun})
	if !errors.Is(err, ErrStaleTick) {
		t.Errorf("stale fault: expected ErrStaleTick, got %v", err)
	}
	if c.State() != "RED" {
		t.Errorf("stale fault moved the lights to %s", c.State())
	}

	live, stop := context.WithCancel(context.Background())
	defer stop()

	if err := c.machine.Handle(Change, Tick{Interval: time.Second, ctx: live}); err != nil {
		t.Fatalf("live change: %v", err)
	}
	if c.State() != "RED_AMBER" {
		t.Errorf("live change: expected RED_AMBER, got %s", c.State())
	}
}
