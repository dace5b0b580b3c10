package lights

import (
	"context"
	"fmt"

	"github.com/enetx/g"
	"github.com/enetx/hsm"
	"github.com/enetx/hsm/internal/config"
	"github.com/enetx/hsm/internal/logging"
)

// Controller owns the traffic-light machine and its cycle driver.
//
//	OFF
//	ON
//	├── ERROR
//	├── RED
//	├── RED_AMBER
//	├── GREEN
//	└── AMBER
type Controller struct {
	machine *hsm.SyncMachine
	cycle   *Cycle
	sink    Sink
	log     *logging.Logger
	names   g.Map[hsm.Handle, g.String]

	maxCycles int
	// rounds counts RED entries since the last power-on. It is only touched
	// from hooks and guards, which run under the machine lock.
	rounds int

	off, on, fault, red, redAmber, green, amber hsm.Handle
}

// New builds the controller and puts it in OFF. The cycle goroutine stops for
// good once ctx is done.
func New(ctx context.Context, cfg *config.Config, sink Sink, log *logging.Logger) (*Controller, error) {
	c := &Controller{
		machine: hsm.New(hsm.Config{
			IgnoreUnhandledEvents: cfg.Machine.IgnoreUnhandledEvents,
			StatesCapacity:        cfg.Machine.StatesCapacity,
			TransitionsCapacity:   cfg.Machine.TransitionsCapacity,
			HistoryLimit:          cfg.Machine.HistoryLimit,
		}).Sync(),
		sink:      sink,
		log:       log.With("component", "lights"),
		names:     g.NewMap[hsm.Handle, g.String](),
		maxCycles: cfg.Cycle.MaxCycles,
	}

	c.cycle = NewCycle(ctx, c.machine, cfg.Cycle, log)

	if err := c.build(); err != nil {
		c.machine.Destroy()
		return nil, fmt.Errorf("building light machine: %w", err)
	}

	if err := c.machine.SetState(c.off); err != nil {
		c.machine.Destroy()
		return nil, fmt.Errorf("entering OFF: %w", err)
	}

	return c, nil
}

func (c *Controller) build() error {
	var err error

	register := func(def hsm.State) hsm.Handle {
		if err != nil {
			return hsm.NoState
		}

		var h hsm.Handle
		if h, err = c.machine.RegisterState(def); err == nil {
			c.names[h] = def.Name
		}

		return h
	}

	c.off = register(hsm.State{Name: "OFF", OnEnter: c.enterOff, Handler: c.handleOff})
	c.on = register(hsm.State{Name: "ON", OnEnter: c.resetLights, Handler: c.handleOn})
	c.fault = register(hsm.State{Name: "ERROR", Parent: c.on, OnEnter: c.enterError, Handler: handleAll})
	c.red = register(hsm.State{Name: "RED", Parent: c.on, OnEnter: c.enterRed})
	c.redAmber = register(hsm.State{Name: "RED_AMBER", Parent: c.on, OnEnter: c.light(Red, Amber)})
	c.green = register(hsm.State{Name: "GREEN", Parent: c.on, OnEnter: c.light(Green)})
	c.amber = register(hsm.State{Name: "AMBER", Parent: c.on, OnEnter: c.light(Amber)})

	if err != nil {
		return err
	}

	type edge struct {
		from  hsm.Handle
		event hsm.Event
		to    hsm.Handle
		guard hsm.GuardFunc
	}

	edges := g.SliceOf(
		edge{c.off, TurnOn, c.red, nil},
		edge{c.on, TurnOff, c.off, nil},
		edge{c.on, Fault, c.fault, nil},
		edge{c.red, Change, c.redAmber, c.withinLimit},
		edge{c.red, Change, c.off, nil},
		edge{c.redAmber, Change, c.green, nil},
		edge{c.green, Change, c.amber, nil},
		edge{c.amber, Change, c.red, nil},
	)

	for _, e := range edges {
		if err := c.machine.AddTransitionWhen(e.from, e.event, e.to, e.guard); err != nil {
			return err
		}
	}

	c.machine.OnTransition(c.logTransition)

	return nil
}

// TurnOn powers the lights up.
func (c *Controller) TurnOn() error { return c.machine.Handle(TurnOn) }

// TurnOff powers the lights down.
func (c *Controller) TurnOff() error { return c.machine.Handle(TurnOff) }

// State returns the name of the current state.
func (c *Controller) State() g.String { return c.names[c.machine.Current()] }

// History returns the names of the most recently entered states, oldest first.
func (c *Controller) History() g.Slice[g.String] {
	hist := c.machine.History()
	names := make(g.Slice[g.String], 0, len(hist))

	for _, h := range hist {
		names.Push(c.names[h])
	}

	return names
}

// Running reports whether the cycle driver is active.
func (c *Controller) Running() bool { return c.cycle.Running() }

// Close stops the cycle and destroys the machine.
func (c *Controller) Close() {
	c.cycle.Stop()
	c.machine.Destroy()
}

func (c *Controller) withinLimit(*hsm.Context) bool {
	return c.maxCycles <= 0 || c.rounds <= c.maxCycles
}

func (c *Controller) handleOff(ctx *hsm.Context) (hsm.Status, error) {
	if ctx.Event == TurnOn {
		c.cycle.Start()
	}

	return hsm.Handled, nil
}

func (c *Controller) handleOn(ctx *hsm.Context) (hsm.Status, error) {
	if s, ok := ctx.Input.(interface{ Stale() bool }); ok && s.Stale() {
		return hsm.Unhandled, ErrStaleTick
	}

	switch ctx.Event {
	case Fault:
		if lerr, ok := ctx.Input.(*LightError); ok {
			c.log.Warn("light error", "type", lerr.Type.String(), "cause", lerr.Cause)
		} else {
			c.log.Warn("light error", "payload", ctx.Input)
		}
	case Change:
		if tick, ok := ctx.Input.(Tick); ok {
			c.log.Debug("phase elapsed", "after", tick.Interval)
		}
	}

	return hsm.Handled, nil
}

func handleAll(*hsm.Context) (hsm.Status, error) { return hsm.Handled, nil }

func (c *Controller) resetLights(*hsm.Context) error { return c.sink.ResetAll() }

func (c *Controller) enterOff(ctx *hsm.Context) error {
	c.cycle.halt()
	c.rounds = 0

	return c.resetLights(ctx)
}

func (c *Controller) enterError(*hsm.Context) error {
	c.cycle.halt()

	for _, l := range All {
		if err := c.sink.Set(l, true); err != nil {
			return err
		}
	}

	return nil
}

func (c *Controller) enterRed(ctx *hsm.Context) error {
	c.rounds++
	return c.light(Red)(ctx)
}

// light returns an enter hook switching on the given lamps.
// ON's enter hook has already switched everything off.
func (c *Controller) light(lights ...Light) hsm.Callback {
	return func(*hsm.Context) error {
		for _, l := range lights {
			if err := c.sink.Set(l, true); err != nil {
				return err
			}
		}

		return nil
	}
}

func (c *Controller) logTransition(from, to hsm.Handle, event hsm.Event, _ *hsm.Context) error {
	c.log.Info("state changed", "from", c.names[from], "to", c.names[to], "event", event)
	return nil
}
