package lights

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/enetx/hsm"
	"github.com/enetx/hsm/internal/config"
	"github.com/enetx/hsm/internal/logging"
)

// Dispatcher is the part of the machine the cycle drives.
type Dispatcher interface {
	Handle(event hsm.Event, payload ...any) error
}

// Tick is the payload of a Change event.
type Tick struct {
	Interval time.Duration
	ctx      context.Context
}

// Stale reports whether the run that produced the tick has been halted.
func (t Tick) Stale() bool { return t.ctx != nil && t.ctx.Err() != nil }

// Cycle periodically dispatches Change with a Tick and, with probability
// ErrorRate per tick, a Fault carrying a *LightError. Both payloads report
// Stale once their run is halted, so a dispatch that was already waiting for
// the machine when the cycle stopped can be rejected under the machine lock.
//
// Start and halt may be called while the target machine is locked (from hooks
// and handlers). Stop waits for the driver goroutine and must only be called
// from outside the machine.
type Cycle struct {
	target    Dispatcher
	interval  time.Duration
	errorRate float64
	log       *logging.Logger
	base      context.Context

	mu     sync.Mutex
	rng    *rand.Rand
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCycle creates a stopped cycle. Ticks stop for good once ctx is done.
func NewCycle(ctx context.Context, target Dispatcher, cfg config.CycleConfig, log *logging.Logger) *Cycle {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return &Cycle{
		target:    target,
		interval:  cfg.Interval,
		errorRate: cfg.ErrorRate,
		log:       log.With("component", "cycle"),
		base:      ctx,
		rng:       rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
}

// Start launches the driver goroutine. It is a no-op if already running or
// once the base context is done.
func (c *Cycle) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil || c.base.Err() != nil {
		return
	}

	ctx, cancel := context.WithCancel(c.base)
	c.cancel = cancel

	c.wg.Add(1)
	go c.run(ctx)

	c.log.Debug("cycle started", "interval", c.interval)
}

// Stop halts the cycle and waits for the driver goroutine to exit.
func (c *Cycle) Stop() {
	c.halt()
	c.wg.Wait()
}

// Running reports whether the driver goroutine has been started and not halted.
func (c *Cycle) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cancel != nil
}

// halt cancels the driver without waiting for it.
func (c *Cycle) halt() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel == nil {
		return
	}

	c.cancel()
	c.cancel = nil

	c.log.Debug("cycle halted")
}

func (c *Cycle) run(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

func (c *Cycle) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	if err := c.target.Handle(Change, Tick{Interval: c.interval, ctx: ctx}); err != nil {
		c.report("change", err)
		return
	}

	fault := c.nextFault()
	if fault == nil || ctx.Err() != nil {
		return
	}
	fault.ctx = ctx

	if err := c.target.Handle(Fault, fault); err != nil {
		c.report("fault", err)
	}
}

func (c *Cycle) report(event string, err error) {
	if errors.Is(err, hsm.ErrDestroyed) || errors.Is(err, ErrStaleTick) {
		return
	}

	c.log.Error("dispatch failed", "event", event, "error", err)
}

// nextFault draws a synthetic fault, or nil.
func (c *Cycle) nextFault() *LightError {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.errorRate <= 0 || c.rng.Float64() >= c.errorRate {
		return nil
	}

	if c.rng.IntN(2) == 1 {
		return &LightError{Type: PowerFailure, Cause: "Fried mice"}
	}

	return &LightError{Type: HardwareFault, Cause: "Poor serve"}
}
