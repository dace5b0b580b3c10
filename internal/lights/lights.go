// Package lights implements a traffic-light controller on top of the hsm
// engine: a hierarchy of OFF, ON and the four light phases nested inside ON,
// a periodic cycle driver that advances the phases and injects synthetic
// faults, and the sinks that display the lamps.
package lights

import (
	"context"
	"errors"
	"fmt"

	"github.com/enetx/hsm"
)

// Events understood by the controller.
const (
	TurnOn  hsm.Event = "turn_on"
	TurnOff hsm.Event = "turn_off"
	Fault   hsm.Event = "fault"
	Change  hsm.Event = "change"
)

// Light identifies one lamp of the signal head.
type Light int

const (
	Red Light = iota
	Amber
	Green
)

// All lists every lamp in display order.
var All = [...]Light{Red, Amber, Green}

func (l Light) String() string {
	switch l {
	case Red:
		return "RED"
	case Amber:
		return "AMBER"
	case Green:
		return "GREEN"
	default:
		return fmt.Sprintf("Light(%d)", int(l))
	}
}

// Sink displays lamp states. It is only ever driven from enter hooks.
type Sink interface {
	Set(light Light, on bool) error
	ResetAll() error
}

// ErrorType classifies a reported fault.
type ErrorType int

const (
	PowerFailure ErrorType = iota
	HardwareFault
)

func (t ErrorType) String() string {
	if t == PowerFailure {
		return "Power Failure"
	}

	return "Fault"
}

// LightError is the payload carried by a Fault event.
type LightError struct {
	Type  ErrorType
	Cause string

	ctx context.Context
}

// Stale reports whether the cycle run that raised the fault has been halted.
func (e *LightError) Stale() bool { return e.ctx != nil && e.ctx.Err() != nil }

// ErrStaleTick rejects a cycle event that outlived the run that produced it.
var ErrStaleTick = errors.New("lights: stale cycle event")

func (e *LightError) Error() string {
	return fmt.Sprintf("lights: %s: %s", e.Type, e.Cause)
}
