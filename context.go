package hsm

import "github.com/enetx/g"

// Context is passed to every handler, hook and guard.
// State holds the state whose callback is being executed.
// Event and Input describe the dispatch in progress; Event is empty during SetState.
// Data is for long-lived values shared between callbacks and survives dispatches.
type Context struct {
	State Handle
	Event Event
	Input any
	Data  *g.MapSafe[g.String, any]
}

func newContext() *Context {
	return &Context{Data: g.NewMapSafe[g.String, any]()}
}

// begin resets the per-dispatch fields.
func (c *Context) begin(event Event, input []any) {
	c.Event = event
	c.Input = nil

	if len(input) > 0 {
		c.Input = input[0]
	}
}
