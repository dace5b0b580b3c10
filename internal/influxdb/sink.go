package influxdb

import (
	"errors"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/enetx/hsm/internal/lights"
)

// measurement is the name of the lamp-state measurement.
const measurement = "light_state"

// PointWriter is the subset of *Client used by Sink.
type PointWriter interface {
	WritePoint(p *write.Point) error
}

// Sink records every lamp change as a point.
type Sink struct {
	w          PointWriter
	controller string
	now        func() time.Time
}

var _ lights.Sink = (*Sink)(nil)

// NewSink returns a lights.Sink writing through w. The controller name is
// stored as a tag so several junctions can share a bucket.
func NewSink(w PointWriter, controller string) *Sink {
	return &Sink{w: w, controller: controller, now: time.Now}
}

// Set records the state of one lamp.
func (s *Sink) Set(light lights.Light, on bool) error {
	return s.w.WritePoint(lampPoint(s.controller, light, on, s.now()))
}

// ResetAll records every lamp as off with a shared timestamp.
func (s *Sink) ResetAll() error {
	ts := s.now()

	var errs []error
	for _, l := range lights.All {
		if err := s.w.WritePoint(lampPoint(s.controller, l, false, ts)); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func lampPoint(controller string, light lights.Light, on bool, ts time.Time) *write.Point {
	value := 0
	if on {
		value = 1
	}

	return write.NewPoint(
		measurement,
		map[string]string{
			"controller": controller,
			"light":      light.String(),
		},
		map[string]interface{}{
			"on":    on,
			"value": value,
		},
		ts,
	)
}
