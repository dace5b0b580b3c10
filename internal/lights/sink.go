package lights

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// ConsoleSink prints lamp changes as "RED ON" / "RED OFF" lines.
type ConsoleSink struct {
	mu  sync.Mutex
	w   io.Writer
	lit [len(All)]bool
}

// NewConsoleSink returns a sink writing to w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

// Set switches a lamp. Setting a lamp to its current state prints nothing.
func (s *ConsoleSink) Set(light Light, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.set(light, on)
}

// ResetAll switches every lit lamp off.
func (s *ConsoleSink) ResetAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range All {
		if err := s.set(l, false); err != nil {
			return err
		}
	}

	return nil
}

func (s *ConsoleSink) set(light Light, on bool) error {
	if light < 0 || int(light) >= len(s.lit) {
		return fmt.Errorf("lights: unknown light %d", int(light))
	}

	if s.lit[light] == on {
		return nil
	}

	s.lit[light] = on

	state := "OFF"
	if on {
		state = "ON"
	}

	_, err := fmt.Fprintf(s.w, "%s %s\n", light, state)
	return err
}

// MultiSink fans every call out to all its sinks. A failing sink does not stop
// the others; the errors are joined.
type MultiSink []Sink

func (m MultiSink) Set(light Light, on bool) error {
	var errs []error
	for _, s := range m {
		if err := s.Set(light, on); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (m MultiSink) ResetAll() error {
	var errs []error
	for _, s := range m {
		if err := s.ResetAll(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Logger is the logging surface used by BestEffort.
type Logger interface {
	Warn(msg string, args ...any)
}

type bestEffort struct {
	sink Sink
	name string
	log  Logger
}

// BestEffort wraps a remote sink so that its failures are logged instead of
// failing the state transition that triggered them.
func BestEffort(name string, sink Sink, log Logger) Sink {
	return &bestEffort{sink: sink, name: name, log: log}
}

func (b *bestEffort) Set(light Light, on bool) error {
	if err := b.sink.Set(light, on); err != nil {
		b.log.Warn("sink update failed", "sink", b.name, "light", light.String(), "on", on, "error", err)
	}

	return nil
}

func (b *bestEffort) ResetAll() error {
	if err := b.sink.ResetAll(); err != nil {
		b.log.Warn("sink reset failed", "sink", b.name, "error", err)
	}

	return nil
}
