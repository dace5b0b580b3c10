package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/enetx/hsm/internal/lights"
)

// Publisher is the subset of *Client used by Sink.
type Publisher interface {
	PublishAsync(topic string, payload []byte, qos byte, retained bool) error
}

// Sink publishes lamp states as retained messages. It never waits for the
// broker: lamp updates run inside state hooks with the machine locked.
type Sink struct {
	pub    Publisher
	topics Topics
	qos    byte
	now    func() time.Time
}

var _ lights.Sink = (*Sink)(nil)

// NewSink returns a lights.Sink publishing through pub.
func NewSink(pub Publisher, topics Topics, qos byte) *Sink {
	return &Sink{pub: pub, topics: topics, qos: qos, now: time.Now}
}

type lampState struct {
	Light     string `json:"light"`
	On        bool   `json:"on"`
	Timestamp string `json:"timestamp"`
}

// Set publishes the state of one lamp.
func (s *Sink) Set(light lights.Light, on bool) error {
	payload, err := json.Marshal(lampState{
		Light:     light.String(),
		On:        on,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %w", ErrPublishFailed, light, err)
	}

	return s.pub.PublishAsync(s.topics.Light(light), payload, s.qos, true)
}

// ResetAll publishes every lamp as off.
func (s *Sink) ResetAll() error {
	var errs []error
	for _, l := range lights.All {
		if err := s.Set(l, false); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
