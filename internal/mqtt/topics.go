package mqtt

import (
	"fmt"
	"strings"

	"github.com/enetx/hsm/internal/lights"
)

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "trafficlight"

// Topics builds the controller's MQTT topics.
//
//	topics := mqtt.Topics{Prefix: "junction-4"}
//	topics.Light(lights.Red) // "junction-4/lights/red"
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	p := strings.Trim(t.Prefix, "/")
	if p == "" {
		return DefaultTopicPrefix
	}

	return p
}

// Status returns the controller status topic.
//
// Example: trafficlight/status
func (t Topics) Status() string {
	return fmt.Sprintf("%s/status", t.prefix())
}

// Light returns the state topic for a single lamp.
//
// Example: trafficlight/lights/amber
func (t Topics) Light(l lights.Light) string {
	return fmt.Sprintf("%s/lights/%s", t.prefix(), strings.ToLower(l.String()))
}
