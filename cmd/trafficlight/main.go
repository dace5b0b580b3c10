// Traffic-light controller.
//
// Drives a hierarchical state machine through the RED, RED_AMBER, GREEN and
// AMBER phases, injects synthetic faults, and mirrors the lamps to the console
// and optionally to MQTT and InfluxDB. Commands are read from stdin:
//
//	on       power the lights up
//	off      power the lights down
//	state    print the current state
//	history  print the recently entered states
//	quit     shut down
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/enetx/hsm/internal/config"
	"github.com/enetx/hsm/internal/influxdb"
	"github.com/enetx/hsm/internal/lights"
	"github.com/enetx/hsm/internal/logging"
	"github.com/enetx/hsm/internal/mqtt"
)

// Version information - set at build time via ldflags
var version = "dev"

// Default configuration file path
const defaultConfigPath = "configs/trafficlight.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the controller and serves commands from in until quit, EOF or
// cancellation. Lamp output and command replies go to out.
func run(ctx context.Context, in io.Reader, out io.Writer) error {
	log := logging.Default()
	log.Info("starting traffic light", "version", version)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log = log.With("controller", cfg.Name)
	log.Info("configuration loaded", "path", configPath, "interval", cfg.Cycle.Interval, "error_rate", cfg.Cycle.ErrorRate)

	// Lamp output comes from the cycle goroutine, replies from the command loop.
	out = &lockedWriter{w: out}

	sinks := lights.MultiSink{lights.NewConsoleSink(out)}

	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetOnError(func(topic string, err error) {
			log.Warn("MQTT publish failed", "topic", topic, "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		sink := mqtt.NewSink(mqttClient, mqtt.Topics{Prefix: cfg.MQTT.TopicPrefix}, byte(cfg.MQTT.QoS))
		sinks = append(sinks, lights.BestEffort("mqtt", sink, log))
	}

	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Warn("InfluxDB write failed", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)

		sinks = append(sinks, lights.BestEffort("influxdb", influxdb.NewSink(influxClient, cfg.Name), log))
	}

	ctrl, err := lights.New(ctx, cfg, sinks, log)
	if err != nil {
		return fmt.Errorf("creating controller: %w", err)
	}
	defer ctrl.Close()

	log.Info("traffic light ready")

	err = serve(ctx, ctrl, in, out)

	log.Info("shutting down")
	return err
}

// serve reads commands line by line. It returns nil on quit, EOF or
// cancellation.
func serve(ctx context.Context, ctrl *lights.Controller, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("reading commands: %w", err)
					}
				default:
				}
				return nil
			}

			quit, err := execute(ctrl, strings.TrimSpace(line), out)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}

// execute runs one command and reports whether the loop should stop.
func execute(ctrl *lights.Controller, cmd string, out io.Writer) (bool, error) {
	switch strings.ToLower(cmd) {
	case "":
		return false, nil
	case "on":
		return false, ctrl.TurnOn()
	case "off":
		return false, ctrl.TurnOff()
	case "state":
		fmt.Fprintln(out, ctrl.State())
	case "history":
		fmt.Fprintln(out, ctrl.History().Join(" -> "))
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprintln(out, "commands: on, off, state, history, quit")
	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}

	return false, nil
}

// lockedWriter serialises writes from several goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.w.Write(p)
}

// getConfigPath returns the configuration file path.
// Uses TRAFFICLIGHT_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("TRAFFICLIGHT_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
