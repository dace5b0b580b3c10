// Package config handles loading and validating the traffic-light controller
// configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (TRAFFICLIGHT_*)
//   - Validation of required fields
//   - Default value handling
//
// Usage:
//
//	cfg, err := config.Load("configs/trafficlight.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Cycle.Interval)
package config
