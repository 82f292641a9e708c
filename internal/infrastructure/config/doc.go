// Package config handles loading and validating desk configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with GRAYDESK_* environment variables
//   - Validation of required fields and ranges
//   - Default value handling
//
// Sensitive values (MQTT password, InfluxDB token) should be set via
// environment variables rather than committed to the config file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Desk.TickRate)
package config
