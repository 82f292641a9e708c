// Package logging provides structured logging for the desk.
//
// This package wraps Go's standard log/slog package so that every component
// logs with the same handler and default fields (service, version).
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("starting desk", "tick_rate", cfg.Desk.TickRate)
//	engine.SetLogger(logger.Component("playback"))
//
// Per-tick events log at debug level only; at 40 frames per second anything
// louder floods the output.
package logging
