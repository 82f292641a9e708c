// Package api implements the HTTP REST API and WebSocket server for the desk.
//
// This package provides:
//   - REST endpoints for cue list and cue CRUD
//   - Playback control: go, release, merge policy
//   - A universe snapshot and system metrics
//   - The operator journal of accepted actions
//   - A WebSocket hub streaming output frames and cue events
//
// # Architecture
//
//	 operator UI ──REST──► api.Server ──► show.Registry ──► SQLite
//	                            │
//	                            └──────► playback.Engine ──► Art-Net / MQTT
//	                                          │
//	 operator UI ◄──WebSocket── api.Hub ◄─────┘ universe.frame, cue.*
//
// The hub is created before the engine so that both share it; the engine
// broadcasts and the server accepts connections.
//
// Successful edits and playback actions are queued to the operator journal
// and written by a single goroutine. Entries are dropped rather than
// blocking a request when the queue is full.
//
// # Errors
//
// Handlers map package sentinels onto the JSON Error envelope: unknown cue
// lists and cues give 404, malformed documents give 400 bad_request, and
// out-of-range channels or unknown policies give 400 validation_error.
//
// # Graceful Degradation
//
// The server runs without MQTT, InfluxDB or Art-Net. Those backends only
// change what the engine does with each frame.
package api
