// Package playback drives the desk: it owns the running cue set and turns
// it into output frames at a fixed tick rate.
//
// Architecture:
//
//	┌─────────────────────────────────────────────────────────┐
//	│                   Engine (engine.go)                     │
//	│                                                          │
//	│  Go / Release ──▶ cue.RunningCueSet ◀── Tick (ticker)    │
//	│        ▲                   │                             │
//	│        │                   ▼  step → merge → prune       │
//	│  show.Registry       universe.Universe                   │
//	│                            │                             │
//	│          ┌─────────────────┼──────────────────┐          │
//	│          ▼                 ▼                  ▼          │
//	│    artnet.Sender     mqtt (output)     WebSocket hub     │
//	│                                                          │
//	│  influxdb: tick stats + cue go/release/complete events   │
//	└─────────────────────────────────────────────────────────┘
//
// Only the universe is a hard dependency of a tick. Art-Net, MQTT, WebSocket
// and metrics sinks are optional; their failures are logged and playback
// continues.
//
// # Thread Safety
//
// Engine is safe for concurrent use. Go and Release may be called from API
// handlers and MQTT callbacks while Run ticks in its own goroutine; every
// mutation of the running set happens under one mutex, so a cue activates
// either entirely before or entirely after a given tick.
//
// # Usage
//
//	engine, err := playback.NewEngine(playback.Options{
//	    Cues:     registry,
//	    Universe: u,
//	    TickRate: cfg.Desk.TickRate,
//	    Policy:   cue.HTP,
//	    DMX:      sender,
//	    Logger:   log,
//	})
//	if err != nil {
//	    return err
//	}
//	go engine.Run(ctx)
//
//	id, err := engine.Go(ctx, 1, 3)
package playback
