package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the desk.
const (
	measurementTick     = "desk_tick"
	measurementCueEvent = "desk_cue_event"
)

// TickStats summarises one playback tick.
type TickStats struct {
	// Running is the number of cue activations still fading after the tick.
	Running int

	// Changed is the number of channels written to the universe.
	Changed int

	// Duration is the wall time spent computing and emitting the frame.
	Duration time.Duration

	// Policy is the merge policy in effect ("htp" or "ltp").
	Policy string
}

// WriteTick records playback statistics for a single tick.
//
// The write is non-blocking; points are batched and sent asynchronously.
func (c *Client) WriteTick(stats TickStats) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(tickPoint(stats, time.Now()))
}

// WriteCueEvent records a cue lifecycle event.
//
// Parameters:
//   - event: "go", "release" or "complete"
//   - list: Cue list number (0 when unknown)
//   - cueNumber: Cue number
//   - activationID: The RunningCue identifier
//
// Example:
//
//	client.WriteCueEvent("go", 1, 3, id)
func (c *Client) WriteCueEvent(event string, list, cueNumber int, activationID string) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(cueEventPoint(event, list, cueNumber, activationID, time.Now()))
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Example:
//
//	client.WritePoint("desk_artnet",
//	    map[string]string{"universe": "0"},
//	    map[string]interface{}{"send_errors": 1})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

func tickPoint(stats TickStats, ts time.Time) *write.Point {
	return write.NewPoint(
		measurementTick,
		map[string]string{
			"policy": stats.Policy,
		},
		map[string]interface{}{
			"running":     stats.Running,
			"changed":     stats.Changed,
			"duration_us": stats.Duration.Microseconds(),
		},
		ts,
	)
}

// cueEventPoint tags by event only; list and cue numbers are fields to keep
// series cardinality bounded.
func cueEventPoint(event string, list, cueNumber int, activationID string, ts time.Time) *write.Point {
	return write.NewPoint(
		measurementCueEvent,
		map[string]string{
			"event": event,
		},
		map[string]interface{}{
			"cue_list":      list,
			"cue":           cueNumber,
			"activation_id": activationID,
		},
		ts,
	)
}
