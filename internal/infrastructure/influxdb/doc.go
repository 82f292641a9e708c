// Package influxdb provides optional InfluxDB telemetry for the desk.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, batched writes and health monitoring.
//
// # Measurements
//
//	desk_tick       tags: policy   fields: running, changed, duration_us
//	desk_cue_event  tags: event    fields: cue_list, cue, activation_id
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.WriteTick(influxdb.TickStats{Running: 2, Changed: 12, Policy: "htp"})
//
// # Error Handling
//
// Writes are non-blocking; batch failures are delivered to the SetOnError
// callback. Connection and health check errors are returned directly.
package influxdb
