// Package mqtt provides MQTT client connectivity for the desk.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing changed output levels and cue events
//   - Subscribing to remote playback commands
//   - Last Will and Testament (LWT) for offline detection
//
// # Architecture
//
// MQTT is optional. When enabled, remote controllers (show control systems,
// touch panels, scripts) trigger playback by publishing to the command topics,
// and any subscriber can follow output levels without polling the HTTP API.
//
//	Controllers → graydesk/command/{go,release} → playback.Engine
//	playback.Engine → graydesk/output/{universe}  → Subscribers
//	playback.Engine → graydesk/cue/{event}        → Subscribers
//
// # Security Considerations
//
//   - Enable TLS (cfg.Broker.TLS=true) when the broker is not on the desk host
//   - Any client allowed to publish on graydesk/command/+ can run cues;
//     restrict it with broker ACLs
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllCommands(), 1, engine.HandleCommand)
package mqtt
