package playback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/gray-logic-desk/internal/cue"
	"github.com/nerrad567/gray-logic-desk/internal/infrastructure/mqtt"
)

// commandPolicy switches the merge policy remotely.
const commandPolicy = "policy"

// goCommand is the payload of graydesk/command/go.
type goCommand struct {
	CueList *int `json:"cue_list"`
	Cue     *int `json:"cue"`
}

// releaseCommand is the payload of graydesk/command/release. A missing cue
// releases everything.
type releaseCommand struct {
	Cue *int `json:"cue"`
}

// policyCommand is the payload of graydesk/command/policy.
type policyCommand struct {
	Policy string `json:"policy"`
}

// HandleCommand executes a remote command received over MQTT. It has the
// mqtt.MessageHandler signature so it can be subscribed directly:
//
//	client.Subscribe(mqtt.Topics{}.AllCommands(), 1, engine.HandleCommand)
//
// Supported topics:
//   - graydesk/command/go       {"cue_list": 1, "cue": 3}
//   - graydesk/command/release  {"cue": 3} (in every list), or {} to release everything
//   - graydesk/command/policy   {"policy": "ltp"}
func (e *Engine) HandleCommand(topic string, payload []byte) error {
	name, ok := mqtt.Topics{}.CommandName(topic)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, topic)
	}

	switch name {
	case mqtt.CommandGo:
		var cmd goCommand
		if err := decodeCommand(payload, &cmd); err != nil {
			return err
		}
		if cmd.CueList == nil || cmd.Cue == nil {
			return fmt.Errorf("%w: go requires cue_list and cue", ErrInvalidCommand)
		}
		_, err := e.Go(context.Background(), *cmd.CueList, *cmd.Cue)
		return err

	case mqtt.CommandRelease:
		var cmd releaseCommand
		if err := decodeCommand(payload, &cmd); err != nil {
			return err
		}
		if cmd.Cue == nil {
			e.ReleaseAll()
			return nil
		}
		e.Release(*cmd.Cue)
		return nil

	case commandPolicy:
		var cmd policyCommand
		if err := decodeCommand(payload, &cmd); err != nil {
			return err
		}
		p, err := cue.ParsePolicy(cmd.Policy)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
		}
		e.SetPolicy(p)
		return nil

	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
}

// decodeCommand parses a JSON command body. An empty body decodes as {}.
func decodeCommand(payload []byte, v any) error {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	return nil
}
