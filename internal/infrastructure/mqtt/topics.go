package mqtt

import "fmt"

// Topic prefixes for the desk's MQTT hierarchy.
const (
	// TopicPrefix is the root of every desk topic.
	TopicPrefix = "graydesk"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "graydesk/system"

	// TopicPrefixOutput is the base for per-universe output levels.
	TopicPrefixOutput = "graydesk/output"

	// TopicPrefixCommand is the base for remote playback commands.
	TopicPrefixCommand = "graydesk/command"

	// TopicPrefixCue is the base for cue lifecycle events.
	TopicPrefixCue = "graydesk/cue"
)

// Command names accepted under TopicPrefixCommand.
const (
	CommandGo      = "go"
	CommandRelease = "release"
)

// Topics provides builders for desk MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.Output(0)            // "graydesk/output/0"
//	topics.Command(mqtt.CommandGo) // "graydesk/command/go"
type Topics struct{}

// SystemStatus returns the retained online/offline status topic.
//
// Example: graydesk/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// Output returns the topic carrying changed channel levels for a universe.
//
// Example: graydesk/output/0
func (Topics) Output(universe int) string {
	return fmt.Sprintf("%s/%d", TopicPrefixOutput, universe)
}

// Command returns the topic for a named playback command.
//
// Example: graydesk/command/go
func (Topics) Command(name string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixCommand, name)
}

// CueEvent returns the topic for a cue lifecycle event ("go", "release", "complete").
//
// Example: graydesk/cue/complete
func (Topics) CueEvent(event string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixCue, event)
}

// AllCommands returns a pattern matching every playback command.
//
// Pattern: graydesk/command/+
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/+", TopicPrefixCommand)
}

// AllOutputs returns a pattern matching output levels for every universe.
//
// Pattern: graydesk/output/+
func (Topics) AllOutputs() string {
	return fmt.Sprintf("%s/+", TopicPrefixOutput)
}

// AllTopics returns a pattern matching all desk topics.
// Use with caution - this receives ALL traffic, including output frames.
//
// Pattern: graydesk/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}

// CommandName extracts the command name from a command topic.
// It returns false if the topic is not under TopicPrefixCommand.
func (Topics) CommandName(topic string) (string, bool) {
	prefix := TopicPrefixCommand + "/"
	if len(topic) <= len(prefix) || topic[:len(prefix)] != prefix {
		return "", false
	}
	return topic[len(prefix):], true
}
