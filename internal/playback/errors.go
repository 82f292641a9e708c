package playback

import "errors"

// Domain errors for the playback package.
//
//	if errors.Is(err, playback.ErrUnknownCommand) {
//	    // ignore foreign topic
//	}
var (
	// ErrInvalidTickRate is returned when the tick rate is not a positive number.
	ErrInvalidTickRate = errors.New("playback: tick rate must be positive")

	// ErrNoUniverse is returned when an engine is created without an output universe.
	ErrNoUniverse = errors.New("playback: universe is required")

	// ErrNoCueSource is returned when an engine is created without a cue source.
	ErrNoCueSource = errors.New("playback: cue source is required")

	// ErrUnknownCommand is returned for command topics the engine does not handle.
	ErrUnknownCommand = errors.New("playback: unknown command")

	// ErrInvalidCommand is returned when a command payload cannot be parsed.
	ErrInvalidCommand = errors.New("playback: invalid command payload")
)
