package show

import "errors"

// Domain errors for the show package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, show.ErrCueNotFound) {
//	    // handle not found case
//	}
var (
	// ErrCueListNotFound is returned when a cue list number does not exist.
	ErrCueListNotFound = errors.New("show: cue list not found")

	// ErrCueNotFound is returned when a cue number does not exist in its list.
	ErrCueNotFound = errors.New("show: cue not found")

	// ErrInvalidCueList is returned when a cue list or one of its cues fails validation.
	ErrInvalidCueList = errors.New("show: invalid cue list")
)
