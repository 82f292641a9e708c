package cue

import "errors"

// Domain errors for the cue package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, cue.ErrMalformedDocument) {
//	    // reject the upload
//	}
var (
	// ErrInvalidChannel is returned when a channel number is below 1.
	ErrInvalidChannel = errors.New("cue: invalid channel number")

	// ErrInvalidFade is returned when a fade time is negative or not finite.
	ErrInvalidFade = errors.New("cue: invalid fade time")

	// ErrMalformedDocument is returned when a cue or cue list document cannot be decoded.
	ErrMalformedDocument = errors.New("cue: malformed document")

	// ErrUnknownPolicy is returned when a merge policy name is not recognised.
	ErrUnknownPolicy = errors.New("cue: unknown merge policy")
)
