package universe

import "errors"

// ErrChannelOutOfRange is returned when a write addresses a channel outside 1..Size.
var ErrChannelOutOfRange = errors.New("universe: channel out of range")

// ErrInvalidSize is returned by New for a size outside 1..MaxSize.
var ErrInvalidSize = errors.New("universe: invalid size")
