package artnet

import "errors"

var (
	// ErrFrameTooLong is returned for DMX payloads over 512 slots.
	ErrFrameTooLong = errors.New("artnet: dmx frame longer than 512 slots")

	// ErrInvalidAddress is returned when the broadcast address cannot be resolved.
	ErrInvalidAddress = errors.New("artnet: invalid broadcast address")

	// ErrClosed is returned when sending on a closed Sender.
	ErrClosed = errors.New("artnet: sender closed")
)
