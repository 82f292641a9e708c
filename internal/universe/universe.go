// Package universe holds the output sink: a fixed-size, 1-based array of
// channel levels that merged cue output is written into.
package universe

import (
	"fmt"
	"math"
	"sync"

	"github.com/nerrad567/gray-logic-desk/internal/cue"
)

// MaxSize is the number of slots in one DMX512 universe.
const MaxSize = 512

// Universe is a fixed-size set of channel levels addressed 1..Size.
//
// Channels never written hold 0. Universe is safe for concurrent use; the
// playback loop writes while API handlers read.
type Universe struct {
	mu     sync.RWMutex
	levels []float64
}

// New creates a universe with size channels, all at 0.
func New(size int) (*Universe, error) {
	if size < 1 || size > MaxSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return &Universe{levels: make([]float64, size)}, nil
}

// Size returns the number of channels.
func (u *Universe) Size() int {
	return len(u.levels)
}

// Apply writes each channel's value at position ID-1.
//
// Bounds are checked for the whole batch first: if any ID is outside 1..Size
// nothing is written and ErrChannelOutOfRange is returned. An empty batch is
// "no update".
func (u *Universe) Apply(channels []cue.Channel) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	for _, ch := range channels {
		if ch.ID < 1 || ch.ID > len(u.levels) {
			return fmt.Errorf("%w: %d not in 1..%d", ErrChannelOutOfRange, ch.ID, len(u.levels))
		}
	}
	for _, ch := range channels {
		u.levels[ch.ID-1] = ch.Value
	}
	return nil
}

// Value returns the level of one channel.
func (u *Universe) Value(id int) (float64, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	if id < 1 || id > len(u.levels) {
		return 0, fmt.Errorf("%w: %d", ErrChannelOutOfRange, id)
	}
	return u.levels[id-1], nil
}

// Snapshot returns every channel in ID order. The result is the "current
// output" a cue activates against.
func (u *Universe) Snapshot() []cue.Channel {
	u.mu.RLock()
	defer u.mu.RUnlock()

	out := make([]cue.Channel, len(u.levels))
	for i, v := range u.levels {
		out[i] = cue.Channel{ID: i + 1, Value: v}
	}
	return out
}

// Reset sets every channel back to 0.
func (u *Universe) Reset() {
	u.mu.Lock()
	defer u.mu.Unlock()
	clear(u.levels)
}

// DMX renders the universe as DMX slot bytes: levels are rounded to the
// nearest integer and clamped to 0..255.
func (u *Universe) DMX() []byte {
	u.mu.RLock()
	defer u.mu.RUnlock()

	out := make([]byte, len(u.levels))
	for i, v := range u.levels {
		out[i] = toSlot(v)
	}
	return out
}

func toSlot(v float64) byte {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return byte(math.Round(v))
	}
}
