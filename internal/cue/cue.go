package cue

import (
	"fmt"
	"math"
)

// Cue is a reusable definition of target levels plus a fade duration.
//
// Channel ids are unique within a cue. Insertion order is preserved so that
// encoding a cue is deterministic. Each Cue owns its own channel slice;
// nothing is shared between instances.
type Cue struct {
	Number      int
	FadeSeconds float64

	// targets holds the target level for each channel in Value.
	targets []Channel
}

// NewCue creates an empty cue.
func NewCue(number int, fadeSeconds float64) *Cue {
	return &Cue{
		Number:      number,
		FadeSeconds: fadeSeconds,
		targets:     make([]Channel, 0),
	}
}

// AddChannel sets the target for a channel, adding it if absent.
// Adding an existing channel id updates its target in place.
func (c *Cue) AddChannel(id int, target float64) error {
	if id < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, id)
	}
	if c.ModifyChannel(id, target) {
		return nil
	}
	c.targets = append(c.targets, Channel{ID: id, Value: target})
	return nil
}

// ModifyChannel updates the target of an existing channel.
// It reports whether the channel was present; absent channels are left alone.
func (c *Cue) ModifyChannel(id int, target float64) bool {
	for i := range c.targets {
		if c.targets[i].ID == id {
			c.targets[i].Value = target
			return true
		}
	}
	return false
}

// RemoveChannel removes a channel from the cue.
// It reports whether the channel was present.
func (c *Cue) RemoveChannel(id int) bool {
	for i := range c.targets {
		if c.targets[i].ID == id {
			c.targets = append(c.targets[:i], c.targets[i+1:]...)
			return true
		}
	}
	return false
}

// Target returns the target level for a channel.
func (c *Cue) Target(id int) (float64, bool) {
	for _, t := range c.targets {
		if t.ID == id {
			return t.Value, true
		}
	}
	return 0, false
}

// Channels returns a copy of the channel targets in insertion order.
func (c *Cue) Channels() []Channel {
	out := make([]Channel, len(c.targets))
	copy(out, c.targets)
	return out
}

// Len returns the number of channels in the cue.
func (c *Cue) Len() int {
	return len(c.targets)
}

// Clone returns an independent copy of the cue.
func (c *Cue) Clone() *Cue {
	if c == nil {
		return nil
	}
	return &Cue{
		Number:      c.Number,
		FadeSeconds: c.FadeSeconds,
		targets:     c.Channels(),
	}
}

// Validate checks the fade time and channel numbers.
func (c *Cue) Validate() error {
	if c.FadeSeconds < 0 || math.IsNaN(c.FadeSeconds) || math.IsInf(c.FadeSeconds, 0) {
		return fmt.Errorf("%w: cue %d fade %v", ErrInvalidFade, c.Number, c.FadeSeconds)
	}
	for _, t := range c.targets {
		if t.ID < 1 {
			return fmt.Errorf("%w: cue %d channel %d", ErrInvalidChannel, c.Number, t.ID)
		}
	}
	return nil
}

// MaxChannel returns the highest channel id in the cue, or 0 if empty.
func (c *Cue) MaxChannel() int {
	highest := 0
	for _, t := range c.targets {
		if t.ID > highest {
			highest = t.ID
		}
	}
	return highest
}
