package cue

import "math"

// Direction is the convergence state of a FadeTarget.
type Direction int

const (
	// Reached means the current level equals the target. It is terminal.
	Reached Direction = iota

	// Rising means the current level is below the target.
	Rising

	// Falling means the current level is above the target.
	Falling
)

// String returns the lowercase name of the direction.
func (d Direction) String() string {
	switch d {
	case Rising:
		return "rising"
	case Falling:
		return "falling"
	default:
		return "reached"
	}
}

// maxSteps bounds the step count of a single fade.
const maxSteps = math.MaxInt32

// FadeTarget moves one channel linearly toward a target level.
//
// StepAmount is always non-negative; the direction is derived from Current
// and Target on every call and never stored.
type FadeTarget struct {
	ChannelID  int     `json:"channel_id"`
	Current    float64 `json:"current"`
	Target     float64 `json:"target"`
	StepAmount float64 `json:"step_amount"`

	// remaining is the number of steps until arrival, fixed by SetRunning.
	// Zero means the count is unknown and only the clamp ends the fade.
	remaining int
}

// NewFadeTarget creates a FadeTarget at level 0 with no step amount.
// SetRunning must be called before stepping.
func NewFadeTarget(channelID int, target float64) FadeTarget {
	return FadeTarget{
		ChannelID: channelID,
		Target:    target,
	}
}

// Direction reports where the current level sits relative to the target.
func (f *FadeTarget) Direction() Direction {
	switch {
	case f.Current < f.Target:
		return Rising
	case f.Current > f.Target:
		return Falling
	default:
		return Reached
	}
}

// Step moves the current level one step toward the target.
//
// The step that uses up the count fixed by SetRunning lands exactly on the
// target, whatever rounding the additions picked up. Before that the level
// is clamped so it never overshoots. Stepping a Reached target is a no-op.
func (f *FadeTarget) Step() {
	dir := f.Direction()
	if dir == Reached {
		f.remaining = 0
		return
	}

	if f.remaining > 0 {
		f.remaining--
		if f.remaining == 0 {
			f.Current = f.Target
			return
		}
	}

	switch dir {
	case Rising:
		f.Current += f.StepAmount
		if f.Current > f.Target {
			f.Current = f.Target
		}
	case Falling:
		f.Current -= f.StepAmount
		if f.Current < f.Target {
			f.Current = f.Target
		}
	}
}

// SetRunning seeds the current level and computes the per-tick step.
//
// The step is |target - start| / (tickRate * fadeSeconds) and is never
// recomputed afterwards; the target is reached on step
// ceil(tickRate * fadeSeconds). A zero fade (or a non-positive tick rate)
// snaps the level to the target immediately; StepAmount is still set to the
// distance so that a fresh SetRunning/Step sequence also lands in one tick.
func (f *FadeTarget) SetRunning(start, fadeSeconds, tickRate float64) {
	f.Current = start
	f.remaining = 0
	distance := math.Abs(f.Target - start)

	if fadeSeconds <= 0 || tickRate <= 0 {
		f.StepAmount = distance
		f.Current = f.Target
		return
	}

	f.StepAmount = distance / (tickRate * fadeSeconds)
	if distance > 0 {
		f.remaining = int(math.Min(math.Ceil(tickRate*fadeSeconds), maxSteps))
	}
}
