package cue

import "github.com/google/uuid"

// RunningCue is a live instance of a Cue fading toward its targets.
//
// It copies the definition at activation time. Editing the source Cue
// afterwards has no effect on a RunningCue, and a RunningCue exposes none of
// the definition's mutation methods.
type RunningCue struct {
	// ID uniquely identifies this activation. The same cue can run more than once.
	ID          string
	CueNumber   int
	FadeSeconds float64

	targets []FadeTarget
}

// Activate creates a RunningCue from a cue definition.
//
// Each channel starts from its level in current; channels absent from
// current start at 0. Step amounts are computed here, once.
func Activate(c *Cue, current []Channel, tickRate float64) *RunningCue {
	levels := make(map[int]float64, len(current))
	for _, ch := range current {
		levels[ch.ID] = ch.Value
	}

	rc := &RunningCue{
		ID:          uuid.NewString(),
		CueNumber:   c.Number,
		FadeSeconds: c.FadeSeconds,
		targets:     make([]FadeTarget, 0, len(c.targets)),
	}
	for _, t := range c.targets {
		ft := NewFadeTarget(t.ID, t.Value)
		ft.SetRunning(levels[t.ID], c.FadeSeconds, tickRate)
		rc.targets = append(rc.targets, ft)
	}
	return rc
}

// StepAll steps every FadeTarget once.
func (r *RunningCue) StepAll() {
	for i := range r.targets {
		r.targets[i].Step()
	}
}

// DropReached removes FadeTargets that have arrived at their target.
// It returns the number removed.
func (r *RunningCue) DropReached() int {
	kept := r.targets[:0]
	for _, ft := range r.targets {
		if ft.Direction() != Reached {
			kept = append(kept, ft)
		}
	}
	dropped := len(r.targets) - len(kept)
	r.targets = kept
	return dropped
}

// Levels returns the current level of every channel still fading.
func (r *RunningCue) Levels() []Channel {
	out := make([]Channel, len(r.targets))
	for i, ft := range r.targets {
		out[i] = Channel{ID: ft.ChannelID, Value: ft.Current}
	}
	return out
}

// Targets returns a copy of the FadeTargets.
func (r *RunningCue) Targets() []FadeTarget {
	out := make([]FadeTarget, len(r.targets))
	copy(out, r.targets)
	return out
}

// Len returns the number of channels still fading.
func (r *RunningCue) Len() int {
	return len(r.targets)
}

// Done reports whether every channel has been pruned.
func (r *RunningCue) Done() bool {
	return len(r.targets) == 0
}

// clone returns an independent copy for snapshots.
func (r *RunningCue) clone() *RunningCue {
	cpy := *r
	cpy.targets = r.Targets()
	return &cpy
}
