package cue

import (
	"fmt"
	"strings"
)

// MergePolicy selects how concurrent running cues combine per channel.
type MergePolicy int

const (
	// HTP keeps the highest level across all running cues.
	HTP MergePolicy = iota

	// LTP keeps the level of the most recently activated cue.
	LTP
)

// String returns the lowercase policy name.
func (p MergePolicy) String() string {
	if p == LTP {
		return "ltp"
	}
	return "htp"
}

// ParsePolicy converts "htp" or "ltp" (any case) to a MergePolicy.
func ParsePolicy(s string) (MergePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "htp":
		return HTP, nil
	case "ltp":
		return LTP, nil
	default:
		return HTP, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// RunningCueSet holds running cues in activation order and merges them.
//
// Order is significant: the oldest cue seeds every merge and, under LTP,
// later cues override earlier ones. Cues are never reordered.
type RunningCueSet struct {
	tickRate float64
	cues     []*RunningCue
}

// NewRunningCueSet creates an empty set stepping at tickRate ticks per second.
func NewRunningCueSet(tickRate float64) *RunningCueSet {
	return &RunningCueSet{
		tickRate: tickRate,
		cues:     make([]*RunningCue, 0),
	}
}

// TickRate returns the ticks per second used to compute step amounts.
func (s *RunningCueSet) TickRate() float64 {
	return s.tickRate
}

// Activate starts a cue from the current output and appends it as the newest
// running cue. The definition is copied; the returned RunningCue is a
// snapshot and is not updated by later ticks.
func (s *RunningCueSet) Activate(c *Cue, current []Channel) *RunningCue {
	rc := Activate(c, current, s.tickRate)
	s.cues = append(s.cues, rc)
	return rc.clone()
}

// Remove cancels the running cue with the given activation id.
func (s *RunningCueSet) Remove(id string) bool {
	for i, rc := range s.cues {
		if rc.ID == id {
			s.cues = append(s.cues[:i], s.cues[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveCue cancels every running instance of a cue number.
// It returns the number of instances removed.
func (s *RunningCueSet) RemoveCue(number int) int {
	return s.removeWhere(func(rc *RunningCue) bool { return rc.CueNumber == number })
}

// Clear cancels every running cue and returns how many were removed.
func (s *RunningCueSet) Clear() int {
	n := len(s.cues)
	s.cues = s.cues[:0]
	return n
}

// Len returns the number of running cues.
func (s *RunningCueSet) Len() int {
	return len(s.cues)
}

// IDs returns the activation ids of the running cues, oldest first.
func (s *RunningCueSet) IDs() []string {
	out := make([]string, len(s.cues))
	for i, rc := range s.cues {
		out[i] = rc.ID
	}
	return out
}

// Cues returns independent copies of the running cues, oldest first.
func (s *RunningCueSet) Cues() []*RunningCue {
	out := make([]*RunningCue, len(s.cues))
	for i, rc := range s.cues {
		out[i] = rc.clone()
	}
	return out
}

// Step steps every FadeTarget of every running cue once.
func (s *RunningCueSet) Step() {
	for _, rc := range s.cues {
		rc.StepAll()
	}
}

// Merge combines the current levels of all running cues into one channel set.
//
// With no running cues the result is empty, which callers must treat as
// "no update" rather than "everything to zero". A single cue is projected
// as-is. Otherwise the oldest cue seeds the result and later cues are folded
// in activation order: HTP keeps max(stored, candidate), LTP overwrites.
// Under HTP a stored level never decreases within one merge. Channels appear
// in the order they are first seen.
func (s *RunningCueSet) Merge(policy MergePolicy) []Channel {
	switch len(s.cues) {
	case 0:
		return []Channel{}
	case 1:
		return s.cues[0].Levels()
	}

	merged := s.cues[0].Levels()
	index := make(map[int]int, len(merged))
	for i, ch := range merged {
		index[ch.ID] = i
	}

	for _, rc := range s.cues[1:] {
		for _, ft := range rc.targets {
			i, seen := index[ft.ChannelID]
			if !seen {
				index[ft.ChannelID] = len(merged)
				merged = append(merged, Channel{ID: ft.ChannelID, Value: ft.Current})
				continue
			}

			switch policy {
			case LTP:
				merged[i].Value = ft.Current
			default:
				if ft.Current > merged[i].Value {
					merged[i].Value = ft.Current
				}
			}
		}
	}

	return merged
}

// Prune drops reached FadeTargets, then drops running cues left empty.
// It returns the number of running cues removed.
func (s *RunningCueSet) Prune() int {
	for _, rc := range s.cues {
		rc.DropReached()
	}
	return s.removeWhere((*RunningCue).Done)
}

// Tick runs one frame of the pipeline and returns the merged levels.
//
// Merging happens before pruning so a channel that arrives this tick still
// contributes its final level exactly once.
func (s *RunningCueSet) Tick(policy MergePolicy) []Channel {
	s.Step()
	merged := s.Merge(policy)
	s.Prune()
	return merged
}

func (s *RunningCueSet) removeWhere(match func(*RunningCue) bool) int {
	kept := s.cues[:0]
	for _, rc := range s.cues {
		if !match(rc) {
			kept = append(kept, rc)
		}
	}
	removed := len(s.cues) - len(kept)
	for i := len(kept); i < len(s.cues); i++ {
		s.cues[i] = nil
	}
	s.cues = kept
	return removed
}
