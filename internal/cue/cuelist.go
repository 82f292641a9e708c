package cue

import "fmt"

// CueList is an ordered collection of cue definitions.
//
// Cue numbers are unique within a list: adding a cue whose number already
// exists replaces it in place and keeps its position.
type CueList struct {
	Number int
	cues   []*Cue
}

// NewCueList creates an empty cue list.
func NewCueList(number int) *CueList {
	return &CueList{
		Number: number,
		cues:   make([]*Cue, 0),
	}
}

// AddCue appends a cue, or replaces the cue with the same number.
func (l *CueList) AddCue(c *Cue) {
	for i, existing := range l.cues {
		if existing.Number == c.Number {
			l.cues[i] = c
			return
		}
	}
	l.cues = append(l.cues, c)
}

// RemoveCue removes the cue with the given number.
// It reports whether a cue was removed.
func (l *CueList) RemoveCue(number int) bool {
	for i, existing := range l.cues {
		if existing.Number == number {
			l.cues = append(l.cues[:i], l.cues[i+1:]...)
			return true
		}
	}
	return false
}

// Cue returns the cue with the given number.
func (l *CueList) Cue(number int) (*Cue, bool) {
	for _, c := range l.cues {
		if c.Number == number {
			return c, true
		}
	}
	return nil, false
}

// Cues returns the cues in list order.
// The slice is a copy; the cues are not.
func (l *CueList) Cues() []*Cue {
	out := make([]*Cue, len(l.cues))
	copy(out, l.cues)
	return out
}

// Len returns the number of cues in the list.
func (l *CueList) Len() int {
	return len(l.cues)
}

// Clone returns a deep copy of the list and every cue in it.
func (l *CueList) Clone() *CueList {
	if l == nil {
		return nil
	}
	cpy := &CueList{
		Number: l.Number,
		cues:   make([]*Cue, len(l.cues)),
	}
	for i, c := range l.cues {
		cpy.cues[i] = c.Clone()
	}
	return cpy
}

// Validate validates every cue in the list.
func (l *CueList) Validate() error {
	for i, c := range l.cues {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("cue[%d]: %w", i, err)
		}
	}
	return nil
}
