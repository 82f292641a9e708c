package cue

// Channel is a snapshot of a single output channel and its level.
type Channel struct {
	ID    int     `json:"id"`
	Value float64 `json:"value"`
}
