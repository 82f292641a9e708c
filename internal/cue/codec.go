package cue

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Exchange document shapes. Pointer fields distinguish a missing key from a
// zero value; every key is required.
type cueDocument struct {
	CueNumber *int               `json:"cue_number"`
	FadeTime  *float64           `json:"fade_time"`
	Channels  *[]channelDocument `json:"channels"`
}

type channelDocument struct {
	ChannelNumber *int     `json:"channel_number"`
	TargetValue   *float64 `json:"target_value"`
}

type cueListDocument struct {
	CueListNumber *int            `json:"cue_list_number"`
	Cues          *[]*cueDocument `json:"cues"`
}

// MarshalJSON encodes the cue as a cue document.
func (c *Cue) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.document())
}

// UnmarshalJSON decodes a cue document. On error the receiver is unchanged.
func (c *Cue) UnmarshalJSON(data []byte) error {
	var doc cueDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return malformed(err)
	}
	decoded, err := doc.cue()
	if err != nil {
		return err
	}
	*c = *decoded
	return nil
}

// MarshalJSON encodes the list as a cue list document.
func (l *CueList) MarshalJSON() ([]byte, error) {
	cues := make([]*cueDocument, len(l.cues))
	for i, c := range l.cues {
		cues[i] = c.document()
	}
	number := l.Number
	return json.Marshal(cueListDocument{
		CueListNumber: &number,
		Cues:          &cues,
	})
}

// UnmarshalJSON decodes a cue list document. On error the receiver is unchanged.
func (l *CueList) UnmarshalJSON(data []byte) error {
	var doc cueListDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return malformed(err)
	}
	if doc.CueListNumber == nil {
		return fmt.Errorf("%w: missing cue_list_number", ErrMalformedDocument)
	}
	if doc.Cues == nil {
		return fmt.Errorf("%w: missing cues", ErrMalformedDocument)
	}

	list := NewCueList(*doc.CueListNumber)
	for i, cd := range *doc.Cues {
		if cd == nil {
			return fmt.Errorf("%w: cues[%d] is null", ErrMalformedDocument, i)
		}
		c, err := cd.cue()
		if err != nil {
			return fmt.Errorf("cues[%d]: %w", i, err)
		}
		list.AddCue(c)
	}
	*l = *list
	return nil
}

// DecodeCue parses a cue document.
func DecodeCue(data []byte) (*Cue, error) {
	c := &Cue{}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, malformed(err)
	}
	return c, nil
}

// EncodeCue renders a cue as a cue document.
func EncodeCue(c *Cue) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding cue %d: %w", c.Number, err)
	}
	return data, nil
}

// DecodeCueList parses a cue list document.
func DecodeCueList(data []byte) (*CueList, error) {
	l := &CueList{}
	if err := json.Unmarshal(data, l); err != nil {
		return nil, malformed(err)
	}
	return l, nil
}

// EncodeCueList renders a cue list as a cue list document.
func EncodeCueList(l *CueList) ([]byte, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encoding cue list %d: %w", l.Number, err)
	}
	return data, nil
}

func (c *Cue) document() *cueDocument {
	number := c.Number
	fade := c.FadeSeconds
	channels := make([]channelDocument, len(c.targets))
	for i, t := range c.targets {
		id := t.ID
		value := t.Value
		channels[i] = channelDocument{ChannelNumber: &id, TargetValue: &value}
	}
	return &cueDocument{
		CueNumber: &number,
		FadeTime:  &fade,
		Channels:  &channels,
	}
}

func (d *cueDocument) cue() (*Cue, error) {
	switch {
	case d.CueNumber == nil:
		return nil, fmt.Errorf("%w: missing cue_number", ErrMalformedDocument)
	case d.FadeTime == nil:
		return nil, fmt.Errorf("%w: missing fade_time", ErrMalformedDocument)
	case d.Channels == nil:
		return nil, fmt.Errorf("%w: missing channels", ErrMalformedDocument)
	}

	c := NewCue(*d.CueNumber, *d.FadeTime)
	for i, ch := range *d.Channels {
		if ch.ChannelNumber == nil || ch.TargetValue == nil {
			return nil, fmt.Errorf("%w: cue %d channels[%d] incomplete", ErrMalformedDocument, c.Number, i)
		}
		if err := c.AddChannel(*ch.ChannelNumber, *ch.TargetValue); err != nil {
			return nil, malformed(err)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, malformed(err)
	}
	return c, nil
}

// malformed wraps err in ErrMalformedDocument unless it already is one.
func malformed(err error) error {
	if errors.Is(err, ErrMalformedDocument) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrMalformedDocument, err)
}
