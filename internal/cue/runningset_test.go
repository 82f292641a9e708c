package cue

import (
	"errors"
	"testing"
)

// newTestCue builds a cue from channel/target pairs.
func newTestCue(t *testing.T, number int, fade float64, targets map[int]float64) *Cue {
	t.Helper()
	c := NewCue(number, fade)
	for id, v := range targets {
		if err := c.AddChannel(id, v); err != nil {
			t.Fatalf("AddChannel(%d) error = %v", id, err)
		}
	}
	return c
}

// levelOf returns the merged level for a channel, failing if absent.
func levelOf(t *testing.T, merged []Channel, id int) float64 {
	t.Helper()
	for _, ch := range merged {
		if ch.ID == id {
			return ch.Value
		}
	}
	t.Fatalf("channel %d missing from merge %v", id, merged)
	return 0
}

// holdAt activates a cue whose targets equal the current levels, so its
// channels sit at the given levels until pruned.
func holdAt(t *testing.T, s *RunningCueSet, number int, levels map[int]float64) {
	t.Helper()
	c := newTestCue(t, number, 1, levels)
	var current []Channel
	for id, v := range levels {
		current = append(current, Channel{ID: id, Value: v})
	}
	s.Activate(c, current)
}

// fadingAt activates a cue that is mid-fade at the given level for a channel.
func fadingAt(t *testing.T, s *RunningCueSet, number, channel int, level float64) {
	t.Helper()
	c := newTestCue(t, number, 10, map[int]float64{channel: level + 100})
	s.Activate(c, []Channel{{ID: channel, Value: level}})
}

func TestActivate_SeedsFromCurrentOutput(t *testing.T) {
	c := newTestCue(t, 1, 2, map[int]float64{1: 100, 2: 0})
	rc := Activate(c, []Channel{{ID: 1, Value: 20}, {ID: 2, Value: 80}, {ID: 9, Value: 7}}, 10)

	targets := rc.Targets()
	if len(targets) != 2 {
		t.Fatalf("len(Targets()) = %d, want 2", len(targets))
	}
	for _, ft := range targets {
		switch ft.ChannelID {
		case 1:
			if ft.Current != 20 || ft.StepAmount != 4 {
				t.Errorf("channel 1 = %+v, want current 20 step 4", ft)
			}
		case 2:
			if ft.Current != 80 || ft.StepAmount != 4 {
				t.Errorf("channel 2 = %+v, want current 80 step 4", ft)
			}
		}
	}
	if rc.ID == "" {
		t.Error("activation ID is empty")
	}
}

func TestActivate_AbsentChannelStartsAtZero(t *testing.T) {
	c := newTestCue(t, 1, 1, map[int]float64{3: 50})
	rc := Activate(c, nil, 10)

	if got := rc.Targets()[0].Current; got != 0 {
		t.Errorf("Current = %v, want 0", got)
	}
}

func TestActivate_CopiesDefinition(t *testing.T) {
	c := newTestCue(t, 1, 1, map[int]float64{1: 100})
	s := NewRunningCueSet(10)
	s.Activate(c, nil)

	c.ModifyChannel(1, 5)
	_ = c.AddChannel(2, 255)

	cues := s.Cues()
	targets := cues[0].Targets()
	if len(targets) != 1 || targets[0].Target != 100 {
		t.Errorf("running cue changed after definition edit: %+v", targets)
	}
}

func TestActivate_SameCueTwice(t *testing.T) {
	c := newTestCue(t, 1, 1, map[int]float64{1: 100})
	s := NewRunningCueSet(10)
	a := s.Activate(c, nil)
	b := s.Activate(c, nil)

	if a.ID == b.ID {
		t.Error("two activations share an ID")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestMerge_Empty(t *testing.T) {
	s := NewRunningCueSet(10)
	for _, p := range []MergePolicy{HTP, LTP} {
		if got := s.Merge(p); len(got) != 0 {
			t.Errorf("Merge(%v) = %v, want empty", p, got)
		}
	}
}

func TestMerge_SingleCueIsProjection(t *testing.T) {
	s := NewRunningCueSet(10)
	holdAt(t, s, 1, map[int]float64{1: 10, 2: 200})

	for _, p := range []MergePolicy{HTP, LTP} {
		got := s.Merge(p)
		if len(got) != 2 {
			t.Fatalf("Merge(%v) = %v, want 2 channels", p, got)
		}
		if levelOf(t, got, 1) != 10 || levelOf(t, got, 2) != 200 {
			t.Errorf("Merge(%v) = %v", p, got)
		}
	}
}

func TestMerge_HTPTakesMaxRegardlessOfOrder(t *testing.T) {
	tests := []struct {
		name         string
		older, newer float64
	}{
		{name: "newer higher", older: 30, newer: 80},
		{name: "older higher", older: 90, newer: 40},
		{name: "equal", older: 60, newer: 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewRunningCueSet(10)
			holdAt(t, s, 1, map[int]float64{5: tt.older})
			holdAt(t, s, 2, map[int]float64{5: tt.newer})

			want := max(tt.older, tt.newer)
			if got := levelOf(t, s.Merge(HTP), 5); got != want {
				t.Errorf("HTP channel 5 = %v, want %v", got, want)
			}
		})
	}
}

func TestMerge_LTPLatestWins(t *testing.T) {
	tests := []struct {
		name         string
		older, newer float64
	}{
		{name: "newer higher", older: 30, newer: 80},
		{name: "older higher", older: 90, newer: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewRunningCueSet(10)
			holdAt(t, s, 1, map[int]float64{5: tt.older})
			holdAt(t, s, 2, map[int]float64{5: tt.newer})

			if got := levelOf(t, s.Merge(LTP), 5); got != tt.newer {
				t.Errorf("LTP channel 5 = %v, want %v", got, tt.newer)
			}
		})
	}
}

func TestMerge_UnsharedChannelsPassThrough(t *testing.T) {
	s := NewRunningCueSet(10)
	holdAt(t, s, 1, map[int]float64{1: 10})
	holdAt(t, s, 2, map[int]float64{2: 20})
	holdAt(t, s, 3, map[int]float64{3: 0})

	for _, p := range []MergePolicy{HTP, LTP} {
		got := s.Merge(p)
		if len(got) != 3 {
			t.Fatalf("Merge(%v) = %v, want 3 channels", p, got)
		}
		if levelOf(t, got, 1) != 10 || levelOf(t, got, 2) != 20 || levelOf(t, got, 3) != 0 {
			t.Errorf("Merge(%v) = %v", p, got)
		}
	}
}

func TestMerge_HTPNeverDecreasesWithinPass(t *testing.T) {
	s := NewRunningCueSet(10)
	holdAt(t, s, 1, map[int]float64{1: 20})
	holdAt(t, s, 2, map[int]float64{1: 200})
	holdAt(t, s, 3, map[int]float64{1: 50})

	if got := levelOf(t, s.Merge(HTP), 1); got != 200 {
		t.Errorf("HTP channel 1 = %v, want 200", got)
	}
	if got := levelOf(t, s.Merge(LTP), 1); got != 50 {
		t.Errorf("LTP channel 1 = %v, want 50", got)
	}
}

func TestMerge_UsesCurrentNotTargetLevels(t *testing.T) {
	s := NewRunningCueSet(10)
	fadingAt(t, s, 1, 1, 40)
	holdAt(t, s, 2, map[int]float64{1: 60})

	if got := levelOf(t, s.Merge(HTP), 1); got != 60 {
		t.Errorf("HTP channel 1 = %v, want 60 (older cue is at 40, heading to 140)", got)
	}
}

func TestMerge_FirstSeenOrder(t *testing.T) {
	s := NewRunningCueSet(10)
	c1 := NewCue(1, 1)
	_ = c1.AddChannel(3, 1)
	_ = c1.AddChannel(1, 1)
	c2 := NewCue(2, 1)
	_ = c2.AddChannel(2, 1)
	_ = c2.AddChannel(3, 1)
	s.Activate(c1, nil)
	s.Activate(c2, nil)

	got := s.Merge(HTP)
	wantOrder := []int{3, 1, 2}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Fatalf("Merge order = %v, want ids %v", got, wantOrder)
		}
	}
}

func TestTick_ScenarioSingleFade(t *testing.T) {
	s := NewRunningCueSet(10)
	c := newTestCue(t, 1, 2, map[int]float64{1: 100})
	rc := s.Activate(c, []Channel{{ID: 1, Value: 0}})

	if step := rc.Targets()[0].StepAmount; step != 5 {
		t.Fatalf("StepAmount = %v, want 5", step)
	}

	var last []Channel
	for i := 1; i <= 20; i++ {
		last = s.Tick(HTP)
		if i < 20 && s.Len() != 1 {
			t.Fatalf("cue pruned early at tick %d", i)
		}
		if want := float64(5 * i); levelOf(t, last, 1) != want {
			t.Fatalf("tick %d channel 1 = %v, want %v", i, levelOf(t, last, 1), want)
		}
	}

	if got := levelOf(t, last, 1); got != 100 {
		t.Errorf("final level = %v, want exactly 100", got)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after arrival, want 0 (pruned)", s.Len())
	}
	if got := s.Tick(HTP); len(got) != 0 {
		t.Errorf("Tick after completion = %v, want empty", got)
	}
}

func TestTick_ArrivingChannelContributesOnce(t *testing.T) {
	s := NewRunningCueSet(10)
	c := newTestCue(t, 1, 0, map[int]float64{1: 255})
	s.Activate(c, nil)

	got := s.Tick(LTP)
	if levelOf(t, got, 1) != 255 {
		t.Errorf("zero-fade tick channel 1 = %v, want 255", levelOf(t, got, 1))
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after snap", s.Len())
	}
}

func TestTick_PrunesReachedChannelsOnly(t *testing.T) {
	s := NewRunningCueSet(10)
	c := newTestCue(t, 1, 1, map[int]float64{1: 10, 2: 100})
	s.Activate(c, []Channel{{ID: 1, Value: 10}, {ID: 2, Value: 0}})

	s.Tick(HTP)

	cues := s.Cues()
	if len(cues) != 1 {
		t.Fatalf("Len() = %d, want 1", len(cues))
	}
	targets := cues[0].Targets()
	if len(targets) != 1 || targets[0].ChannelID != 2 {
		t.Errorf("targets after tick = %+v, want only channel 2", targets)
	}
}

func TestTick_PolicyScenarios(t *testing.T) {
	tests := []struct {
		name    string
		a, b    float64
		policy  MergePolicy
		wantCh5 float64
	}{
		{name: "HTP newer higher", a: 30, b: 80, policy: HTP, wantCh5: 80},
		{name: "LTP newer higher", a: 30, b: 80, policy: LTP, wantCh5: 80},
		{name: "HTP older higher", a: 90, b: 40, policy: HTP, wantCh5: 90},
		{name: "LTP older higher", a: 90, b: 40, policy: LTP, wantCh5: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewRunningCueSet(10)
			// Each cue lands on its level in exactly one tick.
			a := newTestCue(t, 1, 0.1, map[int]float64{5: tt.a})
			b := newTestCue(t, 2, 0.1, map[int]float64{5: tt.b})
			s.Activate(a, []Channel{{ID: 5, Value: 0}})
			s.Activate(b, []Channel{{ID: 5, Value: 0}})

			got := s.Tick(tt.policy)
			if v := levelOf(t, got, 5); v != tt.wantCh5 {
				t.Errorf("channel 5 = %v, want %v", v, tt.wantCh5)
			}
		})
	}
}

func TestRunningCueSet_Remove(t *testing.T) {
	s := NewRunningCueSet(10)
	c1 := newTestCue(t, 1, 1, map[int]float64{1: 100})
	c2 := newTestCue(t, 2, 1, map[int]float64{2: 100})
	a := s.Activate(c1, nil)
	b := s.Activate(c2, nil)
	c := s.Activate(c1, nil)

	ids := s.IDs()
	if len(ids) != 3 || ids[0] != a.ID || ids[1] != b.ID || ids[2] != c.ID {
		t.Fatalf("IDs() = %v, want activation order", ids)
	}

	if !s.Remove(a.ID) {
		t.Error("Remove(a) = false, want true")
	}
	if s.Remove(a.ID) {
		t.Error("second Remove(a) = true, want no-op")
	}
	if n := s.RemoveCue(1); n != 1 {
		t.Errorf("RemoveCue(1) = %d, want 1", n)
	}
	if n := s.RemoveCue(99); n != 0 {
		t.Errorf("RemoveCue(99) = %d, want 0", n)
	}
	if s.Len() != 1 || s.Cues()[0].CueNumber != 2 {
		t.Errorf("remaining cues = %+v, want only cue 2", s.Cues())
	}
	if n := s.Clear(); n != 1 || s.Len() != 0 {
		t.Errorf("Clear() = %d, Len() = %d", n, s.Len())
	}
}

func TestRunningCueSet_CuesAreSnapshots(t *testing.T) {
	s := NewRunningCueSet(10)
	c := newTestCue(t, 1, 1, map[int]float64{1: 100})
	s.Activate(c, nil)

	snap := s.Cues()
	s.Tick(HTP)

	if got := snap[0].Targets()[0].Current; got != 0 {
		t.Errorf("snapshot changed after tick: Current = %v", got)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    MergePolicy
		wantErr bool
	}{
		{input: "htp", want: HTP},
		{input: "LTP", want: LTP},
		{input: " Htp ", want: HTP},
		{input: "priority", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePolicy(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownPolicy) {
					t.Errorf("ParsePolicy(%q) error = %v, want ErrUnknownPolicy", tt.input, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParsePolicy(%q) = %v, %v; want %v", tt.input, got, err, tt.want)
			}
		})
	}

	if HTP.String() != "htp" || LTP.String() != "ltp" {
		t.Errorf("String() = %q, %q", HTP, LTP)
	}
}
