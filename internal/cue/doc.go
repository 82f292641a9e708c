// Package cue provides the fade and merge core of Gray Logic Desk.
//
// A Cue is a reusable definition: a fade duration plus target levels for a
// set of channels. Activating a Cue against the current output produces a
// RunningCue whose FadeTargets step linearly toward their targets once per
// tick. A RunningCueSet holds every RunningCue in activation order and merges
// them into a single channel set each tick.
//
// Architecture:
//
//	┌──────────────────────────────────────────────────────────┐
//	│                 RunningCueSet (runningset.go)             │
//	│  ┌───────────┐  ┌───────────┐  ┌───────────┐             │
//	│  │RunningCue │  │RunningCue │  │RunningCue │  (oldest →) │
//	│  │FadeTarget…│  │FadeTarget…│  │FadeTarget…│             │
//	│  └───────────┘  └───────────┘  └───────────┘             │
//	│                                                          │
//	│  Tick pipeline                                           │
//	│  1. Step every FadeTarget                                │
//	│  2. Merge post-step levels (HTP or LTP)                  │
//	│  3. Drop FadeTargets that reached their target           │
//	│  4. Drop RunningCues with no FadeTargets left            │
//	│  5. Return the merge from step 2                         │
//	└──────────────────────────────────────────────────────────┘
//
// # Merge Policies
//
//   - HTP (highest takes precedence): the highest current level across all
//     running cues wins for each channel.
//   - LTP (latest takes precedence): the most recently activated cue that
//     touches a channel wins, regardless of level.
//
// # Thread Safety
//
// Types in this package are not safe for concurrent use. The playback engine
// serialises access to its RunningCueSet.
//
// # Usage
//
//	c := cue.NewCue(1, 2.0)
//	_ = c.AddChannel(1, 255)
//
//	running := cue.NewRunningCueSet(40)
//	running.Activate(c, universe.Snapshot())
//
//	for range ticker.C {
//	    if err := universe.Apply(running.Tick(cue.HTP)); err != nil {
//	        return err
//	    }
//	}
package cue
