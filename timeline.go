package ember

import (
	"encoding/json"
	"fmt"
	"os"
)

// timelineStep represents a single action in a timeline script.
type timelineStep struct {
	Action   string `json:"action"`
	Label    string `json:"label,omitempty"`
	Emitter  string `json:"emitter,omitempty"`
	Time     int    `json:"time,omitempty"`     // ms, for seek
	Dt       int    `json:"dt,omitempty"`       // ms per frame, for advance
	Frames   int    `json:"frames,omitempty"`   // for advance
	Count    int    `json:"count,omitempty"`    // for burst
	Duration int    `json:"duration,omitempty"` // ms, for burst
	Seed     uint32 `json:"seed,omitempty"`
}

// timelineScript is the top-level JSON structure for a timeline script.
type timelineScript struct {
	Steps []timelineStep `json:"steps"`
}

// Snapshot is the state captured by a "snapshot" step.
type Snapshot struct {
	Label string
	Time  int
	Alive map[string]int // particle kind name -> live count
	Stats Stats
}

// Timeline drives a System through a scripted sequence of clock and
// emitter actions. Supported actions:
//
//	run, stop, pause, resume     clock state
//	advance {dt, frames}         Tick dt ms, frames times (frames defaults to 1)
//	seek {time}                  SetTime
//	seed {seed}                  fixed seed, UseRandomSeed off
//	burst {emitter, count, duration}
//	enable/disable {emitter}
//	snapshot {label}             record live counts
type Timeline struct {
	steps     []timelineStep
	cursor    int
	snapshots []Snapshot
	done      bool
}

// LoadTimeline parses a JSON timeline script.
func LoadTimeline(jsonData []byte) (*Timeline, error) {
	var script timelineScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse timeline: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse timeline: no steps")
	}
	for i, st := range script.Steps {
		if !knownTimelineAction(st.Action) {
			return nil, fmt.Errorf("parse timeline: step %d: unknown action %q", i, st.Action)
		}
	}
	return &Timeline{steps: script.Steps}, nil
}

// LoadTimelineFile reads and parses a timeline script from path.
func LoadTimelineFile(path string) (*Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read timeline: %w", err)
	}
	return LoadTimeline(data)
}

func knownTimelineAction(a string) bool {
	switch a {
	case "run", "stop", "pause", "resume", "advance", "seek", "seed",
		"burst", "enable", "disable", "snapshot":
		return true
	}
	return false
}

// Done reports whether all steps have been executed.
func (t *Timeline) Done() bool { return t.done }

// Snapshots returns the snapshots recorded so far.
func (t *Timeline) Snapshots() []Snapshot { return t.snapshots }

// Run executes every remaining step.
func (t *Timeline) Run(s *System) error {
	for !t.done {
		if err := t.Step(s); err != nil {
			return err
		}
	}
	return nil
}

// Step executes the next step.
func (t *Timeline) Step(s *System) error {
	if t.done {
		return nil
	}
	st := t.steps[t.cursor]
	t.cursor++
	if t.cursor >= len(t.steps) {
		t.done = true
	}

	switch st.Action {
	case "run":
		s.SetRunning(true)
	case "stop":
		s.SetRunning(false)
	case "pause":
		s.SetPaused(true)
	case "resume":
		s.SetPaused(false)
	case "advance":
		frames := st.Frames
		if frames < 1 {
			frames = 1
		}
		for i := 0; i < frames; i++ {
			s.Tick(st.Dt)
		}
	case "seek":
		s.SetTime(st.Time)
	case "seed":
		s.SetSeed(st.Seed)
		s.SetUseRandomSeed(false)
	case "burst", "enable", "disable":
		e := s.EmitterByName(st.Emitter)
		if e == nil {
			return fmt.Errorf("timeline step %d: no emitter %q", t.cursor-1, st.Emitter)
		}
		switch st.Action {
		case "burst":
			e.Burst(st.Count, st.Duration)
		case "enable":
			e.SetEnabled(true)
		case "disable":
			e.SetEnabled(false)
		}
	case "snapshot":
		snap := Snapshot{Label: st.Label, Time: s.Time(), Alive: make(map[string]int), Stats: s.Stats()}
		for _, p := range s.particles {
			if p != nil {
				snap.Alive[p.Name] += p.Alive()
			}
		}
		t.snapshots = append(t.snapshots, snap)
	}
	return nil
}
