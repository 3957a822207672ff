package ember

// State is the run state of a System.
type State uint8

const (
	StateStopped State = iota
	StateRunning
	StatePaused
)

// String returns the state name.
func (st State) String() string {
	switch st {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	}
	return "stopped"
}

// State returns the current run state.
func (s *System) State() State {
	switch {
	case !s.running:
		return StateStopped
	case s.paused:
		return StatePaused
	}
	return StateRunning
}

// Running reports whether the clock is running (paused or not).
func (s *System) Running() bool { return s.running }

// Paused reports whether the clock is paused.
func (s *System) Paused() bool { return s.paused }

// SetRunning starts or stops the clock. Stopping destroys all particles,
// rewinds emitters and, with UseRandomSeed, draws a new seed.
func (s *System) SetRunning(v bool) {
	if v == s.running {
		return
	}
	s.running = v
	if v {
		s.animTime = 0
		return
	}
	if s.useRandomSeed {
		s.randomizeSeed()
	}
	s.Reset()
}

// SetPaused freezes or resumes the clock without touching particles.
func (s *System) SetPaused(v bool) { s.paused = v }

// StartTime returns the warm-up offset in milliseconds.
func (s *System) StartTime() int { return s.startTime }

// SetStartTime sets the offset added to the driven time, so the first
// frame shows the effect already dt+ms into its run.
func (s *System) SetStartTime(ms int) { s.startTime = ms }

// Time returns the time of the last update in milliseconds.
func (s *System) Time() int { return s.time }

// Tick advances the clock by dtMs and updates once. It does nothing while
// stopped or paused. In editor preview mode the preview time is used instead.
func (s *System) Tick(dtMs int) {
	if s.cfg.Disabled {
		return
	}
	if s.cfg.EditorPreview {
		s.update(s.cfg.EditorPreviewTime)
		return
	}
	if !s.running || s.paused {
		return
	}
	s.animTime += dtMs
	s.update(s.startTime + s.animTime)
}

// SetTime seeks to ms and processes exactly one update. Later ticks
// continue from ms.
func (s *System) SetTime(ms int) {
	if s.cfg.Disabled {
		return
	}
	s.animTime = ms - s.startTime
	s.update(ms)
}

// SetEditorPreviewTime sets the time used while Config.EditorPreview is on.
func (s *System) SetEditorPreviewTime(ms int) {
	s.cfg.EditorPreviewTime = ms
}
