package signal

// timeEpsilon absorbs float drift when dt increments are meant to sum to the
// delay exactly (e.g. ten ticks of 0.05 against 0.5).
const timeEpsilon = 1e-9

// Scheduler is a single-shot countdown driven by explicit time increments.
type Scheduler struct {
	// Fired is fired exactly once, by the AddTime call that brings the
	// accumulated clock up to the delay.
	Fired Event[*Scheduler]

	delay float64
	clock float64
	fired bool
}

func NewScheduler(delay float64) *Scheduler {
	return &Scheduler{delay: delay}
}

// AddTime advances the internal clock by dt. Calls after the scheduler has
// fired are ignored.
func (s *Scheduler) AddTime(dt float64) {
	if s.fired {
		return
	}
	s.clock += dt
	if s.clock+timeEpsilon >= s.delay {
		s.fired = true
		s.Fired.Fire(s)
	}
}

// Reset rewinds the clock and re-arms the scheduler, keeping its handlers.
func (s *Scheduler) Reset() {
	s.clock = 0
	s.fired = false
}

func (s *Scheduler) Delay() float64 { return s.delay }
func (s *Scheduler) Elapsed() float64 { return s.clock }
func (s *Scheduler) IsFired() bool { return s.fired }

// Remaining returns the time left before firing, never negative.
func (s *Scheduler) Remaining() float64 {
	if r := s.delay - s.clock; r > 0 {
		return r
	}
	return 0
}
