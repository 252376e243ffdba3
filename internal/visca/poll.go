package visca

import "time"

// DefaultPollInterval is the cadence of the inquire-all burst.
const DefaultPollInterval = time.Second

// Scheduler decides when the next inquire-all burst is due. The next burst
// is armed from the moment the previous one triggered, so a late check
// fires exactly one burst and never a backlog.
type Scheduler struct {
	interval time.Duration
	last     time.Time
}

// NewScheduler arms the first burst one interval after start.
func NewScheduler(interval time.Duration, start time.Time) *Scheduler {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Scheduler{interval: interval, last: start}
}

// Interval returns the configured cadence.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Due reports whether a burst should fire at now and, if so, re-arms.
func (s *Scheduler) Due(now time.Time) bool {
	if now.Sub(s.last) < s.interval {
		return false
	}
	s.last = now
	return true
}

// Poll returns the burst for addrs if one is due at now, otherwise nil.
func (s *Scheduler) Poll(now time.Time, addrs []Address) []Frame {
	if !s.Due(now) {
		return nil
	}
	return InquireAll(addrs)
}
