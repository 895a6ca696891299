package engine

import "time"

// TimerState is the lifecycle of a lot countdown
type TimerState string

const (
	TimerIdle      TimerState = "idle"
	TimerRunning   TimerState = "running"
	TimerExpired   TimerState = "expired"
	TimerCancelled TimerState = "cancelled"
)

// LotTimer is the per-lot anti-sniping countdown. Every accepted bid resets the
// remaining time to the full duration, bounded by a hard ceiling measured from
// activation. It holds no goroutine; the engine drives it with OnTick.
type LotTimer struct {
	duration  time.Duration
	ceiling   time.Duration // 0 means unbounded
	state     TimerState
	startedAt time.Time
	deadline  time.Time
	resets    int
}

// NewLotTimer creates an idle timer
func NewLotTimer(duration, ceiling time.Duration) *LotTimer {
	return &LotTimer{
		duration: duration,
		ceiling:  ceiling,
		state:    TimerIdle,
	}
}

// Start begins the countdown when the lot becomes active
func (t *LotTimer) Start(now time.Time) {
	t.Resume(now, now)
}

// Resume restarts a countdown for a lot active since startedAt, e.g. after a restart
func (t *LotTimer) Resume(startedAt, now time.Time) {
	t.state = TimerRunning
	t.startedAt = startedAt
	t.resets = 0
	t.deadline = t.capped(now.Add(t.duration))
}

// OnAcceptedBid resets the countdown and returns the time left
func (t *LotTimer) OnAcceptedBid(now time.Time) time.Duration {
	if t.state != TimerRunning {
		return 0
	}
	t.resets++
	t.deadline = t.capped(now.Add(t.duration))
	return t.Remaining(now)
}

// OnTick reports true exactly once, when the deadline has passed.
// A tick landing on the deadline itself does not expire the timer, so a bid
// accepted at that same instant wins.
func (t *LotTimer) OnTick(now time.Time) bool {
	if t.state != TimerRunning {
		return false
	}
	if now.After(t.deadline) {
		t.state = TimerExpired
		return true
	}
	return false
}

// Cancel stops the countdown on lot close or auction cancel/end
func (t *LotTimer) Cancel() {
	if t.state == TimerRunning || t.state == TimerIdle {
		t.state = TimerCancelled
	}
}

// Open reports whether a bid at now may still be accepted
func (t *LotTimer) Open(now time.Time) bool {
	return t.state == TimerRunning && !now.After(t.deadline)
}

// Remaining returns the time left before expiry
func (t *LotTimer) Remaining(now time.Time) time.Duration {
	if t.state != TimerRunning {
		return 0
	}
	if d := t.deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}

// State returns the current lifecycle state
func (t *LotTimer) State() TimerState { return t.state }

// Deadline returns the instant after which the lot expires
func (t *LotTimer) Deadline() time.Time { return t.deadline }

// Resets counts the bids that restarted the countdown since activation
func (t *LotTimer) Resets() int { return t.resets }

func (t *LotTimer) capped(deadline time.Time) time.Time {
	if t.ceiling <= 0 {
		return deadline
	}
	if hard := t.startedAt.Add(t.ceiling); deadline.After(hard) {
		return hard
	}
	return deadline
}
