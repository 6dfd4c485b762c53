package playback

import (
	"sync"

	"github.com/wakebell/wakebell/internal/domain"
	"github.com/wakebell/wakebell/internal/logger"
)

// Priority orders competing focus requests. An alarm must be able to
// take the output from anything lower.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityAlarm
)

// Arbiter owns the single audio output. At most one holder at a time;
// focus changes reach the current holder through the registered callback.
type Arbiter interface {
	Request(p Priority) bool
	Release()
	OnChange(fn func(domain.FocusChangeKind))
	Inject(kind domain.FocusChangeKind)
}

// LocalArbiter is the in-process Arbiter for a daemon that is the only
// audio producer on the box. External interruptions (another process
// grabbing the device) are injected as events via Inject.
type LocalArbiter struct {
	mu       sync.Mutex
	held     bool
	priority Priority
	onChange func(domain.FocusChangeKind)
	logger   logger.Logger
}

func NewLocalArbiter(log logger.Logger) *LocalArbiter {
	return &LocalArbiter{logger: log}
}

// Request asks for the output. A free output is always granted; a held
// one is granted only to a strictly higher priority, in which case the
// previous holder is told the loss is permanent.
func (a *LocalArbiter) Request(p Priority) bool {
	a.mu.Lock()

	if a.held && p <= a.priority {
		a.mu.Unlock()
		a.logger.Debug("focus request denied",
			logger.Int("priority", int(p)),
			logger.Int("holder_priority", int(a.priority)))
		return false
	}

	preempted := a.held
	notify := a.onChange
	a.held = true
	a.priority = p
	a.mu.Unlock()

	if preempted && notify != nil {
		// The holder's callback takes its own locks and may call back
		// into the arbiter; never run it on the requester's goroutine.
		go notify(domain.FocusLostPermanent)
	}
	return true
}

// Release frees the output. Safe to call when not held.
func (a *LocalArbiter) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.held = false
	a.priority = PriorityNormal
}

// OnChange registers the callback invoked on focus changes.
func (a *LocalArbiter) OnChange(fn func(domain.FocusChangeKind)) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.onChange = fn
}

// Inject delivers an externally observed focus change to the holder.
func (a *LocalArbiter) Inject(kind domain.FocusChangeKind) {
	a.mu.Lock()
	held := a.held
	notify := a.onChange
	if kind == domain.FocusLostPermanent {
		a.held = false
		a.priority = PriorityNormal
	}
	a.mu.Unlock()

	if !held || notify == nil {
		return
	}
	notify(kind)
}

// Held reports whether the output currently has an owner.
func (a *LocalArbiter) Held() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.held
}
