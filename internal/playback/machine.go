package playback

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wakebell/wakebell/internal/domain"
	"github.com/wakebell/wakebell/internal/logger"
)

// State of the playback machine.
type State int

const (
	Stopped State = iota
	Preparing
	Playing
	Paused
	Completed
	Error
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Preparing:
		return "preparing"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// duckFactor is applied to the session volume on a transient-duck loss.
const duckFactor = 0.2

// Output opens a content locator for playback.
type Output interface {
	Open(locator string) (Session, error)
}

// Session is one running playback. Done is closed exactly once when the
// media reaches its natural end; Stop never closes Done.
type Session interface {
	Start()
	Pause()
	Resume()
	SetVolume(v float64)
	Position() time.Duration
	Stop()
	Done() <-chan struct{}
}

// Status is an observable snapshot of the machine.
type Status struct {
	State    State
	Number   int
	Title    string
	Position time.Duration
	Volume   float64
	Err      string
}

// Machine drives one audio session through
// Stopped → Preparing → Playing ⇄ Paused, ending in Completed or Error.
// Every Play mints a session token; async prepare results carrying a
// stale token are discarded, so a Stop can never be overtaken by the
// open it interrupted.
type Machine struct {
	output Output
	focus  Arbiter
	logger logger.Logger

	mu            sync.Mutex
	state         State
	token         string
	session       Session
	item          *domain.ContentItem
	volume        float64
	duckedFrom    float64
	pausedByFocus bool
	lastErr       error

	onTransition func(Status)
}

func NewMachine(output Output, focus Arbiter, log logger.Logger) *Machine {
	m := &Machine{
		output: output,
		focus:  focus,
		logger: log,
		state:  Stopped,
	}
	focus.OnChange(m.HandleFocusChange)
	return m
}

// OnTransition registers the callback invoked after every state change.
func (m *Machine) OnTransition(fn func(Status)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onTransition = fn
}

// Play starts a new session for the item, stopping any active one first.
func (m *Machine) Play(item *domain.ContentItem, volume float64) error {
	if item == nil {
		return domain.ErrContentUnavailable
	}

	m.mu.Lock()
	m.stopSessionLocked()

	if !m.focus.Request(PriorityAlarm) {
		m.state = Error
		m.lastErr = domain.ErrFocusDenied
		m.item = item
		m.notifyLocked()
		m.mu.Unlock()
		return domain.ErrFocusDenied
	}

	token := uuid.NewString()
	m.token = token
	m.state = Preparing
	m.item = item
	m.volume = volume
	m.duckedFrom = 0
	m.pausedByFocus = false
	m.lastErr = nil
	m.notifyLocked()
	m.mu.Unlock()

	go m.prepare(token, item, volume)
	return nil
}

// prepare opens the output off the dispatch path. The token guards
// against a Stop or a newer Play that happened while opening.
func (m *Machine) prepare(token string, item *domain.ContentItem, volume float64) {
	session, err := m.output.Open(item.Locator)

	m.mu.Lock()
	if m.token != token {
		m.mu.Unlock()
		if session != nil {
			session.Stop()
		}
		m.logger.Debug("discarding stale prepare result",
			logger.Int("number", item.Number))
		return
	}

	if err != nil {
		m.state = Error
		m.lastErr = fmt.Errorf("%w: %v", domain.ErrPlaybackOpenFailed, err)
		m.token = ""
		m.focus.Release()
		m.notifyLocked()
		m.mu.Unlock()
		m.logger.Error("failed to open playback source",
			logger.Int("number", item.Number),
			logger.String("locator", item.Locator),
			logger.Error(err))
		return
	}

	m.session = session
	m.state = Playing
	session.SetVolume(volume)
	session.Start()
	m.notifyLocked()
	m.mu.Unlock()

	m.logger.Info("playback started",
		logger.Int("number", item.Number),
		logger.String("title", item.Title))

	go m.watchCompletion(token, session.Done())
}

func (m *Machine) watchCompletion(token string, done <-chan struct{}) {
	<-done
	m.handleComplete(token)
}

// handleComplete moves a naturally finished session to Completed.
func (m *Machine) handleComplete(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != token || (m.state != Playing && m.state != Paused) {
		return
	}

	m.state = Completed
	m.token = ""
	m.session = nil
	m.focus.Release()
	m.notifyLocked()

	m.logger.Info("playback completed",
		logger.Int("number", m.item.Number))
}

// Pause pauses an active session. No-op outside Playing.
func (m *Machine) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Playing {
		return
	}
	m.session.Pause()
	m.state = Paused
	m.notifyLocked()
}

// Resume continues a paused session. No-op outside Paused.
func (m *Machine) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Paused {
		return
	}
	m.session.Resume()
	m.state = Playing
	m.pausedByFocus = false
	m.notifyLocked()
}

// Stop is valid from any state: tears down the session, releases focus
// and resets position tracking.
func (m *Machine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := m.state != Stopped
	m.stopSessionLocked()
	m.state = Stopped
	m.lastErr = nil
	if changed {
		m.notifyLocked()
	}
}

// Ack acknowledges a terminal Completed/Error state back to Stopped.
func (m *Machine) Ack() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Completed && m.state != Error {
		return
	}
	m.state = Stopped
	m.lastErr = nil
	m.item = nil
	m.notifyLocked()
}

// SetVolume adjusts the session volume in place. Never transitions state.
func (m *Machine) SetVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.volume = v
	m.duckedFrom = 0
	if m.session != nil {
		m.session.SetVolume(v)
	}
}

// HandleFocusChange applies an external focus change:
// permanent loss stops, transient pauses, duck only lowers volume.
func (m *Machine) HandleFocusChange(kind domain.FocusChangeKind) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch kind {
	case domain.FocusLostPermanent:
		if m.state == Stopped {
			return
		}
		m.stopSessionLocked()
		m.state = Stopped
		m.notifyLocked()

	case domain.FocusLostTransient:
		if m.state != Playing {
			return
		}
		m.session.Pause()
		m.state = Paused
		m.pausedByFocus = true
		m.notifyLocked()

	case domain.FocusLostTransientDuck:
		if m.session == nil || m.duckedFrom != 0 {
			return
		}
		m.duckedFrom = m.volume
		m.volume = m.volume * duckFactor
		m.session.SetVolume(m.volume)

	case domain.FocusRegained:
		if m.duckedFrom != 0 {
			m.volume = m.duckedFrom
			m.duckedFrom = 0
			if m.session != nil {
				m.session.SetVolume(m.volume)
			}
		}
		if m.state == Paused && m.pausedByFocus {
			m.session.Resume()
			m.state = Playing
			m.pausedByFocus = false
			m.notifyLocked()
		}
	}
}

// Status returns an observable snapshot. Reading it never transitions state.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.statusLocked()
}

func (m *Machine) statusLocked() Status {
	st := Status{
		State:  m.state,
		Volume: m.volume,
	}
	if m.item != nil {
		st.Number = m.item.Number
		st.Title = m.item.Title
	}
	if m.session != nil {
		st.Position = m.session.Position()
	}
	if m.lastErr != nil {
		st.Err = m.lastErr.Error()
	}
	return st
}

// stopSessionLocked tears down any active session and releases focus.
func (m *Machine) stopSessionLocked() {
	m.token = ""
	if m.session != nil {
		m.session.Stop()
		m.session = nil
	}
	if m.state != Stopped && m.state != Completed && m.state != Error {
		m.focus.Release()
	}
	m.duckedFrom = 0
	m.pausedByFocus = false
}

func (m *Machine) notifyLocked() {
	if m.onTransition != nil {
		m.onTransition(m.statusLocked())
	}
}
