package playback

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wakebell/wakebell/internal/domain"
	"github.com/wakebell/wakebell/internal/logger"
)

// fakeSession records control calls and lets tests finish the media.
type fakeSession struct {
	mu      sync.Mutex
	started bool
	paused  bool
	stopped bool
	volume  float64
	done    chan struct{}
}

func newFakeSession() *fakeSession {
	return &fakeSession{done: make(chan struct{})}
}

func (s *fakeSession) Start() { s.mu.Lock(); s.started = true; s.mu.Unlock() }
func (s *fakeSession) Pause() { s.mu.Lock(); s.paused = true; s.mu.Unlock() }
func (s *fakeSession) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
}
func (s *fakeSession) SetVolume(v float64)     { s.mu.Lock(); s.volume = v; s.mu.Unlock() }
func (s *fakeSession) Position() time.Duration { return 0 }
func (s *fakeSession) Stop()                   { s.mu.Lock(); s.stopped = true; s.mu.Unlock() }
func (s *fakeSession) Done() <-chan struct{}   { return s.done }

func (s *fakeSession) finish() { close(s.done) }

func (s *fakeSession) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *fakeSession) getVolume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// fakeOutput serves canned sessions; Open blocks while hold is set.
type fakeOutput struct {
	mu      sync.Mutex
	session *fakeSession
	err     error
	hold    chan struct{}
	opened  []string
}

func (o *fakeOutput) Open(locator string) (Session, error) {
	o.mu.Lock()
	hold := o.hold
	o.opened = append(o.opened, locator)
	session, err := o.session, o.err
	o.mu.Unlock()

	if hold != nil {
		<-hold
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func item(n int) *domain.ContentItem {
	return &domain.ContentItem{
		Number:    n,
		Title:     "passage",
		Locator:   "/audio/passage.wav",
		Available: true,
	}
}

func newTestMachine(output Output) (*Machine, *LocalArbiter) {
	arbiter := NewLocalArbiter(logger.New("error", false))
	return NewMachine(output, arbiter, logger.New("error", false)), arbiter
}

func waitState(t *testing.T, m *Machine, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.Status().State == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("state = %v, want %v", m.Status().State, want)
}

func TestPlayReachesPlaying(t *testing.T) {
	session := newFakeSession()
	output := &fakeOutput{session: session}
	m, arbiter := newTestMachine(output)

	if err := m.Play(item(1), 0.8); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	waitState(t, m, Playing)

	if !arbiter.Held() {
		t.Error("focus not held while playing")
	}
	if session.getVolume() != 0.8 {
		t.Errorf("session volume = %v, want 0.8", session.getVolume())
	}
	if st := m.Status(); st.Number != 1 {
		t.Errorf("status item = %d, want 1", st.Number)
	}
}

func TestPlayOpenFailure(t *testing.T) {
	output := &fakeOutput{err: errors.New("no such device")}
	m, arbiter := newTestMachine(output)

	if err := m.Play(item(1), 1); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	waitState(t, m, Error)

	if arbiter.Held() {
		t.Error("focus still held after open failure")
	}
	if st := m.Status(); st.Err == "" {
		t.Error("status should carry the open error")
	}

	// Ack returns to Stopped.
	m.Ack()
	if st := m.Status(); st.State != Stopped {
		t.Errorf("state after Ack = %v, want Stopped", st.State)
	}
}

func TestPlayFocusDenied(t *testing.T) {
	output := &fakeOutput{session: newFakeSession()}
	m, arbiter := newTestMachine(output)

	// Something else owns the output at alarm priority already.
	if !arbiter.Request(PriorityAlarm) {
		t.Fatal("priming focus request failed")
	}

	err := m.Play(item(1), 1)
	if !errors.Is(err, domain.ErrFocusDenied) {
		t.Fatalf("Play = %v, want ErrFocusDenied", err)
	}
	if st := m.Status(); st.State != Error {
		t.Errorf("state = %v, want Error", st.State)
	}
	if len(output.opened) != 0 {
		t.Error("output opened despite denied focus")
	}
}

func TestStopDiscardsStalePrepare(t *testing.T) {
	session := newFakeSession()
	hold := make(chan struct{})
	output := &fakeOutput{session: session, hold: hold}
	m, _ := newTestMachine(output)

	if err := m.Play(item(1), 1); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	waitState(t, m, Preparing)

	m.Stop()
	close(hold) // the open completes after the stop

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && !session.isStopped() {
		time.Sleep(time.Millisecond)
	}
	if !session.isStopped() {
		t.Fatal("stale session was not torn down")
	}
	if st := m.Status(); st.State != Stopped {
		t.Errorf("state = %v, stale prepare must not resurrect playback", st.State)
	}
}

func TestPauseResumeCycle(t *testing.T) {
	session := newFakeSession()
	output := &fakeOutput{session: session}
	m, _ := newTestMachine(output)

	// No-ops before anything plays.
	m.Pause()
	m.Resume()
	if st := m.Status(); st.State != Stopped {
		t.Fatalf("state = %v, want Stopped", st.State)
	}

	if err := m.Play(item(1), 1); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	waitState(t, m, Playing)

	m.Pause()
	if st := m.Status(); st.State != Paused {
		t.Fatalf("state after Pause = %v, want Paused", st.State)
	}
	m.Pause() // no-op
	m.Resume()
	if st := m.Status(); st.State != Playing {
		t.Fatalf("state after Resume = %v, want Playing", st.State)
	}
}

func TestNaturalCompletion(t *testing.T) {
	session := newFakeSession()
	output := &fakeOutput{session: session}
	m, arbiter := newTestMachine(output)

	if err := m.Play(item(4), 1); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	waitState(t, m, Playing)

	session.finish()
	waitState(t, m, Completed)

	if arbiter.Held() {
		t.Error("focus still held after completion")
	}
}

func TestFocusChangeTransitions(t *testing.T) {
	session := newFakeSession()
	output := &fakeOutput{session: session}
	m, arbiter := newTestMachine(output)

	if err := m.Play(item(1), 1.0); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	waitState(t, m, Playing)

	// Duck lowers volume without leaving Playing.
	arbiter.Inject(domain.FocusLostTransientDuck)
	if st := m.Status(); st.State != Playing {
		t.Fatalf("state after duck = %v, want Playing", st.State)
	}
	if v := session.getVolume(); v >= 1.0 {
		t.Errorf("volume after duck = %v, want lowered", v)
	}

	// Regain restores the original volume.
	arbiter.Inject(domain.FocusRegained)
	if v := session.getVolume(); v != 1.0 {
		t.Errorf("volume after regain = %v, want 1.0", v)
	}

	// Transient loss pauses, regain resumes.
	arbiter.Inject(domain.FocusLostTransient)
	if st := m.Status(); st.State != Paused {
		t.Fatalf("state after transient loss = %v, want Paused", st.State)
	}
	arbiter.Inject(domain.FocusRegained)
	if st := m.Status(); st.State != Playing {
		t.Fatalf("state after regain = %v, want Playing", st.State)
	}

	// Permanent loss stops.
	arbiter.Inject(domain.FocusLostPermanent)
	if st := m.Status(); st.State != Stopped {
		t.Fatalf("state after permanent loss = %v, want Stopped", st.State)
	}
	if !session.isStopped() {
		t.Error("session not torn down on permanent loss")
	}
}

func TestPlayReplacesActiveSession(t *testing.T) {
	first := newFakeSession()
	output := &fakeOutput{session: first}
	m, _ := newTestMachine(output)

	if err := m.Play(item(1), 1); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	waitState(t, m, Playing)

	second := newFakeSession()
	output.mu.Lock()
	output.session = second
	output.mu.Unlock()

	if err := m.Play(item(2), 1); err != nil {
		t.Fatalf("second Play failed: %v", err)
	}
	waitState(t, m, Playing)

	if !first.isStopped() {
		t.Error("previous session not stopped by new Play")
	}
	if st := m.Status(); st.Number != 2 {
		t.Errorf("status item = %d, want 2", st.Number)
	}
}
