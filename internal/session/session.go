// Package session implements the client-side vend state machine: a pure
// consumer of the relay's event stream that maintains the UI-facing view
// (idle / vending / complete, transient toast, overlay). It tolerates the
// loss, duplication, and reordering a reconnecting transport can produce.
package session

import (
	"sync"
	"time"

	"vending-storefront-backend/internal/protocol"
)

// Phase is the coarse vend state shown to the user.
type Phase int

const (
	Idle Phase = iota
	Vending
	Complete
)

func (p Phase) String() string {
	switch p {
	case Vending:
		return "vending"
	case Complete:
		return "complete"
	default:
		return "idle"
	}
}

// Default timer durations.
const (
	DefaultToastDuration   = 2500 * time.Millisecond
	DefaultCompleteDismiss = 1500 * time.Millisecond
)

// Config adjusts the two auto-dismiss timers.
type Config struct {
	ToastDuration   time.Duration
	CompleteDismiss time.Duration
}

// Snapshot is a consistent point-in-time view of the session.
type Snapshot struct {
	Phase       Phase
	Toast       string
	OverlayOpen bool
}

// Session holds one browser tab's vend state. Every mutation bumps a
// generation counter; timers capture the generation at arm time and no-op if
// a newer event landed first, so the newest event always wins the race
// between the complete-dismiss window and fresh status frames.
type Session struct {
	mu       sync.Mutex
	phase    Phase
	toast    string
	overlay  bool
	gen      uint64
	toastGen uint64
	cfg      Config

	// OnChange, when set, observes every snapshot after a mutation.
	// OnToast observes each newly raised toast. Neither is called with
	// the lock held.
	OnChange func(Snapshot)
	OnToast  func(string)
}

// New creates an idle session.
func New(cfg Config) *Session {
	if cfg.ToastDuration <= 0 {
		cfg.ToastDuration = DefaultToastDuration
	}
	if cfg.CompleteDismiss <= 0 {
		cfg.CompleteDismiss = DefaultCompleteDismiss
	}
	return &Session{cfg: cfg}
}

// Snapshot returns the current view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Phase: s.phase, Toast: s.toast, OverlayOpen: s.overlay}
}

// Apply feeds one inbound event through the state machine. Unrecognized
// events never change state.
func (s *Session) Apply(ev protocol.Event) {
	s.mu.Lock()

	var changed bool
	var toast string
	var toastRaised bool
	var scheduleDismiss bool

	switch e := ev.(type) {
	case protocol.StatusEvent:
		switch e.Status {
		case "vending":
			s.phase = Vending
			s.overlay = true
			toast = e.Message
			if toast == "" {
				toast = "Vending in progress"
			}
			toastRaised = true
			changed = true
		case "idle":
			// A completion overlay in its dismiss window takes priority
			// over a stray idle status.
			if s.phase != Complete {
				s.phase = Idle
				s.overlay = false
				s.clearToastLocked()
				changed = true
			}
		}
	case protocol.VendResponseEvent:
		if e.Success {
			s.phase = Vending
			s.overlay = true
			changed = true
		} else {
			s.phase = Idle
			s.overlay = false
			toast = e.Message
			if toast == "" {
				toast = "Machine busy"
			}
			toastRaised = true
			changed = true
		}
	case protocol.VendCompleteEvent:
		s.phase = Complete
		s.overlay = true
		toast = "Vending complete"
		toastRaised = true
		changed = true
		scheduleDismiss = true
	}

	if !changed {
		s.mu.Unlock()
		return
	}

	if toastRaised {
		s.raiseToastLocked(toast)
	}
	s.gen++
	if scheduleDismiss {
		gen := s.gen
		time.AfterFunc(s.cfg.CompleteDismiss, func() { s.dismissComplete(gen) })
	}
	snap := Snapshot{Phase: s.phase, Toast: s.toast, OverlayOpen: s.overlay}
	s.mu.Unlock()

	s.notify(snap)
	if toastRaised && s.OnToast != nil {
		s.OnToast(toast)
	}
}

// dismissComplete closes the completion overlay unless a newer event already
// moved the session on.
func (s *Session) dismissComplete(gen uint64) {
	s.mu.Lock()
	if s.gen != gen || s.phase != Complete {
		s.mu.Unlock()
		return
	}
	s.phase = Idle
	s.overlay = false
	s.gen++
	snap := Snapshot{Phase: s.phase, Toast: s.toast, OverlayOpen: s.overlay}
	s.mu.Unlock()

	s.notify(snap)
}

// raiseToastLocked replaces the visible toast and restarts its clear timer.
func (s *Session) raiseToastLocked(text string) {
	s.toast = text
	s.toastGen++
	gen := s.toastGen
	time.AfterFunc(s.cfg.ToastDuration, func() { s.expireToast(gen) })
}

func (s *Session) clearToastLocked() {
	s.toast = ""
	s.toastGen++
}

func (s *Session) expireToast(gen uint64) {
	s.mu.Lock()
	if s.toastGen != gen {
		// Replaced by a newer toast first.
		s.mu.Unlock()
		return
	}
	s.toast = ""
	snap := Snapshot{Phase: s.phase, Toast: s.toast, OverlayOpen: s.overlay}
	s.mu.Unlock()

	s.notify(snap)
}

func (s *Session) notify(snap Snapshot) {
	if s.OnChange != nil {
		s.OnChange(snap)
	}
}
