package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vending-storefront-backend/internal/protocol"
)

func event(t *testing.T, raw string) protocol.Event {
	t.Helper()
	ev, err := protocol.DecodeEvent([]byte(raw))
	require.NoError(t, err)
	return ev
}

type toastRecorder struct {
	mu     sync.Mutex
	toasts []string
}

func (r *toastRecorder) record(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, text)
}

func (r *toastRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.toasts...)
}

func (r *toastRecorder) count(text string) int {
	n := 0
	for _, toast := range r.all() {
		if toast == text {
			n++
		}
	}
	return n
}

func TestFullVendFlow(t *testing.T) {
	s := New(Config{ToastDuration: 50 * time.Millisecond, CompleteDismiss: 20 * time.Millisecond})
	rec := &toastRecorder{}
	s.OnToast = rec.record

	assert.Equal(t, Idle, s.Snapshot().Phase)

	s.Apply(event(t, `{"type":"status","status":"vending","message":"Dispensing item 3"}`))
	snap := s.Snapshot()
	assert.Equal(t, Vending, snap.Phase)
	assert.True(t, snap.OverlayOpen)
	assert.Equal(t, "Dispensing item 3", snap.Toast)

	s.Apply(event(t, `{"type":"vend-complete","status":"idle","message":"Enjoy!","vendedItems":[3],"timestamp":"2026-08-30T12:00:00Z"}`))
	snap = s.Snapshot()
	assert.Equal(t, Complete, snap.Phase)
	assert.True(t, snap.OverlayOpen)
	assert.Equal(t, "Vending complete", snap.Toast)

	// The completion overlay auto-dismisses back to idle.
	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return snap.Phase == Idle && !snap.OverlayOpen
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, rec.count("Vending complete"))
}

func TestStrayIdleDoesNotPreemptCompleteOverlay(t *testing.T) {
	s := New(Config{CompleteDismiss: 40 * time.Millisecond})

	s.Apply(event(t, `{"type":"vend-complete","status":"idle","message":"done","vendedItems":[1]}`))
	s.Apply(event(t, `{"type":"status","status":"idle"}`))

	snap := s.Snapshot()
	assert.Equal(t, Complete, snap.Phase, "completion overlay is not pre-empted by a stray idle status")
	assert.True(t, snap.OverlayOpen)

	require.Eventually(t, func() bool { return s.Snapshot().Phase == Idle }, time.Second, 5*time.Millisecond)
}

func TestVendResponseFailureShowsToast(t *testing.T) {
	s := New(Config{})

	s.Apply(event(t, `{"type":"vend-response","success":false}`))
	snap := s.Snapshot()
	assert.Equal(t, Idle, snap.Phase)
	assert.False(t, snap.OverlayOpen)
	assert.Equal(t, "Machine busy", snap.Toast)

	s.Apply(event(t, `{"type":"vend-response","success":false,"message":"Slot 9 empty"}`))
	assert.Equal(t, "Slot 9 empty", s.Snapshot().Toast)
}

func TestVendResponseSuccessOpensOverlay(t *testing.T) {
	s := New(Config{})

	s.Apply(event(t, `{"type":"vend-response","success":true,"items":[4],"estimatedTime":7.5}`))
	snap := s.Snapshot()
	assert.Equal(t, Vending, snap.Phase)
	assert.True(t, snap.OverlayOpen)
}

func TestNewEventWinsDismissWindow(t *testing.T) {
	s := New(Config{CompleteDismiss: 30 * time.Millisecond})

	s.Apply(event(t, `{"type":"vend-complete","status":"idle","message":"done","vendedItems":[1]}`))
	s.Apply(event(t, `{"type":"status","status":"vending"}`))
	assert.Equal(t, Vending, s.Snapshot().Phase)

	// The stale dismiss timer must not fire the session back to idle.
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, Vending, s.Snapshot().Phase)
}

func TestToastAutoClears(t *testing.T) {
	s := New(Config{ToastDuration: 20 * time.Millisecond})

	s.Apply(event(t, `{"type":"status","status":"vending"}`))
	assert.NotEmpty(t, s.Snapshot().Toast)

	require.Eventually(t, func() bool { return s.Snapshot().Toast == "" }, time.Second, 5*time.Millisecond)
	assert.Equal(t, Vending, s.Snapshot().Phase, "toast expiry is independent of phase")
}

func TestNewerToastReplacesOlder(t *testing.T) {
	s := New(Config{ToastDuration: 40 * time.Millisecond})

	s.Apply(event(t, `{"type":"status","status":"vending","message":"first"}`))
	s.Apply(event(t, `{"type":"status","status":"vending","message":"second"}`))
	assert.Equal(t, "second", s.Snapshot().Toast)

	// The first toast's timer is stale and must not clear the second early.
	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, "second", s.Snapshot().Toast)
	require.Eventually(t, func() bool { return s.Snapshot().Toast == "" }, time.Second, 5*time.Millisecond)
}

func TestUnknownEventsNeverChangeState(t *testing.T) {
	s := New(Config{})

	s.Apply(event(t, `{"type":"firmware-update","progress":40}`))
	s.Apply(event(t, `{"type":"status","status":"defrosting"}`))

	snap := s.Snapshot()
	assert.Equal(t, Idle, snap.Phase)
	assert.False(t, snap.OverlayOpen)
	assert.Empty(t, snap.Toast)
}
