package relay

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gorilla/websocket"
)

// fakeVMC is an in-process controller endpoint: it accepts websocket
// upgrades, records every inbound command frame, and lets tests kill live
// connections or refuse new ones.
type fakeVMC struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader

	accepting atomic.Bool
	dials     atomic.Int32

	mu      sync.Mutex
	conns   []*websocket.Conn
	inbound chan []byte
}

func newFakeVMC(t *testing.T) *fakeVMC {
	t.Helper()
	v := &fakeVMC{inbound: make(chan []byte, 64)}
	v.accepting.Store(true)
	v.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !v.accepting.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		conn, err := v.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		v.dials.Add(1)
		v.mu.Lock()
		v.conns = append(v.conns, conn)
		v.mu.Unlock()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			v.inbound <- data
		}
	}))
	t.Cleanup(v.srv.Close)
	return v
}

func (v *fakeVMC) url() string {
	return "ws" + strings.TrimPrefix(v.srv.URL, "http")
}

// push writes one event frame on the most recent live connection.
func (v *fakeVMC) push(t *testing.T, frame string) {
	t.Helper()
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.conns) == 0 {
		t.Fatal("fake vmc has no live connection")
	}
	conn := v.conns[len(v.conns)-1]
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("fake vmc write: %v", err)
	}
}

// dropConns closes every live connection, simulating the controller
// rebooting.
func (v *fakeVMC) dropConns() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, conn := range v.conns {
		conn.Close()
	}
	v.conns = nil
}
