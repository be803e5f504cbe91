package relay

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"vending-storefront-backend/internal/metrics"
	"vending-storefront-backend/internal/protocol"
)

// ErrNotConnected is returned by Send while the VMC link is down. Callers
// enqueue the command and rely on the drain-on-reconnect flush.
var ErrNotConnected = errors.New("upstream not connected")

// LinkState is the coarse lifecycle of the single VMC connection.
type LinkState int

const (
	Disconnected LinkState = iota
	Connecting
	Connected
)

func (s LinkState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Upstream owns the one outbound websocket to the vending-machine
// controller. All state mutations happen under mu; the invariants are at
// most one live socket and at most one armed reconnect timer, no matter how
// many goroutines call EnsureConnected concurrently.
type Upstream struct {
	endpoint string
	backoff  time.Duration

	// dial is swapped out in tests.
	dial func() (*websocket.Conn, error)

	onUp    func()
	onEvent func(protocol.Event)

	mu             sync.Mutex
	state          LinkState
	conn           *websocket.Conn
	reconnectArmed bool
	closed         bool

	// Serializes writes; gorilla connections allow one concurrent writer.
	writeMu sync.Mutex
}

// NewUpstream creates the link manager. onUp fires after every successful
// (re)connect, before the read loop starts consuming; onEvent receives each
// decoded inbound frame.
func NewUpstream(endpoint string, backoff, handshakeTimeout time.Duration, onUp func(), onEvent func(protocol.Event)) *Upstream {
	dialer := &websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	u := &Upstream{
		endpoint: endpoint,
		backoff:  backoff,
		onUp:     onUp,
		onEvent:  onEvent,
	}
	u.dial = func() (*websocket.Conn, error) {
		conn, resp, err := dialer.Dial(endpoint, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return conn, err
	}
	return u
}

// State reports the current link state.
func (u *Upstream) State() LinkState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Connected reports whether the link is currently up.
func (u *Upstream) Connected() bool {
	return u.State() == Connected
}

// EnsureConnected opens the link if it is fully down. Idempotent: while the
// link is up, a dial is in flight, or a reconnect timer is armed, the call
// is a no-op. This bounds reconnect storms to one attempt per backoff
// interval regardless of how many downstream events trigger it.
func (u *Upstream) EnsureConnected() {
	u.mu.Lock()
	if u.closed || u.state != Disconnected || u.reconnectArmed {
		u.mu.Unlock()
		return
	}
	u.state = Connecting
	u.mu.Unlock()

	go u.connect()
}

func (u *Upstream) connect() {
	conn, err := u.dial()
	if err != nil {
		metrics.UpstreamReconnects.WithLabelValues("failure").Inc()
		log.Warn().Err(err).Str("endpoint", u.endpoint).Msg("vmc dial failed")
		u.mu.Lock()
		u.state = Disconnected
		if !u.closed {
			u.armReconnectLocked()
		}
		u.mu.Unlock()
		return
	}

	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		conn.Close()
		return
	}
	u.conn = conn
	u.state = Connected
	u.reconnectArmed = false
	u.mu.Unlock()

	metrics.UpstreamReconnects.WithLabelValues("success").Inc()
	metrics.UpstreamConnected.Set(1)
	log.Info().Str("endpoint", u.endpoint).Msg("vmc connected")

	if u.onUp != nil {
		u.onUp()
	}
	go u.readLoop(conn)
}

func (u *Upstream) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		ev, err := protocol.DecodeEvent(data)
		if err != nil {
			// Malformed frames must never take the relay down.
			log.Debug().Err(err).Msg("dropping malformed vmc frame")
			continue
		}
		if u.onEvent != nil {
			u.onEvent(ev)
		}
	}
	u.lost(conn)
}

// lost tears down a dead connection and arms the reconnect timer. Identity
// guarded: a read loop outliving its socket cannot clobber a newer one.
func (u *Upstream) lost(conn *websocket.Conn) {
	u.mu.Lock()
	if u.conn != conn {
		u.mu.Unlock()
		conn.Close()
		return
	}
	u.conn = nil
	u.state = Disconnected
	conn.Close()
	if !u.closed {
		u.armReconnectLocked()
	}
	u.mu.Unlock()

	metrics.UpstreamConnected.Set(0)
	log.Warn().Str("endpoint", u.endpoint).Msg("vmc connection lost")
}

// armReconnectLocked schedules exactly one retry. Callers hold mu.
func (u *Upstream) armReconnectLocked() {
	if u.reconnectArmed {
		return
	}
	u.reconnectArmed = true
	time.AfterFunc(u.backoff, func() {
		u.mu.Lock()
		u.reconnectArmed = false
		u.mu.Unlock()
		u.EnsureConnected()
	})
}

// Send serializes the command and writes it on the live connection. Returns
// ErrNotConnected while the link is down; a write failure tears the link
// down (triggering reconnect) and is reported to the caller, who enqueues.
func (u *Upstream) Send(cmd protocol.Command) error {
	u.mu.Lock()
	conn := u.conn
	connected := u.state == Connected
	u.mu.Unlock()
	if !connected || conn == nil {
		return ErrNotConnected
	}

	frame, err := cmd.Encode()
	if err != nil {
		return err
	}

	u.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, frame)
	u.writeMu.Unlock()
	if err != nil {
		u.lost(conn)
		return err
	}
	return nil
}

// Close shuts the link down for good; no further reconnects are scheduled.
func (u *Upstream) Close() {
	u.mu.Lock()
	u.closed = true
	conn := u.conn
	u.conn = nil
	u.state = Disconnected
	u.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	metrics.UpstreamConnected.Set(0)
}
