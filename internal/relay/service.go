// Package relay mediates between browser clients and the single
// vending-machine-controller connection: it owns the upstream link, buffers
// commands while the controller is unreachable, and fans every controller
// event out through the broadcast hub.
package relay

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"vending-storefront-backend/internal/hub"
	"vending-storefront-backend/internal/metrics"
	"vending-storefront-backend/internal/protocol"
	"vending-storefront-backend/internal/store"
)

// ErrNoItems rejects a vend request with an empty slot list. The only error
// surfaced synchronously on the request path; everything else arrives via
// the broadcast stream.
var ErrNoItems = errors.New("vend request must include at least one item")

// Notifier dispatches a push notification to every subscriber. Optional.
type Notifier interface {
	Notify(title, body string)
}

// Service is the composition root of the relay: upstream link + command
// queue + broadcast hub, constructed once at process start and injected into
// the HTTP handlers.
type Service struct {
	upstream *Upstream
	queue    *Queue
	hub      *hub.Hub
	store    store.Store
	notifier Notifier

	ctx     context.Context
	everUp  atomic.Bool
	started atomic.Bool
}

// Options carries the upstream link parameters.
type Options struct {
	Endpoint         string
	ReconnectDelay   time.Duration
	HandshakeTimeout time.Duration
}

// New wires the relay together. store and notifier may be nil; event
// recording and push dispatch are then skipped.
func New(opts Options, h *hub.Hub, s store.Store, notifier Notifier) *Service {
	svc := &Service{
		queue:    NewQueue(),
		hub:      h,
		store:    s,
		notifier: notifier,
	}
	svc.upstream = NewUpstream(opts.Endpoint, opts.ReconnectDelay, opts.HandshakeTimeout, svc.onUpstreamUp, svc.onUpstreamEvent)
	return svc
}

// Start opens the upstream link and keeps it retrying until ctx is
// cancelled. Safe to call once.
func (s *Service) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	s.ctx = ctx
	s.upstream.EnsureConnected()
	go func() {
		<-ctx.Done()
		s.upstream.Close()
	}()
}

// Upstream exposes the link manager for health reporting.
func (s *Service) Upstream() *Upstream {
	return s.upstream
}

// QueueLen reports the number of buffered commands.
func (s *Service) QueueLen() int {
	return s.queue.Len()
}

// HandleClientConnect runs once per accepted browser connection: register
// with the hub, ack the client locally so the UI can tell "relay reachable"
// from "machine reachable", then probe the controller for current status.
func (s *Service) HandleClientConnect(c *hub.Client) {
	s.hub.Register(c)

	if frame, err := protocol.EncodeBackendStatus("connected"); err == nil {
		c.Send(frame)
	}

	s.upstream.EnsureConnected()
	s.sendOrEnqueue(protocol.StatusCommand())
}

// HandleVendRequest accepts a dispense request. The acceptance is
// synchronous; the vend outcome arrives later on the broadcast stream.
func (s *Service) HandleVendRequest(items []int) error {
	if len(items) == 0 {
		metrics.VendRequests.WithLabelValues("rejected").Inc()
		return ErrNoItems
	}

	s.upstream.EnsureConnected()
	if s.sendOrEnqueue(protocol.VendCommand(items)) {
		metrics.VendRequests.WithLabelValues("sent").Inc()
	} else {
		metrics.VendRequests.WithLabelValues("queued").Inc()
	}
	return nil
}

// sendOrEnqueue transmits immediately when the link is up, otherwise
// buffers for the drain-on-reconnect flush. Reports whether the command
// went out on the wire.
func (s *Service) sendOrEnqueue(cmd protocol.Command) bool {
	if err := s.upstream.Send(cmd); err != nil {
		s.queue.Enqueue(cmd)
		log.Debug().Str("command", cmd.Type).Int("depth", s.queue.Len()).Msg("command queued while vmc unreachable")
		return false
	}
	return true
}

// onUpstreamUp drains the queue on every transition into Connected. If the
// link dies mid-flush, the unsent tail is put back at the head so nothing is
// lost and FIFO order holds for the next flush.
func (s *Service) onUpstreamUp() {
	cmds := s.queue.Drain()
	for i, cmd := range cmds {
		if err := s.upstream.Send(cmd); err != nil {
			s.queue.Requeue(cmds[i:])
			log.Warn().Err(err).Int("remaining", len(cmds)-i).Msg("vmc link died mid-drain, requeued tail")
			return
		}
	}
	if len(cmds) > 0 {
		log.Info().Int("count", len(cmds)).Msg("drained command queue to vmc")
	}

	if s.everUp.Swap(true) && s.notifier != nil {
		s.notifier.Notify("Vending machine online", "The machine is reachable again.")
	}
}

// onUpstreamEvent forwards recognized controller frames to all browsers,
// then records the vend lifecycle and fires push notifications. Frames with
// an unknown type are dropped like malformed ones, and backend-status is a
// relay-originated type: a controller must not be able to spoof it.
func (s *Service) onUpstreamEvent(ev protocol.Event) {
	switch ev.Kind() {
	case protocol.KindUnknown:
		log.Debug().Msg("dropping unrecognized vmc event type")
		return
	case protocol.KindBackendStatus:
		log.Debug().Msg("dropping backend-status frame from vmc")
		return
	}
	s.hub.Broadcast(ev.Raw())

	switch e := ev.(type) {
	case protocol.VendResponseEvent:
		if e.Success {
			s.record(func(ctx context.Context) error {
				return s.store.OpenVendSession(ctx, e.Items, e.Message)
			})
		} else {
			s.record(func(ctx context.Context) error {
				return s.store.RecordRejectedVend(ctx, e.Items, e.Message)
			})
		}
	case protocol.VendCompleteEvent:
		s.record(func(ctx context.Context) error {
			return s.store.CompleteVendSession(ctx, e.VendedItems, e.Message)
		})
		if s.notifier != nil {
			s.notifier.Notify("Vending complete", e.Message)
		}
	}
}

func (s *Service) record(fn func(context.Context) error) {
	if s.store == nil {
		return
	}
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := fn(ctx); err != nil {
		log.Error().Err(err).Msg("failed to record vend event")
	}
}
