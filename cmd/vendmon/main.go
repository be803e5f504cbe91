// vendmon is a terminal client for the relay: it dials the /ws endpoint,
// runs the same vend state machine a browser tab runs, and logs every state
// transition. Useful for watching a machine without a browser.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"vending-storefront-backend/internal/protocol"
	"vending-storefront-backend/internal/session"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	url := flag.String("url", "ws://localhost:8080/ws", "relay websocket endpoint")
	reconnect := flag.Duration("reconnect", 1500*time.Millisecond, "delay before redialing a lost relay connection")
	flag.Parse()

	sess := session.New(session.Config{})
	sess.OnChange = func(snap session.Snapshot) {
		log.Info().
			Str("phase", snap.Phase.String()).
			Bool("overlay", snap.OverlayOpen).
			Str("toast", snap.Toast).
			Msg("state")
	}
	sess.OnToast = func(text string) {
		log.Info().Str("toast", text).Msg("toast")
	}

	quit := make(chan struct{})
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		close(quit)
	}()

	for {
		watch(*url, sess, quit)
		select {
		case <-quit:
			log.Info().Msg("vendmon exiting")
			return
		case <-time.After(*reconnect):
		}
	}
}

// watch runs one relay connection until it drops or quit closes.
func watch(url string, sess *session.Session, quit <-chan struct{}) {
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("relay dial failed")
		return
	}
	defer conn.Close()
	log.Info().Str("url", url).Msg("connected to relay")

	connDone := make(chan struct{})
	defer close(connDone)
	go func() {
		select {
		case <-quit:
			conn.Close()
		case <-connDone:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-quit:
			default:
				log.Warn().Err(err).Msg("relay connection lost")
			}
			return
		}
		ev, err := protocol.DecodeEvent(data)
		if err != nil {
			log.Debug().Err(err).Msg("dropping malformed frame")
			continue
		}
		if ev.Kind() == protocol.KindBackendStatus {
			log.Info().Msg("relay acknowledged connection")
			continue
		}
		sess.Apply(ev)
	}
}
