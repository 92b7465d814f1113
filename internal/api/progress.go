package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stashapp/stego/pkg/logger"
)

// progressBroker fans out validate progress messages to every
// connected websocket client, mirroring the SSE broker's
// map-of-channels broadcast shape but over a persistent socket instead
// of a one-shot event stream.
type progressBroker struct {
	mu      sync.RWMutex
	clients map[chan string]struct{}
}

func newProgressBroker() *progressBroker {
	return &progressBroker{clients: make(map[chan string]struct{})}
}

func (b *progressBroker) subscribe() chan string {
	ch := make(chan string, 16)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *progressBroker) unsubscribe(ch chan string) {
	b.mu.Lock()
	delete(b.clients, ch)
	b.mu.Unlock()
	close(ch)
}

func (b *progressBroker) publish(message string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- message:
		default:
			// Slow client; drop rather than block the publisher.
		}
	}
}

var progressUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// getProgressStream upgrades to a websocket and streams validate
// progress messages as they're published, until the client disconnects.
func (h *RESTHandler) getProgressStream(w http.ResponseWriter, r *http.Request) {
	conn, err := progressUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("api: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := h.progress.subscribe()
	defer h.progress.unsubscribe(ch)

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		case <-pingTicker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
