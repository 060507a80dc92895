package delta

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wilhelmsk/core/internal/domain/entities"
	"github.com/wilhelmsk/core/internal/infrastructure/logger"
	"github.com/wilhelmsk/core/internal/infrastructure/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Stream forwards every delta on the bus to websocket clients as JSON text
// frames. Each client gets a bounded queue; frames for a full queue are
// dropped.
type Stream struct {
	bus       *Bus
	upgrader  websocket.Upgrader
	queueSize int
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

// NewStream creates a stream bound to bus
func NewStream(bus *Bus, queueSize int, log *logger.Logger, m *metrics.Metrics) *Stream {
	return &Stream{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		queueSize: queueSize,
		logger:    log.WithComponent("stream"),
		metrics:   m,
	}
}

type client struct {
	id      string
	queue   chan []byte
	metrics *metrics.Metrics
}

func (c *client) HandleDelta(delta entities.Delta) {
	payload, err := json.Marshal(delta)
	if err != nil {
		return
	}
	select {
	case c.queue <- payload:
	default:
		c.metrics.DeltaDropped()
	}
}

// Serve upgrades the request and streams deltas until the client goes away
func (s *Stream) Serve(w http.ResponseWriter, r *http.Request) error {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{
		id:      uuid.NewString(),
		queue:   make(chan []byte, s.queueSize),
		metrics: s.metrics,
	}
	unsubscribe := s.bus.Subscribe(c.id, c)
	s.metrics.SubscriberAdded()
	log := s.logger.WithFields("subscriber", c.id, "remote", r.RemoteAddr)
	log.Infow("Stream subscriber connected")

	done := make(chan struct{})
	go s.readLoop(ws, done)
	s.writeLoop(ws, c, done, log)

	unsubscribe()
	s.metrics.SubscriberRemoved()
	ws.Close()
	log.Infow("Stream subscriber disconnected")
	return nil
}

// readLoop discards client frames and closes done when the peer goes away
func (s *Stream) readLoop(ws *websocket.Conn, done chan struct{}) {
	defer close(done)
	ws.SetReadLimit(4096)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Stream) writeLoop(ws *websocket.Conn, c *client, done chan struct{}, log *logger.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.queue:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debugw("Stream write failed", "error", err)
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
