package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"vizor/internal/config"
	"vizor/internal/log"
	"vizor/internal/vis"
)

// wsWriteTimeout bounds one client write so a stalled browser cannot
// hold the broadcast lock across ticks.
const wsWriteTimeout = 50 * time.Millisecond

// wsFrame is the JSON payload broadcast per frame. It carries only
// the scalars: a browser host reproduces the particle layout itself
// from the shared scene seed, so the heavy attribute buffers stay off
// the text protocol.
type wsFrame struct {
	Seq           uint64  `json:"seq"`
	NowMS         int64   `json:"now_ms"`
	AvgEnergy     float64 `json:"avg_energy"`
	HighBand      float64 `json:"high_band"`
	Presence      float64 `json:"presence"`
	IdleFactor    float64 `json:"idle_factor"`
	BloomStrength float64 `json:"bloom_strength"`
	BloomRadius   float64 `json:"bloom_radius"`
	TrailDecay    float64 `json:"trail_decay"`
	CameraYaw     float64 `json:"camera_yaw"`
	Aspect        float64 `json:"aspect"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
}

// WSSink broadcasts frames to all connected WebSocket clients,
// rate-limited on the frame clock. Connection churn is handled here;
// the engine only ever sees Publish.
type WSSink struct {
	upgrader websocket.Upgrader
	server   *http.Server
	listener net.Listener

	mu      sync.Mutex
	clients map[*websocket.Conn]bool

	interval time.Duration
	lastSend time.Duration
	sent     uint64
}

var _ vis.Sink = (*WSSink)(nil)

// NewWSSink listens on cfg.WSAddress and serves the frame feed at
// /frames. The server runs in its own goroutine until Close.
func NewWSSink(cfg config.TransportConfig) (*WSSink, error) {
	s := &WSSink{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The feed is one-way telemetry, any origin may watch it.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:  make(map[*websocket.Conn]bool),
		interval: cfg.WSInterval.Std(),
		lastSend: -1 << 62,
	}

	ln, err := net.Listen("tcp", cfg.WSAddress)
	if err != nil {
		return nil, fmt.Errorf("websocket: listen on %q: %w", cfg.WSAddress, err)
	}
	s.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/frames", s.handleUpgrade)
	s.server = &http.Server{Handler: mux}

	go func() {
		log.Infof("websocket: serving frames on ws://%s/frames", ln.Addr())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("websocket: server error: %v", err)
		}
	}()

	return s, nil
}

// Addr returns the bound listen address, useful when the config asked
// for port 0.
func (s *WSSink) Addr() net.Addr { return s.listener.Addr() }

// Clients returns the current connection count.
func (s *WSSink) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Sent returns how many frames have been broadcast.
func (s *WSSink) Sent() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

func (s *WSSink) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("websocket: upgrade failed: %v", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	n := len(s.clients)
	s.mu.Unlock()
	log.Infof("websocket: client %s connected, %d total", conn.RemoteAddr(), n)

	// Drain the read side until the client goes away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		s.mu.Lock()
		delete(s.clients, conn)
		n := len(s.clients)
		s.mu.Unlock()
		conn.Close()
		log.Infof("websocket: client %s disconnected, %d total", conn.RemoteAddr(), n)
	}()
}

// Publish broadcasts the frame's scalars unless the rate limit says
// to skip. A skipped or clientless frame is not an error. Clients
// that fail their write are dropped on the spot.
func (s *WSSink) Publish(f *vis.Frame) error {
	if f.Now-s.lastSend < s.interval && f.Now >= s.lastSend {
		return nil
	}
	s.lastSend = f.Now

	payload := wsFrame{
		Seq:           f.Seq,
		NowMS:         f.Now.Milliseconds(),
		AvgEnergy:     f.Output.AvgEnergy,
		HighBand:      f.Output.HighBand,
		Presence:      f.Presence,
		IdleFactor:    f.IdleFactor,
		BloomStrength: f.Post.BloomStrength,
		BloomRadius:   f.Post.BloomRadius,
		TrailDecay:    f.Post.TrailDecay,
		CameraYaw:     f.CameraYaw,
		Aspect:        f.Aspect,
		Width:         f.Width,
		Height:        f.Height,
	}
	data, err := json.Marshal(&payload)
	if err != nil {
		return fmt.Errorf("websocket: marshal frame %d: %w", f.Seq, err)
	}

	s.mu.Lock()
	for conn := range s.clients {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(s.clients, conn)
			log.Warnf("websocket: dropping client %s: %v", conn.RemoteAddr(), err)
		}
	}
	s.sent++
	s.mu.Unlock()
	return nil
}

// Close disconnects every client and shuts the server down.
func (s *WSSink) Close() error {
	s.mu.Lock()
	for conn := range s.clients {
		conn.Close()
		delete(s.clients, conn)
	}
	s.mu.Unlock()
	return s.server.Close()
}
