package sse

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quijoterun/tracker/internal/dependencies/clock"
	"github.com/quijoterun/tracker/internal/model"
	"github.com/quijoterun/tracker/internal/services/countdown"
)

// DefaultTickInterval is how often connected clients get a fresh countdown
const DefaultTickInterval = time.Second

// Observer is told when streams open and close
type Observer interface {
	StreamConnected()
	StreamDisconnected()
}

type nopObserver struct{}

func (nopObserver) StreamConnected()    {}
func (nopObserver) StreamDisconnected() {}

// Hub manages the SSE clients viewing one event. While at least one client
// is connected it pushes the countdown to the event date every tick.
type Hub struct {
	eventID  model.EventID
	clients  map[*Client]bool
	mu       sync.RWMutex
	logger   *slog.Logger
	clock    clock.Clock
	interval time.Duration
	renderer *Renderer
	observer Observer

	targetMu sync.RWMutex
	target   time.Time
	ticking  atomic.Bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	closeOnce  sync.Once
}

func newHub(eventID model.EventID, target time.Time, m *HubManager) *Hub {
	return &Hub{
		eventID:    eventID,
		clients:    make(map[*Client]bool),
		logger:     m.logger.With(slog.String("event", string(eventID))),
		clock:      m.clock,
		interval:   m.interval,
		renderer:   m.renderer,
		observer:   m.observer,
		target:     target,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	var ticker *time.Ticker
	var tickC <-chan time.Time
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			tickC = nil
			h.ticking.Store(false)
		}
	}
	defer stopTicker()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.observer.StreamConnected()
			if ticker == nil {
				ticker = time.NewTicker(h.interval)
				tickC = ticker.C
				h.ticking.Store(true)
			}
			h.logger.Debug("sse client registered",
				slog.String("user_id", string(client.userID)),
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				close(client.send)
			}
			clientCount := len(h.clients)
			h.mu.Unlock()
			if !ok {
				continue
			}
			h.observer.StreamDisconnected()
			if clientCount == 0 {
				stopTicker()
			}
			h.logger.Debug("sse client unregistered",
				slog.String("user_id", string(client.userID)),
				slog.Duration("connection_duration", time.Since(client.connectedAt)),
				slog.Int("total_clients", clientCount))

		case message := <-h.broadcast:
			h.send(message)

		case <-tickC:
			h.tick()

		case <-h.done:
			h.mu.Lock()
			clientCount := len(h.clients)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
				h.observer.StreamDisconnected()
			}
			h.mu.Unlock()
			h.logger.Debug("sse hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

func (h *Hub) send(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	dropped := 0
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("sse messages dropped - client buffers full", slog.Int("dropped", dropped))
	}
}

func (h *Hub) tick() {
	remaining := countdown.Until(h.clock.Now(), h.Target())
	html, err := h.renderer.RenderCountdown(context.Background(), h.eventID, remaining)
	if err != nil {
		h.logger.Error("sse failed to render countdown", slog.Any("error", err))
		return
	}
	h.send(formatSSEMessage(EventCountdown, html))
}

// Register adds a client to the hub. It returns false if the hub has been closed.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast sends a message to all clients
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("sse broadcast dropped - hub buffer full")
	}
}

// BroadcastEvent sends an SSE event with a name and data
func (h *Hub) BroadcastEvent(eventName, data string) {
	h.Broadcast(formatSSEMessage(eventName, data))
}

// Close shuts down the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Done is closed once the hub has been shut down
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Ticking reports whether the countdown ticker is running
func (h *Hub) Ticking() bool {
	return h.ticking.Load()
}

// Target returns the instant the hub counts down to
func (h *Hub) Target() time.Time {
	h.targetMu.RLock()
	defer h.targetMu.RUnlock()
	return h.target
}

// SetTarget changes the instant the hub counts down to
func (h *Hub) SetTarget(t time.Time) {
	h.targetMu.Lock()
	defer h.targetMu.Unlock()
	h.target = t
}

// formatSSEMessage formats an SSE message with event name and data.
// Every line of data gets its own "data: " prefix.
func formatSSEMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(eventName)
	b.WriteByte('\n')
	for _, line := range splitLines(data) {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// splitLines splits s on LF or CRLF, dropping a trailing empty line
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

// HubManager manages one hub per event
type HubManager struct {
	hubs     map[model.EventID]*Hub
	mu       sync.Mutex
	logger   *slog.Logger
	clock    clock.Clock
	interval time.Duration
	renderer *Renderer
	observer Observer
}

// NewHubManager creates a new HubManager
func NewHubManager(clk clock.Clock, interval time.Duration, logger *slog.Logger) *HubManager {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &HubManager{
		hubs:     make(map[model.EventID]*Hub),
		logger:   logger.With(slog.String("component", "sse")),
		clock:    clk,
		interval: interval,
		renderer: NewRenderer(),
		observer: nopObserver{},
	}
}

// SetObserver sets the observer told about stream connections
func (m *HubManager) SetObserver(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o == nil {
		o = nopObserver{}
	}
	m.observer = o
}

// GetOrCreateHub returns the hub for an event, creating one if it doesn't
// exist. The hub counts down to target.
func (m *HubManager) GetOrCreateHub(eventID model.EventID, target time.Time) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[eventID]; ok {
		hub.SetTarget(target)
		return hub
	}

	hub := newHub(eventID, target, m)
	m.hubs[eventID] = hub
	go hub.Run()
	return hub
}

// GetHub returns the hub for an event, or nil if it doesn't exist
func (m *HubManager) GetHub(eventID model.EventID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hubs[eventID]
}

// Len returns the number of live hubs
func (m *HubManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hubs)
}

// RemoveHub removes and closes a hub
func (m *HubManager) RemoveHub(eventID model.EventID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[eventID]; ok {
		hub.Close()
		delete(m.hubs, eventID)
	}
}

// CleanupEmptyHubs removes hubs with no clients
func (m *HubManager) CleanupEmptyHubs() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, hub := range m.hubs {
		if hub.ClientCount() == 0 {
			hub.Close()
			delete(m.hubs, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Debug("sse empty hubs cleaned up", slog.Int("removed", removed))
	}
	return removed
}

// RunJanitor removes empty hubs every interval until ctx is done
func (m *HubManager) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CleanupEmptyHubs()
		}
	}
}

// Close shuts down every hub
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, id)
	}
}
