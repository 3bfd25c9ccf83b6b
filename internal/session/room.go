package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/inamate/viewport-go/internal/engine"
	"github.com/inamate/inamate/viewport-go/internal/scrollbar"
)

// Room is one canvas and its connected clients. All engine access, including
// scrollbar repeat ticks, happens under mu, so the engine sees one event at a
// time in delivery order.
type Room struct {
	canvasID string

	mu     sync.Mutex
	engine *engine.Engine
	seq    int64
	// owner is the client whose slider or button gesture is in progress.
	owner string

	clientsMu sync.RWMutex
	clients   map[string]*Client // clientID -> client

	presence *PresenceManager
}

func newRoom(canvasID string) *Room {
	return &Room{
		canvasID: canvasID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
	}
}

// roomScheduler runs repeat ticks under the room lock.
type roomScheduler struct {
	room  *Room
	inner scrollbar.Scheduler
}

func (s roomScheduler) Every(d time.Duration, fn func()) func() {
	return s.inner.Every(d, func() {
		s.room.mu.Lock()
		defer s.room.mu.Unlock()
		fn()
	})
}

func (r *Room) CanvasID() string {
	return r.canvasID
}

// State returns the engine state.
func (r *Room) State() engine.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.State()
}

// WithEngine runs fn with exclusive access to the engine.
func (r *Room) WithEngine(fn func(e *engine.Engine) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.engine)
}

func (r *Room) ClientCount() int {
	r.clientsMu.RLock()
	defer r.clientsMu.RUnlock()
	return len(r.clients)
}

func (r *Room) addClient(c *Client) {
	r.clientsMu.Lock()
	r.clients[c.ClientID] = c
	r.clientsMu.Unlock()
}

// removeClient drops c and reports whether it was present.
func (r *Room) removeClient(c *Client) bool {
	r.clientsMu.Lock()
	defer r.clientsMu.Unlock()
	if _, ok := r.clients[c.ClientID]; !ok {
		return false
	}
	delete(r.clients, c.ClientID)
	close(c.send)
	return true
}

func (r *Room) broadcast(msg *Message, excludeClientID string) {
	msg.CanvasID = r.canvasID

	// Send never blocks; holding the read lock keeps removeClient from
	// closing a send channel mid-broadcast.
	r.clientsMu.RLock()
	defer r.clientsMu.RUnlock()
	for _, c := range r.clients {
		if c.ClientID != excludeClientID {
			c.Send(msg)
		}
	}
}

// viewBoxChanged is the engine observer; it runs with mu held.
func (r *Room) viewBoxChanged(change engine.ViewBoxChange) {
	msg, err := newMessage(TypeViewBoxChanged, change)
	if err != nil {
		slog.Error("marshal viewbox change", "error", err)
		return
	}
	r.seq++
	msg.Seq = r.seq
	r.broadcast(msg, "")
}

// errGestureBusy rejects a gesture while another one is in progress.
var errGestureBusy = fmt.Errorf("%w: another scrollbar gesture is in progress", scrollbar.ErrState)

// owns reports whether c holds the gesture in progress.
func (r *Room) owns(c *Client) bool {
	return r.owner != "" && r.owner == c.ClientID
}

// checkGestureFree allows one slider drag or button press per room at a time.
func (r *Room) checkGestureFree() error {
	if r.owner != "" {
		return errGestureBusy
	}
	return nil
}

// settleGesture clears the owner once both scrollbars are idle.
func (r *Room) settleGesture() {
	for _, o := range []scrollbar.Orientation{scrollbar.Horizontal, scrollbar.Vertical} {
		if r.engine.Scrollbar(o).State() != scrollbar.Idle {
			return
		}
	}
	r.owner = ""
}

// abandonGesture ends a gesture left open by a departing client.
func (r *Room) abandonGesture(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.owner != clientID {
		return
	}
	r.owner = ""
	if o, ok := r.engine.DraggingSlider(); ok {
		if err := r.engine.SliderCancel(o); err != nil {
			slog.Warn("cancel abandoned drag", "error", err, "canvas", r.canvasID)
		}
	}
	r.engine.ScrollButtonLeave(scrollbar.Horizontal)
	r.engine.ScrollButtonLeave(scrollbar.Vertical)
}

func (r *Room) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engine.Close()
}
