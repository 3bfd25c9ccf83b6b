package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/inamate/inamate/viewport-go/internal/engine"
	"github.com/inamate/inamate/viewport-go/internal/scrollbar"
)

var (
	ErrRoomExists   = errors.New("canvas already exists")
	ErrRoomNotFound = errors.New("canvas not found")
)

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // canvasID -> room
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	opts      engine.Options
	scheduler scrollbar.Scheduler
}

// NewHub creates a hub whose rooms build their engines from opts.
func NewHub(opts engine.Options) *Hub {
	sched := opts.Scheduler
	if sched == nil {
		sched = scrollbar.TickerScheduler{}
	}
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		opts:       opts,
		scheduler:  sched,
	}
}

// Run processes joins and leaves until ctx is cancelled or Stop is called.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			h.Stop()
			return
		case <-h.done:
			return
		}
	}
}

// Stop ends Run and stops every room's scroll repeat.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.mu.RLock()
		defer h.mu.RUnlock()
		for _, room := range h.rooms {
			room.close()
		}
	})
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// CreateRoom creates the room for canvasID. load, if not nil, fills the new
// engine before any client can join.
func (h *Hub) CreateRoom(canvasID string, load func(*engine.Engine) error) (*Room, error) {
	room := newRoom(canvasID)
	opts := h.opts
	opts.Scheduler = roomScheduler{room: room, inner: h.scheduler}
	room.engine = engine.New(opts)
	if load != nil {
		if err := load(room.engine); err != nil {
			return nil, err
		}
	}
	room.engine.OnViewBoxChange(room.viewBoxChanged)

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[canvasID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrRoomExists, canvasID)
	}
	h.rooms[canvasID] = room

	slog.Info("canvas created", "canvas", canvasID)
	return room, nil
}

// Room looks up a canvas.
func (h *Hub) Room(canvasID string) (*Room, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[canvasID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, canvasID)
	}
	return room, nil
}

func (h *Hub) addClient(client *Client) {
	room, err := h.Room(client.CanvasID)
	if err != nil {
		slog.Warn("client joined unknown canvas", "canvas", client.CanvasID)
		close(client.send)
		return
	}
	room.addClient(client)

	welcome, err := newMessage(TypeWelcome, WelcomePayload{ClientID: client.ClientID, State: room.State()})
	if err != nil {
		slog.Error("marshal welcome", "error", err)
	} else {
		welcome.CanvasID = room.canvasID
		client.Send(welcome)
	}

	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	if joinMsg, err := newMessage(TypePresenceJoin, PresenceJoinPayload{ClientID: client.ClientID}); err == nil {
		room.broadcast(joinMsg, client.ClientID)
	}

	slog.Info("client joined", "client", client.ClientID, "canvas", client.CanvasID)
}

func (h *Hub) removeClient(client *Client) {
	room, err := h.Room(client.CanvasID)
	if err != nil {
		return
	}
	if !room.removeClient(client) {
		return
	}
	room.presence.Remove(client.ClientID)
	room.abandonGesture(client.ClientID)

	if leaveMsg, err := newMessage(TypePresenceLeave, PresenceLeavePayload{ClientID: client.ClientID}); err == nil {
		room.broadcast(leaveMsg, "")
	}

	slog.Info("client left", "client", client.ClientID, "canvas", client.CanvasID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	room, err := h.Room(sender.CanvasID)
	if err != nil {
		sender.SendError(err)
		return
	}

	room.mu.Lock()
	err = room.apply(sender, msg)
	room.mu.Unlock()

	if err != nil {
		slog.Debug("message rejected", "type", msg.Type, "error", err, "client", sender.ClientID)
		sender.SendError(err)
	}
}
