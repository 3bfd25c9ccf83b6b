package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/inamate/viewport-go/internal/engine"
	"github.com/inamate/inamate/viewport-go/internal/scrollbar"
	"github.com/inamate/inamate/viewport-go/internal/transform"
	"github.com/inamate/inamate/viewport-go/internal/viewport"
)

const testDocument = `{
  "id": "canvas_test",
  "viewBox": "0 0 200 200",
  "width": 400,
  "height": 400,
  "root": "root",
  "objects": {
    "root": {"id": "root", "type": "Group", "children": ["box"], "visible": true},
    "box": {"id": "box", "type": "Rect", "parent": "root", "children": [], "transform": "translate(10,10)",
            "box": {"x": 0, "y": 0, "width": 100, "height": 100}, "visible": true}
  }
}`

type fakeScheduler struct {
	fn    func()
	stops int
}

func (f *fakeScheduler) Every(_ time.Duration, fn func()) func() {
	f.fn = fn
	return func() { f.stops++ }
}

func newTestHub(t *testing.T) (*Hub, *Room, *fakeScheduler) {
	t.Helper()
	sched := &fakeScheduler{}
	h := NewHub(engine.Options{Scheduler: sched})
	room, err := h.CreateRoom("canvas_test", func(e *engine.Engine) error {
		return e.LoadDocument(testDocument)
	})
	require.NoError(t, err)
	return h, room, sched
}

func join(t *testing.T, h *Hub, clientID string) *Client {
	t.Helper()
	c := NewClient(h, nil, "canvas_test", clientID)
	h.addClient(c)
	return c
}

// drain returns every message queued for c.
func drain(t *testing.T, c *Client) []*Message {
	t.Helper()
	var out []*Message
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return out
			}
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			out = append(out, &msg)
		default:
			return out
		}
	}
}

func send(t *testing.T, h *Hub, c *Client, typ string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	h.handleMessage(c, &Message{Type: typ, ClientID: c.ClientID, CanvasID: c.CanvasID, Payload: data})
}

func payload[T any](t *testing.T, msg *Message) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(msg.Payload, &v))
	return v
}

func types(msgs []*Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Type
	}
	return out
}

func TestJoinSendsWelcomeAndPresence(t *testing.T) {
	h, room, _ := newTestHub(t)

	a := join(t, h, "a")
	msgs := drain(t, a)
	require.Equal(t, []string{TypeWelcome, TypePresenceState}, types(msgs))
	welcome := payload[struct {
		ClientID string `json:"clientId"`
		State    struct {
			ViewBox string `json:"viewBox"`
		} `json:"state"`
	}](t, msgs[0])
	assert.Equal(t, "a", welcome.ClientID)
	assert.Equal(t, "0 0 200 200", welcome.State.ViewBox)

	b := join(t, h, "b")
	assert.Equal(t, []string{TypeWelcome, TypePresenceState}, types(drain(t, b)))

	msgs = drain(t, a)
	require.Equal(t, []string{TypePresenceJoin}, types(msgs))
	assert.Equal(t, "b", payload[PresenceJoinPayload](t, msgs[0]).ClientID)
	assert.Equal(t, 2, room.ClientCount())
}

func TestScrollPageBroadcastsViewBox(t *testing.T) {
	h, _, _ := newTestHub(t)
	a := join(t, h, "a")
	b := join(t, h, "b")
	drain(t, a)
	drain(t, b)

	send(t, h, a, TypeBoundsSet, viewport.Bounds{Width: 400, Height: 400})
	assert.Empty(t, drain(t, a))

	send(t, h, a, TypeScrollPage, ScrollPayload{Axis: "horizontal", Direction: 1})
	for _, c := range []*Client{a, b} {
		msgs := drain(t, c)
		require.Len(t, msgs, 1)
		assert.Equal(t, TypeViewBoxChanged, msgs[0].Type)
		assert.Equal(t, int64(1), msgs[0].Seq)
		assert.Equal(t, "canvas_test", msgs[0].CanvasID)
		change := payload[engine.ViewBoxChange](t, msgs[0])
		assert.Equal(t, "180 0 200 200", change.ViewBox)
		assert.Equal(t, engine.SliderState{Position: 450, Extent: 500}, change.Horizontal)
	}
}

func TestErrorsGoToSender(t *testing.T) {
	h, _, _ := newTestHub(t)
	a := join(t, h, "a")
	b := join(t, h, "b")
	drain(t, a)
	drain(t, b)

	cases := []struct {
		typ     string
		payload any
		code    string
	}{
		{TypePointerDown, PointerPayload{X: 1, Y: 1, Target: TargetCanvas}, CodeDegenerateBounds},
		{TypeNodeTransform, NodeTransformPayload{NodeID: "box", Transform: "bogus(1)"}, CodeMalformedTransform},
		{TypeViewBoxSet, ViewBoxPayload{ViewBox: "0 0 0 10"}, CodeInvalidViewBox},
		{TypeScrollButtonUp, ScrollPayload{Axis: "vertical"}, CodeStateError},
		{TypeScrollPage, ScrollPayload{Axis: "diagonal", Direction: 1}, CodeBadRequest},
		{TypeScrollPage, ScrollPayload{Axis: "vertical", Direction: 2}, CodeBadRequest},
		{TypePointerDown, PointerPayload{Target: "toolbar"}, CodeBadRequest},
		{"no.such.type", struct{}{}, CodeBadRequest},
		{TypeViewBoxSet, "not an object", CodeBadRequest},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s/%s", tc.typ, tc.code), func(t *testing.T) {
			send(t, h, a, tc.typ, tc.payload)
			msgs := drain(t, a)
			require.Len(t, msgs, 1)
			assert.Equal(t, TypeError, msgs[0].Type)
			assert.Equal(t, tc.code, payload[ErrorPayload](t, msgs[0]).Code)
			assert.Empty(t, drain(t, b))
		})
	}
}

func TestSliderDragOverSession(t *testing.T) {
	h, room, _ := newTestHub(t)
	a := join(t, h, "a")
	drain(t, a)

	send(t, h, a, TypeBoundsSet, viewport.Bounds{Width: 400, Height: 400})
	send(t, h, a, TypePointerDown, PointerPayload{X: 0, Y: 390, Target: TargetHorizontalSlider})
	assert.Equal(t, scrollbar.Dragging, room.State().Horizontal.State)

	// 1px is 2.5 trough units; 250 units of travel scroll 100 logical units
	send(t, h, a, TypePointerMove, PointerPayload{X: 100, Y: 390})
	msgs := drain(t, a)
	require.Len(t, msgs, 1)
	assert.Equal(t, "100 0 200 200", payload[engine.ViewBoxChange](t, msgs[0]).ViewBox)

	send(t, h, a, TypePointerUp, PointerPayload{X: 100, Y: 390})
	assert.Equal(t, scrollbar.Idle, room.State().Horizontal.State)
	assert.Empty(t, drain(t, a))
}

func TestSecondaryButtonDoesNotDrag(t *testing.T) {
	h, room, _ := newTestHub(t)
	a := join(t, h, "a")
	drain(t, a)

	send(t, h, a, TypeBoundsSet, viewport.Bounds{Width: 400, Height: 400})
	send(t, h, a, TypePointerDown, PointerPayload{X: 0, Y: 0, Button: int(scrollbar.ButtonSecondary), Target: TargetVerticalSlider})
	assert.Equal(t, scrollbar.Idle, room.State().Vertical.State)
	assert.Empty(t, drain(t, a))
}

func TestHitTestAndSelection(t *testing.T) {
	h, room, _ := newTestHub(t)
	a := join(t, h, "a")
	drain(t, a)
	send(t, h, a, TypeBoundsSet, viewport.Bounds{Width: 400, Height: 400})

	// screen (40,40) is logical (20,20), inside box at (10,10)-(110,110)
	send(t, h, a, TypeHitTest, HitTestPayload{X: 40, Y: 40})
	msgs := drain(t, a)
	require.Len(t, msgs, 1)
	assert.Equal(t, "box", payload[HitResultPayload](t, msgs[0]).NodeID)
	assert.Empty(t, room.State().Selection)

	send(t, h, a, TypePointerDown, PointerPayload{X: 40, Y: 40, Target: TargetCanvas})
	assert.Equal(t, TypeHitResult, drain(t, a)[0].Type)
	assert.Equal(t, []string{"box"}, room.State().Selection)

	send(t, h, a, TypePointerDown, PointerPayload{X: 5, Y: 5, Target: TargetCanvas})
	assert.Equal(t, "", payload[HitResultPayload](t, drain(t, a)[0]).NodeID)
	assert.Empty(t, room.State().Selection)
}

func TestNodeTransformBroadcast(t *testing.T) {
	h, _, _ := newTestHub(t)
	a := join(t, h, "a")
	b := join(t, h, "b")
	drain(t, a)
	drain(t, b)

	send(t, h, a, TypeNodeTransform, NodeTransformPayload{NodeID: "box", Transform: "translate(5,5) scale(2,2)"})
	for _, c := range []*Client{a, b} {
		msgs := drain(t, c)
		require.Len(t, msgs, 1)
		assert.Equal(t, TypeNodeChanged, msgs[0].Type)
		changed := payload[NodeChangedPayload](t, msgs[0])
		assert.Equal(t, "box", changed.NodeID)
		assert.Equal(t, []float64{2, 0, 0, 2, 10, 10}, changed.Matrix)
	}
}

func TestScrollButtonRepeatUnderRoomLock(t *testing.T) {
	h, room, sched := newTestHub(t)
	a := join(t, h, "a")
	drain(t, a)

	send(t, h, a, TypeScrollButtonDown, ScrollPayload{Axis: "vertical", Direction: 1})
	msgs := drain(t, a)
	require.Len(t, msgs, 1)
	assert.Equal(t, "0 20 200 200", payload[engine.ViewBoxChange](t, msgs[0]).ViewBox)

	// the tick takes the room lock; it must not be held here
	require.NotNil(t, sched.fn)
	sched.fn()
	msgs = drain(t, a)
	require.Len(t, msgs, 1)
	assert.Equal(t, "0 40 200 200", payload[engine.ViewBoxChange](t, msgs[0]).ViewBox)
	assert.Equal(t, int64(2), msgs[0].Seq)

	send(t, h, a, TypeScrollButtonUp, ScrollPayload{Axis: "vertical"})
	assert.Equal(t, 1, sched.stops)
	sched.fn()
	assert.Empty(t, drain(t, a))
	assert.Equal(t, scrollbar.Idle, room.State().Vertical.State)
}

func TestLeavingClientAbandonsGesture(t *testing.T) {
	h, room, _ := newTestHub(t)
	a := join(t, h, "a")
	b := join(t, h, "b")
	drain(t, a)
	drain(t, b)

	send(t, h, a, TypeBoundsSet, viewport.Bounds{Width: 400, Height: 400})
	send(t, h, a, TypePointerDown, PointerPayload{X: 0, Y: 0, Target: TargetHorizontalSlider})
	send(t, h, a, TypePointerMove, PointerPayload{X: 40, Y: 0})
	drain(t, b)

	h.removeClient(a)
	msgs := drain(t, b)
	require.Equal(t, []string{TypeViewBoxChanged, TypePresenceLeave}, types(msgs))
	assert.Equal(t, "0 0 200 200", payload[engine.ViewBoxChange](t, msgs[0]).ViewBox)

	err := room.WithEngine(func(e *engine.Engine) error {
		_, dragging := e.DraggingSlider()
		assert.False(t, dragging)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, room.ClientCount())

	// removing twice is harmless
	h.removeClient(a)
}

func TestGestureBelongsToItsClient(t *testing.T) {
	h, room, _ := newTestHub(t)
	a := join(t, h, "a")
	b := join(t, h, "b")
	drain(t, a)
	drain(t, b)

	send(t, h, a, TypeBoundsSet, viewport.Bounds{Width: 400, Height: 400})
	send(t, h, a, TypePointerDown, PointerPayload{X: 0, Y: 390, Target: TargetHorizontalSlider})
	require.Equal(t, scrollbar.Dragging, room.State().Horizontal.State)

	// b's pointer only moves b's cursor
	send(t, h, b, TypePointerMove, PointerPayload{X: 100, Y: 390})
	assert.Empty(t, drain(t, b))
	msgs := drain(t, a)
	require.Equal(t, []string{TypePresenceUpdate}, types(msgs))
	assert.Equal(t, "0 0 200 200", room.State().ViewBox)

	send(t, h, b, TypePointerUp, PointerPayload{X: 100, Y: 390})
	send(t, h, b, TypePointerCancel, PointerPayload{})
	assert.Equal(t, scrollbar.Dragging, room.State().Horizontal.State)

	rejected := []struct {
		from    *Client
		typ     string
		payload any
	}{
		{b, TypeScrollButtonDown, ScrollPayload{Axis: "vertical", Direction: 1}},
		{b, TypeScrollButtonUp, ScrollPayload{Axis: "vertical"}},
		{b, TypePointerDown, PointerPayload{X: 390, Y: 0, Target: TargetVerticalSlider}},
		{a, TypePointerDown, PointerPayload{X: 390, Y: 0, Target: TargetVerticalSlider}},
		{a, TypeScrollButtonDown, ScrollPayload{Axis: "vertical", Direction: 1}},
	}
	for _, tc := range rejected {
		send(t, h, tc.from, tc.typ, tc.payload)
		msgs := drain(t, tc.from)
		require.Len(t, msgs, 1, tc.typ)
		assert.Equal(t, CodeStateError, payload[ErrorPayload](t, msgs[0]).Code, tc.typ)
	}
	send(t, h, b, TypeScrollButtonLeave, ScrollPayload{Axis: "vertical"})
	assert.Equal(t, scrollbar.Idle, room.State().Vertical.State)

	send(t, h, a, TypePointerMove, PointerPayload{X: 40, Y: 390})
	assert.Equal(t, "40 0 200 200", room.State().ViewBox)
	drain(t, a)
	drain(t, b)

	// a leaves mid-drag; the drag is undone and the slider is free again
	h.removeClient(a)
	assert.Equal(t, scrollbar.Idle, room.State().Horizontal.State)
	assert.Equal(t, "0 0 200 200", room.State().ViewBox)
	drain(t, b)

	send(t, h, b, TypePointerDown, PointerPayload{X: 0, Y: 390, Target: TargetHorizontalSlider})
	assert.Empty(t, drain(t, b))
	assert.Equal(t, scrollbar.Dragging, room.State().Horizontal.State)
}

func TestButtonUpKeepsOwnDragOwnership(t *testing.T) {
	h, room, _ := newTestHub(t)
	a := join(t, h, "a")
	drain(t, a)

	send(t, h, a, TypeBoundsSet, viewport.Bounds{Width: 400, Height: 400})
	send(t, h, a, TypePointerDown, PointerPayload{X: 0, Y: 390, Target: TargetHorizontalSlider})
	send(t, h, a, TypeScrollButtonUp, ScrollPayload{Axis: "vertical"})
	msgs := drain(t, a)
	require.Len(t, msgs, 1)
	assert.Equal(t, CodeStateError, payload[ErrorPayload](t, msgs[0]).Code)

	h.removeClient(a)
	assert.Equal(t, scrollbar.Idle, room.State().Horizontal.State)
}

func TestPresenceUpdate(t *testing.T) {
	h, room, _ := newTestHub(t)
	a := join(t, h, "a")
	b := join(t, h, "b")
	drain(t, a)
	drain(t, b)

	send(t, h, a, TypeBoundsSet, viewport.Bounds{Left: 100, Width: 400, Height: 400})
	send(t, h, a, TypePointerMove, PointerPayload{X: 300, Y: 100})
	assert.Empty(t, drain(t, a))

	msgs := drain(t, b)
	require.Len(t, msgs, 1)
	p := payload[PresencePayload](t, msgs[0])
	assert.Equal(t, "a", p.ClientID)
	assert.Equal(t, CursorPos{X: 100, Y: 50}, p.Cursor)
	assert.Equal(t, map[string]CursorPos{"a": {X: 100, Y: 50}}, room.presence.GetAll())
}

func TestCreateRoomTwice(t *testing.T) {
	h, _, _ := newTestHub(t)
	_, err := h.CreateRoom("canvas_test", nil)
	assert.ErrorIs(t, err, ErrRoomExists)

	_, err = h.Room("canvas_missing")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = h.CreateRoom("canvas_bad", func(e *engine.Engine) error { return e.LoadDocument("{") })
	assert.Error(t, err)
	_, err = h.Room("canvas_bad")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, CodeMalformedTransform, ErrorCode(&transform.MalformedTransformError{}))
	assert.Equal(t, CodeDegenerateBounds, ErrorCode(fmt.Errorf("x: %w", viewport.ErrDegenerateBounds)))
	assert.Equal(t, CodeInvalidViewBox, ErrorCode(&viewport.InvalidViewBoxError{}))
	assert.Equal(t, CodeStateError, ErrorCode(&scrollbar.StateError{}))
	assert.Equal(t, CodeBadRequest, ErrorCode(errors.New("other")))
}

type staticTokens map[string]string

func (s staticTokens) ValidateToken(token string) (string, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return "", errors.New("bad token")
}

func TestServeWSRejects(t *testing.T) {
	h, _, _ := newTestHub(t)
	tokens := staticTokens{"good": "canvas_test", "other": "canvas_other"}
	r := mux.NewRouter()
	r.HandleFunc("/ws/canvas/{canvasId}", h.ServeWS(tokens, nil))

	cases := []struct {
		path string
		want int
	}{
		{"/ws/canvas/canvas_test", http.StatusUnauthorized},
		{"/ws/canvas/canvas_test?token=nope", http.StatusUnauthorized},
		{"/ws/canvas/canvas_test?token=other", http.StatusUnauthorized},
		{"/ws/canvas/canvas_other?token=other", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		assert.Equal(t, tc.want, rec.Code, tc.path)
	}
}
