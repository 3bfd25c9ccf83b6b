package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inamate/inamate/viewport-go/internal/engine"
	"github.com/inamate/inamate/viewport-go/internal/scrollbar"
	"github.com/inamate/inamate/viewport-go/internal/transform"
	"github.com/inamate/inamate/viewport-go/internal/viewport"
)

type Message struct {
	Type     string          `json:"type"`
	CanvasID string          `json:"canvasId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

const (
	// Client → server
	TypePointerDown       = "pointer.down"
	TypePointerMove       = "pointer.move"
	TypePointerUp         = "pointer.up"
	TypePointerCancel     = "pointer.cancel"
	TypeScrollButtonDown  = "scroll.button.down"
	TypeScrollButtonUp    = "scroll.button.up"
	TypeScrollButtonLeave = "scroll.button.leave"
	TypeScrollStep        = "scroll.step"
	TypeScrollPage        = "scroll.page"
	TypeZoom              = "zoom"
	TypeViewBoxSet        = "viewbox.set"
	TypeBoundsSet         = "bounds.set"
	TypeNodeTransform     = "node.transform"
	TypeHitTest           = "hit.test"

	// Server → client
	TypeWelcome        = "welcome"
	TypeViewBoxChanged = "viewbox.changed"
	TypeNodeChanged    = "node.changed"
	TypeHitResult      = "hit.result"
	TypeError          = "error"

	// Presence
	TypePresenceState  = "presence.state"
	TypePresenceUpdate = "presence.update"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
)

// Pointer targets.
const (
	TargetHorizontalSlider = "h-slider"
	TargetVerticalSlider   = "v-slider"
	TargetCanvas           = "canvas"
)

// Error codes sent in ErrorPayload.Code.
const (
	CodeMalformedTransform = "malformed_transform"
	CodeDegenerateBounds   = "degenerate_bounds"
	CodeInvalidViewBox     = "invalid_view_box"
	CodeStateError         = "state_error"
	CodeBadRequest         = "bad_request"
)

type PointerPayload struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button int     `json:"button"`
	Target string  `json:"target"`
}

type ScrollPayload struct {
	Axis      string `json:"axis"`
	Direction int    `json:"direction"`
}

type ZoomPayload struct {
	Factor float64 `json:"factor"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type ViewBoxPayload struct {
	ViewBox string `json:"viewBox"`
}

type NodeTransformPayload struct {
	NodeID    string `json:"nodeId"`
	Transform string `json:"transform"`
}

type NodeChangedPayload struct {
	NodeID    string    `json:"nodeId"`
	Transform string    `json:"transform"`
	Matrix    []float64 `json:"matrix"`
}

type HitTestPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type HitResultPayload struct {
	NodeID string `json:"nodeId"`
}

type WelcomePayload struct {
	ClientID string       `json:"clientId"`
	State    engine.State `json:"state"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CursorPos is a pointer position in logical canvas coordinates.
type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresencePayload struct {
	ClientID string    `json:"clientId"`
	Cursor   CursorPos `json:"cursor"`
}

type PresenceStatePayload struct {
	Presences map[string]CursorPos `json:"presences"`
}

type PresenceJoinPayload struct {
	ClientID string `json:"clientId"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// ErrorCode classifies an error for the error message payload.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, transform.ErrMalformedTransform):
		return CodeMalformedTransform
	case errors.Is(err, viewport.ErrDegenerateBounds):
		return CodeDegenerateBounds
	case errors.Is(err, viewport.ErrInvalidViewBox):
		return CodeInvalidViewBox
	case errors.Is(err, scrollbar.ErrState):
		return CodeStateError
	}
	return CodeBadRequest
}

func parseAxis(axis string) (scrollbar.Orientation, error) {
	switch axis {
	case "horizontal":
		return scrollbar.Horizontal, nil
	case "vertical":
		return scrollbar.Vertical, nil
	}
	return 0, badRequest("unknown axis %q", axis)
}

func parseDirection(d int) (scrollbar.Direction, error) {
	switch d {
	case -1:
		return scrollbar.Backward, nil
	case 1:
		return scrollbar.Forward, nil
	}
	return 0, badRequest("direction must be -1 or 1, got %d", d)
}

func decode(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return badRequest("invalid payload: %v", err)
	}
	return nil
}

func newMessage(typ string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: typ, Payload: data}, nil
}
