package session

import (
	"log/slog"

	"github.com/inamate/inamate/viewport-go/internal/scrollbar"
	"github.com/inamate/inamate/viewport-go/internal/viewport"
)

// apply runs one client message against the engine. The caller holds r.mu.
func (r *Room) apply(sender *Client, msg *Message) error {
	e := r.engine

	switch msg.Type {
	case TypePointerDown:
		var p PointerPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		switch p.Target {
		case TargetHorizontalSlider, TargetVerticalSlider:
			if err := r.checkGestureFree(); err != nil {
				return err
			}
			o := scrollbar.Horizontal
			if p.Target == TargetVerticalSlider {
				o = scrollbar.Vertical
			}
			if err := e.SliderDown(o, p.X, p.Y, scrollbar.Button(p.Button)); err != nil {
				return err
			}
			if _, dragging := e.DraggingSlider(); dragging {
				r.owner = sender.ClientID
			}
			return nil
		case TargetCanvas, "":
			id, err := e.HitTest(p.X, p.Y)
			if err != nil {
				return err
			}
			if id == "" {
				e.SetSelection(nil)
			} else {
				e.SetSelection([]string{id})
			}
			return r.reply(sender, TypeHitResult, HitResultPayload{NodeID: id})
		}
		return badRequest("unknown pointer target %q", p.Target)

	case TypePointerMove:
		var p PointerPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		if o, dragging := e.DraggingSlider(); dragging && r.owns(sender) {
			return e.SliderMove(o, p.X, p.Y)
		}
		pt, err := e.PointerToLogical(p.X, p.Y)
		if err != nil {
			return err
		}
		cursor := CursorPos{X: pt.X, Y: pt.Y}
		r.presence.Update(sender.ClientID, cursor)
		out, err := newMessage(TypePresenceUpdate, PresencePayload{ClientID: sender.ClientID, Cursor: cursor})
		if err != nil {
			return err
		}
		r.broadcast(out, sender.ClientID)
		return nil

	case TypePointerUp:
		if o, dragging := e.DraggingSlider(); dragging && r.owns(sender) {
			defer r.settleGesture()
			return e.SliderUp(o)
		}
		return nil

	case TypePointerCancel:
		if o, dragging := e.DraggingSlider(); dragging && r.owns(sender) {
			defer r.settleGesture()
			return e.SliderCancel(o)
		}
		return nil

	case TypeScrollButtonDown, TypeScrollButtonUp, TypeScrollButtonLeave, TypeScrollStep, TypeScrollPage:
		return r.applyScroll(sender, msg)

	case TypeZoom:
		var p ZoomPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		return e.Zoom(p.Factor, p.X, p.Y)

	case TypeViewBoxSet:
		var p ViewBoxPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		return e.SetViewBoxString(p.ViewBox)

	case TypeBoundsSet:
		var b viewport.Bounds
		if err := decode(msg.Payload, &b); err != nil {
			return err
		}
		return e.SetBounds(b)

	case TypeNodeTransform:
		var p NodeTransformPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		if err := e.SetNodeTransform(p.NodeID, p.Transform); err != nil {
			return err
		}
		world, err := e.WorldMatrix(p.NodeID)
		if err != nil {
			return err
		}
		out, err := newMessage(TypeNodeChanged, NodeChangedPayload{NodeID: p.NodeID, Transform: p.Transform, Matrix: world.ToSlice()})
		if err != nil {
			return err
		}
		r.seq++
		out.Seq = r.seq
		r.broadcast(out, "")
		return nil

	case TypeHitTest:
		var p HitTestPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		id, err := e.HitTest(p.X, p.Y)
		if err != nil {
			return err
		}
		return r.reply(sender, TypeHitResult, HitResultPayload{NodeID: id})
	}

	slog.Warn("unknown message type", "type", msg.Type, "client", sender.ClientID)
	return badRequest("unknown message type %q", msg.Type)
}

func (r *Room) applyScroll(sender *Client, msg *Message) error {
	var p ScrollPayload
	if err := decode(msg.Payload, &p); err != nil {
		return err
	}
	o, err := parseAxis(p.Axis)
	if err != nil {
		return err
	}
	e := r.engine

	switch msg.Type {
	case TypeScrollButtonUp:
		if r.owner != "" && !r.owns(sender) {
			return errGestureBusy
		}
		defer r.settleGesture()
		return e.ScrollButtonUp(o)
	case TypeScrollButtonLeave:
		if r.owns(sender) {
			e.ScrollButtonLeave(o)
			r.settleGesture()
		}
		return nil
	}

	dir, err := parseDirection(p.Direction)
	if err != nil {
		return err
	}
	switch msg.Type {
	case TypeScrollButtonDown:
		if err := r.checkGestureFree(); err != nil {
			return err
		}
		if err := e.ScrollButtonDown(o, dir); err != nil {
			return err
		}
		r.owner = sender.ClientID
		return nil
	case TypeScrollStep:
		return e.ScrollStep(o, dir)
	default:
		return e.ScrollPage(o, dir)
	}
}

func (r *Room) reply(to *Client, typ string, payload any) error {
	msg, err := newMessage(typ, payload)
	if err != nil {
		return err
	}
	msg.CanvasID = r.canvasID
	to.Send(msg)
	return nil
}
