package engine

import (
	"math"

	"github.com/inamate/inamate/viewport-go/internal/scrollbar"
	"github.com/inamate/inamate/viewport-go/internal/viewport"
)

// The scrollbars work in trough units: each trough is TroughUnits long and
// spans the element along its axis. A slider covers the same share of its
// trough as the viewBox covers of the document extent.

type axis struct {
	origin, visible       float64 // viewBox along the axis
	extentOrigin, extent  float64 // scrollable region along the axis
	units, slider, travel float64 // trough length, slider extent, slider travel
}

// span is how far the viewBox origin can move inside the extent.
func (a axis) span() float64 {
	return a.extent - a.visible
}

// toTrough converts a logical distance along the axis into trough units.
func (a axis) toTrough(d float64) float64 {
	if a.span() <= 0 || a.travel <= 0 {
		return 0
	}
	return d * a.travel / a.span()
}

// position is the slider offset matching the viewBox origin.
func (a axis) position() float64 {
	return a.toTrough(a.origin - a.extentOrigin)
}

// originFor is the viewBox origin matching slider offset pos.
func (a axis) originFor(pos float64) float64 {
	if a.span() <= 0 || a.travel <= 0 {
		return a.extentOrigin
	}
	return a.extentOrigin + pos*a.span()/a.travel
}

func (e *Engine) axis(o scrollbar.Orientation) axis {
	a := axis{units: e.opts.TroughUnits}
	if o == scrollbar.Horizontal {
		a.origin, a.visible = float64(e.viewBox.X), float64(e.viewBox.Width)
		a.extentOrigin, a.extent = e.extent.X, e.extent.Width
	} else {
		a.origin, a.visible = float64(e.viewBox.Y), float64(e.viewBox.Height)
		a.extentOrigin, a.extent = e.extent.Y, e.extent.Height
	}
	a.slider = a.units
	if a.extent > 0 {
		a.slider = min(a.units, a.units*a.visible/a.extent)
	}
	a.travel = a.units - a.slider
	return a
}

// applyViewBox makes vb current and moves both sliders to match without
// signalling scroll.
func (e *Engine) applyViewBox(vb viewport.ViewBox) {
	e.viewBox = vb
	e.syncing = true
	defer func() { e.syncing = false }()

	for o, sb := range e.scrollbars {
		a := e.axis(scrollbar.Orientation(o))
		sb.SetGeometry(scrollbar.Geometry{TroughStart: 0, TroughExtent: a.units, SliderExtent: a.slider})
		sb.SetSizes(a.toTrough(e.opts.StepSize), a.toTrough(e.opts.PageFraction*a.visible))
		sb.Sync(a.position())
	}
}

// handleScroll is the OnScroll sink of both scrollbars.
func (e *Engine) handleScroll(o scrollbar.Orientation, pos float64) {
	if e.syncing {
		return
	}
	origin := int(math.Round(e.axis(o).originFor(pos)))
	vb := e.viewBox
	if o == scrollbar.Horizontal {
		vb.X = origin
	} else {
		vb.Y = origin
	}
	if vb == e.viewBox {
		return
	}
	e.viewBox = vb
	e.notify()
}

func (e *Engine) notify() {
	if e.onViewBoxChange != nil {
		e.onViewBoxChange(e.viewBoxChange())
	}
}

func (e *Engine) viewBoxChange() ViewBoxChange {
	h := e.scrollbars[scrollbar.Horizontal].Snapshot()
	v := e.scrollbars[scrollbar.Vertical].Snapshot()
	return ViewBoxChange{
		ViewBox:    e.viewBox.String(),
		Horizontal: SliderState{Position: h.SliderPosition, Extent: h.SliderExtent},
		Vertical:   SliderState{Position: v.SliderPosition, Extent: v.SliderExtent},
	}
}

// troughPosition maps a screen point onto the trough of o.
func (e *Engine) troughPosition(o scrollbar.Orientation, screenX, screenY float64) (float64, error) {
	u := int(e.opts.TroughUnits)
	p, err := viewport.ScreenToLogical(screenX, screenY, e.bounds, viewport.ViewBox{Width: u, Height: u})
	if err != nil {
		return 0, err
	}
	if o == scrollbar.Horizontal {
		return p.X, nil
	}
	return p.Y, nil
}

// Scrollbar returns the controller for one axis.
func (e *Engine) Scrollbar(o scrollbar.Orientation) *scrollbar.Controller {
	return e.scrollbars[o]
}

// DraggingSlider reports which slider, if any, is being dragged.
func (e *Engine) DraggingSlider() (scrollbar.Orientation, bool) {
	for o, sb := range e.scrollbars {
		if sb.State() == scrollbar.Dragging {
			return scrollbar.Orientation(o), true
		}
	}
	return 0, false
}

// SliderDown starts dragging the slider of o from a screen point.
func (e *Engine) SliderDown(o scrollbar.Orientation, screenX, screenY float64, button scrollbar.Button) error {
	pos, err := e.troughPosition(o, screenX, screenY)
	if err != nil {
		return err
	}
	return e.scrollbars[o].BeginDrag(pos, button)
}

// SliderMove drags the slider of o to a screen point.
func (e *Engine) SliderMove(o scrollbar.Orientation, screenX, screenY float64) error {
	pos, err := e.troughPosition(o, screenX, screenY)
	if err != nil {
		return err
	}
	return e.scrollbars[o].UpdateDrag(pos)
}

// SliderUp ends the drag of o.
func (e *Engine) SliderUp(o scrollbar.Orientation) error {
	return e.scrollbars[o].EndDrag()
}

// SliderCancel aborts the drag of o and restores the previous view.
func (e *Engine) SliderCancel(o scrollbar.Orientation) error {
	return e.scrollbars[o].CancelDrag()
}

// ScrollButtonDown presses a step button of o.
func (e *Engine) ScrollButtonDown(o scrollbar.Orientation, dir scrollbar.Direction) error {
	return e.scrollbars[o].PressButton(dir)
}

// ScrollButtonUp releases the step button of o.
func (e *Engine) ScrollButtonUp(o scrollbar.Orientation) error {
	return e.scrollbars[o].ReleaseButton()
}

// ScrollButtonLeave handles the pointer leaving a step button of o.
func (e *Engine) ScrollButtonLeave(o scrollbar.Orientation) {
	e.scrollbars[o].LeaveButton()
}

// ScrollStep scrolls o by one step.
func (e *Engine) ScrollStep(o scrollbar.Orientation, dir scrollbar.Direction) error {
	return e.scrollbars[o].Step(dir)
}

// ScrollPage scrolls o by one page.
func (e *Engine) ScrollPage(o scrollbar.Orientation, dir scrollbar.Direction) error {
	return e.scrollbars[o].Page(dir)
}
