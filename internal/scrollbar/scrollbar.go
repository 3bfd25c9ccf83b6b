package scrollbar

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// DefaultRepeatInterval is the cadence of button-driven stepping.
const DefaultRepeatInterval = 200 * time.Millisecond

// Orientation is the axis the slider moves along.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

func (o Orientation) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Orientation) UnmarshalText(text []byte) error {
	switch string(text) {
	case "horizontal":
		*o = Horizontal
	case "vertical":
		*o = Vertical
	default:
		return fmt.Errorf("unknown orientation %q", text)
	}
	return nil
}

// Direction of a step or page.
type Direction int

const (
	Backward Direction = -1
	Forward  Direction = 1
)

// Button is the pointer button that started a gesture, numbered like
// DOM MouseEvent.button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonAuxiliary
	ButtonSecondary
)

// State of the controller. Dragging is the only state with a drag offset.
type State int

const (
	Idle State = iota
	Dragging
	Stepping
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Stepping:
		return "stepping"
	}
	return "idle"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = Idle
	case "dragging":
		*s = Dragging
	case "stepping":
		*s = Stepping
	default:
		return fmt.Errorf("unknown scrollbar state %q", text)
	}
	return nil
}

// ErrState is matched by every *StateError.
var ErrState = errors.New("scrollbar state error")

// ErrInvalidPosition is returned for pointer positions that are NaN or
// infinite.
var ErrInvalidPosition = errors.New("scrollbar: position is not finite")

func checkPosition(op string, pos float64) error {
	if math.IsNaN(pos) || math.IsInf(pos, 0) {
		return fmt.Errorf("%s: %w", op, ErrInvalidPosition)
	}
	return nil
}

// StateError reports an operation called in the wrong state. It always
// indicates a gesture sequencing bug in the caller.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("scrollbar: %s not allowed while %s", e.Op, e.State)
}

func (e *StateError) Is(target error) bool {
	return target == ErrState
}

// Geometry describes the trough and the slider along the active axis.
type Geometry struct {
	TroughStart  float64
	TroughExtent float64
	SliderExtent float64
}

// Scheduler runs fn every d until the returned stop func is called.
type Scheduler interface {
	Every(d time.Duration, fn func()) (stop func())
}

// TickerScheduler is a Scheduler backed by time.Ticker.
type TickerScheduler struct{}

func (TickerScheduler) Every(d time.Duration, fn func()) func() {
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// Options configures a Controller.
type Options struct {
	Orientation    Orientation
	StepSize       float64
	PageSize       float64
	RepeatInterval time.Duration
	Scheduler      Scheduler

	// OnScroll receives the scroll position, in [0, ScrollRange], whenever a
	// gesture moves the slider.
	OnScroll func(o Orientation, position float64)
	// OnSlider receives the slider's trough position and extent for the
	// visual update.
	OnSlider func(o Orientation, position, extent float64)
}

// Snapshot is a copy of the controller state. DragOffset is nil unless a
// drag is in progress.
type Snapshot struct {
	Orientation    Orientation `json:"orientation"`
	State          State       `json:"state"`
	SliderPosition float64     `json:"sliderPosition"`
	SliderExtent   float64     `json:"sliderExtent"`
	TroughStart    float64     `json:"troughStart"`
	TroughExtent   float64     `json:"troughExtent"`
	StepSize       float64     `json:"stepSize"`
	PageSize       float64     `json:"pageSize"`
	DragOffset     *float64    `json:"dragOffset,omitempty"`
}

// Controller drives one scrollbar slider. Callbacks run after the
// controller's lock is released, so they may call back into it.
type Controller struct {
	mu   sync.Mutex
	opts Options

	geo       Geometry
	sliderPos float64
	state     State

	dragOffset float64
	dragOrigin float64

	stepDir    Direction
	stopRepeat func()
	repeatGen  uint64
}

// New returns an idle controller with the slider at the trough start.
func New(opts Options, g Geometry) *Controller {
	if opts.RepeatInterval <= 0 {
		opts.RepeatInterval = DefaultRepeatInterval
	}
	if opts.Scheduler == nil {
		opts.Scheduler = TickerScheduler{}
	}
	return &Controller{opts: opts, geo: g, sliderPos: g.TroughStart}
}

type notice struct {
	scroll, slider bool
	o              Orientation
	pos, extent    float64
	scrollPos      float64
}

func (c *Controller) notify(n notice) {
	if n.slider && c.opts.OnSlider != nil {
		c.opts.OnSlider(n.o, n.pos, n.extent)
	}
	if n.scroll && c.opts.OnScroll != nil {
		c.opts.OnScroll(n.o, n.scrollPos)
	}
}

func (c *Controller) bounds() (lo, hi float64) {
	lo = c.geo.TroughStart
	hi = lo + max(0, c.geo.TroughExtent-c.geo.SliderExtent)
	return lo, hi
}

// clamp snaps a target slider position flush against the near or far edge
// of the trough. NaN snaps to the near edge.
func (c *Controller) clamp(pos float64) float64 {
	lo, hi := c.bounds()
	if math.IsNaN(pos) {
		return lo
	}
	if pos > hi {
		return hi
	}
	if pos < lo {
		return lo
	}
	return pos
}

// moveLocked moves the slider to the clamped target and reports the change.
func (c *Controller) moveLocked(target float64) notice {
	next := c.clamp(target)
	if next == c.sliderPos {
		return notice{}
	}
	c.sliderPos = next
	return c.noticeLocked(true)
}

func (c *Controller) noticeLocked(scroll bool) notice {
	return notice{
		scroll:    scroll,
		slider:    true,
		o:         c.opts.Orientation,
		pos:       c.sliderPos,
		extent:    c.geo.SliderExtent,
		scrollPos: c.sliderPos - c.geo.TroughStart,
	}
}

// BeginDrag starts a drag with the pointer at pos along the active axis.
// Gestures from non-primary buttons are ignored.
func (c *Controller) BeginDrag(pos float64, button Button) error {
	if button != ButtonPrimary {
		return nil
	}
	if err := checkPosition("BeginDrag", pos); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Idle {
		return &StateError{Op: "BeginDrag", State: c.state}
	}
	c.dragOffset = pos - c.sliderPos
	c.dragOrigin = c.sliderPos
	c.state = Dragging
	return nil
}

// UpdateDrag moves the slider so the grab point follows the pointer.
// Repeated calls with the same pos are no-ops.
func (c *Controller) UpdateDrag(pos float64) error {
	if err := checkPosition("UpdateDrag", pos); err != nil {
		return err
	}
	c.mu.Lock()
	if c.state != Dragging {
		st := c.state
		c.mu.Unlock()
		return &StateError{Op: "UpdateDrag", State: st}
	}
	delta := pos - (c.sliderPos + c.dragOffset)
	n := c.moveLocked(c.sliderPos + delta)
	c.mu.Unlock()

	c.notify(n)
	return nil
}

// EndDrag finishes the drag and keeps the slider where it is.
func (c *Controller) EndDrag() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Dragging {
		return &StateError{Op: "EndDrag", State: c.state}
	}
	c.state = Idle
	c.dragOffset = 0
	return nil
}

// CancelDrag aborts the drag and puts the slider back where it started.
func (c *Controller) CancelDrag() error {
	c.mu.Lock()
	if c.state != Dragging {
		st := c.state
		c.mu.Unlock()
		return &StateError{Op: "CancelDrag", State: st}
	}
	c.state = Idle
	c.dragOffset = 0
	n := c.moveLocked(c.dragOrigin)
	c.mu.Unlock()

	c.notify(n)
	return nil
}

// Step moves the slider by one step in dir.
func (c *Controller) Step(dir Direction) error {
	return c.moveBy("Step", dir, func() float64 { return c.opts.StepSize })
}

// Page moves the slider by one page in dir.
func (c *Controller) Page(dir Direction) error {
	return c.moveBy("Page", dir, func() float64 { return c.opts.PageSize })
}

func (c *Controller) moveBy(op string, dir Direction, size func() float64) error {
	c.mu.Lock()
	if c.state == Dragging {
		st := c.state
		c.mu.Unlock()
		return &StateError{Op: op, State: st}
	}
	n := c.moveLocked(c.sliderPos + float64(dir)*size())
	c.mu.Unlock()

	c.notify(n)
	return nil
}

// PressButton steps once in dir and keeps stepping every RepeatInterval
// until ReleaseButton, LeaveButton or Close.
func (c *Controller) PressButton(dir Direction) error {
	c.mu.Lock()
	if c.state != Idle {
		st := c.state
		c.mu.Unlock()
		return &StateError{Op: "PressButton", State: st}
	}
	c.state = Stepping
	c.stepDir = dir
	c.repeatGen++
	gen := c.repeatGen
	n := c.moveLocked(c.sliderPos + float64(dir)*c.opts.StepSize)
	c.stopRepeat = c.opts.Scheduler.Every(c.opts.RepeatInterval, func() { c.repeat(gen) })
	c.mu.Unlock()

	c.notify(n)
	return nil
}

func (c *Controller) repeat(gen uint64) {
	c.mu.Lock()
	if c.state != Stepping || gen != c.repeatGen {
		c.mu.Unlock()
		return
	}
	n := c.moveLocked(c.sliderPos + float64(c.stepDir)*c.opts.StepSize)
	c.mu.Unlock()

	c.notify(n)
}

// ReleaseButton stops button-driven stepping.
func (c *Controller) ReleaseButton() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Stepping {
		return &StateError{Op: "ReleaseButton", State: c.state}
	}
	c.stopSteppingLocked()
	return nil
}

// LeaveButton stops stepping when the pointer leaves the button. Leaving
// while not stepping is a no-op.
func (c *Controller) LeaveButton() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Stepping {
		c.stopSteppingLocked()
	}
}

// Close stops any pending repeat timer.
func (c *Controller) Close() {
	c.LeaveButton()
}

func (c *Controller) stopSteppingLocked() {
	if c.stopRepeat != nil {
		c.stopRepeat()
		c.stopRepeat = nil
	}
	c.repeatGen++
	c.state = Idle
}

// SetGeometry updates the trough and slider extents, re-clamping the slider.
// OnScroll fires only if the clamp moved the slider.
func (c *Controller) SetGeometry(g Geometry) {
	c.mu.Lock()
	offset := c.sliderPos - c.geo.TroughStart
	c.geo = g
	prev := g.TroughStart + offset
	c.sliderPos = c.clamp(prev)
	n := c.noticeLocked(c.sliderPos != prev)
	c.mu.Unlock()

	c.notify(n)
}

// Sync positions the slider for a scroll position set elsewhere, e.g. when
// the viewBox was moved by zooming. Only OnSlider fires.
func (c *Controller) Sync(position float64) {
	c.mu.Lock()
	c.sliderPos = c.clamp(c.geo.TroughStart + position)
	n := c.noticeLocked(false)
	c.mu.Unlock()

	c.notify(n)
}

// ScrollPosition returns the slider offset from the trough start.
func (c *Controller) ScrollPosition() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sliderPos - c.geo.TroughStart
}

// ScrollRange returns the largest scroll position.
func (c *Controller) ScrollRange() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	lo, hi := c.bounds()
	return hi - lo
}

// SliderPosition returns the slider's position in trough coordinates.
func (c *Controller) SliderPosition() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sliderPos
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a copy of the full state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		Orientation:    c.opts.Orientation,
		State:          c.state,
		SliderPosition: c.sliderPos,
		SliderExtent:   c.geo.SliderExtent,
		TroughStart:    c.geo.TroughStart,
		TroughExtent:   c.geo.TroughExtent,
		StepSize:       c.opts.StepSize,
		PageSize:       c.opts.PageSize,
	}
	if c.state == Dragging {
		off := c.dragOffset
		s.DragOffset = &off
	}
	return s
}

// SetSizes replaces the step and page sizes.
func (c *Controller) SetSizes(step, page float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts.StepSize = step
	c.opts.PageSize = page
}
