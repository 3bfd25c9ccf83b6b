package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/inamate/inamate/viewport-go/internal/document"
	"github.com/inamate/inamate/viewport-go/internal/geom"
	"github.com/inamate/inamate/viewport-go/internal/scrollbar"
	"github.com/inamate/inamate/viewport-go/internal/transform"
	"github.com/inamate/inamate/viewport-go/internal/viewport"
)

// ErrNoDocument is returned by node operations before a document is loaded.
var ErrNoDocument = errors.New("no document loaded")

// ErrUnknownNode is returned for node ids not present in the document.
var ErrUnknownNode = errors.New("unknown node")

const (
	defaultStepSize     = 20
	defaultPageFraction = 0.9
	defaultTroughUnits  = 1000
	defaultCanvasSize   = 4000
)

// Options configures an Engine. Zero fields take defaults.
type Options struct {
	Parser *transform.Parser

	// StepSize is the logical distance of one scroll button step.
	StepSize float64
	// PageFraction is the share of the visible extent scrolled by one page.
	PageFraction   float64
	RepeatInterval time.Duration
	Scheduler      scrollbar.Scheduler

	// CanvasWidth and CanvasHeight bound the scrollable region of documents
	// that declare no size.
	CanvasWidth  float64
	CanvasHeight float64

	// TroughUnits is the length of each scrollbar trough in its own logical
	// units, independent of the element's pixel size.
	TroughUnits float64
}

func (o *Options) setDefaults() {
	if o.Parser == nil {
		o.Parser = transform.NewParser(transform.Options{Shorthand: true})
	}
	if o.StepSize <= 0 {
		o.StepSize = defaultStepSize
	}
	if o.PageFraction <= 0 {
		o.PageFraction = defaultPageFraction
	}
	if o.RepeatInterval <= 0 {
		o.RepeatInterval = scrollbar.DefaultRepeatInterval
	}
	if o.CanvasWidth <= 0 {
		o.CanvasWidth = defaultCanvasSize
	}
	if o.CanvasHeight <= 0 {
		o.CanvasHeight = defaultCanvasSize
	}
	if o.TroughUnits <= 0 {
		o.TroughUnits = defaultTroughUnits
	}
}

// SliderState is the visual state of one scrollbar slider.
type SliderState struct {
	Position float64 `json:"position"`
	Extent   float64 `json:"extent"`
}

// ViewBoxChange is delivered to the OnViewBoxChange observer.
type ViewBoxChange struct {
	ViewBox    string      `json:"viewBox"`
	Horizontal SliderState `json:"horizontal"`
	Vertical   SliderState `json:"vertical"`
}

// Engine owns the document, the scene graph, the viewBox and the two
// scrollbars bound to it. It is not safe for concurrent use; callers
// serialize access, including the scrollbar repeat callbacks delivered
// through Options.Scheduler.
type Engine struct {
	opts Options

	// Document state
	doc   *document.Document
	cache *transformCache

	// Retained scene graph
	sceneGraph *SceneGraph
	dirty      bool

	// Viewport state. The engine is the only owner of the viewBox.
	viewBox viewport.ViewBox
	bounds  viewport.Bounds
	extent  geom.Rect

	scrollbars [2]*scrollbar.Controller
	// syncing suppresses scroll signals while the engine itself moves the
	// sliders to match a new viewBox.
	syncing bool

	selection []string

	onViewBoxChange func(ViewBoxChange)
}

// New creates an engine holding an empty document of the configured size.
func New(opts Options) *Engine {
	opts.setDefaults()
	e := &Engine{
		opts:       opts,
		cache:      newTransformCache(opts.Parser),
		sceneGraph: NewSceneGraph(),
	}
	for _, o := range []scrollbar.Orientation{scrollbar.Horizontal, scrollbar.Vertical} {
		e.scrollbars[o] = scrollbar.New(scrollbar.Options{
			Orientation:    o,
			RepeatInterval: opts.RepeatInterval,
			Scheduler:      opts.Scheduler,
			OnScroll:       e.handleScroll,
		}, scrollbar.Geometry{TroughExtent: opts.TroughUnits, SliderExtent: opts.TroughUnits})
	}
	doc := document.NewEmptyDocument("", "root", opts.CanvasWidth, opts.CanvasHeight)
	if err := e.setDocument(doc); err != nil {
		panic(err) // unreachable: the empty document is well formed
	}
	return e
}

// --- Commands ---

// LoadDocument loads a document from JSON.
func (e *Engine) LoadDocument(jsonData string) error {
	doc, err := document.FromJSON([]byte(jsonData))
	if err != nil {
		return err
	}
	return e.setDocument(doc)
}

// LoadSVG loads a document from SVG markup.
func (e *Engine) LoadSVG(r io.Reader, id string) error {
	doc, err := document.ReadSVG(r, id)
	if err != nil {
		return err
	}
	return e.setDocument(doc)
}

// LoadSampleDocument loads the built-in sample document.
func (e *Engine) LoadSampleDocument(canvasID string) {
	if err := e.setDocument(document.NewSampleDocument(canvasID)); err != nil {
		panic(err) // unreachable: the sample viewBox is valid
	}
}

func (e *Engine) setDocument(doc *document.Document) error {
	extent := doc.Extent()
	if extent.IsEmpty() {
		extent = geom.Rect{Width: e.opts.CanvasWidth, Height: e.opts.CanvasHeight}
	}

	vb := viewport.ViewBox{X: int(extent.X), Y: int(extent.Y), Width: int(extent.Width), Height: int(extent.Height)}
	if doc.ViewBox != "" {
		parsed, err := viewport.ParseViewBox(doc.ViewBox)
		if err != nil {
			return fmt.Errorf("document %s: %w", doc.ID, err)
		}
		vb = parsed
	} else if err := vb.Validate(); err != nil {
		return fmt.Errorf("document %s: %w", doc.ID, err)
	}

	e.doc = doc
	e.extent = extent
	e.cache.reset()
	e.selection = nil
	e.dirty = true
	e.applyViewBox(vb)
	return nil
}

// SetBounds records the element's on-screen bounding rectangle.
func (e *Engine) SetBounds(b viewport.Bounds) error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: %gx%g", viewport.ErrDegenerateBounds, b.Width, b.Height)
	}
	e.bounds = b
	return nil
}

// SetViewBox replaces the viewBox and moves the sliders to match.
func (e *Engine) SetViewBox(vb viewport.ViewBox) error {
	if err := vb.Validate(); err != nil {
		return err
	}
	e.applyViewBox(vb)
	e.notify()
	return nil
}

// SetViewBoxString parses and applies a "x y width height" viewBox.
func (e *Engine) SetViewBoxString(raw string) error {
	vb, err := viewport.ParseViewBox(raw)
	if err != nil {
		return err
	}
	return e.SetViewBox(vb)
}

// Zoom scales the view by factor around the screen point (x, y).
func (e *Engine) Zoom(factor, screenX, screenY float64) error {
	p, err := e.PointerToLogical(screenX, screenY)
	if err != nil {
		return err
	}
	vb, err := e.viewBox.ZoomAt(factor, p.X, p.Y)
	if err != nil {
		return err
	}
	e.applyViewBox(vb)
	e.notify()
	return nil
}

// SetNodeTransform parses and assigns a node's transform string. On failure
// the node keeps its previous transform.
func (e *Engine) SetNodeTransform(nodeID, src string) error {
	if e.doc == nil {
		return ErrNoDocument
	}
	obj, ok := e.doc.Objects[nodeID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, nodeID)
	}
	res, err := e.opts.Parser.Parse(src)
	if err != nil {
		return err
	}
	e.cache.entries[nodeID] = parsedTransform{src: src, result: res}
	obj.Transform = src
	e.doc.Objects[nodeID] = obj
	e.dirty = true
	return nil
}

// SetSelection sets the selected object IDs.
func (e *Engine) SetSelection(ids []string) {
	e.selection = ids
}

// OnViewBoxChange registers the observer called after every viewBox change.
func (e *Engine) OnViewBoxChange(fn func(ViewBoxChange)) {
	e.onViewBoxChange = fn
}

// Close stops any running scroll repeat.
func (e *Engine) Close() {
	for _, sb := range e.scrollbars {
		sb.Close()
	}
}

// --- Queries ---

func (e *Engine) graph() *SceneGraph {
	if e.dirty {
		e.sceneGraph = BuildSceneGraph(e.doc, e.cache)
		e.dirty = false
	}
	return e.sceneGraph
}

// ViewBox returns the current viewBox.
func (e *Engine) ViewBox() viewport.ViewBox {
	return e.viewBox
}

// Bounds returns the element bounds last set with SetBounds.
func (e *Engine) Bounds() viewport.Bounds {
	return e.bounds
}

// Document returns the loaded document.
func (e *Engine) Document() *document.Document {
	return e.doc
}

// PointerToLogical converts window coordinates into logical canvas
// coordinates through the current bounds and viewBox.
func (e *Engine) PointerToLogical(screenX, screenY float64) (geom.Point, error) {
	return viewport.ScreenToLogical(screenX, screenY, e.bounds, e.viewBox)
}

// NodeMatrix returns the node's parsed local transform.
func (e *Engine) NodeMatrix(nodeID string) (geom.Matrix2D, error) {
	node, err := e.node(nodeID)
	if err != nil {
		return geom.Matrix2D{}, err
	}
	return node.LocalTransform, nil
}

// WorldMatrix returns the node's transform into logical canvas space.
func (e *Engine) WorldMatrix(nodeID string) (geom.Matrix2D, error) {
	node, err := e.node(nodeID)
	if err != nil {
		return geom.Matrix2D{}, err
	}
	return node.WorldTransform, nil
}

// NodeOps returns the parsed transform ops of a node, in source order.
func (e *Engine) NodeOps(nodeID string) ([]transform.Op, error) {
	node, err := e.node(nodeID)
	if err != nil {
		return nil, err
	}
	return node.Ops, node.TransformErr
}

func (e *Engine) node(nodeID string) (*SceneNode, error) {
	if e.doc == nil {
		return nil, ErrNoDocument
	}
	node, ok := e.graph().NodesById[nodeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, nodeID)
	}
	return node, nil
}

// HitTest returns the topmost node under the screen point, or "".
func (e *Engine) HitTest(screenX, screenY float64) (string, error) {
	p, err := e.PointerToLogical(screenX, screenY)
	if err != nil {
		return "", err
	}
	return HitTest(e.graph(), p), nil
}

// SelectionBounds returns the logical bounding box of the selection.
func (e *Engine) SelectionBounds() geom.Rect {
	if len(e.selection) == 0 {
		return geom.Rect{}
	}
	return GetSelectionBounds(e.graph(), e.selection)
}

// Selection returns the selected object IDs.
func (e *Engine) Selection() []string {
	return e.selection
}

// State is a snapshot of the engine for clients.
type State struct {
	ViewBox    string             `json:"viewBox"`
	Bounds     viewport.Bounds    `json:"bounds"`
	Extent     geom.Rect          `json:"extent"`
	Horizontal scrollbar.Snapshot `json:"horizontal"`
	Vertical   scrollbar.Snapshot `json:"vertical"`
	Selection  []string           `json:"selection"`
	Document   *document.Document `json:"document,omitempty"`
}

// State returns the current state.
func (e *Engine) State() State {
	sel := e.selection
	if sel == nil {
		sel = []string{}
	}
	return State{
		ViewBox:    e.viewBox.String(),
		Bounds:     e.bounds,
		Extent:     e.extent,
		Horizontal: e.scrollbars[scrollbar.Horizontal].Snapshot(),
		Vertical:   e.scrollbars[scrollbar.Vertical].Snapshot(),
		Selection:  sel,
		Document:   e.doc,
	}
}

// StateJSON returns State as JSON.
func (e *Engine) StateJSON() string {
	data, _ := json.Marshal(e.State())
	return string(data)
}
