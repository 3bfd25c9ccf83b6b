//go:build js && wasm

package main

import (
	"encoding/json"
	"strings"
	"syscall/js"

	"github.com/inamate/inamate/viewport-go/internal/engine"
	"github.com/inamate/inamate/viewport-go/internal/scrollbar"
	"github.com/inamate/inamate/viewport-go/internal/transform"
	"github.com/inamate/inamate/viewport-go/internal/viewport"
)

var (
	eng    *engine.Engine
	parser *transform.Parser
)

func main() {
	parser = transform.NewParser(transform.Options{Shorthand: true})
	eng = engine.New(engine.Options{Parser: parser})

	// Create the engine API object
	viewportEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	viewportEngine.Set("loadDocument", js.FuncOf(loadDocument))
	viewportEngine.Set("loadSVG", js.FuncOf(loadSVG))
	viewportEngine.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	viewportEngine.Set("setBounds", js.FuncOf(setBounds))
	viewportEngine.Set("setViewBox", js.FuncOf(setViewBox))
	viewportEngine.Set("zoom", js.FuncOf(zoom))
	viewportEngine.Set("setNodeTransform", js.FuncOf(setNodeTransform))
	viewportEngine.Set("setSelection", js.FuncOf(setSelection))
	viewportEngine.Set("onViewBoxChange", js.FuncOf(onViewBoxChange))

	// --- Scrollbar gestures ---
	viewportEngine.Set("sliderDown", js.FuncOf(sliderDown))
	viewportEngine.Set("sliderMove", js.FuncOf(sliderMove))
	viewportEngine.Set("sliderUp", js.FuncOf(sliderUp))
	viewportEngine.Set("sliderCancel", js.FuncOf(sliderCancel))
	viewportEngine.Set("scrollButtonDown", js.FuncOf(scrollButtonDown))
	viewportEngine.Set("scrollButtonUp", js.FuncOf(scrollButtonUp))
	viewportEngine.Set("scrollButtonLeave", js.FuncOf(scrollButtonLeave))
	viewportEngine.Set("scrollStep", js.FuncOf(scrollStep))
	viewportEngine.Set("scrollPage", js.FuncOf(scrollPage))

	// --- Queries (frontend ← engine) ---
	viewportEngine.Set("parseTransform", js.FuncOf(parseTransform))
	viewportEngine.Set("mapPoint", js.FuncOf(mapPoint))
	viewportEngine.Set("pointerToLogical", js.FuncOf(pointerToLogical))
	viewportEngine.Set("hitTest", js.FuncOf(hitTest))
	viewportEngine.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	viewportEngine.Set("getWorldMatrix", js.FuncOf(getWorldMatrix))
	viewportEngine.Set("getViewBox", js.FuncOf(getViewBox))
	viewportEngine.Set("getState", js.FuncOf(getState))

	// Register on global scope
	js.Global().Set("viewportEngine", viewportEngine)

	// Signal that WASM is ready
	js.Global().Set("viewportWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func ok() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func fail(err error) interface{} {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func missing(what string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": "missing " + what})
}

func result(err error) interface{} {
	if err != nil {
		return fail(err)
	}
	return ok()
}

func toJSON(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return fail(err)
	}
	return js.ValueOf(string(data))
}

func orientation(v js.Value) scrollbar.Orientation {
	if v.Type() == js.TypeString && v.String() == "vertical" {
		return scrollbar.Vertical
	}
	return scrollbar.Horizontal
}

func direction(v js.Value) scrollbar.Direction {
	if v.Type() == js.TypeNumber && v.Int() < 0 {
		return scrollbar.Backward
	}
	return scrollbar.Forward
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("document JSON")
	}
	return result(eng.LoadDocument(args[0].String()))
}

func loadSVG(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("svg markup")
	}
	id := "canvas_local"
	if len(args) > 1 && args[1].Type() == js.TypeString {
		id = args[1].String()
	}
	return result(eng.LoadSVG(strings.NewReader(args[0].String()), id))
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	canvasID := "canvas_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		canvasID = args[0].String()
	}
	eng.LoadSampleDocument(canvasID)
	return ok()
}

func setBounds(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return missing("bounds")
	}
	return result(eng.SetBounds(viewport.Bounds{
		Left:   args[0].Float(),
		Top:    args[1].Float(),
		Width:  args[2].Float(),
		Height: args[3].Float(),
	}))
}

func setViewBox(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("viewBox")
	}
	return result(eng.SetViewBoxString(args[0].String()))
}

func zoom(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return missing("zoom factor and anchor")
	}
	return result(eng.Zoom(args[0].Float(), args[1].Float(), args[2].Float()))
}

func setNodeTransform(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("node id and transform")
	}
	return result(eng.SetNodeTransform(args[0].String(), args[1].String()))
}

func setSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		eng.SetSelection(nil)
		return nil
	}

	arr := args[0]
	length := arr.Length()
	ids := make([]string, length)
	for i := 0; i < length; i++ {
		ids[i] = arr.Index(i).String()
	}
	eng.SetSelection(ids)
	return nil
}

func onViewBoxChange(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeFunction {
		eng.OnViewBoxChange(nil)
		return nil
	}
	cb := args[0]
	eng.OnViewBoxChange(func(c engine.ViewBoxChange) {
		data, err := json.Marshal(c)
		if err != nil {
			return
		}
		cb.Invoke(string(data))
	})
	return nil
}

// --- Scrollbar Handlers ---

func sliderDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return missing("orientation and pointer")
	}
	button := scrollbar.ButtonPrimary
	if len(args) > 3 && args[3].Type() == js.TypeNumber {
		button = scrollbar.Button(args[3].Int())
	}
	return result(eng.SliderDown(orientation(args[0]), args[1].Float(), args[2].Float(), button))
}

func sliderMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return missing("orientation and pointer")
	}
	return result(eng.SliderMove(orientation(args[0]), args[1].Float(), args[2].Float()))
}

func sliderUp(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("orientation")
	}
	return result(eng.SliderUp(orientation(args[0])))
}

func sliderCancel(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("orientation")
	}
	return result(eng.SliderCancel(orientation(args[0])))
}

func scrollButtonDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("orientation and direction")
	}
	return result(eng.ScrollButtonDown(orientation(args[0]), direction(args[1])))
}

func scrollButtonUp(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("orientation")
	}
	return result(eng.ScrollButtonUp(orientation(args[0])))
}

func scrollButtonLeave(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("orientation")
	}
	eng.ScrollButtonLeave(orientation(args[0]))
	return ok()
}

func scrollStep(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("orientation and direction")
	}
	return result(eng.ScrollStep(orientation(args[0]), direction(args[1])))
}

func scrollPage(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("orientation and direction")
	}
	return result(eng.ScrollPage(orientation(args[0]), direction(args[1])))
}

// --- Query Handlers ---

type opJSON struct {
	Type   transform.Kind     `json:"type"`
	Token  string             `json:"token"`
	Params map[string]float64 `json:"params"`
}

func parseTransform(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("transform")
	}
	res, err := parser.Parse(args[0].String())
	if err != nil {
		return fail(err)
	}
	ops := make([]opJSON, 0, len(res.Ops))
	for _, op := range res.Ops {
		ops = append(ops, opJSON{Type: op.Kind(), Token: op.String(), Params: transform.Params(op)})
	}
	return toJSON(map[string]interface{}{"matrix": res.Matrix.ToSlice(), "ops": ops})
}

func mapPoint(this js.Value, args []js.Value) interface{} {
	if len(args) < 7 {
		return missing("point, bounds and viewBox")
	}
	vb, err := viewport.ParseViewBox(args[6].String())
	if err != nil {
		return fail(err)
	}
	b := viewport.Bounds{Left: args[2].Float(), Top: args[3].Float(), Width: args[4].Float(), Height: args[5].Float()}
	p, err := viewport.ScreenToLogical(args[0].Float(), args[1].Float(), b, vb)
	if err != nil {
		return fail(err)
	}
	return toJSON(p)
}

func pointerToLogical(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("pointer")
	}
	p, err := eng.PointerToLogical(args[0].Float(), args[1].Float())
	if err != nil {
		return fail(err)
	}
	return toJSON(p)
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	id, err := eng.HitTest(args[0].Float(), args[1].Float())
	if err != nil {
		return js.ValueOf("")
	}
	return js.ValueOf(id)
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	return toJSON(eng.SelectionBounds())
}

func getWorldMatrix(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("node id")
	}
	m, err := eng.WorldMatrix(args[0].String())
	if err != nil {
		return fail(err)
	}
	return toJSON(m.ToSlice())
}

func getViewBox(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.ViewBox().String())
}

func getState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.StateJSON())
}
