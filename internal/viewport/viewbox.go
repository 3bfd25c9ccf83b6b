package viewport

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/inamate/inamate/viewport-go/internal/geom"
)

// ErrInvalidViewBox is matched by every *InvalidViewBoxError.
var ErrInvalidViewBox = errors.New("invalid viewBox")

// InvalidViewBoxError names the offending viewBox field.
type InvalidViewBoxError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidViewBoxError) Error() string {
	return fmt.Sprintf("invalid viewBox %s %s: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidViewBoxError) Is(target error) bool {
	return target == ErrInvalidViewBox
}

// ViewBox is the visible sub-rectangle of the logical canvas, in logical
// units. Width and Height are always positive.
type ViewBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

var fieldNames = [4]string{"x", "y", "width", "height"}

// NewViewBox validates the four values and returns the ViewBox. Each value
// must be an integer; width and height must be positive.
func NewViewBox(x, y, width, height float64) (ViewBox, error) {
	vals := [4]float64{x, y, width, height}
	var out [4]int
	for i, v := range vals {
		n, err := toInt(fieldNames[i], v)
		if err != nil {
			return ViewBox{}, err
		}
		out[i] = n
	}
	vb := ViewBox{X: out[0], Y: out[1], Width: out[2], Height: out[3]}
	if err := vb.Validate(); err != nil {
		return ViewBox{}, err
	}
	return vb, nil
}

func toInt(field string, v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, &InvalidViewBoxError{Field: field, Value: strconv.FormatFloat(v, 'g', -1, 64), Reason: "not an integer"}
	}
	if math.Abs(v) > math.MaxInt32 {
		return 0, &InvalidViewBoxError{Field: field, Value: strconv.FormatFloat(v, 'g', -1, 64), Reason: "out of range"}
	}
	return int(v), nil
}

// Validate checks that width and height are positive.
func (vb ViewBox) Validate() error {
	if vb.Width <= 0 {
		return &InvalidViewBoxError{Field: "width", Value: strconv.Itoa(vb.Width), Reason: "must be positive"}
	}
	if vb.Height <= 0 {
		return &InvalidViewBoxError{Field: "height", Value: strconv.Itoa(vb.Height), Reason: "must be positive"}
	}
	return nil
}

// ParseViewBox reads the "x y width height" attribute form. Commas are
// accepted as separators as well.
func ParseViewBox(raw string) (ViewBox, error) {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(parts) != 4 {
		return ViewBox{}, &InvalidViewBoxError{Field: "viewBox", Value: strconv.Quote(raw), Reason: "want 4 values"}
	}
	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return ViewBox{}, &InvalidViewBoxError{Field: fieldNames[i], Value: strconv.Quote(p), Reason: "not a number"}
		}
		vals[i] = v
	}
	return NewViewBox(vals[0], vals[1], vals[2], vals[3])
}

// FormatViewBox validates the values and writes the attribute form.
func FormatViewBox(x, y, width, height float64) (string, error) {
	vb, err := NewViewBox(x, y, width, height)
	if err != nil {
		return "", err
	}
	return vb.String(), nil
}

// String returns the attribute form "x y width height".
func (vb ViewBox) String() string {
	return fmt.Sprintf("%d %d %d %d", vb.X, vb.Y, vb.Width, vb.Height)
}

// Rect returns the viewBox as a float rectangle.
func (vb ViewBox) Rect() geom.Rect {
	return geom.Rect{X: float64(vb.X), Y: float64(vb.Y), Width: float64(vb.Width), Height: float64(vb.Height)}
}

// Contains reports whether the logical point lies inside the viewBox.
func (vb ViewBox) Contains(x, y float64) bool {
	return vb.Rect().Contains(x, y)
}

// Pan moves the viewBox by (dx, dy) logical units.
func (vb ViewBox) Pan(dx, dy int) ViewBox {
	vb.X += dx
	vb.Y += dy
	return vb
}

// ZoomAt scales the visible extent by 1/factor while keeping the logical
// point (cx, cy) at the same relative position. factor > 1 zooms in.
func (vb ViewBox) ZoomAt(factor, cx, cy float64) (ViewBox, error) {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return ViewBox{}, &InvalidViewBoxError{Field: "zoom", Value: strconv.FormatFloat(factor, 'g', -1, 64), Reason: "must be positive"}
	}
	w := max(1, math.Round(float64(vb.Width)/factor))
	h := max(1, math.Round(float64(vb.Height)/factor))
	x := cx - (cx-float64(vb.X))*w/float64(vb.Width)
	y := cy - (cy-float64(vb.Y))*h/float64(vb.Height)
	return NewViewBox(math.Round(x), math.Round(y), w, h)
}
