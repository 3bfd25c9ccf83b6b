package viewport

import (
	"errors"
	"fmt"

	"github.com/inamate/inamate/viewport-go/internal/geom"
)

// ErrDegenerateBounds is returned when the on-screen element has zero width
// or height.
var ErrDegenerateBounds = errors.New("degenerate element bounds")

// Bounds is an element's on-screen bounding rectangle in screen pixels.
type Bounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b Bounds) check() error {
	if b.Width == 0 || b.Height == 0 {
		return fmt.Errorf("%w: %gx%g", ErrDegenerateBounds, b.Width, b.Height)
	}
	return nil
}

// ScreenToLogical rescales a window-relative pointer position from the
// element's pixel rectangle into the viewBox rectangle.
func ScreenToLogical(screenX, screenY float64, b Bounds, vb ViewBox) (geom.Point, error) {
	if err := b.check(); err != nil {
		return geom.Point{}, err
	}
	return geom.Point{
		X: float64(vb.X) + (screenX-b.Left)*(float64(vb.Width)/b.Width),
		Y: float64(vb.Y) + (screenY-b.Top)*(float64(vb.Height)/b.Height),
	}, nil
}

// LogicalToScreen is the inverse of ScreenToLogical.
func LogicalToScreen(p geom.Point, b Bounds, vb ViewBox) (float64, float64, error) {
	if err := b.check(); err != nil {
		return 0, 0, err
	}
	if err := vb.Validate(); err != nil {
		return 0, 0, err
	}
	return b.Left + (p.X-float64(vb.X))*(b.Width/float64(vb.Width)),
		b.Top + (p.Y-float64(vb.Y))*(b.Height/float64(vb.Height)), nil
}

// ScreenMatrix returns the screen-to-logical mapping as an affine matrix.
func ScreenMatrix(b Bounds, vb ViewBox) (geom.Matrix2D, error) {
	if err := b.check(); err != nil {
		return geom.Matrix2D{}, err
	}
	sx := float64(vb.Width) / b.Width
	sy := float64(vb.Height) / b.Height
	return geom.Matrix2D{sx, 0, 0, sy, float64(vb.X) - b.Left*sx, float64(vb.Y) - b.Top*sy}, nil
}

// ToNodeSpace maps a logical point into the local frame of a node whose
// world transform is world.
func ToNodeSpace(p geom.Point, world geom.Matrix2D) (geom.Point, error) {
	inv, err := world.Invert()
	if err != nil {
		return geom.Point{}, fmt.Errorf("node space: %w", err)
	}
	return inv.Apply(p), nil
}

// FromNodeSpace maps a point in a node's local frame to logical coordinates.
func FromNodeSpace(p geom.Point, world geom.Matrix2D) geom.Point {
	return world.Apply(p)
}
