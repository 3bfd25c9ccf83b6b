package transform

import (
	"strconv"
	"strings"

	"github.com/inamate/inamate/viewport-go/internal/geom"
)

// Kind names a transform function.
type Kind string

const (
	KindMatrix    Kind = "matrix"
	KindTranslate Kind = "translate"
	KindScale     Kind = "scale"
	KindRotate    Kind = "rotate"
	KindSkewX     Kind = "skewX"
	KindSkewY     Kind = "skewY"
)

// Op is one parsed transform function. The set of implementations is closed:
// MatrixOp, TranslateOp, ScaleOp, RotateOp, SkewXOp and SkewYOp.
//
// Angles are radians and are fed to sin/cos/tan unchanged.
type Op interface {
	Kind() Kind
	// Matrix is the op's six-number form, computed when the op is built.
	Matrix() geom.Matrix2D
	// String returns the canonical token, e.g. "translate(5,7)".
	String() string

	isOp()
}

type MatrixOp struct {
	M geom.Matrix2D
}

type TranslateOp struct {
	X, Y float64
	M    geom.Matrix2D
}

type ScaleOp struct {
	X, Y float64
	M    geom.Matrix2D
}

// RotateOp rotates by Angle about the pivot (X, Y). HasPivot records whether
// the pivot was written out; (0, 0) is used otherwise.
type RotateOp struct {
	Angle    float64
	X, Y     float64
	HasPivot bool
	M        geom.Matrix2D
}

type SkewXOp struct {
	Angle float64
	M     geom.Matrix2D
}

type SkewYOp struct {
	Angle float64
	M     geom.Matrix2D
}

// NewMatrix returns a matrix op holding the six values verbatim.
func NewMatrix(a, b, c, d, e, f float64) MatrixOp {
	return MatrixOp{M: geom.Matrix2D{a, b, c, d, e, f}}
}

func NewTranslate(x, y float64) TranslateOp {
	return TranslateOp{X: x, Y: y, M: geom.Translate(x, y)}
}

func NewScale(x, y float64) ScaleOp {
	return ScaleOp{X: x, Y: y, M: geom.Scale(x, y)}
}

// NewRotate returns a rotation about the origin.
func NewRotate(angle float64) RotateOp {
	return RotateOp{Angle: angle, M: geom.Rotate(angle)}
}

// NewRotateAround returns a rotation about the pivot (x, y):
// translate(x,y) * rotate(angle) * translate(-x,-y).
func NewRotateAround(angle, x, y float64) RotateOp {
	return RotateOp{Angle: angle, X: x, Y: y, HasPivot: true, M: geom.RotateAround(angle, x, y)}
}

func NewSkewX(angle float64) SkewXOp {
	return SkewXOp{Angle: angle, M: geom.SkewX(angle)}
}

func NewSkewY(angle float64) SkewYOp {
	return SkewYOp{Angle: angle, M: geom.SkewY(angle)}
}

func (op MatrixOp) Kind() Kind    { return KindMatrix }
func (op TranslateOp) Kind() Kind { return KindTranslate }
func (op ScaleOp) Kind() Kind     { return KindScale }
func (op RotateOp) Kind() Kind    { return KindRotate }
func (op SkewXOp) Kind() Kind     { return KindSkewX }
func (op SkewYOp) Kind() Kind     { return KindSkewY }

func (op MatrixOp) Matrix() geom.Matrix2D    { return op.M }
func (op TranslateOp) Matrix() geom.Matrix2D { return op.M }
func (op ScaleOp) Matrix() geom.Matrix2D     { return op.M }
func (op RotateOp) Matrix() geom.Matrix2D    { return op.M }
func (op SkewXOp) Matrix() geom.Matrix2D     { return op.M }
func (op SkewYOp) Matrix() geom.Matrix2D     { return op.M }

func (MatrixOp) isOp()    {}
func (TranslateOp) isOp() {}
func (ScaleOp) isOp()     {}
func (RotateOp) isOp()    {}
func (SkewXOp) isOp()     {}
func (SkewYOp) isOp()     {}

func (op MatrixOp) String() string {
	return call(KindMatrix, op.M[:]...)
}

func (op TranslateOp) String() string {
	return call(KindTranslate, op.X, op.Y)
}

func (op ScaleOp) String() string {
	return call(KindScale, op.X, op.Y)
}

func (op RotateOp) String() string {
	if op.HasPivot {
		return call(KindRotate, op.Angle, op.X, op.Y)
	}
	return call(KindRotate, op.Angle)
}

func (op SkewXOp) String() string {
	return call(KindSkewX, op.Angle)
}

func (op SkewYOp) String() string {
	return call(KindSkewY, op.Angle)
}

// call formats a token without whitespace so the result parses back.
func call(k Kind, args ...float64) string {
	var sb strings.Builder
	sb.WriteString(string(k))
	sb.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(a, 'f', -1, 64))
	}
	sb.WriteByte(')')
	return sb.String()
}

// Format joins the canonical tokens of ops with single spaces.
func Format(ops []Op) string {
	chunks := make([]string, len(ops))
	for i, op := range ops {
		chunks[i] = op.String()
	}
	return strings.Join(chunks, " ")
}

// Params returns the semantic parameters of op keyed by name.
func Params(op Op) map[string]float64 {
	switch op := op.(type) {
	case MatrixOp:
		return map[string]float64{
			"a": op.M[0], "b": op.M[1], "c": op.M[2],
			"d": op.M[3], "e": op.M[4], "f": op.M[5],
		}
	case TranslateOp:
		return map[string]float64{"x": op.X, "y": op.Y}
	case ScaleOp:
		return map[string]float64{"x": op.X, "y": op.Y}
	case RotateOp:
		return map[string]float64{"angle": op.Angle, "x": op.X, "y": op.Y}
	case SkewXOp:
		return map[string]float64{"angle": op.Angle}
	case SkewYOp:
		return map[string]float64{"angle": op.Angle}
	}
	return nil
}
