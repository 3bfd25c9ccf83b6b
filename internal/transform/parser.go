package transform

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/inamate/inamate/viewport-go/internal/geom"
)

// ErrMalformedTransform is matched by every *MalformedTransformError.
var ErrMalformedTransform = errors.New("malformed transform")

// MalformedTransformError reports the token that could not be parsed.
type MalformedTransformError struct {
	Token  string
	Index  int // token ordinal, 0-based
	Offset int // byte offset of the token in the input
	Reason string
}

func (e *MalformedTransformError) Error() string {
	return fmt.Sprintf("malformed transform token %d %q at offset %d: %s", e.Index, e.Token, e.Offset, e.Reason)
}

func (e *MalformedTransformError) Is(target error) bool {
	return target == ErrMalformedTransform
}

// ParseResult is the composed matrix plus the ops in input order.
type ParseResult struct {
	Matrix geom.Matrix2D
	Ops    []Op
}

// Options configures a Parser.
type Options struct {
	// Shorthand accepts translate(x) as translate(x,0) and scale(s) as
	// scale(s,s). Without it both functions require two arguments.
	Shorthand bool
}

type rule struct {
	kind  Kind
	re    *regexp.Regexp
	build func(args []float64) Op
}

// Parser turns transform strings such as "rotate(0.5) translate(20,40)" into
// ops and a composed matrix. A Parser is immutable and safe to share.
//
// Tokens are separated by whitespace and must not contain whitespace
// themselves: "translate(1,2)" parses, "translate(1, 2)" does not.
type Parser struct {
	opts  Options
	rules []rule
}

const num = `(-?(?:\d+(?:\.\d*)?|\.\d+))`

func signature(name string, required, optional int) *regexp.Regexp {
	var sb strings.Builder
	sb.WriteString(`^` + name + `\(`)
	for i := 0; i < required; i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(num)
	}
	if optional > 0 {
		sb.WriteString(`(?:`)
		for i := 0; i < optional; i++ {
			sb.WriteString(`,` + num)
		}
		sb.WriteString(`)?`)
	}
	sb.WriteString(`\)$`)
	return regexp.MustCompile(sb.String())
}

// NewParser compiles the call-signature patterns for opts.
func NewParser(opts Options) *Parser {
	pairOptional := 0
	pairRequired := 2
	if opts.Shorthand {
		pairOptional, pairRequired = 1, 1
	}

	p := &Parser{opts: opts}
	p.rules = []rule{
		{KindMatrix, signature("matrix", 6, 0), func(a []float64) Op {
			return NewMatrix(a[0], a[1], a[2], a[3], a[4], a[5])
		}},
		{KindTranslate, signature("translate", pairRequired, pairOptional), func(a []float64) Op {
			if len(a) == 1 {
				return NewTranslate(a[0], 0)
			}
			return NewTranslate(a[0], a[1])
		}},
		{KindScale, signature("scale", pairRequired, pairOptional), func(a []float64) Op {
			if len(a) == 1 {
				return NewScale(a[0], a[0])
			}
			return NewScale(a[0], a[1])
		}},
		{KindRotate, signature("rotate", 1, 2), func(a []float64) Op {
			if len(a) == 3 {
				return NewRotateAround(a[0], a[1], a[2])
			}
			return NewRotate(a[0])
		}},
		{KindSkewX, signature("skewX", 1, 0), func(a []float64) Op {
			return NewSkewX(a[0])
		}},
		{KindSkewY, signature("skewY", 1, 0), func(a []float64) Op {
			return NewSkewY(a[0])
		}},
	}
	return p
}

// Parse parses s. The empty string yields the identity matrix and no ops.
// On failure the result is the zero ParseResult.
func (p *Parser) Parse(s string) (ParseResult, error) {
	tokens := splitTokens(s)
	ops := make([]Op, 0, len(tokens))
	for i, tok := range tokens {
		op, reason := p.parseToken(tok.text)
		if reason != "" {
			return ParseResult{}, &MalformedTransformError{
				Token:  tok.text,
				Index:  i,
				Offset: tok.offset,
				Reason: reason,
			}
		}
		ops = append(ops, op)
	}
	return ParseResult{Matrix: Compose(ops), Ops: ops}, nil
}

// Compose folds ops into one matrix. The list is reversed and folded left
// with geom.Compose starting from identity, so for "A B" the result is B*A
// in geom.Compose terms, e.g. "rotate(r) translate(x,y)" composes to
// translate(x,y)*rotate(r).
func Compose(ops []Op) geom.Matrix2D {
	m := geom.Identity()
	for i := len(ops) - 1; i >= 0; i-- {
		m = geom.Compose(m, ops[i].Matrix())
	}
	return m
}

func (p *Parser) parseToken(tok string) (Op, string) {
	for _, r := range p.rules {
		groups := r.re.FindStringSubmatch(tok)
		if groups == nil {
			continue
		}
		args := make([]float64, 0, len(groups)-1)
		for _, g := range groups[1:] {
			if g == "" {
				continue // optional group absent
			}
			v, err := strconv.ParseFloat(g, 64)
			if err != nil {
				return nil, fmt.Sprintf("bad number %q", g)
			}
			args = append(args, v)
		}
		op := r.build(args)
		if !op.Matrix().IsFinite() {
			return nil, "non-finite matrix"
		}
		return op, ""
	}

	for _, r := range p.rules {
		if strings.HasPrefix(tok, string(r.kind)+"(") {
			return nil, fmt.Sprintf("bad arguments for %s", r.kind)
		}
	}
	return nil, "unknown transform function"
}

type token struct {
	text   string
	offset int
}

func splitTokens(s string) []token {
	var tokens []token
	start := -1
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, token{text: s[start:i], offset: start})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, token{text: s[start:], offset: start})
	}
	return tokens
}
