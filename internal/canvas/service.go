package canvas

import (
	"errors"
	"fmt"
	"strings"

	"github.com/inamate/inamate/viewport-go/internal/auth"
	"github.com/inamate/inamate/viewport-go/internal/engine"
	"github.com/inamate/inamate/viewport-go/internal/geom"
	"github.com/inamate/inamate/viewport-go/internal/session"
	"github.com/inamate/inamate/viewport-go/internal/transform"
	"github.com/inamate/inamate/viewport-go/internal/typeid"
	"github.com/inamate/inamate/viewport-go/internal/viewport"
)

var ErrInvalidDocument = errors.New("invalid document")

type Service struct {
	hub    *session.Hub
	tokens *auth.Service
	parser *transform.Parser
}

func NewService(hub *session.Hub, tokens *auth.Service, parser *transform.Parser) *Service {
	return &Service{hub: hub, tokens: tokens, parser: parser}
}

type OpResult struct {
	Type   transform.Kind     `json:"type"`
	Token  string             `json:"token"`
	Params map[string]float64 `json:"params"`
	Matrix []float64          `json:"matrix"`
}

type ParseResult struct {
	Matrix []float64  `json:"matrix"`
	Ops    []OpResult `json:"ops"`
}

// ParseTransform parses a transform string into its ops and composed matrix.
func (s *Service) ParseTransform(src string) (*ParseResult, error) {
	res, err := s.parser.Parse(src)
	if err != nil {
		return nil, err
	}
	out := &ParseResult{
		Matrix: res.Matrix.ToSlice(),
		Ops:    make([]OpResult, 0, len(res.Ops)),
	}
	for _, op := range res.Ops {
		m := op.Matrix()
		out.Ops = append(out.Ops, OpResult{
			Type:   op.Kind(),
			Token:  op.String(),
			Params: transform.Params(op),
			Matrix: m.ToSlice(),
		})
	}
	return out, nil
}

// MapPoint converts a screen point to logical coordinates.
func (s *Service) MapPoint(x, y float64, bounds viewport.Bounds, rawViewBox string) (geom.Point, error) {
	vb, err := viewport.ParseViewBox(rawViewBox)
	if err != nil {
		return geom.Point{}, err
	}
	return viewport.ScreenToLogical(x, y, bounds, vb)
}

type Created struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// Create opens a new canvas from SVG markup, or from the sample document when
// svg is empty, and returns a session token for it.
func (s *Service) Create(svg string) (*Created, error) {
	id := typeid.NewCanvasID()
	_, err := s.hub.CreateRoom(id, func(e *engine.Engine) error {
		if strings.TrimSpace(svg) == "" {
			e.LoadSampleDocument(id)
			return nil
		}
		if err := e.LoadSVG(strings.NewReader(svg), id); err != nil {
			if errors.Is(err, viewport.ErrInvalidViewBox) {
				return err
			}
			return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.IssueToken(id)
	if err != nil {
		return nil, err
	}
	return &Created{ID: id, Token: token}, nil
}

// State returns the state of a canvas.
func (s *Service) State(canvasID string) (engine.State, error) {
	room, err := s.hub.Room(canvasID)
	if err != nil {
		return engine.State{}, err
	}
	return room.State(), nil
}
