package document

import (
	"encoding/json"
	"fmt"

	"github.com/inamate/inamate/viewport-go/internal/geom"
)

// Document is a scene: a tree of objects, each carrying its raw transform
// string, plus the canvas viewBox and logical size.
type Document struct {
	ID      string                `json:"id"`
	ViewBox string                `json:"viewBox"`
	Width   float64               `json:"width"`
	Height  float64               `json:"height"`
	Root    string                `json:"root"`
	Objects map[string]ObjectNode `json:"objects"`
}

type ObjectType string

const (
	ObjectTypeGroup   ObjectType = "Group"
	ObjectTypeRect    ObjectType = "Rect"
	ObjectTypeEllipse ObjectType = "Ellipse"
	ObjectTypeImage   ObjectType = "Image"
	ObjectTypeUse     ObjectType = "Use"
)

type ObjectNode struct {
	ID       string     `json:"id"`
	Type     ObjectType `json:"type"`
	Parent   *string    `json:"parent"`
	Children []string   `json:"children"`

	// Transform is the transform attribute verbatim, e.g.
	// "translate(10,20) rotate(0.5)".
	Transform string `json:"transform"`

	// Box is the geometry in the object's local frame. Groups have none.
	Box     geom.Rect `json:"box"`
	Visible bool      `json:"visible"`
}

// NewEmptyDocument creates a document holding only a root group.
func NewEmptyDocument(id, rootID string, width, height float64) *Document {
	return &Document{
		ID:      id,
		ViewBox: fmt.Sprintf("0 0 %d %d", int(width), int(height)),
		Width:   width,
		Height:  height,
		Root:    rootID,
		Objects: map[string]ObjectNode{
			rootID: {
				ID:       rootID,
				Type:     ObjectTypeGroup,
				Children: []string{},
				Visible:  true,
			},
		},
	}
}

// FromJSON decodes a document and checks that it is a well-formed tree.
func FromJSON(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks that the root exists and every child reference resolves.
func (d *Document) Validate() error {
	if _, ok := d.Objects[d.Root]; !ok {
		return fmt.Errorf("root object not found: %s", d.Root)
	}
	for id, obj := range d.Objects {
		for _, childID := range obj.Children {
			if _, ok := d.Objects[childID]; !ok {
				return fmt.Errorf("object %s: child not found: %s", id, childID)
			}
		}
	}
	return nil
}

// Extent is the scrollable logical region of the document.
func (d *Document) Extent() geom.Rect {
	return geom.Rect{X: 0, Y: 0, Width: d.Width, Height: d.Height}
}
