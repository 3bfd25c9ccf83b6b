package document

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/inamate/inamate/viewport-go/internal/geom"
	"github.com/inamate/inamate/viewport-go/internal/typeid"
)

var errNoSVG = errors.New("no svg root element")

var elementTypes = map[string]ObjectType{
	"svg":     ObjectTypeGroup,
	"g":       ObjectTypeGroup,
	"rect":    ObjectTypeRect,
	"circle":  ObjectTypeEllipse,
	"ellipse": ObjectTypeEllipse,
	"image":   ObjectTypeImage,
	"use":     ObjectTypeUse,
}

// svgCursor is used while reading SVG files
type svgCursor struct {
	doc *Document
	// ids of open elements; "" marks an element that is not part of the scene
	stack []string
}

// ReadSVG reads a scene from a subset of SVG: the root viewBox, width and
// height, and the id, transform and geometry attributes of g, rect, circle,
// ellipse, image and use elements. Other elements are skipped; their known
// descendants attach to the nearest scene ancestor. Transform strings are
// kept verbatim.
func ReadSVG(r io.Reader, id string) (*Document, error) {
	c := &svgCursor{doc: &Document{ID: id, Objects: make(map[string]ObjectNode)}}
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel
	for {
		t, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		switch se := t.(type) {
		case xml.StartElement:
			if err := c.start(se); err != nil {
				return nil, err
			}
		case xml.EndElement:
			if len(c.stack) > 0 {
				c.stack = c.stack[:len(c.stack)-1]
			}
		}
	}
	if c.doc.Root == "" {
		return nil, errNoSVG
	}
	return c.doc, nil
}

func (c *svgCursor) parent() *string {
	for i := len(c.stack) - 1; i >= 0; i-- {
		if c.stack[i] != "" {
			id := c.stack[i]
			return &id
		}
	}
	return nil
}

func (c *svgCursor) start(se xml.StartElement) error {
	typ, ok := elementTypes[se.Name.Local]
	if !ok || (c.doc.Root == "" && se.Name.Local != "svg") {
		c.stack = append(c.stack, "")
		return nil
	}

	attrs := make(map[string]string, len(se.Attr))
	for _, a := range se.Attr {
		attrs[a.Name.Local] = a.Value
	}

	id := attrs["id"]
	if id == "" {
		id = typeid.NewObjectID()
	}
	if _, dup := c.doc.Objects[id]; dup {
		return fmt.Errorf("duplicate element id %q", id)
	}

	obj := ObjectNode{
		ID:        id,
		Type:      typ,
		Parent:    c.parent(),
		Children:  []string{},
		Transform: strings.TrimSpace(attrs["transform"]),
		Visible:   attrs["display"] != "none" && attrs["visibility"] != "hidden",
	}

	box, err := readBox(se.Name.Local, attrs)
	if err != nil {
		return fmt.Errorf("element %s: %w", id, err)
	}
	obj.Box = box

	if c.doc.Root == "" {
		c.doc.Root = id
		c.doc.ViewBox = strings.TrimSpace(attrs["viewBox"])
		if c.doc.Width, err = readLength(attrs, "width"); err != nil {
			return fmt.Errorf("element %s: %w", id, err)
		}
		if c.doc.Height, err = readLength(attrs, "height"); err != nil {
			return fmt.Errorf("element %s: %w", id, err)
		}
	} else if obj.Parent != nil {
		p := c.doc.Objects[*obj.Parent]
		p.Children = append(p.Children, id)
		c.doc.Objects[*obj.Parent] = p
	}

	c.doc.Objects[id] = obj
	c.stack = append(c.stack, id)
	return nil
}

func readBox(tag string, attrs map[string]string) (geom.Rect, error) {
	var names []string
	switch tag {
	case "rect", "image", "use":
		names = []string{"x", "y", "width", "height"}
	case "circle":
		names = []string{"cx", "cy", "r"}
	case "ellipse":
		names = []string{"cx", "cy", "rx", "ry"}
	default:
		return geom.Rect{}, nil
	}

	vals := make([]float64, len(names))
	for i, n := range names {
		v, err := readLength(attrs, n)
		if err != nil {
			return geom.Rect{}, err
		}
		vals[i] = v
	}

	switch tag {
	case "circle":
		return geom.Rect{X: vals[0] - vals[2], Y: vals[1] - vals[2], Width: 2 * vals[2], Height: 2 * vals[2]}, nil
	case "ellipse":
		return geom.Rect{X: vals[0] - vals[2], Y: vals[1] - vals[3], Width: 2 * vals[2], Height: 2 * vals[3]}, nil
	}
	return geom.Rect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

// readLength reads a unitless or px length. Missing attributes are zero.
func readLength(attrs map[string]string, name string) (float64, error) {
	v, ok := attrs[name]
	if !ok {
		return 0, nil
	}
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("attribute %s: %w", name, err)
	}
	return f, nil
}
