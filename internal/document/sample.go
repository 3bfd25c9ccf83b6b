package document

import (
	"github.com/inamate/inamate/viewport-go/internal/geom"
	"github.com/inamate/inamate/viewport-go/internal/typeid"
)

// NewSampleDocument builds a small scene exercising every transform function.
func NewSampleDocument(id string) *Document {
	rootID := typeid.NewObjectID()
	backgroundID := typeid.NewObjectID()
	groupID := typeid.NewObjectID()
	rectID := typeid.NewObjectID()
	ellipseID := typeid.NewObjectID()
	skewedID := typeid.NewObjectID()
	imageID := typeid.NewObjectID()

	rootIDPtr := &rootID
	groupIDPtr := &groupID

	return &Document{
		ID:      id,
		ViewBox: "0 0 1280 720",
		Width:   2560,
		Height:  1440,
		Root:    rootID,
		Objects: map[string]ObjectNode{
			rootID: {
				ID:       rootID,
				Type:     ObjectTypeGroup,
				Children: []string{backgroundID, groupID, skewedID, imageID},
				Visible:  true,
			},
			backgroundID: {
				ID:       backgroundID,
				Type:     ObjectTypeRect,
				Parent:   rootIDPtr,
				Children: []string{},
				Box:      geom.Rect{X: 0, Y: 0, Width: 2560, Height: 1440},
				Visible:  true,
			},
			groupID: {
				ID:        groupID,
				Type:      ObjectTypeGroup,
				Parent:    rootIDPtr,
				Children:  []string{rectID, ellipseID},
				Transform: "translate(400,300) scale(1.5,1.5)",
				Visible:   true,
			},
			rectID: {
				ID:        rectID,
				Type:      ObjectTypeRect,
				Parent:    groupIDPtr,
				Children:  []string{},
				Transform: "rotate(0.785398,50,50)",
				Box:       geom.Rect{X: 0, Y: 0, Width: 100, Height: 100},
				Visible:   true,
			},
			ellipseID: {
				ID:        ellipseID,
				Type:      ObjectTypeEllipse,
				Parent:    groupIDPtr,
				Children:  []string{},
				Transform: "translate(200,0)",
				Box:       geom.Rect{X: -60, Y: -40, Width: 120, Height: 80},
				Visible:   true,
			},
			skewedID: {
				ID:        skewedID,
				Type:      ObjectTypeRect,
				Parent:    rootIDPtr,
				Children:  []string{},
				Transform: "translate(900,200) skewX(0.3) skewY(-0.1)",
				Box:       geom.Rect{X: 0, Y: 0, Width: 160, Height: 90},
				Visible:   true,
			},
			imageID: {
				ID:        imageID,
				Type:      ObjectTypeImage,
				Parent:    rootIDPtr,
				Children:  []string{},
				Transform: "matrix(1,0,0,1,1600,900)",
				Box:       geom.Rect{X: 0, Y: 0, Width: 320, Height: 240},
				Visible:   true,
			},
		},
	}
}
