package engine

import (
	"log/slog"

	"github.com/inamate/inamate/viewport-go/internal/document"
	"github.com/inamate/inamate/viewport-go/internal/geom"
	"github.com/inamate/inamate/viewport-go/internal/transform"
	"github.com/inamate/inamate/viewport-go/internal/viewport"
)

// SceneGraph is the resolved state of the document: every node with its
// parsed local transform and composed world transform.
type SceneGraph struct {
	Root      *SceneNode
	NodesById map[string]*SceneNode
}

// SceneNode is a resolved node ready for hit testing.
type SceneNode struct {
	ID   string
	Type document.ObjectType

	// Transform state
	WorldTransform geom.Matrix2D // parent world * local
	LocalTransform geom.Matrix2D
	Ops            []transform.Op

	// TransformErr is set when the node's transform string failed to parse.
	// The node then uses identity as its local transform.
	TransformErr error

	Visible bool

	// Hierarchy
	Parent   *SceneNode
	Children []*SceneNode

	// Box is the local geometry; Bounds is its axis-aligned box in logical
	// canvas space.
	Box    geom.Rect
	Bounds geom.Rect
}

// NewSceneGraph creates an empty scene graph.
func NewSceneGraph() *SceneGraph {
	return &SceneGraph{
		NodesById: make(map[string]*SceneNode),
	}
}

// parsedTransform is one cache entry: the source string and what it parsed to.
type parsedTransform struct {
	src    string
	result transform.ParseResult
	err    error
}

// transformCache keeps the last parse per node so unchanged transform
// strings are not re-parsed when the graph is rebuilt.
type transformCache struct {
	parser  *transform.Parser
	entries map[string]parsedTransform
}

func newTransformCache(p *transform.Parser) *transformCache {
	return &transformCache{parser: p, entries: make(map[string]parsedTransform)}
}

func (c *transformCache) lookup(id, src string) parsedTransform {
	if e, ok := c.entries[id]; ok && e.src == src {
		return e
	}
	res, err := c.parser.Parse(src)
	e := parsedTransform{src: src, result: res, err: err}
	c.entries[id] = e
	return e
}

func (c *transformCache) reset() {
	clear(c.entries)
}

// BuildSceneGraph resolves the document into a scene graph.
func BuildSceneGraph(doc *document.Document, cache *transformCache) *SceneGraph {
	sg := NewSceneGraph()
	if doc == nil {
		return sg
	}

	rootObj, ok := doc.Objects[doc.Root]
	if !ok {
		return sg
	}

	sg.Root = buildNode(doc, &rootObj, nil, geom.Identity(), cache, sg)
	return sg
}

// buildNode recursively builds a SceneNode from a document ObjectNode.
func buildNode(
	doc *document.Document,
	obj *document.ObjectNode,
	parent *SceneNode,
	parentWorldTransform geom.Matrix2D,
	cache *transformCache,
	sg *SceneGraph,
) *SceneNode {
	if _, seen := sg.NodesById[obj.ID]; seen {
		slog.Warn("object reachable twice in scene, skipping", "object", obj.ID)
		return nil
	}

	parsed := cache.lookup(obj.ID, obj.Transform)
	localMatrix := geom.Identity()
	if parsed.err != nil {
		slog.Debug("node transform failed to parse", "object", obj.ID, "error", parsed.err)
	} else {
		localMatrix = parsed.result.Matrix
	}
	worldMatrix := parentWorldTransform.Multiply(localMatrix)

	node := &SceneNode{
		ID:             obj.ID,
		Type:           obj.Type,
		LocalTransform: localMatrix,
		WorldTransform: worldMatrix,
		Ops:            parsed.result.Ops,
		TransformErr:   parsed.err,
		Visible:        obj.Visible,
		Parent:         parent,
		Box:            obj.Box,
	}
	if !obj.Box.IsEmpty() {
		node.Bounds = worldMatrix.TransformRect(obj.Box)
	}
	sg.NodesById[obj.ID] = node

	for _, childID := range obj.Children {
		childObj, ok := doc.Objects[childID]
		if !ok {
			continue
		}
		if child := buildNode(doc, &childObj, node, worldMatrix, cache, sg); child != nil {
			node.Children = append(node.Children, child)
		}
	}

	return node
}

// HitTest returns the ID of the topmost visible node whose local box
// contains the logical point, or "" if none does.
func HitTest(sg *SceneGraph, p geom.Point) string {
	if sg == nil || sg.Root == nil {
		return ""
	}
	return hitTestNode(sg.Root, p)
}

// hitTestNode tests children first, front to back, since later children
// paint over earlier ones.
func hitTestNode(node *SceneNode, p geom.Point) string {
	if node == nil || !node.Visible {
		return ""
	}

	for i := len(node.Children) - 1; i >= 0; i-- {
		if hit := hitTestNode(node.Children[i], p); hit != "" {
			return hit
		}
	}

	if node.Box.IsEmpty() || !node.Bounds.Contains(p.X, p.Y) {
		return ""
	}
	local, err := viewport.ToNodeSpace(p, node.WorldTransform)
	if err != nil {
		// collapsed to a line or point; nothing to hit
		return ""
	}
	if node.Box.Contains(local.X, local.Y) {
		return node.ID
	}
	return ""
}

// GetSelectionBounds returns the combined world bounds of the given objects.
func GetSelectionBounds(sg *SceneGraph, objectIDs []string) geom.Rect {
	if sg == nil || len(objectIDs) == 0 {
		return geom.Rect{}
	}

	var result geom.Rect
	for _, id := range objectIDs {
		node, ok := sg.NodesById[id]
		if !ok {
			continue
		}
		result = result.Union(subtreeBounds(node))
	}
	return result
}

func subtreeBounds(node *SceneNode) geom.Rect {
	r := node.Bounds
	for _, child := range node.Children {
		r = r.Union(subtreeBounds(child))
	}
	return r
}
