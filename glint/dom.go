// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/dom.go
// Summary: The styled DOM tree produced by the layout callback: node data,
//          hierarchy arrays, callback registrations and hit-test tags.
// Usage: Built by user layout callbacks, consumed by the layout boundary,
//        hit tester and callback planner.

package glint

import "sort"

// NodeType is the kind of a DOM node.
type NodeType uint8

const (
	NodeDiv NodeType = iota
	NodeText
	NodeImage
	NodeIFrame
	NodeGlTexture
)

// TabIndexKind controls keyboard focusability of a node.
type TabIndexKind uint8

const (
	// TabNoKeyboardFocus: not reachable via tab (the default).
	TabNoKeyboardFocus TabIndexKind = iota
	// TabAuto: focusable, tab order follows DOM order.
	TabAuto
	// TabOverride: focusable with an explicit position in the parent.
	TabOverride
)

// TabIndex is the resolved tab-index attribute of a node.
type TabIndex struct {
	Kind     TabIndexKind
	Override uint32
}

// Callback is a user event handler. It must run to completion without
// blocking; long work belongs in a Thread, recurring work in a Timer.
type Callback func(data *RefAny, info *CallbackInfo) Update

// CallbackData is one callback registration on a node.
type CallbackData struct {
	Event    EventFilter
	Callback Callback
	Data     *RefAny
}

// NodeData is the per-node payload of a styled DOM.
type NodeData struct {
	Type    NodeType
	Id      string
	Classes []string

	// Words is the text content of NodeText nodes.
	Words string

	// ImageHash / BackgroundImageHash reference entries in the image cache.
	ImageHash           ImageRefHash
	BackgroundImageHash ImageRefHash

	TabIndex  TabIndex
	Callbacks []CallbackData

	// RenderImage is set on NodeGlTexture nodes; it draws into a texture
	// each time the node needs repainting.
	RenderImage     RenderImageCallback
	RenderImageData *RefAny

	// Cascaded properties after styling. Kept sorted by type.
	Style []CssProperty
}

// HasCallback reports whether the node registered a callback for filter.
func (d *NodeData) HasCallback(filter EventFilter) bool {
	for i := range d.Callbacks {
		if d.Callbacks[i].Event == filter {
			return true
		}
	}
	return false
}

// hasFocusCallback reports whether any Focus(...) callback is registered.
func (d *NodeData) hasFocusCallback() bool {
	for i := range d.Callbacks {
		if d.Callbacks[i].Event.Kind == FilterKindFocus {
			return true
		}
	}
	return false
}

// needsHitTest reports whether the node must carry a hit-test tag.
func (d *NodeData) needsHitTest() bool {
	if d.TabIndex.Kind != TabNoKeyboardFocus {
		return true
	}
	for i := range d.Callbacks {
		switch d.Callbacks[i].Event.Kind {
		case FilterKindHover, FilterKindFocus, FilterKindNotHover, FilterKindNotFocus:
			return true
		}
	}
	return false
}

// IsFocusable reports whether the node can receive keyboard focus: it has
// a tab index or registers a focus-receiving callback.
func (d *NodeData) IsFocusable() bool {
	return d.TabIndex.Kind != TabNoKeyboardFocus || d.hasFocusCallback()
}

// StyledDom is the node tree the layout callback hands back, annotated
// with resolved styles and hit-test tags. Hierarchy is stored as dense
// parallel arrays indexed by NodeId.
type StyledDom struct {
	Root     NodeId
	NodeData []NodeData
	Parent   []NodeId
	Children [][]NodeId

	// TagIdsToNodeIds maps hit-test tags back to nodes. Assigned by
	// ensureTags when the DOM enters a LayoutResult.
	TagIdsToNodeIds map[TagId]NodeId
	NodeIdsToTagIds map[NodeId]TagId

	// depthSorted caches nodes ordered leaves-first for dispatch.
	depthSorted []NodeId
	depths      []int
}

// NewStyledDom creates a DOM with the given root node data.
func NewStyledDom(root NodeData) *StyledDom {
	return &StyledDom{
		Root:     0,
		NodeData: []NodeData{root},
		Parent:   []NodeId{NodeIdNone},
		Children: [][]NodeId{nil},
	}
}

// AddChild appends a node under parent and returns its id.
func (d *StyledDom) AddChild(parent NodeId, data NodeData) NodeId {
	id := NodeId(len(d.NodeData))
	d.NodeData = append(d.NodeData, data)
	d.Parent = append(d.Parent, parent)
	d.Children = append(d.Children, nil)
	d.Children[parent] = append(d.Children[parent], id)
	d.invalidateCaches()
	return id
}

// Len returns the number of nodes.
func (d *StyledDom) Len() int { return len(d.NodeData) }

// IsEmpty reports whether the DOM carries no nodes at all. The layout
// boundary treats invalid layout-callback output as an empty DOM.
func (d *StyledDom) IsEmpty() bool { return d == nil || len(d.NodeData) == 0 }

func (d *StyledDom) invalidateCaches() {
	d.depthSorted = nil
	d.depths = nil
}

// ensureTags assigns hit-test tags to every node that needs one.
// Idempotent; called when the DOM is adopted into a LayoutResult.
func (d *StyledDom) ensureTags() {
	if d.TagIdsToNodeIds == nil {
		d.TagIdsToNodeIds = make(map[TagId]NodeId)
		d.NodeIdsToTagIds = make(map[NodeId]TagId)
	}
	for i := range d.NodeData {
		id := NodeId(i)
		if _, tagged := d.NodeIdsToTagIds[id]; tagged {
			continue
		}
		if d.NodeData[i].needsHitTest() {
			tag := NewTagId()
			d.TagIdsToNodeIds[tag] = id
			d.NodeIdsToTagIds[id] = tag
		}
	}
}

// nodeDepth computes depths lazily.
func (d *StyledDom) nodeDepths() []int {
	if d.depths != nil {
		return d.depths
	}
	depths := make([]int, len(d.NodeData))
	var walk func(n NodeId, depth int)
	walk = func(n NodeId, depth int) {
		depths[n] = depth
		for _, c := range d.Children[n] {
			walk(c, depth+1)
		}
	}
	if len(d.NodeData) > 0 {
		walk(d.Root, 0)
	}
	d.depths = depths
	return depths
}

// NodesReverseDepth returns node ids ordered deepest-first (leaves toward
// root), stable by id within a depth. Dispatch order for callbacks.
func (d *StyledDom) NodesReverseDepth() []NodeId {
	if d.depthSorted != nil {
		return d.depthSorted
	}
	depths := d.nodeDepths()
	order := make([]NodeId, len(d.NodeData))
	for i := range order {
		order[i] = NodeId(i)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return depths[order[a]] > depths[order[b]]
	})
	d.depthSorted = order
	return order
}

// Contains reports whether id is a valid node in this DOM.
func (d *StyledDom) Contains(id NodeId) bool {
	return id >= 0 && int(id) < len(d.NodeData)
}

// QueryFirst returns the first node (in DOM order) matching the css path.
func (d *StyledDom) QueryFirst(path CssPath) (NodeId, bool) {
	for i := range d.NodeData {
		if path.MatchesNode(d, NodeId(i)) {
			return NodeId(i), true
		}
	}
	return NodeIdNone, false
}

// restyle applies property changes to a node's cascaded style and returns
// the transitions that actually changed something.
func (d *StyledDom) restyle(node NodeId, props []CssProperty) []ChangedCssProperty {
	if !d.Contains(node) {
		return nil
	}
	data := &d.NodeData[node]
	var changed []ChangedCssProperty
	for _, p := range props {
		replaced := false
		for i := range data.Style {
			if data.Style[i].Type == p.Type {
				if data.Style[i] != p {
					changed = append(changed, ChangedCssProperty{Previous: data.Style[i], Current: p})
					data.Style[i] = p
				}
				replaced = true
				break
			}
		}
		if !replaced {
			changed = append(changed, ChangedCssProperty{Previous: CssProperty{Type: p.Type}, Current: p})
			data.Style = append(data.Style, p)
		}
	}
	return changed
}

// StyleValue returns the cascaded value for a property type, if set.
func (d *StyledDom) StyleValue(node NodeId, t CssPropertyType) (CssProperty, bool) {
	if !d.Contains(node) {
		return CssProperty{}, false
	}
	for _, p := range d.NodeData[node].Style {
		if p.Type == t {
			return p, true
		}
	}
	return CssProperty{}, false
}
