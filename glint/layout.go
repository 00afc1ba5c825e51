// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/layout.go
// Summary: LayoutResult and the boundary to the external layout solver:
//          positioned rectangles, scrollable-node geometry, gpu value cache,
//          iframe mapping and display-list production.
// Usage: The frame loop owns one LayoutResult per DOM per window.

package glint

// PositionedRectangle is the solved box of one node, in logical pixels
// relative to the DOM viewport origin.
type PositionedRectangle struct {
	Rect      LogicalRect
	MarginBox LogicalRect
}

// OverflowingScrollNode describes one scrollable node: the visible parent
// rect and the (larger) child content rect. Source of truth for scroll
// clamping and scroll hit tests.
type OverflowingScrollNode struct {
	ParentRect       LogicalRect
	ChildRect        LogicalRect
	VirtualChildRect LogicalRect
	ScrollTagId      TagId
}

// MaxScroll returns the largest valid scroll offset for the node.
func (o OverflowingScrollNode) MaxScroll() LogicalPosition {
	dx := o.ChildRect.Size.Width - o.ParentRect.Size.Width
	dy := o.ChildRect.Size.Height - o.ParentRect.Size.Height
	if dx < 0 {
		dx = 0
	}
	if dy < 0 {
		dy = 0
	}
	return LogicalPosition{X: dx, Y: dy}
}

// ScrollableNodes indexes the overflowing nodes of one LayoutResult.
type ScrollableNodes struct {
	OverflowingNodes map[NodeId]OverflowingScrollNode
	TagsToNodeIds    map[TagId]NodeId
}

// GpuEventChanges lists gpu-uniform keys whose values changed this frame.
type GpuEventChanges struct {
	ChangedKeys map[NodeId][]CssPropertyType
}

// IsEmpty reports whether nothing changed.
func (g GpuEventChanges) IsEmpty() bool { return len(g.ChangedKeys) == 0 }

// GpuValueCache mirrors animatable properties that are uploaded as GPU
// uniforms (opacity, transforms) so pure-GPU changes skip the display list.
type GpuValueCache struct {
	Values map[NodeId]map[CssPropertyType]float32
}

// Synchronize diffs the cache against the DOM's current cascaded values
// and returns the changed keys.
func (c *GpuValueCache) Synchronize(dom *StyledDom) GpuEventChanges {
	changes := GpuEventChanges{ChangedKeys: map[NodeId][]CssPropertyType{}}
	if c.Values == nil {
		c.Values = make(map[NodeId]map[CssPropertyType]float32)
	}
	for i := range dom.NodeData {
		node := NodeId(i)
		for _, prop := range dom.NodeData[i].Style {
			if !prop.Type.IsGpuOnly() {
				continue
			}
			byType := c.Values[node]
			if byType == nil {
				byType = make(map[CssPropertyType]float32)
				c.Values[node] = byType
			}
			if old, ok := byType[prop.Type]; !ok || old != prop.Value {
				byType[prop.Type] = prop.Value
				changes.ChangedKeys[node] = append(changes.ChangedKeys[node], prop.Type)
			}
		}
	}
	if len(changes.ChangedKeys) == 0 {
		changes.ChangedKeys = nil
	}
	return changes
}

// LayoutResult is one solved DOM: the styled tree plus per-node boxes and
// scroll metadata. Produced by the layout solver, owned by the window.
type LayoutResult struct {
	DomId       DomId
	ParentDomId DomId
	HasParent   bool

	StyledDom       *StyledDom
	Rects           []PositionedRectangle
	ScrollableNodes ScrollableNodes
	GpuValueCache   GpuValueCache

	// IframeMapping maps iframe nodes to the child DomId rendered inside.
	IframeMapping map[NodeId]DomId

	RootSize LogicalSize
}

// ContainsNode reports whether node is valid in this result.
func (lr *LayoutResult) ContainsNode(node NodeId) bool {
	return lr != nil && lr.StyledDom != nil && lr.StyledDom.Contains(node) &&
		int(node) < len(lr.Rects)
}

// LayoutCallbackInfo is handed to the user layout callback. The callback
// must not mutate any of it.
type LayoutCallbackInfo struct {
	Size        WindowSize
	Theme       WindowTheme
	ImageCache  *ImageCache
	FontCache   *FontCache
	GlContext   *GlContextPtr
	SystemFonts []string
}

// LayoutCallbackFn produces the next styled DOM for a window.
type LayoutCallbackFn func(data *RefAny, info *LayoutCallbackInfo) *StyledDom

// LayoutCallback is a tagged variant: a raw function pointer, or one
// marshalled together with foreign data. New variants must not break
// existing windows, so the zero value stays a valid "no callback".
type LayoutCallback struct {
	Raw         LayoutCallbackFn
	MarshalData *RefAny
}

// IsSet reports whether any callback was registered.
func (lc LayoutCallback) IsSet() bool { return lc.Raw != nil }

// invoke runs the callback; marshalled callbacks receive their own data
// instead of the window data.
func (lc LayoutCallback) invoke(windowData *RefAny, info *LayoutCallbackInfo) *StyledDom {
	if lc.Raw == nil {
		return nil
	}
	if lc.MarshalData != nil {
		return lc.Raw(lc.MarshalData, info)
	}
	return lc.Raw(windowData, info)
}

// LayoutSolver turns a styled DOM into a LayoutResult. The real solver is
// an external collaborator; SolveStacked below is the built-in used by
// tests and the demo.
type LayoutSolver func(dom *StyledDom, domId DomId, size LogicalSize) *LayoutResult

// RelayoutFn applies incremental css/word diffs to an existing result and
// reports the nodes that changed size.
type RelayoutFn func(lr *LayoutResult, size LogicalSize,
	cssChanges map[NodeId][]ChangedCssProperty, wordChanges map[NodeId]string) []NodeId

// SolveStacked is a deliberately simple solver: children stack vertically
// inside their parent, sized by explicit width/height properties when
// present, otherwise filling the parent width with a fixed row height.
// It exists so the core can be exercised without the real solver.
func SolveStacked(dom *StyledDom, domId DomId, size LogicalSize) *LayoutResult {
	const defaultRowHeight = 20

	lr := &LayoutResult{
		DomId:     domId,
		StyledDom: dom,
		RootSize:  size,
		ScrollableNodes: ScrollableNodes{
			OverflowingNodes: map[NodeId]OverflowingScrollNode{},
			TagsToNodeIds:    map[TagId]NodeId{},
		},
		IframeMapping: map[NodeId]DomId{},
	}
	if dom.IsEmpty() {
		lr.StyledDom = NewStyledDom(NodeData{Type: NodeDiv})
		lr.StyledDom.NodeData = nil
		return lr
	}

	dom.ensureTags()
	lr.Rects = make([]PositionedRectangle, len(dom.NodeData))

	var place func(node NodeId, origin LogicalPosition, avail LogicalSize)
	place = func(node NodeId, origin LogicalPosition, avail LogicalSize) {
		w, h := avail.Width, float32(defaultRowHeight)
		if prop, ok := dom.StyleValue(node, CssWidth); ok {
			w = prop.Value
		}
		if prop, ok := dom.StyleValue(node, CssHeight); ok {
			h = prop.Value
		}
		if len(dom.Children[node]) == 0 && dom.NodeData[node].Type == NodeDiv {
			// leaf containers keep their given height
		}
		if node == dom.Root {
			w, h = avail.Width, avail.Height
			if prop, ok := dom.StyleValue(node, CssWidth); ok {
				w = prop.Value
			}
			if prop, ok := dom.StyleValue(node, CssHeight); ok {
				h = prop.Value
			}
		}
		rect := LogicalRect{Origin: origin, Size: LogicalSize{Width: w, Height: h}}
		lr.Rects[node] = PositionedRectangle{Rect: rect, MarginBox: rect}

		y := origin.Y
		var childBottom float32
		for _, child := range dom.Children[node] {
			place(child, LogicalPosition{X: origin.X, Y: y}, LogicalSize{Width: w, Height: h})
			y += lr.Rects[child].Rect.Size.Height
			if b := lr.Rects[child].Rect.MaxY() - origin.Y; b > childBottom {
				childBottom = b
			}
		}

		// children overflowing the parent box make the node scrollable
		if childBottom > h {
			tag := dom.NodeIdsToTagIds[node]
			if tag == 0 {
				tag = NewTagId()
				if dom.NodeIdsToTagIds == nil {
					dom.ensureTags()
				}
				dom.NodeIdsToTagIds[node] = tag
				dom.TagIdsToNodeIds[tag] = node
			}
			child := LogicalRect{
				Origin: origin,
				Size:   LogicalSize{Width: w, Height: childBottom},
			}
			lr.ScrollableNodes.OverflowingNodes[node] = OverflowingScrollNode{
				ParentRect:       rect,
				ChildRect:        child,
				VirtualChildRect: child,
				ScrollTagId:      tag,
			}
			lr.ScrollableNodes.TagsToNodeIds[tag] = node
		}
	}
	place(dom.Root, LogicalPosition{}, size)
	return lr
}

// RelayoutStacked is the incremental counterpart of SolveStacked: it
// re-places the whole tree (the stub solver is cheap) and reports nodes
// whose box changed.
func RelayoutStacked(lr *LayoutResult, size LogicalSize,
	cssChanges map[NodeId][]ChangedCssProperty, wordChanges map[NodeId]string) []NodeId {

	if lr == nil || lr.StyledDom.IsEmpty() {
		return nil
	}
	for node, words := range wordChanges {
		if lr.StyledDom.Contains(node) {
			lr.StyledDom.NodeData[node].Words = words
		}
	}
	before := make([]PositionedRectangle, len(lr.Rects))
	copy(before, lr.Rects)

	fresh := SolveStacked(lr.StyledDom, lr.DomId, size)
	lr.Rects = fresh.Rects
	lr.ScrollableNodes = fresh.ScrollableNodes
	lr.RootSize = size

	var resized []NodeId
	for i := range lr.Rects {
		if i >= len(before) || before[i].Rect != lr.Rects[i].Rect {
			resized = append(resized, NodeId(i))
		}
	}
	return resized
}
