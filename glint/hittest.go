// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/hittest.go
// Summary: Deterministic viewport-point → node-stack hit testing across
//          scrolled content and nested iframes.
// Usage: Rebuilt by the frame loop whenever the cursor moved or layout
//        was invalidated; the result is cached on FullWindowState.

package glint

// HitTestItem locates one hit within a node.
type HitTestItem struct {
	// PointInViewport is the tested point in window coordinates.
	PointInViewport LogicalPosition
	// PointRelativeToItem is the point in the node's local space, after
	// scroll offsets and iframe origins were subtracted.
	PointRelativeToItem LogicalPosition
}

// DomHitTest is the per-DOM slice of a FullHitTest.
type DomHitTest struct {
	// RegularHitTestNodes: nodes whose hit-test tag matched the point.
	RegularHitTestNodes map[NodeId]HitTestItem
	// ScrollHitTestNodes: scrollable ancestors the point passed through.
	ScrollHitTestNodes map[NodeId]HitTestItem
}

// FullHitTest maps every hovered DOM to its hit nodes.
type FullHitTest struct {
	HoveredNodes map[DomId]DomHitTest
	// FocusedNode is the deepest hit node carrying a tab index; mouse-up
	// moves focus here when focus-follows-click applies.
	FocusedNode OptionDomNodeId
}

// IsEmpty reports whether nothing was hit.
func (h FullHitTest) IsEmpty() bool { return len(h.HoveredNodes) == 0 }

// Clone deep-copies the hit test for state snapshots.
func (h FullHitTest) Clone() FullHitTest {
	out := FullHitTest{FocusedNode: h.FocusedNode}
	if len(h.HoveredNodes) > 0 {
		out.HoveredNodes = make(map[DomId]DomHitTest, len(h.HoveredNodes))
		for dom, d := range h.HoveredNodes {
			copied := DomHitTest{}
			if len(d.RegularHitTestNodes) > 0 {
				copied.RegularHitTestNodes = make(map[NodeId]HitTestItem, len(d.RegularHitTestNodes))
				for n, item := range d.RegularHitTestNodes {
					copied.RegularHitTestNodes[n] = item
				}
			}
			if len(d.ScrollHitTestNodes) > 0 {
				copied.ScrollHitTestNodes = make(map[NodeId]HitTestItem, len(d.ScrollHitTestNodes))
				for n, item := range d.ScrollHitTestNodes {
					copied.ScrollHitTestNodes[n] = item
				}
			}
			out.HoveredNodes[dom] = copied
		}
	}
	return out
}

// regularNodes returns the regular hit nodes of one DOM (never nil).
func (h FullHitTest) regularNodes(dom DomId) map[NodeId]HitTestItem {
	if d, ok := h.HoveredNodes[dom]; ok {
		return d.RegularHitTestNodes
	}
	return nil
}

// NewFullHitTest resolves the cursor against the layout results. The
// result is a pure function of (point, layout, scroll offsets): the same
// inputs always produce the same output.
func NewFullHitTest(cursor CursorPosition, layoutResults []*LayoutResult, scrollStates *ScrollStates) FullHitTest {
	hit := FullHitTest{}
	point, ok := cursor.InWindow()
	if !ok || len(layoutResults) == 0 {
		return hit
	}
	hit.HoveredNodes = make(map[DomId]DomHitTest)

	type focusCandidate struct {
		id    DomNodeId
		depth int
	}
	var deepestFocus focusCandidate
	deepestFocus.depth = -1

	var hitDom func(domId DomId, origin LogicalPosition, baseDepth int)
	hitDom = func(domId DomId, origin LogicalPosition, baseDepth int) {
		if int(domId) >= len(layoutResults) || layoutResults[domId] == nil {
			return
		}
		lr := layoutResults[domId]
		dom := lr.StyledDom
		if dom.IsEmpty() {
			return
		}

		regular := map[NodeId]HitTestItem{}
		scrollHits := map[NodeId]HitTestItem{}
		depths := dom.nodeDepths()

		var walk func(node NodeId, scrollAccum LogicalPosition)
		walk = func(node NodeId, scrollAccum LogicalPosition) {
			if !lr.ContainsNode(node) {
				return
			}
			rect := lr.Rects[node].Rect.Translate(origin)
			// content inside scrolled ancestors is drawn shifted by the
			// accumulated offset, so shift the probe the other way
			adjusted := point.Add(scrollAccum)
			inside := rect.Contains(adjusted)

			childAccum := scrollAccum
			if _, isScrollable := lr.ScrollableNodes.OverflowingNodes[node]; isScrollable {
				if !inside {
					return // scrollable nodes clip their children
				}
				scrollHits[node] = HitTestItem{
					PointInViewport:     point,
					PointRelativeToItem: adjusted.Sub(rect.Origin),
				}
				childAccum = childAccum.Add(scrollStates.Offset(domId, node))
			}

			if inside {
				if _, tagged := dom.NodeIdsToTagIds[node]; tagged {
					regular[node] = HitTestItem{
						PointInViewport:     point,
						PointRelativeToItem: adjusted.Sub(rect.Origin),
					}
					if dom.NodeData[node].TabIndex.Kind != TabNoKeyboardFocus {
						depth := baseDepth + depths[node]
						if depth > deepestFocus.depth {
							deepestFocus = focusCandidate{
								id:    DomNodeId{Dom: domId, Node: node},
								depth: depth,
							}
						}
					}
				}
				if childDom, isIframe := lr.IframeMapping[node]; isIframe {
					// the iframe's content renders at the node's drawn
					// position: layout origin minus ancestor scroll
					hitDom(childDom, rect.Origin.Sub(childAccum), baseDepth+depths[node]+1)
				}
			}

			for _, child := range dom.Children[node] {
				walk(child, childAccum)
			}
		}
		walk(dom.Root, LogicalPosition{})

		if len(regular) > 0 || len(scrollHits) > 0 {
			entry := DomHitTest{}
			if len(regular) > 0 {
				entry.RegularHitTestNodes = regular
			}
			if len(scrollHits) > 0 {
				entry.ScrollHitTestNodes = scrollHits
			}
			hit.HoveredNodes[domId] = entry
		}
	}
	hitDom(RootDomId, LogicalPosition{}, 0)

	if len(hit.HoveredNodes) == 0 {
		hit.HoveredNodes = nil
	}
	if deepestFocus.depth >= 0 {
		hit.FocusedNode = SomeNode(deepestFocus.id)
	}
	return hit
}
