// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/nodes.go
// Summary: NodesToCheck precomputes the enter/leave node sets the callback
//          planner dispatches against, by diffing the previous vs current
//          hit test.
// Usage: Built once per frame between the hit test and the planner.

package glint

// NodesToCheck carries the per-frame node sets derived from hit-test diffs.
type NodesToCheck struct {
	NewHitNodeIds map[DomId]map[NodeId]HitTestItem
	OldHitNodeIds map[DomId]map[NodeId]HitTestItem

	// OnMouseEnterNodes: hit now, not hit last frame.
	OnMouseEnterNodes map[DomId]map[NodeId]HitTestItem
	// OnMouseLeaveNodes: hit last frame, not hit now (carrying the old item).
	OnMouseLeaveNodes map[DomId]map[NodeId]HitTestItem

	OldFocusNode OptionDomNodeId
	NewFocusNode OptionDomNodeId

	CurrentMouseDown bool
}

// NewNodesToCheck diffs the event set's old hit nodes against the current
// hit test. Enter and leave are disjoint per node per frame.
func NewNodesToCheck(events *Events, currentHit FullHitTest, newFocus OptionDomNodeId) NodesToCheck {
	ntc := NodesToCheck{
		NewHitNodeIds:     regularHitNodesByDom(currentHit),
		OldHitNodeIds:     events.OldHitNodeIds,
		OnMouseEnterNodes: map[DomId]map[NodeId]HitTestItem{},
		OnMouseLeaveNodes: map[DomId]map[NodeId]HitTestItem{},
		OldFocusNode:      events.OldFocusNode,
		NewFocusNode:      newFocus,
		CurrentMouseDown:  events.CurrentMouseDown,
	}
	for dom, nodes := range ntc.NewHitNodeIds {
		old := ntc.OldHitNodeIds[dom]
		for node, item := range nodes {
			if _, was := old[node]; !was {
				if ntc.OnMouseEnterNodes[dom] == nil {
					ntc.OnMouseEnterNodes[dom] = map[NodeId]HitTestItem{}
				}
				ntc.OnMouseEnterNodes[dom][node] = item
			}
		}
	}
	for dom, nodes := range ntc.OldHitNodeIds {
		cur := ntc.NewHitNodeIds[dom]
		for node, item := range nodes {
			if _, still := cur[node]; !still {
				if ntc.OnMouseLeaveNodes[dom] == nil {
					ntc.OnMouseLeaveNodes[dom] = map[NodeId]HitTestItem{}
				}
				ntc.OnMouseLeaveNodes[dom][node] = item
			}
		}
	}
	return ntc
}

// SimulatedMouseMove reseeds hover state after a DOM regeneration: every
// currently hovered node counts as freshly entered (hover styling must
// reapply on the new tree), nothing counts as left.
func SimulatedMouseMove(currentHit FullHitTest, focus OptionDomNodeId, mouseDown bool) NodesToCheck {
	hit := regularHitNodesByDom(currentHit)
	enter := make(map[DomId]map[NodeId]HitTestItem, len(hit))
	for dom, nodes := range hit {
		copied := make(map[NodeId]HitTestItem, len(nodes))
		for n, item := range nodes {
			copied[n] = item
		}
		enter[dom] = copied
	}
	return NodesToCheck{
		NewHitNodeIds:     hit,
		OnMouseEnterNodes: enter,
		OnMouseLeaveNodes: map[DomId]map[NodeId]HitTestItem{},
		OldFocusNode:      focus,
		NewFocusNode:      focus,
		CurrentMouseDown:  mouseDown,
	}
}

// EmptyNodesToCheck is used when no hit test ran this frame.
func EmptyNodesToCheck(mouseDown bool) NodesToCheck {
	return NodesToCheck{
		OnMouseEnterNodes: map[DomId]map[NodeId]HitTestItem{},
		OnMouseLeaveNodes: map[DomId]map[NodeId]HitTestItem{},
		CurrentMouseDown:  mouseDown,
	}
}
