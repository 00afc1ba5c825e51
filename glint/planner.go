// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/planner.go
// Summary: Builds the per-frame callback plan: which node receives which
//          event filter, in six phases, deduplicated so Not-filters can
//          check what already fired.
// Usage: Plan once per frame after the event diff; the invoker consumes the
//        plan in reverse depth order with the propagation blacklist.

package glint

import "sort"

// CallbackToCall is one planned invocation.
type CallbackToCall struct {
	Node        NodeId
	EventFilter EventFilter
	// HitItem is set for hover/focus events resolved from a hit test.
	HitItem *HitTestItem
}

// CallbacksOfHitTest is the full plan of one frame.
type CallbacksOfHitTest struct {
	NodesWithCallbacks map[DomId][]CallbackToCall
}

// IsEmpty reports whether nothing is planned.
func (c *CallbacksOfHitTest) IsEmpty() bool {
	for _, list := range c.NodesWithCallbacks {
		if len(list) > 0 {
			return false
		}
	}
	return true
}

// plannedKey dedupes (node, filter) pairs across phases; Not-filter lookup
// uses the positive filter against this set.
type plannedKey struct {
	Node   NodeId
	Filter EventFilter
}

// PlanCallbacks walks the six planning phases. Later phases append to the
// same per-DOM list; a (node, filter) pair is planned at most once.
func PlanCallbacks(events *Events, ntc *NodesToCheck, layoutResults []*LayoutResult) CallbacksOfHitTest {
	plan := CallbacksOfHitTest{NodesWithCallbacks: map[DomId][]CallbackToCall{}}
	planned := map[DomId]map[plannedKey]bool{}

	add := func(dom DomId, node NodeId, filter EventFilter, item *HitTestItem) {
		keys := planned[dom]
		if keys == nil {
			keys = map[plannedKey]bool{}
			planned[dom] = keys
		}
		key := plannedKey{Node: node, Filter: filter}
		if keys[key] {
			return
		}
		keys[key] = true
		plan.NodesWithCallbacks[dom] = append(plan.NodesWithCallbacks[dom],
			CallbackToCall{Node: node, EventFilter: filter, HitItem: item})
	}

	hitItemOf := func(dom DomId, node NodeId) *HitTestItem {
		if items, ok := ntc.NewHitNodeIds[dom]; ok {
			if item, ok := items[node]; ok {
				itemCopy := item
				return &itemCopy
			}
		}
		return nil
	}

	// Phase 1: window filters, on every node registering a matching one.
	if len(events.Window) > 0 {
		for domIdx, lr := range layoutResults {
			if lr == nil || lr.StyledDom.IsEmpty() {
				continue
			}
			dom := DomId(domIdx)
			for i := range lr.StyledDom.NodeData {
				node := NodeId(i)
				for _, cb := range lr.StyledDom.NodeData[i].Callbacks {
					if cb.Event.Kind == FilterKindWindow && events.Window[cb.Event.Window] {
						add(dom, node, cb.Event, hitItemOf(dom, node))
					}
				}
			}
		}
	}

	// Phase 2: enter and leave, exactly once per node per frame.
	for dom, nodes := range ntc.OnMouseEnterNodes {
		lr := layoutOf(layoutResults, dom)
		if lr == nil {
			continue
		}
		for node, item := range nodes {
			if !lr.ContainsNode(node) {
				continue
			}
			filter := OnHover(HoverMouseEnter)
			if lr.StyledDom.NodeData[node].HasCallback(filter) {
				itemCopy := item
				add(dom, node, filter, &itemCopy)
			}
		}
	}
	for dom, nodes := range ntc.OnMouseLeaveNodes {
		lr := layoutOf(layoutResults, dom)
		if lr == nil {
			continue
		}
		for node, item := range nodes {
			if !lr.ContainsNode(node) {
				continue
			}
			filter := OnHover(HoverMouseLeave)
			if lr.StyledDom.NodeData[node].HasCallback(filter) {
				itemCopy := item
				add(dom, node, filter, &itemCopy)
			}
		}
	}

	// Phase 3: other hover filters on the currently hovered nodes.
	for dom, nodes := range ntc.NewHitNodeIds {
		lr := layoutOf(layoutResults, dom)
		if lr == nil {
			continue
		}
		for node, item := range nodes {
			if !lr.ContainsNode(node) {
				continue
			}
			for hev := range events.Hover {
				if hev == HoverMouseEnter || hev == HoverMouseLeave {
					continue
				}
				filter := OnHover(hev)
				if lr.StyledDom.NodeData[node].HasCallback(filter) {
					itemCopy := item
					add(dom, node, filter, &itemCopy)
				}
			}
		}
	}

	// Phase 4: focus lost on the old node, received on the new one.
	if ntc.OldFocusNode != ntc.NewFocusNode {
		if ntc.OldFocusNode.Valid {
			id := ntc.OldFocusNode.Id
			if lr := layoutOf(layoutResults, id.Dom); lr != nil && lr.ContainsNode(id.Node) {
				filter := OnFocus(FocusLost)
				if lr.StyledDom.NodeData[id.Node].HasCallback(filter) {
					add(id.Dom, id.Node, filter, nil)
				}
			}
		}
		if ntc.NewFocusNode.Valid {
			id := ntc.NewFocusNode.Id
			if lr := layoutOf(layoutResults, id.Dom); lr != nil && lr.ContainsNode(id.Node) {
				filter := OnFocus(FocusReceived)
				if lr.StyledDom.NodeData[id.Node].HasCallback(filter) {
					add(id.Dom, id.Node, filter, hitItemOf(id.Dom, id.Node))
				}
			}
		}
	}

	// Phase 5: other focus filters, delivered to the focused node only.
	if ntc.NewFocusNode.Valid && len(events.Focus) > 0 {
		id := ntc.NewFocusNode.Id
		if lr := layoutOf(layoutResults, id.Dom); lr != nil && lr.ContainsNode(id.Node) {
			for fev := range events.Focus {
				if fev == FocusReceived || fev == FocusLost {
					continue
				}
				filter := OnFocus(fev)
				if lr.StyledDom.NodeData[id.Node].HasCallback(filter) {
					add(id.Dom, id.Node, filter, hitItemOf(id.Dom, id.Node))
				}
			}
		}
	}

	// Phase 6: Not filters fire where the positive filter did not.
	for domIdx, lr := range layoutResults {
		if lr == nil || lr.StyledDom.IsEmpty() {
			continue
		}
		dom := DomId(domIdx)
		keys := planned[dom]
		for i := range lr.StyledDom.NodeData {
			node := NodeId(i)
			for _, cb := range lr.StyledDom.NodeData[i].Callbacks {
				if cb.Event.Kind != FilterKindNotHover && cb.Event.Kind != FilterKindNotFocus {
					continue
				}
				positive, ok := cb.Event.Positive()
				if !ok {
					continue
				}
				if keys[plannedKey{Node: node, Filter: positive}] {
					continue
				}
				// the Not event is only meaningful on frames where the
				// positive event happened somewhere
				fired := false
				switch positive.Kind {
				case FilterKindHover:
					fired = events.Hover[positive.Hover]
				case FilterKindFocus:
					fired = events.Focus[positive.Focus]
				}
				if fired {
					add(dom, node, cb.Event, nil)
				}
			}
		}
	}

	return plan
}

// PlanComponentEvent plans a component lifecycle event (mount, unmount,
// resize) for an explicit node set, outside the regular diff pipeline.
func PlanComponentEvent(dom DomId, lr *LayoutResult, filter ComponentEventFilter, nodes []NodeId) []CallbackToCall {
	if lr == nil || lr.StyledDom.IsEmpty() {
		return nil
	}
	var out []CallbackToCall
	want := OnComponent(filter)
	for _, node := range nodes {
		if lr.ContainsNode(node) && lr.StyledDom.NodeData[node].HasCallback(want) {
			out = append(out, CallbackToCall{Node: node, EventFilter: want})
		}
	}
	return out
}

// sortReverseDepth orders one DOM's plan leaves-first, keeping plan order
// among callbacks of the same node.
func sortReverseDepth(list []CallbackToCall, dom *StyledDom) {
	if dom.IsEmpty() {
		return
	}
	depths := dom.nodeDepths()
	sort.SliceStable(list, func(a, b int) bool {
		da, db := 0, 0
		if dom.Contains(list[a].Node) {
			da = depths[list[a].Node]
		}
		if dom.Contains(list[b].Node) {
			db = depths[list[b].Node]
		}
		return da > db
	})
}

func layoutOf(layoutResults []*LayoutResult, dom DomId) *LayoutResult {
	if int(dom) >= len(layoutResults) {
		return nil
	}
	return layoutResults[dom]
}
