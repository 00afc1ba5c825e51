// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/focus.go
// Summary: FocusTarget resolution: symbolic focus requests (Next, Previous,
//          First, Last) and concrete ones (node id, css path) resolved
//          against the window's layout results.
// Usage: Resolved once after the callback loop; errors leave focus unchanged.

package glint

import "fmt"

// FocusTargetKind tags the FocusTarget union.
type FocusTargetKind uint8

const (
	// FocusNoTarget clears keyboard focus.
	FocusNoTarget FocusTargetKind = iota
	// FocusById focuses a concrete (dom, node) pair.
	FocusById
	// FocusByPath focuses the first node in a DOM matching a css path.
	FocusByPath
	// FocusPrevious / FocusNext move relative to the current focus.
	FocusPrevious
	FocusNext
	// FocusFirst / FocusLast jump to the document bounds.
	FocusFirst
	FocusLast
)

// FocusTarget is a request to move keyboard focus, resolved at frame end.
type FocusTarget struct {
	Kind FocusTargetKind
	Id   DomNodeId
	Dom  DomId
	Path CssPath
}

// FocusClear returns the target that removes focus.
func FocusClear() FocusTarget { return FocusTarget{Kind: FocusNoTarget} }

// FocusNode returns a concrete-id target.
func FocusNode(id DomNodeId) FocusTarget { return FocusTarget{Kind: FocusById, Id: id} }

// ResolveFocusTarget resolves a target against the layout results. The
// returned option is the new focus; an error means focus must stay put.
// Next/Previous/First/Last saturate at the document bounds and return None
// instead of wrapping.
func ResolveFocusTarget(target FocusTarget, layoutResults []*LayoutResult, current OptionDomNodeId) (OptionDomNodeId, error) {
	switch target.Kind {
	case FocusNoTarget:
		return OptionDomNodeId{}, nil

	case FocusById:
		dom := target.Id.Dom
		if int(dom) >= len(layoutResults) || layoutResults[dom] == nil {
			return OptionDomNodeId{}, fmt.Errorf("dom %d: %w", dom, ErrFocusInvalidDomID)
		}
		if !layoutResults[dom].ContainsNode(target.Id.Node) {
			return OptionDomNodeId{}, fmt.Errorf("dom %d node %d: %w", dom, target.Id.Node, ErrFocusInvalidNodeID)
		}
		return SomeNode(target.Id), nil

	case FocusByPath:
		dom := target.Dom
		if int(dom) >= len(layoutResults) || layoutResults[dom] == nil {
			return OptionDomNodeId{}, fmt.Errorf("dom %d: %w", dom, ErrFocusInvalidDomID)
		}
		node, ok := layoutResults[dom].StyledDom.QueryFirst(target.Path)
		if !ok {
			return OptionDomNodeId{}, fmt.Errorf("path %q: %w", target.Path.String(), ErrCouldNotFindFocusNode)
		}
		return SomeNode(DomNodeId{Dom: dom, Node: node}), nil

	case FocusFirst:
		return scanFocusable(layoutResults, DomNodeId{Dom: 0, Node: 0}, true, true), nil

	case FocusLast:
		return scanFocusable(layoutResults, lastPosition(layoutResults), false, true), nil

	case FocusNext:
		start := DomNodeId{Dom: 0, Node: 0}
		inclusive := true
		if current.Valid {
			start = current.Id
			inclusive = false
		}
		return scanFocusable(layoutResults, start, true, inclusive), nil

	case FocusPrevious:
		start := lastPosition(layoutResults)
		inclusive := true
		if current.Valid {
			start = current.Id
			inclusive = false
		}
		return scanFocusable(layoutResults, start, false, inclusive), nil
	}
	return current, nil
}

func lastPosition(layoutResults []*LayoutResult) DomNodeId {
	for d := len(layoutResults) - 1; d >= 0; d-- {
		lr := layoutResults[d]
		if lr == nil || lr.StyledDom.IsEmpty() {
			continue
		}
		return DomNodeId{Dom: DomId(d), Node: NodeId(lr.StyledDom.Len() - 1)}
	}
	return DomNodeId{Dom: 0, Node: NodeIdNone}
}

// scanFocusable walks the flat (dom, node) space in DOM order, crossing DOM
// boundaries, and returns the first focusable node. None when the scan runs
// off the document end.
func scanFocusable(layoutResults []*LayoutResult, start DomNodeId, forward, inclusive bool) OptionDomNodeId {
	dom, node := int(start.Dom), int(start.Node)
	if node < 0 {
		node = 0
	}
	if !inclusive {
		if forward {
			node++
		} else {
			node--
		}
	}
	if forward {
		for d := dom; d < len(layoutResults); d++ {
			lr := layoutResults[d]
			if lr == nil || lr.StyledDom.IsEmpty() {
				node = 0
				continue
			}
			for n := node; n < lr.StyledDom.Len(); n++ {
				if lr.StyledDom.NodeData[n].IsFocusable() {
					return SomeNode(DomNodeId{Dom: DomId(d), Node: NodeId(n)})
				}
			}
			node = 0
		}
		return OptionDomNodeId{}
	}
	if dom >= len(layoutResults) {
		dom = len(layoutResults) - 1
		node = -2 // forces reset to the dom's last node below
	}
	for d := dom; d >= 0; d-- {
		lr := layoutResults[d]
		if lr == nil || lr.StyledDom.IsEmpty() {
			node = -2
			continue
		}
		n := node
		if d != dom || n < -1 || n >= lr.StyledDom.Len() {
			n = lr.StyledDom.Len() - 1
		}
		// n == -1 on the starting dom means the decrement stepped off its
		// front: skip straight to the previous dom.
		for ; n >= 0; n-- {
			if lr.StyledDom.NodeData[n].IsFocusable() {
				return SomeNode(DomNodeId{Dom: DomId(d), Node: NodeId(n)})
			}
		}
		node = -2
	}
	return OptionDomNodeId{}
}
