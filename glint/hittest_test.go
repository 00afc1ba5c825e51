// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/hittest_test.go
// Summary: Hit tester tests: scroll-adjusted probes, scrollable clipping,
//          iframe recursion and the deepest-focus rule.

package glint

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// hoverCb is a no-op handler so nodes get hit-test tags.
func hoverCb(_ *RefAny, _ *CallbackInfo) Update { return DoNothing }

func onHoverDown() []CallbackData {
	return []CallbackData{{Event: OnHover(HoverMouseDown), Callback: hoverCb}}
}

// buildHitTestLayout solves a tree with a plain button, a nested button and
// a scrollable list:
//
//	root (100x100)
//	├── button      y 0..30, focusable
//	│   └── inner   y 0..10, focusable
//	└── list        y 30..35, rows overflow to y 70
func buildHitTestLayout(t *testing.T) (*LayoutResult, NodeId, NodeId, NodeId, []NodeId) {
	t.Helper()
	dom := NewStyledDom(NodeData{Type: NodeDiv})
	button := dom.AddChild(dom.Root, NodeData{
		Type:      NodeDiv,
		TabIndex:  TabIndex{Kind: TabAuto},
		Callbacks: onHoverDown(),
		Style:     []CssProperty{{Type: CssHeight, Value: 30}},
	})
	inner := dom.AddChild(button, NodeData{
		Type:      NodeDiv,
		TabIndex:  TabIndex{Kind: TabAuto},
		Callbacks: onHoverDown(),
		Style:     []CssProperty{{Type: CssHeight, Value: 10}},
	})
	list := dom.AddChild(dom.Root, NodeData{
		Type:  NodeDiv,
		Style: []CssProperty{{Type: CssHeight, Value: 5}},
	})
	var rows []NodeId
	for i := 0; i < 10; i++ {
		rows = append(rows, dom.AddChild(list, NodeData{
			Type:      NodeText,
			Callbacks: onHoverDown(),
			Style:     []CssProperty{{Type: CssHeight, Value: 4}},
		}))
	}
	lr := SolveStacked(dom, RootDomId, LogicalSize{Width: 100, Height: 100})
	if _, ok := lr.ScrollableNodes.OverflowingNodes[list]; !ok {
		t.Fatalf("list did not become scrollable")
	}
	return lr, button, inner, list, rows
}

func TestHitTestOutsideWindowIsEmpty(t *testing.T) {
	lr, _, _, _, _ := buildHitTestLayout(t)
	results := []*LayoutResult{lr}
	scroll := NewScrollStates(DefaultScrollPhysics())

	for _, pos := range []CursorPosition{
		{Kind: CursorUninitialized},
		{Kind: CursorOutOfWindow, Pos: LogicalPosition{X: 10, Y: 10}},
	} {
		if hit := NewFullHitTest(pos, results, scroll); !hit.IsEmpty() {
			t.Errorf("cursor kind %d produced hits: %+v", pos.Kind, hit.HoveredNodes)
		}
	}
}

func TestHitTestBasic(t *testing.T) {
	lr, button, inner, _, _ := buildHitTestLayout(t)
	results := []*LayoutResult{lr}
	scroll := NewScrollStates(DefaultScrollPhysics())

	hit := NewFullHitTest(CursorInside(10, 15), results, scroll)
	regular := hit.HoveredNodes[RootDomId].RegularHitTestNodes
	item, ok := regular[button]
	if !ok {
		t.Fatalf("button not hit: %v", regular)
	}
	if item.PointRelativeToItem != (LogicalPosition{X: 10, Y: 15}) {
		t.Errorf("relative point = %+v", item.PointRelativeToItem)
	}
	if _, ok := regular[inner]; ok {
		t.Error("inner hit at y=15 despite ending at y=10")
	}
	if !hit.FocusedNode.Valid || hit.FocusedNode.Id.Node != button {
		t.Errorf("focused node = %+v, want button", hit.FocusedNode)
	}
}

func TestHitTestDeepestFocusWins(t *testing.T) {
	lr, _, inner, _, _ := buildHitTestLayout(t)
	hit := NewFullHitTest(CursorInside(10, 5), []*LayoutResult{lr}, NewScrollStates(DefaultScrollPhysics()))
	if !hit.FocusedNode.Valid || hit.FocusedNode.Id.Node != inner {
		t.Errorf("focused node = %+v, want inner", hit.FocusedNode)
	}
}

func TestHitTestExclusiveEdges(t *testing.T) {
	lr, button, _, _, _ := buildHitTestLayout(t)
	results := []*LayoutResult{lr}
	scroll := NewScrollStates(DefaultScrollPhysics())

	// the button spans y 0..30; its bottom edge belongs to the next row
	edge := NewFullHitTest(CursorInside(10, 30), results, scroll)
	if _, ok := edge.HoveredNodes[RootDomId].RegularHitTestNodes[button]; ok {
		t.Error("bottom edge counted as inside")
	}
	right := NewFullHitTest(CursorInside(100, 10), results, scroll)
	if !right.IsEmpty() {
		t.Errorf("right edge counted as inside: %+v", right.HoveredNodes)
	}
}

func TestHitTestScrollOffsetShiftsProbe(t *testing.T) {
	lr, _, _, list, rows := buildHitTestLayout(t)
	results := []*LayoutResult{lr}
	scroll := NewScrollStates(DefaultScrollPhysics())

	// rows sit at y 30+4k in layout space; the list shows y 30..35
	unscrolled := NewFullHitTest(CursorInside(10, 32), results, scroll)
	if _, ok := unscrolled.HoveredNodes[RootDomId].RegularHitTestNodes[rows[0]]; !ok {
		t.Fatalf("row 0 not hit before scrolling")
	}

	if !scroll.ScrollTo(RootDomId, list, LogicalPosition{Y: 8}, results) {
		t.Fatal("ScrollTo reported no change")
	}
	scrolled := NewFullHitTest(CursorInside(10, 32), results, scroll)
	regular := scrolled.HoveredNodes[RootDomId].RegularHitTestNodes
	// probe 32 + offset 8 = layout y 40, which lands in row 2 (38..42)
	item, ok := regular[rows[2]]
	if !ok {
		t.Fatalf("row 2 not hit after scrolling: %v", regular)
	}
	if item.PointRelativeToItem != (LogicalPosition{X: 10, Y: 2}) {
		t.Errorf("relative point = %+v, want (10, 2)", item.PointRelativeToItem)
	}
	if _, ok := regular[rows[0]]; ok {
		t.Error("row 0 still hit after scrolling past it")
	}
	if _, ok := scrolled.HoveredNodes[RootDomId].ScrollHitTestNodes[list]; !ok {
		t.Error("list missing from scroll hits")
	}
}

func TestHitTestScrollableClipsChildren(t *testing.T) {
	lr, _, _, _, rows := buildHitTestLayout(t)
	// y=50 is outside the list's visible box but inside row 5's layout rect
	hit := NewFullHitTest(CursorInside(10, 50), []*LayoutResult{lr}, NewScrollStates(DefaultScrollPhysics()))
	for _, row := range rows {
		if _, ok := hit.HoveredNodes[RootDomId].RegularHitTestNodes[row]; ok {
			t.Fatalf("row %d hit outside the clip", row)
		}
	}
}

func TestHitTestDeterministic(t *testing.T) {
	lr, _, _, list, _ := buildHitTestLayout(t)
	results := []*LayoutResult{lr}
	scroll := NewScrollStates(DefaultScrollPhysics())
	scroll.ScrollTo(RootDomId, list, LogicalPosition{Y: 8}, results)

	a := NewFullHitTest(CursorInside(10, 32), results, scroll)
	b := NewFullHitTest(CursorInside(10, 32), results, scroll)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same inputs, different hit tests (-a +b):\n%s", diff)
	}
}

func TestHitTestIframeRecursion(t *testing.T) {
	outer := NewStyledDom(NodeData{Type: NodeDiv})
	frame := outer.AddChild(outer.Root, NodeData{Type: NodeIFrame})
	outer.ensureTags()
	lr0 := &LayoutResult{
		DomId:     RootDomId,
		StyledDom: outer,
		Rects: []PositionedRectangle{
			{Rect: LogicalRect{Size: LogicalSize{Width: 100, Height: 100}}},
			{Rect: LogicalRect{Origin: LogicalPosition{X: 50, Y: 50}, Size: LogicalSize{Width: 40, Height: 40}}},
		},
		IframeMapping: map[NodeId]DomId{frame: 1},
	}

	child := NewStyledDom(NodeData{Type: NodeDiv})
	button := child.AddChild(child.Root, NodeData{
		Type:      NodeDiv,
		TabIndex:  TabIndex{Kind: TabAuto},
		Callbacks: onHoverDown(),
	})
	child.ensureTags()
	lr1 := &LayoutResult{
		DomId:       1,
		ParentDomId: RootDomId,
		HasParent:   true,
		StyledDom:   child,
		Rects: []PositionedRectangle{
			{Rect: LogicalRect{Size: LogicalSize{Width: 40, Height: 40}}},
			{Rect: LogicalRect{Origin: LogicalPosition{X: 5, Y: 5}, Size: LogicalSize{Width: 10, Height: 10}}},
		},
		IframeMapping: map[NodeId]DomId{},
	}

	hit := NewFullHitTest(CursorInside(57, 58), []*LayoutResult{lr0, lr1}, nil)
	item, ok := hit.HoveredNodes[1].RegularHitTestNodes[button]
	if !ok {
		t.Fatalf("iframe button not hit: %+v", hit.HoveredNodes)
	}
	// the button renders at 55,55; the probe lands 2,3 inside it
	if item.PointRelativeToItem != (LogicalPosition{X: 2, Y: 3}) {
		t.Errorf("relative point = %+v, want (2, 3)", item.PointRelativeToItem)
	}
	if !hit.FocusedNode.Valid || hit.FocusedNode.Id != (DomNodeId{Dom: 1, Node: button}) {
		t.Errorf("focused node = %+v, want iframe button", hit.FocusedNode)
	}

	// outside the frame rect nothing in the child DOM is reachable
	miss := NewFullHitTest(CursorInside(10, 10), []*LayoutResult{lr0, lr1}, nil)
	if _, ok := miss.HoveredNodes[1]; ok {
		t.Error("child DOM hit outside the iframe rect")
	}
}
