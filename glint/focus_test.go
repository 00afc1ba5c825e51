// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/focus_test.go
// Summary: Focus target resolution tests: concrete ids, css paths, relative
//          movement with cross-DOM traversal and saturation at the bounds.

package glint

import (
	"errors"
	"testing"
)

// buildFocusLayouts solves two DOMs:
//
//	dom 0: root, label (not focusable), btnA, btnB
//	dom 1: root, btnC
func buildFocusLayouts(t *testing.T) ([]*LayoutResult, DomNodeId, DomNodeId, DomNodeId) {
	t.Helper()
	dom0 := NewStyledDom(NodeData{Type: NodeDiv})
	dom0.AddChild(dom0.Root, NodeData{Type: NodeText, Words: "label"})
	btnA := dom0.AddChild(dom0.Root, NodeData{
		Type: NodeDiv, Id: "save", TabIndex: TabIndex{Kind: TabAuto},
	})
	btnB := dom0.AddChild(dom0.Root, NodeData{
		Type: NodeDiv, Id: "cancel", TabIndex: TabIndex{Kind: TabAuto},
	})

	dom1 := NewStyledDom(NodeData{Type: NodeDiv})
	btnC := dom1.AddChild(dom1.Root, NodeData{
		Type: NodeDiv, Id: "ok", TabIndex: TabIndex{Kind: TabAuto},
	})

	size := LogicalSize{Width: 100, Height: 100}
	results := []*LayoutResult{
		SolveStacked(dom0, 0, size),
		SolveStacked(dom1, 1, size),
	}
	return results,
		DomNodeId{Dom: 0, Node: btnA},
		DomNodeId{Dom: 0, Node: btnB},
		DomNodeId{Dom: 1, Node: btnC}
}

func TestFocusByIdValid(t *testing.T) {
	results, btnA, _, _ := buildFocusLayouts(t)
	got, err := ResolveFocusTarget(FocusNode(btnA), results, OptionDomNodeId{})
	if err != nil {
		t.Fatalf("ResolveFocusTarget: %v", err)
	}
	if !got.Valid || got.Id != btnA {
		t.Errorf("got %+v, want %+v", got, btnA)
	}
}

func TestFocusByIdInvalidDom(t *testing.T) {
	results, _, _, _ := buildFocusLayouts(t)
	_, err := ResolveFocusTarget(FocusNode(DomNodeId{Dom: 9, Node: 0}), results, OptionDomNodeId{})
	if !errors.Is(err, ErrFocusInvalidDomID) {
		t.Errorf("err = %v, want ErrFocusInvalidDomID", err)
	}
}

func TestFocusByIdInvalidNode(t *testing.T) {
	results, _, _, _ := buildFocusLayouts(t)
	_, err := ResolveFocusTarget(FocusNode(DomNodeId{Dom: 0, Node: 99}), results, OptionDomNodeId{})
	if !errors.Is(err, ErrFocusInvalidNodeID) {
		t.Errorf("err = %v, want ErrFocusInvalidNodeID", err)
	}
}

func TestFocusByPath(t *testing.T) {
	results, btnA, _, _ := buildFocusLayouts(t)
	target := FocusTarget{
		Kind: FocusByPath,
		Dom:  0,
		Path: CssPath{Selectors: []CssPathSelector{{Id: "save"}}},
	}
	got, err := ResolveFocusTarget(target, results, OptionDomNodeId{})
	if err != nil {
		t.Fatalf("ResolveFocusTarget: %v", err)
	}
	if !got.Valid || got.Id != btnA {
		t.Errorf("got %+v, want %+v", got, btnA)
	}

	target.Path = CssPath{Selectors: []CssPathSelector{{Id: "missing"}}}
	if _, err := ResolveFocusTarget(target, results, OptionDomNodeId{}); !errors.Is(err, ErrCouldNotFindFocusNode) {
		t.Errorf("err = %v, want ErrCouldNotFindFocusNode", err)
	}
}

func TestFocusClearRemovesFocus(t *testing.T) {
	results, btnA, _, _ := buildFocusLayouts(t)
	got, err := ResolveFocusTarget(FocusClear(), results, SomeNode(btnA))
	if err != nil {
		t.Fatalf("ResolveFocusTarget: %v", err)
	}
	if got.Valid {
		t.Errorf("clear kept focus on %+v", got.Id)
	}
}

func TestFocusNextWalk(t *testing.T) {
	results, btnA, btnB, btnC := buildFocusLayouts(t)

	steps := []struct {
		current OptionDomNodeId
		want    OptionDomNodeId
	}{
		{OptionDomNodeId{}, SomeNode(btnA)},  // nothing focused: first focusable
		{SomeNode(btnA), SomeNode(btnB)},     // next sibling
		{SomeNode(btnB), SomeNode(btnC)},     // crosses into dom 1
		{SomeNode(btnC), OptionDomNodeId{}},  // saturates, no wrap
	}
	for i, step := range steps {
		got, err := ResolveFocusTarget(FocusTarget{Kind: FocusNext}, results, step.current)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got != step.want {
			t.Errorf("step %d: got %+v, want %+v", i, got, step.want)
		}
	}
}

func TestFocusPreviousWalk(t *testing.T) {
	results, btnA, btnB, btnC := buildFocusLayouts(t)

	steps := []struct {
		current OptionDomNodeId
		want    OptionDomNodeId
	}{
		{OptionDomNodeId{}, SomeNode(btnC)},  // nothing focused: last focusable
		{SomeNode(btnC), SomeNode(btnB)},     // crosses back into dom 0
		{SomeNode(btnB), SomeNode(btnA)},     // previous sibling
		{SomeNode(btnA), OptionDomNodeId{}},  // saturates, no wrap
	}
	for i, step := range steps {
		got, err := ResolveFocusTarget(FocusTarget{Kind: FocusPrevious}, results, step.current)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got != step.want {
			t.Errorf("step %d: got %+v, want %+v", i, got, step.want)
		}
	}
}

func TestFocusFirstAndLast(t *testing.T) {
	results, btnA, _, btnC := buildFocusLayouts(t)

	first, err := ResolveFocusTarget(FocusTarget{Kind: FocusFirst}, results, SomeNode(btnC))
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if first != SomeNode(btnA) {
		t.Errorf("first = %+v, want %+v", first, btnA)
	}

	last, err := ResolveFocusTarget(FocusTarget{Kind: FocusLast}, results, SomeNode(btnA))
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if last != SomeNode(btnC) {
		t.Errorf("last = %+v, want %+v", last, btnC)
	}
}

func TestFocusNextSkipsUnfocusableNodes(t *testing.T) {
	// a DOM where only the last node is focusable
	dom := NewStyledDom(NodeData{Type: NodeDiv})
	dom.AddChild(dom.Root, NodeData{Type: NodeText, Words: "a"})
	dom.AddChild(dom.Root, NodeData{Type: NodeText, Words: "b"})
	btn := dom.AddChild(dom.Root, NodeData{Type: NodeDiv, TabIndex: TabIndex{Kind: TabAuto}})
	results := []*LayoutResult{SolveStacked(dom, 0, LogicalSize{Width: 10, Height: 10})}

	got, err := ResolveFocusTarget(FocusTarget{Kind: FocusNext}, results, OptionDomNodeId{})
	if err != nil {
		t.Fatalf("ResolveFocusTarget: %v", err)
	}
	if got != SomeNode(DomNodeId{Dom: 0, Node: btn}) {
		t.Errorf("got %+v, want node %d", got, btn)
	}
}

func TestFocusCallbackMakesNodeFocusable(t *testing.T) {
	dom := NewStyledDom(NodeData{Type: NodeDiv})
	field := dom.AddChild(dom.Root, NodeData{
		Type:      NodeDiv,
		Callbacks: []CallbackData{{Event: OnFocus(FocusTextInput), Callback: hoverCb}},
	})
	results := []*LayoutResult{SolveStacked(dom, 0, LogicalSize{Width: 10, Height: 10})}

	got, err := ResolveFocusTarget(FocusTarget{Kind: FocusFirst}, results, OptionDomNodeId{})
	if err != nil {
		t.Fatalf("ResolveFocusTarget: %v", err)
	}
	if got != SomeNode(DomNodeId{Dom: 0, Node: field}) {
		t.Errorf("got %+v, want the field with a focus callback", got)
	}
}
