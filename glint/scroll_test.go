// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/scroll_test.go
// Summary: Scroll state tests: clamping, input coalescing, drain velocity,
//          momentum decay and stale-state cleanup.

package glint

import (
	"testing"
	"time"
)

// buildScrollLayout solves a list whose rows overflow it by 40 logical px.
func buildScrollLayout(t *testing.T, rows int) ([]*LayoutResult, NodeId) {
	t.Helper()
	dom := NewStyledDom(NodeData{Type: NodeDiv})
	list := dom.AddChild(dom.Root, NodeData{
		Type:  NodeDiv,
		Style: []CssProperty{{Type: CssHeight, Value: 10}},
	})
	for i := 0; i < rows; i++ {
		dom.AddChild(list, NodeData{
			Type:  NodeText,
			Style: []CssProperty{{Type: CssHeight, Value: 10}},
		})
	}
	lr := SolveStacked(dom, RootDomId, LogicalSize{Width: 100, Height: 100})
	return []*LayoutResult{lr}, list
}

func TestScrollToClampsAndReportsChange(t *testing.T) {
	results, list := buildScrollLayout(t, 5) // max scroll y = 40
	s := NewScrollStates(DefaultScrollPhysics())

	if !s.ScrollTo(RootDomId, list, LogicalPosition{Y: 100}, results) {
		t.Fatal("first scroll reported no change")
	}
	if got := s.Offset(RootDomId, list); got != (LogicalPosition{Y: 40}) {
		t.Errorf("offset = %+v, want clamped to 40", got)
	}
	if s.ScrollTo(RootDomId, list, LogicalPosition{Y: 100}, results) {
		t.Error("identical clamped scroll reported a change")
	}
	if !s.ScrollTo(RootDomId, list, LogicalPosition{X: -5, Y: -5}, results) {
		t.Fatal("scroll back to origin reported no change")
	}
	if got := s.Offset(RootDomId, list); got != (LogicalPosition{}) {
		t.Errorf("offset = %+v, want clamped to origin", got)
	}
}

func TestQueueInputCoalescesBursts(t *testing.T) {
	_, list := buildScrollLayout(t, 5)
	s := NewScrollStates(DefaultScrollPhysics())

	now := time.Now()
	s.QueueInput(RootDomId, list, MomentumSample{Time: now, Source: ScrollWheelDiscrete, DeltaY: 3})
	s.QueueInput(RootDomId, list, MomentumSample{Time: now, Source: ScrollWheelDiscrete, DeltaY: 3})
	s.QueueInput(RootDomId, list, MomentumSample{Time: now, Source: ScrollTouch, DeltaY: 1})

	st := s.states[DomNodeId{Dom: RootDomId, Node: list}]
	if len(st.queue) != 2 {
		t.Fatalf("queue length = %d, want 2 (burst coalesced, touch separate)", len(st.queue))
	}
	if st.queue[0].DeltaY != 6 {
		t.Errorf("coalesced delta = %v, want 6", st.queue[0].DeltaY)
	}
	if !s.HasPendingInput() {
		t.Error("HasPendingInput = false with queued samples")
	}
}

func TestDrainMovesAndClamps(t *testing.T) {
	results, list := buildScrollLayout(t, 5)
	s := NewScrollStates(DefaultScrollPhysics())

	now := time.Now()
	s.QueueInput(RootDomId, list, MomentumSample{Time: now, Source: ScrollWheelDiscrete, DeltaY: 15})
	s.QueueInput(RootDomId, list, MomentumSample{Time: now.Add(time.Millisecond), Source: ScrollWheelDiscrete, DeltaY: 50})

	changed := s.Drain(now.Add(2*time.Millisecond), results, false)
	if len(changed) != 1 || changed[0] != (DomNodeId{Dom: RootDomId, Node: list}) {
		t.Fatalf("changed = %v", changed)
	}
	if got := s.Offset(RootDomId, list); got != (LogicalPosition{Y: 40}) {
		t.Errorf("offset = %+v, want clamped to 40", got)
	}
	if s.HasPendingInput() {
		t.Error("queue not consumed by Drain")
	}
	if s.HasActiveMomentum() {
		t.Error("momentum built up with smooth scrolling disabled")
	}
}

func TestDrainBuildsVelocityWhenSmooth(t *testing.T) {
	results, list := buildScrollLayout(t, 5)
	s := NewScrollStates(DefaultScrollPhysics())

	now := time.Now()
	s.QueueInput(RootDomId, list, MomentumSample{Time: now, Source: ScrollWheelSmooth, DeltaY: 10})
	s.Drain(now, results, true)

	if !s.HasActiveMomentum() {
		t.Fatal("no momentum after a smooth drain")
	}
	if got := s.Offset(RootDomId, list); got != (LogicalPosition{Y: 10}) {
		t.Errorf("offset = %+v, want 10", got)
	}
}

func TestDrainIgnoresStaleSamplesForVelocity(t *testing.T) {
	results, list := buildScrollLayout(t, 5)
	s := NewScrollStates(DefaultScrollPhysics())

	old := time.Now().Add(-time.Second) // far outside the sample window
	s.QueueInput(RootDomId, list, MomentumSample{Time: old, Source: ScrollWheelSmooth, DeltaY: 10})
	s.Drain(time.Now(), results, true)

	if s.HasActiveMomentum() {
		t.Error("stale sample contributed release velocity")
	}
	if got := s.Offset(RootDomId, list); got != (LogicalPosition{Y: 10}) {
		t.Errorf("offset = %+v, stale samples still move content", got)
	}
}

func TestProgrammaticSampleKillsVelocity(t *testing.T) {
	results, list := buildScrollLayout(t, 5)
	s := NewScrollStates(DefaultScrollPhysics())

	now := time.Now()
	s.QueueInput(RootDomId, list, MomentumSample{Time: now, Source: ScrollWheelSmooth, DeltaY: 10})
	s.Drain(now, results, true)
	if !s.HasActiveMomentum() {
		t.Fatal("setup: no momentum")
	}

	s.QueueInput(RootDomId, list, MomentumSample{Time: now.Add(time.Millisecond), Source: ScrollProgrammatic, DeltaY: 5})
	s.Drain(now.Add(time.Millisecond), results, true)
	if s.HasActiveMomentum() {
		t.Error("programmatic sample did not kill momentum")
	}
}

func TestStepMomentumDecaysAndStops(t *testing.T) {
	results, list := buildScrollLayout(t, 5)
	s := NewScrollStates(DefaultScrollPhysics())

	now := time.Now()
	s.QueueInput(RootDomId, list, MomentumSample{Time: now, Source: ScrollWheelSmooth, DeltaY: 5})
	s.Drain(now, results, true)

	start := s.Offset(RootDomId, list)
	steps := 0
	for s.HasActiveMomentum() {
		s.StepMomentum(results)
		steps++
		if steps > 1000 {
			t.Fatal("momentum never stopped")
		}
	}
	end := s.Offset(RootDomId, list)
	if steps == 0 {
		t.Fatal("momentum stopped without a single step")
	}
	if end.Y <= start.Y {
		t.Errorf("offset did not coast forward: %v -> %v", start.Y, end.Y)
	}
	if end.Y > 40 {
		t.Errorf("offset %v exceeded the max scroll", end.Y)
	}
}

func TestStepMomentumStopsAtTheEdge(t *testing.T) {
	results, list := buildScrollLayout(t, 5)
	s := NewScrollStates(DefaultScrollPhysics())

	now := time.Now()
	// big release velocity close to the edge
	s.QueueInput(RootDomId, list, MomentumSample{Time: now, Source: ScrollWheelSmooth, DeltaY: 39})
	s.Drain(now, results, true)

	for i := 0; i < 10 && s.HasActiveMomentum(); i++ {
		s.StepMomentum(results)
	}
	if s.HasActiveMomentum() {
		t.Error("momentum survived hitting the edge")
	}
	if got := s.Offset(RootDomId, list); got.Y != 40 {
		t.Errorf("offset = %v, want pinned at 40", got.Y)
	}
}

func TestRemoveStaleDropsAndReclamps(t *testing.T) {
	results, list := buildScrollLayout(t, 5) // max 40
	s := NewScrollStates(DefaultScrollPhysics())
	s.ScrollTo(RootDomId, list, LogicalPosition{Y: 40}, results)

	// shrink the content: 3 rows overflow by only 20
	smaller, smallerList := buildScrollLayout(t, 3)
	if smallerList != list {
		t.Fatalf("layout shape changed: %d != %d", smallerList, list)
	}
	s.RemoveStale(smaller)
	if got := s.Offset(RootDomId, list); got != (LogicalPosition{Y: 20}) {
		t.Errorf("offset = %+v, want reclamped to 20", got)
	}

	// content fits entirely: the state disappears
	dom := NewStyledDom(NodeData{Type: NodeDiv})
	dom.AddChild(dom.Root, NodeData{Type: NodeDiv, Style: []CssProperty{{Type: CssHeight, Value: 10}}})
	fits := []*LayoutResult{SolveStacked(dom, RootDomId, LogicalSize{Width: 100, Height: 100})}
	s.RemoveStale(fits)
	if len(s.states) != 0 {
		t.Errorf("stale states survived: %d", len(s.states))
	}
}
