// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/scroll.go
// Summary: Per-node scroll offsets, the scroll input queue and wheel/touch
//          momentum. Offsets are always clamped against the overflowing-node
//          geometry of the current layout.
// Usage: Owned by the Window; the hit tester and display-list builder read
//        offsets, callbacks and the default scroll handler queue inputs.

package glint

import "time"

// ScrollSource tags where a scroll input sample came from.
type ScrollSource uint8

const (
	ScrollWheelDiscrete ScrollSource = iota
	ScrollWheelSmooth
	ScrollTouch
	ScrollProgrammatic
)

// MomentumSample is one queued scroll input.
type MomentumSample struct {
	Time   time.Time
	Source ScrollSource
	DeltaX float32
	DeltaY float32
}

// ScrollPhysicsOptions tune the momentum decay. Loaded from physics.toml
// through the config package; zero fields fall back to the defaults.
type ScrollPhysicsOptions struct {
	// MomentumInterval is how often the momentum timer ticks.
	MomentumInterval time.Duration `toml:"momentum_interval"`
	// Friction scales the velocity per tick (0..1, lower stops faster).
	Friction float32 `toml:"friction"`
	// MinVelocity is the speed (logical px per tick) below which momentum
	// stops.
	MinVelocity float32 `toml:"min_velocity"`
	// SampleWindow is how far back queued samples count toward the release
	// velocity.
	SampleWindow time.Duration `toml:"sample_window"`
}

// DefaultScrollPhysics returns the built-in physics constants.
func DefaultScrollPhysics() ScrollPhysicsOptions {
	return ScrollPhysicsOptions{
		MomentumInterval: 16 * time.Millisecond,
		Friction:         0.92,
		MinVelocity:      0.25,
		SampleWindow:     120 * time.Millisecond,
	}
}

func (o *ScrollPhysicsOptions) fillDefaults() {
	d := DefaultScrollPhysics()
	if o.MomentumInterval <= 0 {
		o.MomentumInterval = d.MomentumInterval
	}
	if o.Friction <= 0 || o.Friction >= 1 {
		o.Friction = d.Friction
	}
	if o.MinVelocity <= 0 {
		o.MinVelocity = d.MinVelocity
	}
	if o.SampleWindow <= 0 {
		o.SampleWindow = d.SampleWindow
	}
}

// scrollState is the per-node scroll record. One momentum state per node:
// samples carry their source tag but merge into the same velocity.
type scrollState struct {
	offset   LogicalPosition
	velocity LogicalPosition
	queue    []MomentumSample
}

// ScrollStates holds the scroll state of every overflowing node in a window.
type ScrollStates struct {
	states  map[DomNodeId]*scrollState
	physics ScrollPhysicsOptions
}

// NewScrollStates creates an empty scroll-state table.
func NewScrollStates(physics ScrollPhysicsOptions) *ScrollStates {
	physics.fillDefaults()
	return &ScrollStates{
		states:  make(map[DomNodeId]*scrollState),
		physics: physics,
	}
}

// Physics returns the active physics constants.
func (s *ScrollStates) Physics() ScrollPhysicsOptions { return s.physics }

// Offset returns the current scroll offset of a node (zero when untracked).
// Safe to call on a nil receiver so hit tests work without scroll state.
func (s *ScrollStates) Offset(dom DomId, node NodeId) LogicalPosition {
	if s == nil {
		return LogicalPosition{}
	}
	if st, ok := s.states[DomNodeId{Dom: dom, Node: node}]; ok {
		return st.offset
	}
	return LogicalPosition{}
}

func (s *ScrollStates) state(id DomNodeId) *scrollState {
	st, ok := s.states[id]
	if !ok {
		st = &scrollState{}
		s.states[id] = st
	}
	return st
}

// QueueInput appends a scroll sample for a node. Samples with the same
// timestamp and source coalesce into one (wheel events often arrive in
// bursts within a single frame).
func (s *ScrollStates) QueueInput(dom DomId, node NodeId, sample MomentumSample) {
	st := s.state(DomNodeId{Dom: dom, Node: node})
	if n := len(st.queue); n > 0 {
		last := &st.queue[n-1]
		if last.Time.Equal(sample.Time) && last.Source == sample.Source {
			last.DeltaX += sample.DeltaX
			last.DeltaY += sample.DeltaY
			return
		}
	}
	st.queue = append(st.queue, sample)
}

// HasPendingInput reports whether any node has unconsumed samples.
func (s *ScrollStates) HasPendingInput() bool {
	for _, st := range s.states {
		if len(st.queue) > 0 {
			return true
		}
	}
	return false
}

// ScrollTo sets a node's offset programmatically, clamped against the
// layout geometry. Kills any running momentum for the node.
func (s *ScrollStates) ScrollTo(dom DomId, node NodeId, offset LogicalPosition, layoutResults []*LayoutResult) bool {
	st := s.state(DomNodeId{Dom: dom, Node: node})
	clamped := clampOffset(offset, maxScrollFor(dom, node, layoutResults))
	st.velocity = LogicalPosition{}
	st.queue = nil
	if st.offset == clamped {
		return false
	}
	st.offset = clamped
	return true
}

// Drain consumes every queued sample, moving offsets (clamped) and, when
// smooth scrolling is enabled, folding recent wheel/touch samples into the
// release velocity. Returns the nodes whose offset changed.
func (s *ScrollStates) Drain(now time.Time, layoutResults []*LayoutResult, smooth bool) []DomNodeId {
	var changed []DomNodeId
	for id, st := range s.states {
		if len(st.queue) == 0 {
			continue
		}
		max := maxScrollFor(id.Dom, id.Node, layoutResults)
		before := st.offset
		var vx, vy float32
		for _, sample := range st.queue {
			st.offset = clampOffset(LogicalPosition{
				X: st.offset.X + sample.DeltaX,
				Y: st.offset.Y + sample.DeltaY,
			}, max)
			if sample.Source == ScrollProgrammatic {
				st.velocity = LogicalPosition{}
				vx, vy = 0, 0
				continue
			}
			if now.Sub(sample.Time) <= s.physics.SampleWindow {
				vx += sample.DeltaX
				vy += sample.DeltaY
			}
		}
		st.queue = st.queue[:0]
		if smooth {
			st.velocity = LogicalPosition{X: vx, Y: vy}
		}
		if st.offset != before {
			changed = append(changed, id)
		}
	}
	return changed
}

// StepMomentum advances momentum by one physics tick. Returns the nodes
// that moved; when empty, the momentum timer may terminate.
func (s *ScrollStates) StepMomentum(layoutResults []*LayoutResult) []DomNodeId {
	var moved []DomNodeId
	for id, st := range s.states {
		if st.velocity == (LogicalPosition{}) {
			continue
		}
		st.velocity.X *= s.physics.Friction
		st.velocity.Y *= s.physics.Friction
		if abs32(st.velocity.X) < s.physics.MinVelocity && abs32(st.velocity.Y) < s.physics.MinVelocity {
			st.velocity = LogicalPosition{}
			continue
		}
		max := maxScrollFor(id.Dom, id.Node, layoutResults)
		next := clampOffset(st.offset.Add(st.velocity), max)
		if next == st.offset {
			// hit the edge, stop coasting
			st.velocity = LogicalPosition{}
			continue
		}
		st.offset = next
		moved = append(moved, id)
	}
	return moved
}

// HasActiveMomentum reports whether any node is still coasting.
func (s *ScrollStates) HasActiveMomentum() bool {
	for _, st := range s.states {
		if st.velocity != (LogicalPosition{}) {
			return true
		}
	}
	return false
}

// RemoveStale drops state for nodes that are no longer overflowing in the
// given layout, re-clamping survivors against the new geometry.
func (s *ScrollStates) RemoveStale(layoutResults []*LayoutResult) {
	for id, st := range s.states {
		var found bool
		if int(id.Dom) < len(layoutResults) && layoutResults[id.Dom] != nil {
			_, found = layoutResults[id.Dom].ScrollableNodes.OverflowingNodes[id.Node]
		}
		if !found {
			delete(s.states, id)
			continue
		}
		st.offset = clampOffset(st.offset, maxScrollFor(id.Dom, id.Node, layoutResults))
	}
}

func maxScrollFor(dom DomId, node NodeId, layoutResults []*LayoutResult) LogicalPosition {
	if int(dom) >= len(layoutResults) || layoutResults[dom] == nil {
		return LogicalPosition{}
	}
	osn, ok := layoutResults[dom].ScrollableNodes.OverflowingNodes[node]
	if !ok {
		return LogicalPosition{}
	}
	return osn.MaxScroll()
}

func clampOffset(p, max LogicalPosition) LogicalPosition {
	if p.X < 0 {
		p.X = 0
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if p.X > max.X {
		p.X = max.X
	}
	if p.Y > max.Y {
		p.Y = max.Y
	}
	return p
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
