// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/events.go
// Summary: Diffs the previous vs current window state into the event set of
//          one frame. Every rule fires exactly once per transition.
// Usage: Runs at the diff phase of the frame loop; output feeds the planner.

package glint

// Events is the diff result between two window states.
type Events struct {
	Window map[WindowEventFilter]bool
	Hover  map[HoverEventFilter]bool
	Focus  map[FocusEventFilter]bool

	// Precomputed aggregates the planner and frame loop branch on.
	EventWasMouseDown  bool
	EventWasMouseUp    bool
	EventWasMouseLeave bool
	CurrentMouseDown   bool
	PreviousMouseDown  bool

	OldFocusNode  OptionDomNodeId
	OldHitNodeIds map[DomId]map[NodeId]HitTestItem
}

// IsEmpty reports whether no event fired this frame.
func (e *Events) IsEmpty() bool {
	return len(e.Window) == 0 && len(e.Hover) == 0 && len(e.Focus) == 0
}

// NeedsHitTest reports whether any event requires hit-node resolution.
func (e *Events) NeedsHitTest() bool {
	return len(e.Hover) != 0 || len(e.Focus) != 0
}

// ContainsResize reports whether the window dimensions changed.
func (e *Events) ContainsResize() bool { return e.Window[WindowResized] }

func newEmptyEvents(cur *FullWindowState) Events {
	return Events{
		Window:           map[WindowEventFilter]bool{},
		Hover:            map[HoverEventFilter]bool{},
		Focus:            map[FocusEventFilter]bool{},
		CurrentMouseDown: cur.Mouse.AnyDown(),
	}
}

// DetermineEvents computes the frame's event set. A nil previous state
// seeds without firing anything: the first frame produces no user events.
func DetermineEvents(prev, cur *FullWindowState) Events {
	events := newEmptyEvents(cur)
	if prev == nil {
		return events
	}
	events.PreviousMouseDown = prev.Mouse.AnyDown()
	events.OldFocusNode = prev.FocusedNode
	events.OldHitNodeIds = regularHitNodesByDom(prev.LastHitTest)

	window := events.Window

	// Cursor tri-state transitions. Same-position InWindow repeats stay
	// silent; a fresh InWindow never fires MouseOver, only MouseEnter.
	prevPos, prevIn := prev.Mouse.CursorPos.InWindow()
	curPos, curIn := cur.Mouse.CursorPos.InWindow()
	switch {
	case !prevIn && curIn:
		window[WindowMouseEnter] = true
	case prevIn && !curIn:
		window[WindowMouseLeave] = true
	case prevIn && curIn && prevPos != curPos:
		window[WindowMouseOver] = true
	}

	// Per-button edges plus the aggregate events.
	buttonEdge := func(prevDown, curDown bool, down, up WindowEventFilter) {
		if !prevDown && curDown {
			window[down] = true
			window[WindowMouseDown] = true
		}
		if prevDown && !curDown {
			window[up] = true
			window[WindowMouseUp] = true
		}
	}
	buttonEdge(prev.Mouse.LeftDown, cur.Mouse.LeftDown, WindowLeftMouseDown, WindowLeftMouseUp)
	buttonEdge(prev.Mouse.RightDown, cur.Mouse.RightDown, WindowRightMouseDown, WindowRightMouseUp)
	buttonEdge(prev.Mouse.MiddleDown, cur.Mouse.MiddleDown, WindowMiddleMouseDown, WindowMiddleMouseUp)

	// Scroll presence edges.
	prevScroll := prev.Mouse.ScrollX.Valid || prev.Mouse.ScrollY.Valid
	curScroll := cur.Mouse.ScrollX.Valid || cur.Mouse.ScrollY.Valid
	switch {
	case !prevScroll && curScroll:
		window[WindowScrollStart] = true
		window[WindowScroll] = true
	case prevScroll && curScroll:
		window[WindowScroll] = true
	case prevScroll && !curScroll:
		window[WindowScrollEnd] = true
	}

	// Keyboard. The current key is one-shot: the frame loop clears it on
	// both snapshots at frame end, so a delivered press is always a
	// None-to-Some edge. Key-up additionally watches the held-key list for
	// shells that do deliver releases.
	prevKey := prev.Keyboard.CurrentVirtualKeycode
	curKey := cur.Keyboard.CurrentVirtualKeycode
	if curKey.Valid && !prevKey.Valid {
		window[WindowVirtualKeyDown] = true
	}
	if prevKey.Valid && !curKey.Valid {
		window[WindowVirtualKeyUp] = true
	}
	for _, code := range prev.Keyboard.PressedVirtualKeycodes {
		if !cur.Keyboard.IsKeyDown(code) {
			window[WindowVirtualKeyUp] = true
			break
		}
	}
	if cur.Keyboard.CurrentChar.Valid && cur.Keyboard.CurrentChar != prev.Keyboard.CurrentChar {
		window[WindowTextInput] = true
	}

	// Window focus flag edges.
	if !prev.Flags.HasFocus && cur.Flags.HasFocus {
		window[WindowFocusReceived] = true
	}
	if prev.Flags.HasFocus && !cur.Flags.HasFocus {
		window[WindowFocusLost] = true
	}

	// Geometry and lifecycle.
	if prev.Size.Dimensions != cur.Size.Dimensions || prev.Size.DPI != cur.Size.DPI {
		window[WindowResized] = true
	}
	if cur.Position.Initialized &&
		(!prev.Position.Initialized || prev.Position.Pos != cur.Position.Pos) {
		window[WindowMoved] = true
	}
	if !prev.Flags.IsAboutToClose && cur.Flags.IsAboutToClose {
		window[WindowCloseRequested] = true
	}
	if prev.Theme != cur.Theme {
		window[WindowThemeChanged] = true
	}

	// File drag and drop.
	if prev.HoveredFile == "" && cur.HoveredFile != "" {
		window[WindowHoveredFile] = true
	}
	if prev.HoveredFile != "" && cur.HoveredFile == "" {
		if cur.DroppedFile != "" {
			window[WindowDroppedFile] = true
		} else {
			window[WindowHoveredFileCancelled] = true
		}
	}

	// Touch count edges.
	if prev.Touch.ActiveTouches == 0 && cur.Touch.ActiveTouches > 0 {
		window[WindowTouchStart] = true
	}
	if prev.Touch.ActiveTouches > 0 && cur.Touch.ActiveTouches > 0 {
		window[WindowTouchMove] = true
	}
	if prev.Touch.ActiveTouches > 0 && cur.Touch.ActiveTouches == 0 {
		window[WindowTouchEnd] = true
	}

	events.EventWasMouseDown = window[WindowMouseDown]
	events.EventWasMouseUp = window[WindowMouseUp]
	events.EventWasMouseLeave = window[WindowMouseLeave]

	// Derive hover and focus sets through the fixed mapping tables.
	for wev := range window {
		if hev, ok := hoverFromWindow[wev]; ok {
			events.Hover[hev] = true
		}
	}
	for hev := range events.Hover {
		if fev, ok := focusFromHover[hev]; ok {
			events.Focus[fev] = true
		}
	}

	// If the hovered-node set changed at all, push both edge filters; the
	// planner decides which nodes actually receive them.
	if hitTestChanged(prev.LastHitTest, cur.LastHitTest) {
		events.Hover[HoverMouseLeave] = true
		events.Hover[HoverMouseEnter] = true
	}

	// A focus-node change surfaces as the synthesized pair; the planner
	// routes lost to the old node and received to the new one.
	if prev.FocusedNode != cur.FocusedNode {
		events.Focus[FocusReceived] = true
		events.Focus[FocusLost] = true
	}

	return events
}

func regularHitNodesByDom(hit FullHitTest) map[DomId]map[NodeId]HitTestItem {
	if len(hit.HoveredNodes) == 0 {
		return nil
	}
	out := make(map[DomId]map[NodeId]HitTestItem, len(hit.HoveredNodes))
	for dom, d := range hit.HoveredNodes {
		if len(d.RegularHitTestNodes) == 0 {
			continue
		}
		nodes := make(map[NodeId]HitTestItem, len(d.RegularHitTestNodes))
		for n, item := range d.RegularHitTestNodes {
			nodes[n] = item
		}
		out[dom] = nodes
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func hitTestChanged(prev, cur FullHitTest) bool {
	prevNodes := regularHitNodesByDom(prev)
	curNodes := regularHitNodesByDom(cur)
	if len(prevNodes) != len(curNodes) {
		return true
	}
	for dom, p := range prevNodes {
		c, ok := curNodes[dom]
		if !ok || len(p) != len(c) {
			return true
		}
		for n := range p {
			if _, ok := c[n]; !ok {
				return true
			}
		}
	}
	return false
}
