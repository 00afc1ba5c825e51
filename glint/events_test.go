// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/events_test.go
// Summary: Event differ tests: every edge rule fires exactly once per
//          transition and the first frame stays silent.

package glint

import "testing"

func TestFirstFrameFiresNothing(t *testing.T) {
	cur := &FullWindowState{}
	cur.Mouse.CursorPos = CursorInside(10, 10)
	cur.Mouse.LeftDown = true
	cur.Flags.HasFocus = true

	events := DetermineEvents(nil, cur)
	if !events.IsEmpty() {
		t.Errorf("first frame fired events: window=%v hover=%v focus=%v",
			events.Window, events.Hover, events.Focus)
	}
}

func TestIdenticalStatesFireNothing(t *testing.T) {
	cur := &FullWindowState{}
	cur.Mouse.CursorPos = CursorInside(10, 10)
	cur.Keyboard.PressKey(VkSpace, 57)
	cur.Flags.HasFocus = true
	cur.FocusedNode = SomeNode(DomNodeId{Dom: 0, Node: 2})

	events := DetermineEvents(cur.Clone(), cur)
	if !events.IsEmpty() {
		t.Errorf("identical states fired events: window=%v hover=%v focus=%v",
			events.Window, events.Hover, events.Focus)
	}
}

func TestCursorTransitions(t *testing.T) {
	tests := []struct {
		name string
		prev CursorPosition
		cur  CursorPosition
		want map[WindowEventFilter]bool
	}{
		{
			name: "uninitialized to inside",
			prev: CursorPosition{Kind: CursorUninitialized},
			cur:  CursorInside(5, 5),
			want: map[WindowEventFilter]bool{WindowMouseEnter: true},
		},
		{
			name: "inside to out",
			prev: CursorInside(5, 5),
			cur:  CursorPosition{Kind: CursorOutOfWindow, Pos: LogicalPosition{X: 5, Y: 5}},
			want: map[WindowEventFilter]bool{WindowMouseLeave: true},
		},
		{
			name: "inside moved",
			prev: CursorInside(5, 5),
			cur:  CursorInside(6, 5),
			want: map[WindowEventFilter]bool{WindowMouseOver: true},
		},
		{
			name: "inside unmoved",
			prev: CursorInside(5, 5),
			cur:  CursorInside(5, 5),
			want: map[WindowEventFilter]bool{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := &FullWindowState{}
			prev.Mouse.CursorPos = tt.prev
			cur := &FullWindowState{}
			cur.Mouse.CursorPos = tt.cur

			events := DetermineEvents(prev, cur)
			for _, f := range []WindowEventFilter{WindowMouseEnter, WindowMouseLeave, WindowMouseOver} {
				if events.Window[f] != tt.want[f] {
					t.Errorf("Window[%d] = %v, want %v", f, events.Window[f], tt.want[f])
				}
			}
			if tt.want[WindowMouseLeave] && !events.EventWasMouseLeave {
				t.Error("EventWasMouseLeave not set")
			}
		})
	}
}

func TestMouseButtonEdges(t *testing.T) {
	prev := &FullWindowState{}
	cur := &FullWindowState{}
	cur.Mouse.LeftDown = true

	events := DetermineEvents(prev, cur)
	if !events.Window[WindowLeftMouseDown] || !events.Window[WindowMouseDown] {
		t.Errorf("down edge missing: %v", events.Window)
	}
	if !events.EventWasMouseDown || !events.CurrentMouseDown {
		t.Error("mouse-down aggregates not set")
	}
	if !events.Hover[HoverLeftMouseDown] || !events.Focus[FocusLeftMouseDown] {
		t.Error("hover/focus derivation missing for left down")
	}

	// release
	events = DetermineEvents(cur, prev)
	if !events.Window[WindowLeftMouseUp] || !events.Window[WindowMouseUp] {
		t.Errorf("up edge missing: %v", events.Window)
	}
	if !events.EventWasMouseUp {
		t.Error("EventWasMouseUp not set")
	}
	if !events.PreviousMouseDown || events.CurrentMouseDown {
		t.Error("mouse-down aggregates wrong on release")
	}
	if events.Window[WindowLeftMouseDown] {
		t.Error("down fired on a release frame")
	}
}

func TestScrollPresenceEdges(t *testing.T) {
	idle := &FullWindowState{}
	scrolling := &FullWindowState{}
	scrolling.Mouse.ScrollY = SomeF32(3)

	start := DetermineEvents(idle, scrolling)
	if !start.Window[WindowScrollStart] || !start.Window[WindowScroll] {
		t.Errorf("start frame: %v", start.Window)
	}
	if start.Window[WindowScrollEnd] {
		t.Error("end fired on the start frame")
	}

	repeat := DetermineEvents(scrolling, scrolling.Clone())
	if repeat.Window[WindowScrollStart] {
		t.Error("start fired again while scrolling")
	}
	if !repeat.Window[WindowScroll] {
		t.Error("scroll missing on a repeat frame")
	}

	end := DetermineEvents(scrolling, idle)
	if !end.Window[WindowScrollEnd] {
		t.Errorf("end frame: %v", end.Window)
	}
	if end.Window[WindowScroll] || end.Window[WindowScrollStart] {
		t.Error("scroll/start fired on the end frame")
	}
}

func TestKeyboardEdges(t *testing.T) {
	idle := &FullWindowState{}
	pressed := &FullWindowState{}
	pressed.Keyboard.PressKey(VkReturn, 28)

	down := DetermineEvents(idle, pressed)
	if !down.Window[WindowVirtualKeyDown] {
		t.Error("key down missing")
	}
	if !down.Hover[HoverVirtualKeyDown] || !down.Focus[FocusVirtualKeyDown] {
		t.Error("hover/focus derivation missing for key down")
	}

	held := DetermineEvents(pressed, pressed.Clone())
	if held.Window[WindowVirtualKeyDown] {
		t.Error("key down repeated without an edge")
	}

	released := pressed.Clone()
	released.Keyboard.ReleaseKey(VkReturn)
	up := DetermineEvents(pressed, released)
	if !up.Window[WindowVirtualKeyUp] {
		t.Error("key up missing")
	}

	// a changed code without a None gap is not an edge; the frame-end
	// clearing of the current key is what re-arms the next press
	other := pressed.Clone()
	other.Keyboard.CurrentVirtualKeycode = OptionVirtualKeyCode{Valid: true, Code: VkSpace}
	next := DetermineEvents(pressed, other)
	if next.Window[WindowVirtualKeyDown] {
		t.Error("key change edged without a release gap")
	}

	// a cleared snapshot re-arms the same key
	rearmed := pressed.Clone()
	rearmed.Keyboard.CurrentVirtualKeycode = OptionVirtualKeyCode{}
	again := DetermineEvents(rearmed, pressed.Clone())
	if !again.Window[WindowVirtualKeyDown] {
		t.Error("press after the frame-end clear did not edge")
	}
}

func TestTextInputEdge(t *testing.T) {
	idle := &FullWindowState{}
	typed := &FullWindowState{}
	typed.Keyboard.CurrentChar = OptionChar{Valid: true, Char: 'x'}

	events := DetermineEvents(idle, typed)
	if !events.Window[WindowTextInput] {
		t.Error("text input missing")
	}
	if again := DetermineEvents(typed, typed.Clone()); again.Window[WindowTextInput] {
		t.Error("text input repeated for the same char")
	}
}

func TestWindowFocusFlagEdges(t *testing.T) {
	unfocused := &FullWindowState{}
	focused := &FullWindowState{}
	focused.Flags.HasFocus = true

	got := DetermineEvents(unfocused, focused)
	if !got.Window[WindowFocusReceived] {
		t.Error("focus received missing")
	}
	lost := DetermineEvents(focused, unfocused)
	if !lost.Window[WindowFocusLost] {
		t.Error("focus lost missing")
	}
}

func TestGeometryAndLifecycleEdges(t *testing.T) {
	base := &FullWindowState{}
	base.Size = WindowSize{Dimensions: LogicalSize{Width: 80, Height: 24}, DPI: 96}

	resized := base.Clone()
	resized.Size.Dimensions.Width = 100
	if ev := DetermineEvents(base, resized); !ev.ContainsResize() {
		t.Error("resize missing on dimension change")
	}

	dpi := base.Clone()
	dpi.Size.DPI = 192
	if ev := DetermineEvents(base, dpi); !ev.ContainsResize() {
		t.Error("resize missing on dpi change")
	}

	moved := base.Clone()
	moved.Position = PositionInitialized(10, 20)
	if ev := DetermineEvents(base, moved); !ev.Window[WindowMoved] {
		t.Error("moved missing")
	}

	closing := base.Clone()
	closing.Flags.IsAboutToClose = true
	if ev := DetermineEvents(base, closing); !ev.Window[WindowCloseRequested] {
		t.Error("close requested missing")
	}
	// still closing next frame: the edge fired already
	if ev := DetermineEvents(closing, closing.Clone()); ev.Window[WindowCloseRequested] {
		t.Error("close requested repeated")
	}

	themed := base.Clone()
	themed.Theme = ThemeDark
	if ev := DetermineEvents(base, themed); !ev.Window[WindowThemeChanged] {
		t.Error("theme change missing")
	}
}

func TestFileDragAndDrop(t *testing.T) {
	idle := &FullWindowState{}
	hovering := &FullWindowState{}
	hovering.HoveredFile = "/tmp/drag.txt"

	if ev := DetermineEvents(idle, hovering); !ev.Window[WindowHoveredFile] {
		t.Error("hovered file missing")
	}

	dropped := &FullWindowState{}
	dropped.DroppedFile = "/tmp/drag.txt"
	ev := DetermineEvents(hovering, dropped)
	if !ev.Window[WindowDroppedFile] {
		t.Error("dropped file missing")
	}
	if ev.Window[WindowHoveredFileCancelled] {
		t.Error("cancel fired on a drop")
	}

	cancelled := DetermineEvents(hovering, idle)
	if !cancelled.Window[WindowHoveredFileCancelled] {
		t.Error("hover cancel missing")
	}
	if cancelled.Window[WindowDroppedFile] {
		t.Error("drop fired on a cancel")
	}
}

func TestTouchEdges(t *testing.T) {
	idle := &FullWindowState{}
	touching := &FullWindowState{}
	touching.Touch.ActiveTouches = 1

	if ev := DetermineEvents(idle, touching); !ev.Window[WindowTouchStart] {
		t.Error("touch start missing")
	}
	if ev := DetermineEvents(touching, touching.Clone()); !ev.Window[WindowTouchMove] {
		t.Error("touch move missing")
	}
	if ev := DetermineEvents(touching, idle); !ev.Window[WindowTouchEnd] {
		t.Error("touch end missing")
	}
}

func hitOn(nodes ...NodeId) FullHitTest {
	items := make(map[NodeId]HitTestItem, len(nodes))
	for _, n := range nodes {
		items[n] = HitTestItem{}
	}
	return FullHitTest{HoveredNodes: map[DomId]DomHitTest{
		RootDomId: {RegularHitTestNodes: items},
	}}
}

func TestHitTestChangeSynthesizesEnterAndLeave(t *testing.T) {
	prev := &FullWindowState{}
	prev.LastHitTest = hitOn(1)
	cur := &FullWindowState{}
	cur.LastHitTest = hitOn(2)

	events := DetermineEvents(prev, cur)
	if !events.Hover[HoverMouseEnter] || !events.Hover[HoverMouseLeave] {
		t.Errorf("hit-set change did not push enter+leave: %v", events.Hover)
	}
	if len(events.OldHitNodeIds[RootDomId]) != 1 {
		t.Errorf("old hit nodes not carried: %v", events.OldHitNodeIds)
	}

	same := DetermineEvents(cur, cur.Clone())
	if same.Hover[HoverMouseEnter] || same.Hover[HoverMouseLeave] {
		t.Error("unchanged hit set pushed enter/leave")
	}
}

func TestFocusNodeChangeSynthesizesPair(t *testing.T) {
	prev := &FullWindowState{}
	prev.FocusedNode = SomeNode(DomNodeId{Dom: 0, Node: 1})
	cur := &FullWindowState{}
	cur.FocusedNode = SomeNode(DomNodeId{Dom: 0, Node: 3})

	events := DetermineEvents(prev, cur)
	if !events.Focus[FocusReceived] || !events.Focus[FocusLost] {
		t.Errorf("focus change did not synthesize the pair: %v", events.Focus)
	}
	if !events.OldFocusNode.Valid || events.OldFocusNode.Id.Node != 1 {
		t.Errorf("OldFocusNode = %+v", events.OldFocusNode)
	}
}
