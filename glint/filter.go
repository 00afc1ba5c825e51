// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/filter.go
// Summary: Event filter enums and the fixed window→hover→focus mapping tables.
// Usage: Callback registration and the planner match on these filters.

package glint

// WindowEventFilter matches events that fire regardless of the hit test.
type WindowEventFilter uint8

const (
	WindowMouseOver WindowEventFilter = iota
	WindowMouseDown
	WindowLeftMouseDown
	WindowMiddleMouseDown
	WindowRightMouseDown
	WindowMouseUp
	WindowLeftMouseUp
	WindowMiddleMouseUp
	WindowRightMouseUp
	WindowMouseEnter
	WindowMouseLeave
	WindowScroll
	WindowScrollStart
	WindowScrollEnd
	WindowTextInput
	WindowVirtualKeyDown
	WindowVirtualKeyUp
	WindowHoveredFile
	WindowDroppedFile
	WindowHoveredFileCancelled
	WindowResized
	WindowMoved
	WindowTouchStart
	WindowTouchMove
	WindowTouchEnd
	WindowTouchCancel
	WindowFocusReceived
	WindowFocusLost
	WindowCloseRequested
	WindowThemeChanged
)

// HoverEventFilter matches events delivered to currently hovered nodes.
type HoverEventFilter uint8

const (
	HoverMouseOver HoverEventFilter = iota
	HoverMouseDown
	HoverLeftMouseDown
	HoverMiddleMouseDown
	HoverRightMouseDown
	HoverMouseUp
	HoverLeftMouseUp
	HoverMiddleMouseUp
	HoverRightMouseUp
	HoverMouseEnter
	HoverMouseLeave
	HoverScroll
	HoverScrollStart
	HoverScrollEnd
	HoverTextInput
	HoverVirtualKeyDown
	HoverVirtualKeyUp
	HoverHoveredFile
	HoverDroppedFile
	HoverHoveredFileCancelled
	HoverTouchStart
	HoverTouchMove
	HoverTouchEnd
	HoverTouchCancel
)

// FocusEventFilter matches events delivered to the focused node.
type FocusEventFilter uint8

const (
	FocusMouseOver FocusEventFilter = iota
	FocusMouseDown
	FocusLeftMouseDown
	FocusMiddleMouseDown
	FocusRightMouseDown
	FocusMouseUp
	FocusLeftMouseUp
	FocusMiddleMouseUp
	FocusRightMouseUp
	FocusMouseEnter
	FocusMouseLeave
	FocusScroll
	FocusScrollStart
	FocusScrollEnd
	FocusTextInput
	FocusVirtualKeyDown
	FocusVirtualKeyUp
	FocusReceived
	FocusLost
)

// ComponentEventFilter matches lifecycle events of component nodes.
type ComponentEventFilter uint8

const (
	ComponentAfterMount ComponentEventFilter = iota
	ComponentBeforeUnmount
	ComponentNodeResized
)

// EventFilterKind tags the variant held by an EventFilter.
type EventFilterKind uint8

const (
	FilterKindWindow EventFilterKind = iota
	FilterKindHover
	FilterKindFocus
	FilterKindNotHover
	FilterKindNotFocus
	FilterKindComponent
)

// EventFilter is the predicate attached to a callback registration.
// It is a plain comparable value so it can key maps on the hot path.
type EventFilter struct {
	Kind      EventFilterKind
	Window    WindowEventFilter
	Hover     HoverEventFilter
	Focus     FocusEventFilter
	Component ComponentEventFilter
}

// OnWindow builds a Window(w) filter.
func OnWindow(w WindowEventFilter) EventFilter {
	return EventFilter{Kind: FilterKindWindow, Window: w}
}

// OnHover builds a Hover(h) filter.
func OnHover(h HoverEventFilter) EventFilter {
	return EventFilter{Kind: FilterKindHover, Hover: h}
}

// OnFocus builds a Focus(f) filter.
func OnFocus(f FocusEventFilter) EventFilter {
	return EventFilter{Kind: FilterKindFocus, Focus: f}
}

// NotHover builds a Not(Hover(h)) filter: it matches on frames where the
// positive hover event did NOT fire for the node.
func NotHover(h HoverEventFilter) EventFilter {
	return EventFilter{Kind: FilterKindNotHover, Hover: h}
}

// NotFocus builds a Not(Focus(f)) filter.
func NotFocus(f FocusEventFilter) EventFilter {
	return EventFilter{Kind: FilterKindNotFocus, Focus: f}
}

// OnComponent builds a Component(c) lifecycle filter.
func OnComponent(c ComponentEventFilter) EventFilter {
	return EventFilter{Kind: FilterKindComponent, Component: c}
}

// Positive resolves a Not filter to the positive filter it negates.
// Returns ok=false for non-Not filters.
func (f EventFilter) Positive() (EventFilter, bool) {
	switch f.Kind {
	case FilterKindNotHover:
		return OnHover(f.Hover), true
	case FilterKindNotFocus:
		return OnFocus(f.Focus), true
	default:
		return EventFilter{}, false
	}
}

// hoverFromWindow is the fixed mapping from window events to the hover
// event delivered to hit nodes. Events without a hover counterpart
// (Resized, Moved, theme and window-focus changes) are absent.
var hoverFromWindow = map[WindowEventFilter]HoverEventFilter{
	WindowMouseOver:            HoverMouseOver,
	WindowMouseDown:            HoverMouseDown,
	WindowLeftMouseDown:        HoverLeftMouseDown,
	WindowMiddleMouseDown:      HoverMiddleMouseDown,
	WindowRightMouseDown:       HoverRightMouseDown,
	WindowMouseUp:              HoverMouseUp,
	WindowLeftMouseUp:          HoverLeftMouseUp,
	WindowMiddleMouseUp:        HoverMiddleMouseUp,
	WindowRightMouseUp:         HoverRightMouseUp,
	WindowMouseEnter:           HoverMouseEnter,
	WindowMouseLeave:           HoverMouseLeave,
	WindowScroll:               HoverScroll,
	WindowScrollStart:          HoverScrollStart,
	WindowScrollEnd:            HoverScrollEnd,
	WindowTextInput:            HoverTextInput,
	WindowVirtualKeyDown:       HoverVirtualKeyDown,
	WindowVirtualKeyUp:         HoverVirtualKeyUp,
	WindowHoveredFile:          HoverHoveredFile,
	WindowDroppedFile:          HoverDroppedFile,
	WindowHoveredFileCancelled: HoverHoveredFileCancelled,
	WindowTouchStart:           HoverTouchStart,
	WindowTouchMove:            HoverTouchMove,
	WindowTouchEnd:             HoverTouchEnd,
	WindowTouchCancel:          HoverTouchCancel,
}

// focusFromHover maps hover events to the focus event delivered to the
// focused node. Enter/Leave deliberately have no focus counterpart;
// FocusReceived/FocusLost are synthesized by the differ instead.
var focusFromHover = map[HoverEventFilter]FocusEventFilter{
	HoverMouseOver:        FocusMouseOver,
	HoverMouseDown:        FocusMouseDown,
	HoverLeftMouseDown:    FocusLeftMouseDown,
	HoverMiddleMouseDown:  FocusMiddleMouseDown,
	HoverRightMouseDown:   FocusRightMouseDown,
	HoverMouseUp:          FocusMouseUp,
	HoverLeftMouseUp:      FocusLeftMouseUp,
	HoverMiddleMouseUp:    FocusMiddleMouseUp,
	HoverRightMouseUp:     FocusRightMouseUp,
	HoverScroll:           FocusScroll,
	HoverScrollStart:      FocusScrollStart,
	HoverScrollEnd:        FocusScrollEnd,
	HoverTextInput:        FocusTextInput,
	HoverVirtualKeyDown:   FocusVirtualKeyDown,
	HoverVirtualKeyUp:     FocusVirtualKeyUp,
}
