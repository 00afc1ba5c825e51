// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/window_state.go
// Summary: The mutable window state (what user callbacks may change) and the
//          full window state (adds runtime-tracked fields like the last hit
//          test and the focused node).
// Usage: The frame loop diffs previous vs current FullWindowState each frame.

package glint

// WindowTheme is the OS-reported theme.
type WindowTheme uint8

const (
	ThemeLight WindowTheme = iota
	ThemeDark
)

// WindowFrame is the platform frame mode.
type WindowFrame uint8

const (
	FrameNormal WindowFrame = iota
	FrameMinimized
	FrameMaximized
	FrameFullscreen
)

// BackgroundMaterial is a compositor hint for the window background.
type BackgroundMaterial uint8

const (
	MaterialOpaque BackgroundMaterial = iota
	MaterialTransparent
	MaterialBlur
	MaterialAcrylic
)

// MonitorId identifies a display.
type MonitorId uint32

// VirtualKeyCode is a layout-resolved key identifier.
type VirtualKeyCode uint16

// The subset of keycodes the runtime itself inspects. Backends may report
// any value; only these have behavior attached (autotab, tests).
const (
	VkUnknown VirtualKeyCode = iota
	VkTab
	VkEscape
	VkReturn
	VkSpace
	VkBack
	VkLeft
	VkRight
	VkUp
	VkDown
	VkA // keys A..Z follow contiguously
)

// OptionF32 is a nullable float, used for scroll deltas whose presence
// (not value) drives ScrollStart/Scroll/ScrollEnd edges.
type OptionF32 struct {
	Valid bool
	Value float32
}

// SomeF32 wraps a present value.
func SomeF32(v float32) OptionF32 { return OptionF32{Valid: true, Value: v} }

// OptionChar is a nullable text-input character.
type OptionChar struct {
	Valid bool
	Char  rune
}

// OptionVirtualKeyCode is a nullable keycode.
type OptionVirtualKeyCode struct {
	Valid bool
	Code  VirtualKeyCode
}

// OptionDomNodeId is a nullable cross-DOM node reference.
type OptionDomNodeId struct {
	Valid bool
	Id    DomNodeId
}

// SomeNode wraps a present node id.
func SomeNode(id DomNodeId) OptionDomNodeId { return OptionDomNodeId{Valid: true, Id: id} }

// CursorPositionKind tags the cursor tri-state.
type CursorPositionKind uint8

const (
	CursorUninitialized CursorPositionKind = iota
	CursorOutOfWindow
	CursorInWindow
)

// CursorPosition is the tri-state cursor location. OutOfWindow keeps the
// last known point so leave events can still hit-test.
type CursorPosition struct {
	Kind CursorPositionKind
	Pos  LogicalPosition
}

// CursorInside builds an in-window position.
func CursorInside(x, y float32) CursorPosition {
	return CursorPosition{Kind: CursorInWindow, Pos: LogicalPosition{X: x, Y: y}}
}

// InWindow returns the position if the cursor is inside the window.
func (c CursorPosition) InWindow() (LogicalPosition, bool) {
	return c.Pos, c.Kind == CursorInWindow
}

// WindowPosition is the (possibly not yet known) outer position.
type WindowPosition struct {
	Initialized bool
	Pos         PhysicalPosition
}

// PositionInitialized builds a known window position.
func PositionInitialized(x, y int32) WindowPosition {
	return WindowPosition{Initialized: true, Pos: PhysicalPosition{X: x, Y: y}}
}

// MouseCursorType is the pointer shape requested by callbacks.
type MouseCursorType uint8

const (
	CursorDefault MouseCursorType = iota
	CursorPointer
	CursorText
	CursorMove
	CursorGrab
	CursorGrabbing
	CursorNotAllowed
	CursorWait
	CursorCrosshair
)

// MouseState is the per-frame mouse snapshot.
type MouseState struct {
	CursorPos      CursorPosition
	CursorType     MouseCursorType
	LeftDown       bool
	RightDown      bool
	MiddleDown     bool
	ScrollX        OptionF32
	ScrollY        OptionF32
}

// AnyDown reports whether any button is held.
func (m MouseState) AnyDown() bool { return m.LeftDown || m.RightDown || m.MiddleDown }

// KeyboardState is the per-frame keyboard snapshot. PressedVirtualKeycodes
// and PressedScancodes stay in lockstep (same cardinality, same order).
type KeyboardState struct {
	ShiftDown bool
	CtrlDown  bool
	AltDown   bool
	SuperDown bool

	CurrentChar           OptionChar
	CurrentVirtualKeycode OptionVirtualKeyCode

	PressedVirtualKeycodes []VirtualKeyCode
	PressedScancodes       []uint32
}

// PressKey records a key-down edge, keeping keycodes and scancodes paired.
func (k *KeyboardState) PressKey(code VirtualKeyCode, scancode uint32) {
	for _, c := range k.PressedVirtualKeycodes {
		if c == code {
			return
		}
	}
	k.PressedVirtualKeycodes = append(k.PressedVirtualKeycodes, code)
	k.PressedScancodes = append(k.PressedScancodes, scancode)
	k.CurrentVirtualKeycode = OptionVirtualKeyCode{Valid: true, Code: code}
}

// ReleaseKey records a key-up edge.
func (k *KeyboardState) ReleaseKey(code VirtualKeyCode) {
	for i, c := range k.PressedVirtualKeycodes {
		if c == code {
			k.PressedVirtualKeycodes = append(k.PressedVirtualKeycodes[:i], k.PressedVirtualKeycodes[i+1:]...)
			k.PressedScancodes = append(k.PressedScancodes[:i], k.PressedScancodes[i+1:]...)
			break
		}
	}
	k.CurrentVirtualKeycode = OptionVirtualKeyCode{}
}

// IsKeyDown reports whether the keycode is currently held.
func (k *KeyboardState) IsKeyDown(code VirtualKeyCode) bool {
	for _, c := range k.PressedVirtualKeycodes {
		if c == code {
			return true
		}
	}
	return false
}

// TouchState is the per-frame touch snapshot.
type TouchState struct {
	ActiveTouches uint32
}

// WindowFlags are the user-togglable window attributes.
type WindowFlags struct {
	Frame              WindowFrame
	HasFocus           bool
	IsVisible          bool
	TopMost            bool
	AlwaysOnTop        bool
	PreventSleep       bool
	UseNativeMenus     bool
	AutotabEnabled     bool
	SmoothScrollEnabled bool
	IsAboutToClose     bool
	Material           BackgroundMaterial
}

// SizeConstraints are the min/max outer dimensions handed to the backend.
type SizeConstraints struct {
	MinDimensions LogicalSize
	MaxDimensions LogicalSize
}

// RendererOptions select backend rendering behavior. Loaded from
// renderer.toml through the config package.
type RendererOptions struct {
	Vsync   bool `toml:"vsync"`
	Srgb    bool `toml:"srgb"`
	HwAccel bool `toml:"hw_accel"`
}

// ImePosition is the composition rectangle for input methods.
type ImePosition struct {
	Valid bool
	Rect  LogicalRect
}

// WindowState is the portion of window state user code may mutate through
// CallbackInfo. The runtime compares snapshots field by field to produce
// backend commands.
type WindowState struct {
	Title       string
	Size        WindowSize
	Position    WindowPosition
	Constraints SizeConstraints
	Flags       WindowFlags
	Theme       WindowTheme

	Keyboard KeyboardState
	Mouse    MouseState
	Touch    TouchState

	Ime        ImePosition
	Renderer   RendererOptions
	Background ColorU
	Monitor    MonitorId

	LayoutCallback LayoutCallback
	CloseCallback  Callback
	CloseData      *RefAny
}

// FullWindowState is the superset the runtime tracks internally.
type FullWindowState struct {
	WindowState

	HoveredFile string
	DroppedFile string

	FocusedNode OptionDomNodeId
	LastHitTest FullHitTest

	// Selections holds per-DOM text selection state.
	Selections map[DomId]SelectionState
}

// SelectionState is an opaque per-DOM selection range.
type SelectionState struct {
	Anchor DomNodeId
	Focus  DomNodeId
	Active bool
}

// Clone deep-copies the state so a frame snapshot cannot alias the live
// state. Hot-path maps are copied lazily (only when non-empty).
func (s *FullWindowState) Clone() *FullWindowState {
	out := *s
	out.Keyboard.PressedVirtualKeycodes = append([]VirtualKeyCode(nil), s.Keyboard.PressedVirtualKeycodes...)
	out.Keyboard.PressedScancodes = append([]uint32(nil), s.Keyboard.PressedScancodes...)
	out.LastHitTest = s.LastHitTest.Clone()
	if len(s.Selections) > 0 {
		out.Selections = make(map[DomId]SelectionState, len(s.Selections))
		for k, v := range s.Selections {
			out.Selections[k] = v
		}
	}
	return &out
}
