// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/backend.go
// Summary: The platform-shell boundary: the Backend interface a shell must
//          implement, the command union the window-state applier emits, and
//          the display list handed to Present.
// Usage: shell/ provides the tcell implementation; tests use stub backends.

package glint

// StateUpdate is one raw-input mutation the shell applies to the window
// state at the top of a frame.
type StateUpdate func(state *FullWindowState)

// Backend is the platform shell of one window. Implementations own the
// surface, deliver raw input as StateUpdates, and draw display lists.
type Backend interface {
	// Init creates the surface. A failure is fatal for the window.
	Init() error
	// Fini tears the surface down.
	Fini()
	// Size reports the current surface dimensions and DPI.
	Size() WindowSize
	// Events delivers raw-input state mutations. The channel closes when
	// the surface is gone.
	Events() <-chan StateUpdate
	// ApplyCommand executes one window-state command. Unsupported commands
	// return nil and are simply not reflected by the platform.
	ApplyCommand(cmd BackendCommand) error
	// Present draws the display lists and applies the resource updates for
	// one epoch.
	Present(lists []DisplayList, updates []ResourceUpdate, epoch Epoch) error
	// MakeCurrent asserts the rendering context on the frame thread.
	MakeCurrent()
}

// BackendCommandKind tags the command union.
type BackendCommandKind uint8

const (
	CmdSetTitle BackendCommandKind = iota
	CmdSetFrame
	CmdSetMinMaxSize
	CmdSetPosition
	CmdSetMaterial
	CmdSetVisibility
	CmdSetCursor
	CmdSetImePosition
)

// BackendCommand is one minimal window-state change for the shell.
type BackendCommand struct {
	Kind BackendCommandKind

	Title       string
	Frame       WindowFrame
	Constraints SizeConstraints
	Position    PhysicalPosition
	Material    BackgroundMaterial
	Visible     bool
	Cursor      MouseCursorType
	Ime         ImePosition
}

// DisplayItem is one drawable box of a display list, already positioned in
// window coordinates with scroll offsets applied.
type DisplayItem struct {
	Node       NodeId
	Rect       LogicalRect
	Clip       LogicalRect
	Background ColorU
	Color      ColorU
	Words      string
	Image      ImageKey
	HasImage   bool
}

// DisplayList is the drawable output of one DOM for one epoch.
type DisplayList struct {
	Dom   DomId
	Epoch Epoch
	Items []DisplayItem
}
