// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: shell/tcell.go
// Summary: The terminal reference backend: adapts a tcell.Screen to the
//          runtime's Backend interface, translating raw key/mouse/resize
//          events into window-state mutations and drawing display lists as
//          cells.
// Usage: glint.NewApp(shell.NewTcellFactory()).

package shell

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/glint/glint"
)

// scrollCellsPerNotch converts one wheel notch into logical cells.
const scrollCellsPerNotch = 3

// TcellBackend implements glint.Backend over a terminal screen. One
// backend per window; terminals only ever host one.
type TcellBackend struct {
	screen tcell.Screen
	events chan glint.StateUpdate
	quit   chan struct{}
	theme  glint.WindowTheme
}

// NewTcellFactory returns a backend factory for glint.NewApp.
func NewTcellFactory() glint.BackendFactory {
	return func(glint.WindowCreateOptions) glint.Backend { return NewTcellBackend() }
}

// NewTcellBackend creates an uninitialized terminal backend.
func NewTcellBackend() *TcellBackend {
	return &TcellBackend{
		events: make(chan glint.StateUpdate, 64),
		quit:   make(chan struct{}),
	}
}

// Init creates and initializes the screen and starts the event pump.
func (b *TcellBackend) Init() error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	screen.EnableMouse()
	screen.EnableFocus()
	b.screen = screen
	b.theme = QueryTerminalTheme()

	theme := b.theme
	b.events <- func(state *glint.FullWindowState) {
		state.Theme = theme
	}

	go b.pumpEvents()
	return nil
}

// Fini stops the pump and restores the terminal.
func (b *TcellBackend) Fini() {
	select {
	case <-b.quit:
	default:
		close(b.quit)
	}
	if b.screen != nil {
		b.screen.Fini()
	}
}

// Size reports the terminal dimensions; one cell is one logical pixel.
func (b *TcellBackend) Size() glint.WindowSize {
	w, h := 80, 24
	if b.screen != nil {
		w, h = b.screen.Size()
	}
	return glint.WindowSize{
		Dimensions: glint.LogicalSize{Width: float32(w), Height: float32(h)},
		DPI:        96,
	}
}

// Events delivers the translated input stream.
func (b *TcellBackend) Events() <-chan glint.StateUpdate { return b.events }

// MakeCurrent is a no-op: terminals have no GPU context.
func (b *TcellBackend) MakeCurrent() {}

// ApplyCommand handles the commands a terminal can express; the rest are
// accepted silently.
func (b *TcellBackend) ApplyCommand(cmd glint.BackendCommand) error {
	if b.screen == nil {
		return nil
	}
	switch cmd.Kind {
	case glint.CmdSetTitle:
		b.screen.SetTitle(cmd.Title)
	case glint.CmdSetCursor:
		// terminals draw the text cursor only; pointer shapes don't apply
	}
	return nil
}

// Present draws the display lists as colored cells and flushes the screen.
func (b *TcellBackend) Present(lists []glint.DisplayList, _ []glint.ResourceUpdate, _ glint.Epoch) error {
	if b.screen == nil {
		return nil
	}
	b.screen.Clear()
	for _, list := range lists {
		for _, item := range list.Items {
			b.drawItem(item)
		}
	}
	b.screen.Show()
	return nil
}

func (b *TcellBackend) drawItem(item glint.DisplayItem) {
	style := tcell.StyleDefault
	if item.Background != (glint.ColorU{}) {
		style = style.Background(tcell.NewRGBColor(
			int32(item.Background.R), int32(item.Background.G), int32(item.Background.B)))
	}
	if item.Color != (glint.ColorU{}) {
		style = style.Foreground(tcell.NewRGBColor(
			int32(item.Color.R), int32(item.Color.G), int32(item.Color.B)))
	}

	x0, y0 := int(item.Rect.Origin.X), int(item.Rect.Origin.Y)
	x1, y1 := int(item.Rect.MaxX()), int(item.Rect.MaxY())
	cx0, cy0 := int(item.Clip.Origin.X), int(item.Clip.Origin.Y)
	cx1, cy1 := int(item.Clip.MaxX()), int(item.Clip.MaxY())

	for y := max(y0, cy0); y < min(y1, cy1); y++ {
		for x := max(x0, cx0); x < min(x1, cx1); x++ {
			b.screen.SetContent(x, y, ' ', nil, style)
		}
	}
	if item.Words != "" && y0 >= cy0 && y0 < cy1 {
		x := x0
		for _, r := range item.Words {
			if x >= x1 || x >= cx1 {
				break
			}
			if x >= cx0 {
				b.screen.SetContent(x, y0, r, nil, style)
			}
			x++
		}
	}
}

// pumpEvents polls the screen and translates raw events into state
// mutations until the backend finishes.
func (b *TcellBackend) pumpEvents() {
	for {
		select {
		case <-b.quit:
			return
		default:
		}
		ev := b.screen.PollEvent()
		if ev == nil {
			close(b.events)
			return
		}
		update := translateEvent(ev)
		if update == nil {
			continue
		}
		select {
		case b.events <- update:
		case <-b.quit:
			return
		}
	}
}

func translateEvent(ev tcell.Event) glint.StateUpdate {
	switch tev := ev.(type) {
	case *tcell.EventMouse:
		return translateMouse(tev)
	case *tcell.EventKey:
		return translateKey(tev)
	case *tcell.EventResize:
		w, h := tev.Size()
		return func(state *glint.FullWindowState) {
			state.Size.Dimensions = glint.LogicalSize{Width: float32(w), Height: float32(h)}
		}
	case *tcell.EventFocus:
		focused := tev.Focused
		return func(state *glint.FullWindowState) {
			state.Flags.HasFocus = focused
		}
	}
	return nil
}

func translateMouse(ev *tcell.EventMouse) glint.StateUpdate {
	x, y := ev.Position()
	buttons := ev.Buttons()
	return func(state *glint.FullWindowState) {
		state.Mouse.CursorPos = glint.CursorInside(float32(x), float32(y))
		state.Mouse.LeftDown = buttons&tcell.Button1 != 0
		state.Mouse.RightDown = buttons&tcell.Button2 != 0
		state.Mouse.MiddleDown = buttons&tcell.Button3 != 0
		if buttons&tcell.WheelUp != 0 {
			state.Mouse.ScrollY = glint.SomeF32(-scrollCellsPerNotch)
		}
		if buttons&tcell.WheelDown != 0 {
			state.Mouse.ScrollY = glint.SomeF32(scrollCellsPerNotch)
		}
		if buttons&tcell.WheelLeft != 0 {
			state.Mouse.ScrollX = glint.SomeF32(-scrollCellsPerNotch)
		}
		if buttons&tcell.WheelRight != 0 {
			state.Mouse.ScrollX = glint.SomeF32(scrollCellsPerNotch)
		}
	}
}

// translateKey maps one key event to a press. Terminals deliver no key-up;
// the runtime clears the current key and char on both state snapshots at
// frame end, so each translated press forms a fresh edge. The release+press
// pair below keeps the held-key list sane for repeated keys.
func translateKey(ev *tcell.EventKey) glint.StateUpdate {
	code := virtualKeyFor(ev)
	mods := ev.Modifiers()
	var char rune
	if ev.Key() == tcell.KeyRune {
		char = ev.Rune()
	}
	return func(state *glint.FullWindowState) {
		state.Keyboard.ShiftDown = mods&tcell.ModShift != 0
		state.Keyboard.CtrlDown = mods&tcell.ModCtrl != 0
		state.Keyboard.AltDown = mods&tcell.ModAlt != 0
		if code != glint.VkUnknown {
			state.Keyboard.ReleaseKey(code)
			state.Keyboard.PressKey(code, uint32(ev.Key()))
		}
		if char != 0 {
			state.Keyboard.CurrentChar = glint.OptionChar{Valid: true, Char: char}
		}
	}
}

func virtualKeyFor(ev *tcell.EventKey) glint.VirtualKeyCode {
	switch ev.Key() {
	case tcell.KeyTab:
		return glint.VkTab
	case tcell.KeyEscape:
		return glint.VkEscape
	case tcell.KeyEnter:
		return glint.VkReturn
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return glint.VkBack
	case tcell.KeyLeft:
		return glint.VkLeft
	case tcell.KeyRight:
		return glint.VkRight
	case tcell.KeyUp:
		return glint.VkUp
	case tcell.KeyDown:
		return glint.VkDown
	case tcell.KeyRune:
		if ev.Rune() == ' ' {
			return glint.VkSpace
		}
		r := ev.Rune()
		if r >= 'a' && r <= 'z' {
			return glint.VkA + glint.VirtualKeyCode(r-'a')
		}
		if r >= 'A' && r <= 'Z' {
			return glint.VkA + glint.VirtualKeyCode(r-'A')
		}
	}
	return glint.VkUnknown
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
