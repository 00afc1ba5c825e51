// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/glint-demo/main.go
// Summary: Terminal demo: a counter with clickable buttons, tab focus,
//          a looping opacity animation and a background worker.
// Usage: glint-demo [-title T] [-trace trace.db]

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/framegrace/glint/config"
	"github.com/framegrace/glint/glint"
	"github.com/framegrace/glint/shell"
	"github.com/framegrace/glint/trace"
)

// demoState is the window data: mutated only on the frame thread.
type demoState struct {
	clicks  int
	fetched string
	working bool
}

func main() {
	title := flag.String("title", "", "window title (overrides the config)")
	tracePath := flag.String("trace", "", "write frame traces to this SQLite file")
	flag.Parse()

	sys := config.System()
	if *title == "" {
		*title = sys.GetString("window", "title", "glint demo")
	}

	physics, err := config.LoadScrollPhysics()
	if err != nil {
		log.Printf("Demo: scroll physics not loaded, using defaults: %v", err)
	}

	var opts []glint.AppOption
	if *tracePath != "" {
		tracer, err := trace.New(*tracePath)
		if err != nil {
			log.Fatalf("Demo: trace database: %v", err)
		}
		defer tracer.Close()
		opts = append(opts, glint.WithDebugSink(tracer))
	}

	app := glint.NewApp(shell.NewTcellFactory(), opts...)
	app.SpawnWindow(glint.WindowCreateOptions{
		State: glint.WindowState{
			Title: *title,
			Flags: glint.WindowFlags{
				AutotabEnabled:      sys.GetBool("window", "autotab", true),
				SmoothScrollEnabled: sys.GetBool("scroll", "smooth", true),
			},
			LayoutCallback: glint.LayoutCallback{Raw: layoutDemo},
		},
		Data:    glint.NewRefAnyNamed(&demoState{}, "demoState"),
		Physics: physics,
	})

	os.Exit(app.Run())
}

// layoutDemo rebuilds the whole DOM from the current state. Called on
// every RefreshDom.
func layoutDemo(data *glint.RefAny, info *glint.LayoutCallbackInfo) *glint.StyledDom {
	state := data.Value().(*demoState)

	fg := glint.ColorU{R: 220, G: 220, B: 220, A: 255}
	if info.Theme == glint.ThemeLight {
		fg = glint.ColorU{R: 32, G: 32, B: 32, A: 255}
	}

	dom := glint.NewStyledDom(glint.NodeData{Type: glint.NodeDiv, Id: "root"})

	dom.AddChild(dom.Root, glint.NodeData{
		Type:  glint.NodeText,
		Words: "glint demo - click the buttons, tab between them, q quits",
		Style: []glint.CssProperty{{Type: glint.CssColor, Color: fg}},
	})

	dom.AddChild(dom.Root, glint.NodeData{
		Type:  glint.NodeText,
		Id:    "counter",
		Words: fmt.Sprintf("clicks: %d", state.clicks),
		Style: []glint.CssProperty{{Type: glint.CssColor, Color: fg}},
	})

	dom.AddChild(dom.Root, glint.NodeData{
		Type:     glint.NodeText,
		Id:       "increment",
		Words:    "[ increment ]",
		TabIndex: glint.TabIndex{Kind: glint.TabAuto},
		Callbacks: []glint.CallbackData{
			{Event: glint.OnHover(glint.HoverLeftMouseUp), Callback: onIncrement, Data: data},
			{Event: glint.OnFocus(glint.FocusLeftMouseUp), Callback: onIncrement, Data: data},
		},
		Style: []glint.CssProperty{
			{Type: glint.CssColor, Color: fg},
			{Type: glint.CssBackgroundColor, Color: glint.ColorU{R: 40, G: 80, B: 160, A: 255}},
		},
	})

	fetchLabel := "[ fetch ]"
	if state.working {
		fetchLabel = "[ fetching... ]"
	}
	dom.AddChild(dom.Root, glint.NodeData{
		Type:     glint.NodeText,
		Id:       "fetch",
		Words:    fetchLabel,
		TabIndex: glint.TabIndex{Kind: glint.TabAuto},
		Callbacks: []glint.CallbackData{
			{Event: glint.OnHover(glint.HoverLeftMouseUp), Callback: onFetch, Data: data},
		},
		Style: []glint.CssProperty{
			{Type: glint.CssColor, Color: fg},
			{Type: glint.CssBackgroundColor, Color: glint.ColorU{R: 40, G: 120, B: 80, A: 255}},
		},
	})

	if state.fetched != "" {
		dom.AddChild(dom.Root, glint.NodeData{
			Type:  glint.NodeText,
			Words: state.fetched,
			Style: []glint.CssProperty{{Type: glint.CssColor, Color: fg}},
		})
	}

	dom.AddChild(dom.Root, glint.NodeData{
		Type:     glint.NodeText,
		Id:       "quit",
		Words:    "[ quit ]",
		TabIndex: glint.TabIndex{Kind: glint.TabAuto},
		Callbacks: []glint.CallbackData{
			{Event: glint.OnHover(glint.HoverLeftMouseUp), Callback: onQuit},
			{Event: glint.OnFocus(glint.FocusVirtualKeyDown), Callback: onQuitKey},
		},
		Style: []glint.CssProperty{
			{Type: glint.CssColor, Color: fg},
			{Type: glint.CssBackgroundColor, Color: glint.ColorU{R: 140, G: 40, B: 40, A: 255}},
		},
	})

	// an overflowing list so the wheel has something to scroll
	list := dom.AddChild(dom.Root, glint.NodeData{
		Type:  glint.NodeDiv,
		Id:    "list",
		Style: []glint.CssProperty{{Type: glint.CssHeight, Value: 8}},
	})
	for i := 0; i < 40; i++ {
		dom.AddChild(list, glint.NodeData{
			Type:  glint.NodeText,
			Words: fmt.Sprintf("row %02d", i),
			Style: []glint.CssProperty{
				{Type: glint.CssColor, Color: fg},
				{Type: glint.CssHeight, Value: 1},
			},
		})
	}

	return dom
}

func onIncrement(data *glint.RefAny, info *glint.CallbackInfo) glint.Update {
	state := data.Value().(*demoState)
	state.clicks++

	// pulse the button while the DOM is regenerated
	info.AddTimer(glint.NewAnimationTimer(glint.Animation{
		Node:     info.HitNode(),
		From:     glint.CssProperty{Type: glint.CssOpacity, Value: 0.4},
		To:       glint.CssProperty{Type: glint.CssOpacity, Value: 1},
		Duration: 200 * time.Millisecond,
	}))
	return glint.RefreshDom
}

// onFetch starts a worker that pretends to load something, then writes the
// result back on the frame thread.
func onFetch(data *glint.RefAny, info *glint.CallbackInfo) glint.Update {
	state := data.Value().(*demoState)
	if state.working {
		return glint.DoNothing
	}
	state.working = true

	info.StartThread(nil, data, func(_ *glint.RefAny, sender *glint.ThreadSender, receiver *glint.ThreadReceiver) {
		time.Sleep(800 * time.Millisecond)
		sender.Send(glint.ThreadReceiveMsg{
			Kind: glint.ThreadReceiveWriteBack,
			Data: glint.NewRefAny(fmt.Sprintf("fetched at %s", time.Now().Format("15:04:05"))),
			Callback: func(writebackData, payload *glint.RefAny, _ *glint.CallbackInfo) glint.Update {
				s := writebackData.Value().(*demoState)
				s.working = false
				s.fetched = payload.Value().(string)
				return glint.RefreshDom
			},
		})
	})
	return glint.RefreshDom
}

func onQuit(_ *glint.RefAny, info *glint.CallbackInfo) glint.Update {
	info.WindowStateMut().Flags.IsAboutToClose = true
	return glint.DoNothing
}

// onQuitKey closes on enter or q while the quit button has focus.
func onQuitKey(_ *glint.RefAny, info *glint.CallbackInfo) glint.Update {
	const vkQ = glint.VkA + glint.VirtualKeyCode('q'-'a')
	kb := info.CurrentWindowState().Keyboard
	if kb.IsKeyDown(glint.VkReturn) || kb.IsKeyDown(vkQ) {
		info.WindowStateMut().Flags.IsAboutToClose = true
	}
	return glint.DoNothing
}
