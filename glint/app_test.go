// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/app_test.go
// Summary: Run-loop tests: startup failure exit code, the cross-window
//          refresh broadcast and the quit path.

package glint

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunFailsWhenNoWindowComesUp(t *testing.T) {
	factory := func(WindowCreateOptions) Backend {
		b := newStubBackend()
		b.initErr = errors.New("no display")
		return b
	}
	app := NewApp(factory, WithTickInterval(time.Millisecond))
	app.SpawnWindow(WindowCreateOptions{State: WindowState{Title: "doomed"}})

	if code := app.Run(); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestRunBroadcastsRefreshToAllWindows(t *testing.T) {
	b1, b2 := newStubBackend(), newStubBackend()
	backends := []*stubBackend{b1, b2}
	next := 0
	factory := func(WindowCreateOptions) Backend {
		b := backends[next]
		next++
		return b
	}

	emitterLayout := func(_ *RefAny, _ *LayoutCallbackInfo) *StyledDom {
		return NewStyledDom(NodeData{
			Type: NodeDiv,
			Callbacks: []CallbackData{{
				Event: OnWindow(WindowVirtualKeyDown),
				Callback: func(_ *RefAny, _ *CallbackInfo) Update {
					return RefreshDomAllWindows
				},
			}},
		})
	}
	var listenerLayouts atomic.Int32
	listenerLayout := func(_ *RefAny, _ *LayoutCallbackInfo) *StyledDom {
		listenerLayouts.Add(1)
		return NewStyledDom(NodeData{Type: NodeDiv})
	}

	app := NewApp(factory, WithTickInterval(time.Millisecond))
	app.SpawnWindow(WindowCreateOptions{State: WindowState{
		Title: "emitter", LayoutCallback: LayoutCallback{Raw: emitterLayout},
	}})
	app.SpawnWindow(WindowCreateOptions{State: WindowState{
		Title: "listener", LayoutCallback: LayoutCallback{Raw: listenerLayout},
	}})

	done := make(chan int, 1)
	go func() { done <- app.Run() }()

	// key press in the emitter: its window callback broadcasts
	b1.events <- func(s *FullWindowState) { s.Keyboard.PressKey(VkReturn, 0) }

	deadline := time.Now().Add(5 * time.Second)
	for listenerLayouts.Load() < 2 { // 1 at creation, 2 after the broadcast
		if time.Now().After(deadline) {
			t.Fatal("broadcast never reached the listener window")
		}
		time.Sleep(time.Millisecond)
	}

	b1.events <- func(s *FullWindowState) { s.Flags.IsAboutToClose = true }
	b2.events <- func(s *FullWindowState) { s.Flags.IsAboutToClose = true }

	select {
	case code := <-done:
		if code != 0 {
			t.Errorf("exit code = %d, want 0", code)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run loop did not return after the last window closed")
	}
	if !b1.finished || !b2.finished {
		t.Error("backends not torn down")
	}
}

func TestQuitTearsEverythingDown(t *testing.T) {
	backend := newStubBackend()
	app := NewApp(func(WindowCreateOptions) Backend { return backend },
		WithTickInterval(time.Millisecond))
	app.SpawnWindow(WindowCreateOptions{State: WindowState{Title: "main"}})

	done := make(chan int, 1)
	go func() { done <- app.Run() }()
	app.Quit()

	select {
	case code := <-done:
		if code != 0 {
			t.Errorf("exit code = %d, want 0", code)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run loop did not honor Quit")
	}
	if !backend.finished {
		t.Error("backend not torn down on quit")
	}
}
