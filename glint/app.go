// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/app.go
// Summary: The multi-window registry and the run loop: raw input fan-in,
//          the frame ticker, queued window creation and the
//          RefreshDomAllWindows broadcast.
// Usage: Build an App with a backend factory, queue the first window, Run.

package glint

import (
	"log"
	"time"
)

// DefaultTickInterval paces the frame loop when the caller does not set one.
const DefaultTickInterval = 16 * time.Millisecond

// BackendFactory builds the platform shell of one window.
type BackendFactory func(opts WindowCreateOptions) Backend

// windowInput pairs a raw-input mutation with the window it targets.
type windowInput struct {
	id     WindowId
	update StateUpdate
}

// App owns every window of the process and drives their frame loops from
// one goroutine (the frame thread).
type App struct {
	windows map[WindowId]*Window
	order   []WindowId

	factory    BackendFactory
	imageCache *ImageCache
	fontCache  *FontCache
	glContext  *GlContextPtr

	namespace IdNamespace
	nextDoc   uint32

	pending []WindowCreateOptions
	inputs  chan windowInput
	quit    chan struct{}

	tickInterval time.Duration
	sink         DebugSink
}

// AppOption tweaks App construction.
type AppOption func(*App)

// WithTickInterval overrides the frame pacing.
func WithTickInterval(d time.Duration) AppOption {
	return func(a *App) { a.tickInterval = d }
}

// WithDebugSink attaches a sink for recoverable-condition messages.
func WithDebugSink(sink DebugSink) AppOption {
	return func(a *App) { a.sink = sink }
}

// WithGlContext shares a GL context across all windows.
func WithGlContext(gl *GlContextPtr) AppOption {
	return func(a *App) { a.glContext = gl }
}

// NewApp creates an empty registry around a backend factory.
func NewApp(factory BackendFactory, opts ...AppOption) *App {
	a := &App{
		windows:      make(map[WindowId]*Window),
		factory:      factory,
		imageCache:   NewImageCache(),
		fontCache:    NewFontCache(),
		glContext:    &GlContextPtr{},
		namespace:    1,
		inputs:       make(chan windowInput, 64),
		quit:         make(chan struct{}),
		tickInterval: DefaultTickInterval,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ImageCache returns the process-shared image cache.
func (a *App) ImageCache() *ImageCache { return a.imageCache }

// FontCache returns the process-shared font cache.
func (a *App) FontCache() *FontCache { return a.fontCache }

// WindowCount reports the number of live windows.
func (a *App) WindowCount() int { return len(a.windows) }

// Window returns a live window by id.
func (a *App) Window(id WindowId) (*Window, bool) {
	w, ok := a.windows[id]
	return w, ok
}

// SpawnWindow queues a window; the shell window is built at the top of the
// next tick.
func (a *App) SpawnWindow(opts WindowCreateOptions) {
	if opts.Sink == nil {
		opts.Sink = a.sink
	}
	a.pending = append(a.pending, opts)
}

// Quit asks the run loop to tear everything down and return.
func (a *App) Quit() {
	select {
	case <-a.quit:
	default:
		close(a.quit)
	}
}

// buildPending turns queued creates into live windows. A failed window is
// logged and skipped; the others continue.
func (a *App) buildPending() {
	creates := a.pending
	a.pending = nil
	for _, opts := range creates {
		backend := a.factory(opts)
		a.nextDoc++
		doc := DocumentId{Namespace: a.namespace, Id: a.nextDoc}
		w, err := NewWindow(opts, backend, a.namespace, doc, a.imageCache, a.fontCache, a.glContext)
		if err != nil {
			log.Printf("App: window %q not created: %v", opts.State.Title, err)
			continue
		}
		a.windows[w.Id] = w
		a.order = append(a.order, w.Id)
		go a.forwardEvents(w.Id, backend)
	}
}

// forwardEvents funnels one backend's raw input into the frame thread.
func (a *App) forwardEvents(id WindowId, backend Backend) {
	for update := range backend.Events() {
		select {
		case a.inputs <- windowInput{id: id, update: update}:
		case <-a.quit:
			return
		}
	}
}

func (a *App) removeWindow(id WindowId) {
	delete(a.windows, id)
	for i, wid := range a.order {
		if wid == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

// Run drives all windows until the last one closes. Returns the process
// exit code: 0 on a clean shutdown, 1 when no window could be created.
func (a *App) Run() int {
	a.buildPending()
	if len(a.windows) == 0 {
		log.Printf("App: fatal: no window could be created")
		return 1
	}

	ticker := time.NewTicker(a.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case in := <-a.inputs:
			if w, ok := a.windows[in.id]; ok {
				w.ApplyInput(in.update)
			}

		case <-ticker.C:
			a.buildPending()
			now := time.Now()
			order := append([]WindowId(nil), a.order...)
			for _, id := range order {
				w, ok := a.windows[id]
				if !ok {
					continue
				}
				res, err := w.DoFrame(now)
				if err != nil {
					log.Printf("App: %v", err)
					w.Destroy()
					a.removeWindow(id)
					continue
				}
				if res.Update == RefreshDomAllWindows {
					for otherId, other := range a.windows {
						if otherId != id {
							other.RequestRefresh()
						}
					}
				}
				for _, opts := range res.WindowsCreated {
					a.SpawnWindow(opts)
				}
				if res.Closed {
					a.removeWindow(id)
				}
			}
			if len(a.windows) == 0 && len(a.pending) == 0 {
				return 0
			}

		case <-a.quit:
			for id, w := range a.windows {
				w.Destroy()
				delete(a.windows, id)
			}
			a.order = nil
			return 0
		}
	}
}
