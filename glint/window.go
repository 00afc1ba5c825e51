// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/window.go
// Summary: One window: its frame loop (input → diff → plan → invoke →
//          work-level decision → produce → present → GC), the window-state
//          applier and the default scroll/autotab handlers.
// Usage: Windows are created and driven by the App registry; DoFrame runs
//        one full frame on the frame thread.

package glint

import (
	"fmt"
	"sync/atomic"
	"time"
)

// WindowId identifies one window in the registry.
type WindowId uint64

var windowIdCounter atomic.Uint64

// NewWindowId allocates a process-unique window id.
func NewWindowId() WindowId { return WindowId(windowIdCounter.Add(1)) }

// reprocessCap bounds hit-test reprocessing within one frame. Exactly one
// re-run avoids livelock; raise to a small budget if real DOMs need more.
const reprocessCap = 1

// WindowCreateOptions describes a window before it exists. Queued creates
// carry these until the registry builds the shell window next tick.
type WindowCreateOptions struct {
	State       WindowState
	Data        *RefAny
	Physics     ScrollPhysicsOptions
	SystemFonts []string

	// Solver/Relayout default to the built-in stacked solver when nil.
	Solver   LayoutSolver
	Relayout RelayoutFn

	Sink         DebugSink
	CreateThread CreateThreadCallback
}

// FrameResult is what one frame hands back to the registry.
type FrameResult struct {
	// Update propagates RefreshDomAllWindows to the other windows.
	Update Update
	// WindowsCreated are queued creates for the registry.
	WindowsCreated []WindowCreateOptions
	// Closed: the window finished its last frame and must be destroyed.
	Closed bool
}

// Window owns everything of one OS window: state, layout results, scroll
// states, timers, threads, resource caches and the backend link. All fields
// are owned by the frame thread; there are no internal locks.
type Window struct {
	Id       WindowId
	Document DocumentId
	Epoch    Epoch

	backend Backend
	data    *RefAny

	current  *FullWindowState
	previous *FullWindowState

	layoutResults []*LayoutResult
	scrollStates  *ScrollStates
	displayLists  []DisplayList

	timers     map[TimerId]*Timer
	timerOrder []TimerId
	threads    map[ThreadId]*Thread

	resources *ResourceCache
	imageCache *ImageCache
	fontCache  *FontCache
	glContext  *GlContextPtr
	textures   *GlTextureCache

	systemFonts []string
	solver      LayoutSolver
	relayout    RelayoutFn
	sink        DebugSink
	createThread CreateThreadCallback

	// lastApplied is the applier's snapshot: commands are emitted only for
	// fields that differ from it.
	lastApplied WindowState

	// pendingUpdate carries cross-window RefreshDom requests into the next
	// frame.
	pendingUpdate Update

	momentumTimer TimerId

	hitTestDirty bool
	closed       bool
}

// NewWindow builds a window over an initialized backend and produces its
// first DOM. The first frame fires no user events (the differ seeds).
func NewWindow(opts WindowCreateOptions, backend Backend, ns IdNamespace, doc DocumentId,
	imageCache *ImageCache, fontCache *FontCache, glContext *GlContextPtr) (*Window, error) {

	if err := backend.Init(); err != nil {
		return nil, fmt.Errorf("backend init: %w", err)
	}
	solver := opts.Solver
	if solver == nil {
		solver = SolveStacked
	}
	relayout := opts.Relayout
	if relayout == nil {
		relayout = RelayoutStacked
	}
	w := &Window{
		Id:           NewWindowId(),
		Document:     doc,
		Epoch:        1,
		backend:      backend,
		data:         opts.Data,
		current:      &FullWindowState{WindowState: opts.State},
		scrollStates: NewScrollStates(opts.Physics),
		timers:       make(map[TimerId]*Timer),
		threads:      make(map[ThreadId]*Thread),
		resources:    NewResourceCache(ns),
		imageCache:   imageCache,
		fontCache:    fontCache,
		glContext:    glContext,
		textures:     NewGlTextureCache(),
		systemFonts:  opts.SystemFonts,
		solver:       solver,
		relayout:     relayout,
		sink:         opts.Sink,
		createThread: opts.CreateThread,
	}
	w.current.Size = backend.Size()
	w.lastApplied = w.current.WindowState

	runner := w.newRunner()
	res := runner.NewResult()
	w.regenerateDom(runner, res)
	w.displayLists = w.buildDisplayLists()
	if err := backend.Present(w.displayLists, nil, w.Epoch); err != nil {
		backend.Fini()
		return nil, fmt.Errorf("first present: %w", err)
	}
	w.finishFrame()
	return w, nil
}

// Data returns the window's root user data.
func (w *Window) Data() *RefAny { return w.data }

// CurrentState exposes the live window state for the shell's input path.
func (w *Window) CurrentState() *FullWindowState { return w.current }

// LayoutResults exposes the solved DOMs.
func (w *Window) LayoutResults() []*LayoutResult { return w.layoutResults }

// ScrollStates exposes the scroll-state table.
func (w *Window) ScrollStates() *ScrollStates { return w.scrollStates }

// TimerCount reports how many timers are registered.
func (w *Window) TimerCount() int { return len(w.timers) }

// ThreadCount reports how many workers are alive.
func (w *Window) ThreadCount() int { return len(w.threads) }

// AddTimer registers a timer directly (outside a callback).
func (w *Window) AddTimer(timer *Timer) TimerId {
	id := NewTimerId()
	w.timers[id] = timer
	w.timerOrder = append(w.timerOrder, id)
	return id
}

// StartThread spawns a worker directly (outside a callback).
func (w *Window) StartThread(data, writebackData *RefAny, body ThreadCallback) ThreadId {
	create := w.createThread
	if create == nil {
		create = CreateThread
	}
	t := create(data, writebackData, body)
	w.threads[t.Id] = t
	return t.Id
}

// RequestRefresh queues a DOM regeneration for the next frame (used by the
// registry's RefreshDomAllWindows broadcast).
func (w *Window) RequestRefresh() {
	w.pendingUpdate = w.pendingUpdate.Max(RefreshDom)
}

func (w *Window) newRunner() *CallbackRunner {
	return &CallbackRunner{
		LayoutResults:  w.layoutResults,
		PreviousState:  w.previous,
		CurrentState:   w.current,
		ScrollStates:   w.scrollStates,
		ImageCache:     w.imageCache,
		FontCache:      w.fontCache,
		GlContext:      w.glContext,
		SystemFonts:    w.systemFonts,
		RawHandle:      w.backend,
		Sink:           w.sink,
		CreateThreadFn: w.createThread,
	}
}

// ApplyInput applies a shell-delivered state mutation (frame phase T0).
func (w *Window) ApplyInput(update StateUpdate) {
	if update != nil {
		update(w.current)
	}
}

// DoFrame runs one complete frame. now is the frame start instant.
func (w *Window) DoFrame(now time.Time) (FrameResult, error) {
	if w.closed {
		return FrameResult{Closed: true}, nil
	}
	runner := w.newRunner()
	res := runner.NewResult()

	// T1: timers fire before event callbacks; thread messages that arrived
	// before this point run in this frame, later ones wait for the next.
	w.runTimers(runner, res, now)
	w.pollThreads(runner, res)

	update := res.CallbacksUpdateScreen.Max(w.pendingUpdate)
	w.pendingUpdate = DoNothing
	broadcast := res.CallbacksUpdateScreen

	var events Events
	var eventCount int
	var lastLevel WorkLevel
	for pass := 0; ; pass++ {
		// T2: hit test when the cursor moved or layout was invalidated.
		if w.hitTestDirty || w.cursorMoved() {
			w.current.LastHitTest = NewFullHitTest(w.current.Mouse.CursorPos, w.layoutResults, w.scrollStates)
			w.hitTestDirty = false
		}

		// T3: diff. The replay pass reseeds hover on the regenerated tree
		// instead of re-diffing: edge events already dispatched this frame
		// must not fire twice.
		newFocus := w.current.FocusedNode
		var ntc NodesToCheck
		if pass == 0 {
			events = DetermineEvents(w.previous, w.current)

			// Focus follows the deepest tab-indexed hit node on mouse up.
			if events.EventWasMouseUp && w.current.LastHitTest.FocusedNode.Valid {
				newFocus = w.current.LastHitTest.FocusedNode
			}
			ntc = NewNodesToCheck(&events, w.current.LastHitTest, newFocus)
			eventCount = len(events.Window) + len(events.Hover) + len(events.Focus)
		} else {
			events = newEmptyEvents(w.current)
			ntc = SimulatedMouseMove(w.current.LastHitTest, w.current.FocusedNode, w.current.Mouse.AnyDown())
		}

		// T4: plan and invoke.
		plan := PlanCallbacks(&events, &ntc, w.layoutResults)
		runner.Run(&plan, res)

		if events.Window[WindowCloseRequested] {
			w.runCloseCallback(runner, res)
		}

		w.resolveFocus(res, newFocus)
		update = update.Max(res.CallbacksUpdateScreen)
		broadcast = broadcast.Max(res.CallbacksUpdateScreen)

		// T5: decide the work level.
		level := w.decideWorkLevel(update, res, now)
		lastLevel = level

		// T6: produce.
		w.glContext.MakeCurrent()
		reprocess := w.produce(level, runner, res)
		if reprocess && pass < reprocessCap {
			// relayout moved geometry under the cursor: re-run from T2 once
			w.hitTestDirty = true
			res.CallbacksUpdateScreen = DoNothing
			update = DoNothing
			continue
		}
		break
	}

	// T4 tail: adopt timers/threads the callbacks scheduled, then push the
	// modified window state to the shell.
	w.mergeScheduled(res)
	w.applyWindowState(res)

	// T7: present, release epoch textures, bump the epoch, GC, snapshot.
	w.glContext.MakeCurrent()
	updates := w.resources.GarbageCollect(w.layoutResults, w.textures)
	if err := w.backend.Present(w.displayLists, updates, w.Epoch); err != nil {
		return FrameResult{}, &WindowError{Title: w.current.Title, Err: err}
	}
	GlTexturesRemoveEpochsFromPipeline(w.Document, w.Epoch)
	w.Epoch = w.Epoch.Next()
	w.finishFrame()

	if fr, ok := w.sink.(FrameRecorder); ok {
		fr.RecordFrame(FrameStats{
			Window:    w.Id,
			Time:      now,
			Duration:  time.Since(now),
			Events:    eventCount,
			WorkLevel: lastLevel,
			Update:    broadcast,
		})
	}

	out := FrameResult{
		Update:         broadcast,
		WindowsCreated: res.WindowsCreated,
		Closed:         w.current.Flags.IsAboutToClose,
	}
	if out.Closed {
		w.Destroy()
	}
	return out, nil
}

func (w *Window) cursorMoved() bool {
	if w.previous == nil {
		return w.current.Mouse.CursorPos.Kind != CursorUninitialized
	}
	return w.previous.Mouse.CursorPos != w.current.Mouse.CursorPos
}

// finishFrame snapshots the state and clears the one-shot input fields.
// Scroll deltas clear only on the live side so their Some-to-None edge
// still fires ScrollEnd next frame. The current key and char clear on both
// sides: shells without key-release events (terminals) can never reset
// them, so every delivered press must form a fresh edge on the next frame.
func (w *Window) finishFrame() {
	w.previous = w.current.Clone()
	w.current.Mouse.ScrollX = OptionF32{}
	w.current.Mouse.ScrollY = OptionF32{}
	w.current.DroppedFile = ""
	w.current.Keyboard.CurrentChar = OptionChar{}
	w.previous.Keyboard.CurrentChar = OptionChar{}
	w.current.Keyboard.CurrentVirtualKeycode = OptionVirtualKeyCode{}
	w.previous.Keyboard.CurrentVirtualKeycode = OptionVirtualKeyCode{}
}

// runTimers drains due timers in insertion order. A timer past its timeout
// fires once more flagged and is removed regardless of its return.
func (w *Window) runTimers(runner *CallbackRunner, res *CallCallbacksResult, now time.Time) {
	var remove []TimerId
	for _, id := range w.timerOrder {
		t, ok := w.timers[id]
		if !ok {
			remove = append(remove, id)
			continue
		}
		aboutToFinish := t.TimeoutElapsed(now)
		if !aboutToFinish && !t.IsDue(now) {
			continue
		}
		node := NodeIdNone
		dom := RootDomId
		if t.Node.Valid {
			dom, node = t.Node.Id.Dom, t.Node.Id.Node
		}
		info := runner.Info(res, dom, node, nil)
		ret := t.Invoke(info, now, aboutToFinish)
		res.CallbacksUpdateScreen = res.CallbacksUpdateScreen.Max(ret.ShouldUpdate)
		if aboutToFinish || ret.ShouldTerminate == TimerTerminate {
			remove = append(remove, id)
		}
	}
	for _, id := range remove {
		w.removeTimer(id)
	}
}

// mergeScheduled adopts timers and threads added in callbacks and drops the
// cancelled ones. Dropping a thread terminates and joins it.
func (w *Window) mergeScheduled(res *CallCallbacksResult) {
	for _, id := range res.timerOrder {
		if t, ok := res.TimersAdded[id]; ok {
			w.timers[id] = t
			w.timerOrder = append(w.timerOrder, id)
		}
	}
	for id := range res.TimersRemoved {
		w.removeTimer(id)
	}
	for id, t := range res.ThreadsAdded {
		w.threads[id] = t
	}
	for id := range res.ThreadsRemoved {
		if t, ok := w.threads[id]; ok {
			t.Terminate()
			delete(w.threads, id)
		}
	}
}

func (w *Window) removeTimer(id TimerId) {
	delete(w.timers, id)
	for i, t := range w.timerOrder {
		if t == id {
			w.timerOrder = append(w.timerOrder[:i], w.timerOrder[i+1:]...)
			break
		}
	}
	if w.momentumTimer == id {
		w.momentumTimer = 0
	}
}

// pollThreads receives at most a batch of messages per thread, ticks the
// workers, and reaps finished ones.
func (w *Window) pollThreads(runner *CallbackRunner, res *CallCallbacksResult) {
	for id, t := range w.threads {
		for {
			msg, ok := t.ReceiveMsg()
			if !ok {
				break
			}
			switch msg.Kind {
			case ThreadReceiveWriteBack:
				if msg.Callback != nil {
					info := runner.Info(res, RootDomId, NodeIdNone, nil)
					update := invokeWriteBackGuarded(msg.Callback, t.WritebackData, msg.Data, info, w.sink)
					res.CallbacksUpdateScreen = res.CallbacksUpdateScreen.Max(update)
				}
			case ThreadReceiveUpdate:
				res.CallbacksUpdateScreen = res.CallbacksUpdateScreen.Max(msg.Update)
			}
		}
		t.SendMsg(ThreadSendMsg{Kind: ThreadSendTick})
		if t.IsFinished() {
			t.Terminate()
			delete(w.threads, id)
		}
	}
}

func invokeWriteBackGuarded(cb WriteBackCallback, writeback, data *RefAny, info *CallbackInfo, sink DebugSink) (update Update) {
	defer func() {
		if r := recover(); r != nil {
			debugf(sink, "Thread", "writeback panic recovered: %v", r)
			update = DoNothing
		}
	}()
	return cb(writeback, data, info)
}

func (w *Window) runCloseCallback(runner *CallbackRunner, res *CallCallbacksResult) {
	cb := w.current.CloseCallback
	if cb == nil {
		return
	}
	info := runner.Info(res, RootDomId, NodeIdNone, nil)
	update := invokeGuarded(cb, w.current.CloseData, info, w.sink)
	res.CallbacksUpdateScreen = res.CallbacksUpdateScreen.Max(update)
}

// resolveFocus applies the frame's focus decision: an explicit FocusTarget
// wins over the mouse-up candidate; resolution errors leave focus alone.
func (w *Window) resolveFocus(res *CallCallbacksResult, mouseUpCandidate OptionDomNodeId) {
	oldFocus := w.current.FocusedNode
	newFocus := mouseUpCandidate
	if res.FocusTarget != nil {
		resolved, err := ResolveFocusTarget(*res.FocusTarget, w.layoutResults, w.current.FocusedNode)
		if err != nil {
			debugf(w.sink, "Focus", "target not resolved: %v", err)
			newFocus = oldFocus
		} else {
			newFocus = resolved
		}
	}
	w.current.FocusedNode = newFocus
	if newFocus != oldFocus {
		res.FocusChanged = true
		res.NewFocusNode = newFocus
	}
}

// decideWorkLevel is frame phase T5: the minimum work is the max over all
// triggers.
func (w *Window) decideWorkLevel(update Update, res *CallCallbacksResult, now time.Time) WorkLevel {
	level := workLevelForUpdate(update)

	if res.HasDomChanges() {
		level = level.Max(WorkIncrementalRelayout)
	}

	// Apply programmatic scrolls, then drain queued wheel/touch input.
	for dom, nodes := range res.NodesScrolledInCallbacks {
		for node, offset := range nodes {
			if w.scrollStates.ScrollTo(dom, node, offset, w.layoutResults) {
				res.ShouldScrollRender = true
			}
		}
	}
	if w.scrollStates.HasPendingInput() {
		changed := w.scrollStates.Drain(now, w.layoutResults, w.current.Flags.SmoothScrollEnabled)
		if len(changed) > 0 {
			res.ShouldScrollRender = true
		}
	}
	if w.current.Flags.SmoothScrollEnabled && w.scrollStates.HasActiveMomentum() {
		w.ensureMomentumTimer()
	}
	if res.ShouldScrollRender {
		level = level.Max(WorkUpdateDisplayList)
		w.hitTestDirty = true
	}

	if level == WorkDoNothing && w.frameVisibleStateChanged(res) {
		level = WorkReRender
	}
	return level
}

func (w *Window) frameVisibleStateChanged(res *CallCallbacksResult) bool {
	return res.ModifiedWindowState != nil || res.CursorChanged || res.FocusChanged
}

// produce is frame phase T6. Returns true when the hit tester must be
// updated and the frame reprocessed.
func (w *Window) produce(level WorkLevel, runner *CallbackRunner, res *CallCallbacksResult) bool {
	switch {
	case level >= WorkRegenerateDom:
		w.regenerateDom(runner, res)
		w.displayLists = w.buildDisplayLists()
		return true

	case level >= WorkIncrementalRelayout:
		resized := w.applyIncrementalChanges(res)
		w.displayLists = w.buildDisplayLists()
		if len(resized) > 0 {
			for dom, nodes := range resized {
				lr := layoutOf(w.layoutResults, dom)
				if lr == nil {
					continue
				}
				list := PlanComponentEvent(dom, lr, ComponentNodeResized, nodes)
				runner.RunList(dom, list, res)
			}
			return true
		}
		return false

	case level >= WorkUpdateDisplayList:
		w.displayLists = w.buildDisplayLists()
		return false
	}
	return false
}

// applyIncrementalChanges pushes the per-node change maps into the DOMs and
// runs the incremental relayout. Returns resized nodes per DOM.
func (w *Window) applyIncrementalChanges(res *CallCallbacksResult) map[DomId][]NodeId {
	resized := map[DomId][]NodeId{}
	touched := map[DomId]bool{}
	cssChanged := map[DomId]map[NodeId][]ChangedCssProperty{}

	for dom, nodes := range res.CssPropertiesChanged {
		lr := layoutOf(w.layoutResults, dom)
		if lr == nil {
			continue
		}
		relayoutNeeded := false
		for node, props := range nodes {
			changed := lr.StyledDom.restyle(node, props)
			if len(changed) == 0 {
				continue
			}
			if cssChanged[dom] == nil {
				cssChanged[dom] = map[NodeId][]ChangedCssProperty{}
			}
			cssChanged[dom][node] = append(cssChanged[dom][node], changed...)
			for _, ch := range changed {
				if ch.Current.Type.CanTriggerRelayout() {
					relayoutNeeded = true
				}
			}
		}
		// gpu-only property changes ride the uniform cache, no relayout
		lr.GpuValueCache.Synchronize(lr.StyledDom)
		if relayoutNeeded {
			touched[dom] = true
		}
	}
	for dom, nodes := range res.ImagesChanged {
		lr := layoutOf(w.layoutResults, dom)
		if lr == nil {
			continue
		}
		for node, hash := range nodes {
			if lr.ContainsNode(node) {
				lr.StyledDom.NodeData[node].ImageHash = hash
			}
		}
	}
	for dom := range res.WordsChanged {
		touched[dom] = true
	}

	for dom := range touched {
		lr := layoutOf(w.layoutResults, dom)
		if lr == nil {
			continue
		}
		nodes := w.relayout(lr, w.current.Size.Dimensions, cssChanged[dom], res.WordsChanged[dom])
		if len(nodes) > 0 {
			resized[dom] = nodes
		}
	}
	if len(resized) > 0 {
		w.scrollStates.RemoveStale(w.layoutResults)
		w.hitTestDirty = true
	}
	return resized
}

// regenerateDom runs the layout callback, injects the default handlers,
// solves layout and reseeds hover state with a simulated mouse move.
func (w *Window) regenerateDom(runner *CallbackRunner, res *CallCallbacksResult) {
	// BeforeUnmount on the old tree.
	for domIdx, lr := range w.layoutResults {
		if lr == nil || lr.StyledDom.IsEmpty() {
			continue
		}
		all := make([]NodeId, lr.StyledDom.Len())
		for i := range all {
			all[i] = NodeId(i)
		}
		list := PlanComponentEvent(DomId(domIdx), lr, ComponentBeforeUnmount, all)
		runner.RunList(DomId(domIdx), list, res)
		for i := range lr.StyledDom.NodeData {
			w.textures.Remove(DomNodeId{Dom: DomId(domIdx), Node: NodeId(i)}, w.Document)
		}
	}

	info := &LayoutCallbackInfo{
		Size:        w.current.Size,
		Theme:       w.current.Theme,
		ImageCache:  w.imageCache,
		FontCache:   w.fontCache,
		GlContext:   w.glContext,
		SystemFonts: w.systemFonts,
	}
	dom := w.current.LayoutCallback.invoke(w.data, info)
	if dom.IsEmpty() {
		if w.current.LayoutCallback.IsSet() {
			debugf(w.sink, "Layout", "layout callback produced an empty dom")
		}
		dom = NewStyledDom(NodeData{Type: NodeDiv})
	}
	w.injectDefaultHandlers(dom)

	lr := w.solver(dom, RootDomId, w.current.Size.Dimensions)
	w.layoutResults = []*LayoutResult{lr}
	runner.LayoutResults = w.layoutResults

	w.scrollStates.RemoveStale(w.layoutResults)
	w.hitTestDirty = true

	// Reseed hover without firing enter twice: the simulated move plans
	// enter only for hover-styling purposes on the fresh tree.
	w.current.LastHitTest = NewFullHitTest(w.current.Mouse.CursorPos, w.layoutResults, w.scrollStates)
	if w.current.FocusedNode.Valid && !nodeExists(w.layoutResults, w.current.FocusedNode.Id) {
		w.current.FocusedNode = OptionDomNodeId{}
	}

	// AfterMount on the new tree.
	all := make([]NodeId, lr.StyledDom.Len())
	for i := range all {
		all[i] = NodeId(i)
	}
	list := PlanComponentEvent(RootDomId, lr, ComponentAfterMount, all)
	runner.RunList(RootDomId, list, res)
}

func nodeExists(layoutResults []*LayoutResult, id DomNodeId) bool {
	lr := layoutOf(layoutResults, id.Dom)
	return lr != nil && lr.ContainsNode(id.Node)
}

// injectDefaultHandlers adds the built-in scroll handler on the root and
// the autotab handler on focusable nodes, where the user did not register
// their own.
func (w *Window) injectDefaultHandlers(dom *StyledDom) {
	if dom.IsEmpty() {
		return
	}
	scrollFilter := OnHover(HoverScroll)
	if !dom.NodeData[dom.Root].HasCallback(scrollFilter) {
		dom.NodeData[dom.Root].Callbacks = append(dom.NodeData[dom.Root].Callbacks, CallbackData{
			Event:    scrollFilter,
			Callback: defaultScrollHandler,
		})
	}
	if w.current.Flags.AutotabEnabled {
		tabFilter := OnFocus(FocusVirtualKeyDown)
		for i := range dom.NodeData {
			nd := &dom.NodeData[i]
			if nd.IsFocusable() && !nd.HasCallback(tabFilter) {
				nd.Callbacks = append(nd.Callbacks, CallbackData{
					Event:    tabFilter,
					Callback: defaultAutotabHandler,
				})
			}
		}
	}
}

// defaultScrollHandler routes wheel input to the deepest scrollable node
// under the cursor.
func defaultScrollHandler(_ *RefAny, info *CallbackInfo) Update {
	state := info.CurrentWindowState()
	var dx, dy float32
	if state.Mouse.ScrollX.Valid {
		dx = state.Mouse.ScrollX.Value
	}
	if state.Mouse.ScrollY.Valid {
		dy = state.Mouse.ScrollY.Value
	}
	if dx == 0 && dy == 0 {
		return DoNothing
	}
	target, ok := deepestScrollHit(state.LastHitTest, info.LayoutResults())
	if !ok {
		return DoNothing
	}
	source := ScrollWheelDiscrete
	if state.Flags.SmoothScrollEnabled {
		source = ScrollWheelSmooth
	}
	info.QueueScrollInput(target, MomentumSample{
		Time: time.Now(), Source: source, DeltaX: dx, DeltaY: dy,
	})
	return DoNothing
}

// deepestScrollHit picks the innermost scrollable node the cursor passed
// through.
func deepestScrollHit(hit FullHitTest, layoutResults []*LayoutResult) (DomNodeId, bool) {
	best := DomNodeId{Node: NodeIdNone}
	bestDepth := -1
	for dom, d := range hit.HoveredNodes {
		lr := layoutOf(layoutResults, dom)
		if lr == nil || lr.StyledDom.IsEmpty() {
			continue
		}
		depths := lr.StyledDom.nodeDepths()
		for node := range d.ScrollHitTestNodes {
			if !lr.ContainsNode(node) {
				continue
			}
			if depths[node] > bestDepth {
				bestDepth = depths[node]
				best = DomNodeId{Dom: dom, Node: node}
			}
		}
	}
	return best, bestDepth >= 0
}

// defaultAutotabHandler moves focus on Tab / Shift+Tab.
func defaultAutotabHandler(_ *RefAny, info *CallbackInfo) Update {
	kb := &info.CurrentWindowState().Keyboard
	if !kb.CurrentVirtualKeycode.Valid || kb.CurrentVirtualKeycode.Code != VkTab {
		return DoNothing
	}
	if kb.ShiftDown {
		info.SetFocus(FocusTarget{Kind: FocusPrevious})
	} else {
		info.SetFocus(FocusTarget{Kind: FocusNext})
	}
	return DoNothing
}

// ensureMomentumTimer schedules the physics timer that keeps coasting
// scroll nodes moving between input events.
func (w *Window) ensureMomentumTimer() {
	if w.momentumTimer != 0 {
		if _, ok := w.timers[w.momentumTimer]; ok {
			return
		}
	}
	win := w
	t := NewTimer(nil, func(_ *RefAny, info *TimerCallbackInfo) TimerCallbackReturn {
		moved := win.scrollStates.StepMomentum(win.layoutResults)
		if len(moved) > 0 {
			info.Info.markScrollRender()
		}
		if !win.scrollStates.HasActiveMomentum() {
			return TimerCallbackReturn{ShouldTerminate: TimerTerminate}
		}
		return TimerCallbackReturn{ShouldTerminate: TimerContinue}
	}).WithInterval(w.scrollStates.Physics().MomentumInterval)
	w.momentumTimer = w.AddTimer(t)
}

// applyWindowState is the C10 applier: diff the pre-frame snapshot against
// the callback-modified state and emit commands in the fixed order
// title → frame → min/max → position → material → visibility. Idempotent:
// reapplying an identical state emits nothing.
func (w *Window) applyWindowState(res *CallCallbacksResult) {
	target := res.ModifiedWindowState
	if target != nil {
		// fold the modified state back into the live window state
		w.current.WindowState = *target
	}
	next := w.current.WindowState
	prev := &w.lastApplied
	var cmds []BackendCommand

	if prev.Title != next.Title {
		cmds = append(cmds, BackendCommand{Kind: CmdSetTitle, Title: next.Title})
	}
	if prev.Flags.Frame != next.Flags.Frame {
		cmds = append(cmds, BackendCommand{Kind: CmdSetFrame, Frame: next.Flags.Frame})
	}
	if prev.Constraints != next.Constraints {
		cmds = append(cmds, BackendCommand{Kind: CmdSetMinMaxSize, Constraints: next.Constraints})
	}
	if next.Position.Initialized && prev.Position != next.Position {
		cmds = append(cmds, BackendCommand{Kind: CmdSetPosition, Position: next.Position.Pos})
	}
	if prev.Flags.Material != next.Flags.Material {
		cmds = append(cmds, BackendCommand{Kind: CmdSetMaterial, Material: next.Flags.Material})
	}
	if prev.Flags.IsVisible != next.Flags.IsVisible {
		cmds = append(cmds, BackendCommand{Kind: CmdSetVisibility, Visible: next.Flags.IsVisible})
	}
	if prev.Ime != next.Ime {
		cmds = append(cmds, BackendCommand{Kind: CmdSetImePosition, Ime: next.Ime})
	}
	if res.CursorChanged && prev.Mouse.CursorType != next.Mouse.CursorType {
		cmds = append(cmds, BackendCommand{Kind: CmdSetCursor, Cursor: next.Mouse.CursorType})
	}

	for _, cmd := range cmds {
		if err := w.backend.ApplyCommand(cmd); err != nil {
			debugf(w.sink, "Window", "command %d not applied: %v", cmd.Kind, err)
		}
	}
	// unsupported fields are accepted but not retried next frame
	w.lastApplied = next
}

// buildDisplayLists turns the layout results plus scroll offsets into
// drawable lists, registering referenced images lazily.
func (w *Window) buildDisplayLists() []DisplayList {
	var lists []DisplayList
	for domIdx, lr := range w.layoutResults {
		if lr == nil || lr.StyledDom.IsEmpty() {
			continue
		}
		dom := DomId(domIdx)
		list := DisplayList{Dom: dom, Epoch: w.Epoch}
		clip := LogicalRect{Size: w.current.Size.Dimensions}

		var walk func(node NodeId, scrollAccum LogicalPosition, clip LogicalRect)
		walk = func(node NodeId, scrollAccum LogicalPosition, clip LogicalRect) {
			if !lr.ContainsNode(node) {
				return
			}
			rect := lr.Rects[node].Rect.Translate(LogicalPosition{X: -scrollAccum.X, Y: -scrollAccum.Y})
			nd := &lr.StyledDom.NodeData[node]
			item := DisplayItem{Node: node, Rect: rect, Clip: clip, Words: nd.Words}
			if prop, ok := lr.StyledDom.StyleValue(node, CssBackgroundColor); ok {
				item.Background = prop.Color
			}
			if prop, ok := lr.StyledDom.StyleValue(node, CssColor); ok {
				item.Color = prop.Color
			}
			if nd.ImageHash != 0 {
				if ref, ok := w.imageCache.Get(nd.ImageHash); ok {
					key, _ := w.resources.RegisterImage(nd.ImageHash, ref.Descriptor)
					item.Image = key
					item.HasImage = true
				}
			}
			list.Items = append(list.Items, item)

			childAccum := scrollAccum
			childClip := clip
			if _, scrollable := lr.ScrollableNodes.OverflowingNodes[node]; scrollable {
				childAccum = childAccum.Add(w.scrollStates.Offset(dom, node))
				childClip = rect
			}
			for _, child := range lr.StyledDom.Children[node] {
				walk(child, childAccum, childClip)
			}
		}
		walk(lr.StyledDom.Root, LogicalPosition{}, clip)
		lists = append(lists, list)
	}
	return lists
}

// Destroy cancels timers and threads and tears the backend down. A slow
// worker delays this join on purpose.
func (w *Window) Destroy() {
	if w.closed {
		return
	}
	w.closed = true
	for id := range w.timers {
		delete(w.timers, id)
	}
	w.timerOrder = nil
	for id, t := range w.threads {
		t.Terminate()
		delete(w.threads, id)
	}
	GlTexturesRemoveEpochsFromPipeline(w.Document, w.Epoch)
	w.backend.Fini()
}
