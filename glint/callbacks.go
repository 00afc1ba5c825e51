// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/callbacks.go
// Summary: CallbackInfo (the API surface user callbacks see) and the
//          invoker that runs a frame's plan, recovers panics and folds the
//          per-callback results into one CallCallbacksResult.
// Usage: The window builds a CallbackRunner per frame and feeds it the plan
//        from the planner; timers and writebacks reuse the same runner.

package glint

import "sort"

// CallCallbacksResult is everything one frame of callbacks produced.
type CallCallbacksResult struct {
	// ShouldScrollRender: a programmatic scroll happened.
	ShouldScrollRender bool
	// CallbacksUpdateScreen is the max of all returned Updates.
	CallbacksUpdateScreen Update

	// ModifiedWindowState is nil unless some callback touched the state.
	ModifiedWindowState *WindowState

	WordsChanged             map[DomId]map[NodeId]string
	ImagesChanged            map[DomId]map[NodeId]ImageRefHash
	ImageMasksChanged        map[DomId]map[NodeId]ImageMask
	CssPropertiesChanged     map[DomId]map[NodeId][]CssProperty
	NodesScrolledInCallbacks map[DomId]map[NodeId]LogicalPosition

	TimersAdded    map[TimerId]*Timer
	TimersRemoved  map[TimerId]bool
	ThreadsAdded   map[ThreadId]*Thread
	ThreadsRemoved map[ThreadId]bool

	WindowsCreated []WindowCreateOptions

	CursorChanged bool
	FocusChanged  bool
	NewFocusNode  OptionDomNodeId

	// FocusTarget is the last focus request of the frame, resolved by the
	// frame loop after all callbacks returned.
	FocusTarget *FocusTarget

	// timerOrder preserves insertion order for the due-timer scan.
	timerOrder []TimerId

	stopPropagation bool
}

// HasDomChanges reports whether any per-node change map is non-empty,
// which forces at least an incremental relayout.
func (r *CallCallbacksResult) HasDomChanges() bool {
	return len(r.WordsChanged) > 0 || len(r.ImagesChanged) > 0 ||
		len(r.ImageMasksChanged) > 0 || len(r.CssPropertiesChanged) > 0
}

// CallbackRunner bundles the read context shared by every callback of one
// frame. Single-threaded: callbacks run to completion on the frame thread.
type CallbackRunner struct {
	LayoutResults []*LayoutResult
	PreviousState *FullWindowState
	CurrentState  *FullWindowState
	ScrollStates  *ScrollStates

	ImageCache  *ImageCache
	FontCache   *FontCache
	GlContext   *GlContextPtr
	SystemFonts []string
	RawHandle   any

	Sink           DebugSink
	CreateThreadFn CreateThreadCallback
}

// NewResult creates the empty accumulator for one frame.
func (r *CallbackRunner) NewResult() *CallCallbacksResult {
	return &CallCallbacksResult{CallbacksUpdateScreen: DoNothing}
}

// Info builds the CallbackInfo for one invocation target.
func (r *CallbackRunner) Info(res *CallCallbacksResult, dom DomId, node NodeId, item *HitTestItem) *CallbackInfo {
	return &CallbackInfo{runner: r, result: res, hitDom: dom, hitNode: node, hitItem: item}
}

// Run executes the plan: DOMs in ascending id order so traces are
// reproducible, nodes in reverse depth order per DOM, honoring the
// stop-propagation blacklist. Updates fold into the result lattice.
func (r *CallbackRunner) Run(plan *CallbacksOfHitTest, res *CallCallbacksResult) {
	doms := make([]DomId, 0, len(plan.NodesWithCallbacks))
	for dom := range plan.NodesWithCallbacks {
		doms = append(doms, dom)
	}
	sort.Slice(doms, func(i, j int) bool { return doms[i] < doms[j] })
	for _, dom := range doms {
		list := plan.NodesWithCallbacks[dom]
		lr := layoutOf(r.LayoutResults, dom)
		if lr == nil || lr.StyledDom.IsEmpty() {
			continue
		}
		sortReverseDepth(list, lr.StyledDom)
		blacklist := map[EventFilter]bool{}
		for i := range list {
			call := &list[i]
			if blacklist[call.EventFilter] {
				continue
			}
			if !lr.ContainsNode(call.Node) {
				continue
			}
			data := &lr.StyledDom.NodeData[call.Node]
			for j := range data.Callbacks {
				cb := &data.Callbacks[j]
				if cb.Event != call.EventFilter || cb.Callback == nil {
					continue
				}
				info := r.Info(res, dom, call.Node, call.HitItem)
				update := invokeGuarded(cb.Callback, cb.Data, info, r.Sink)
				res.CallbacksUpdateScreen = res.CallbacksUpdateScreen.Max(update)
				if res.stopPropagation {
					res.stopPropagation = false
					blacklist[call.EventFilter] = true
				}
			}
		}
	}
}

// RunList executes a standalone call list (component lifecycle events) for
// one DOM, with the same propagation rules.
func (r *CallbackRunner) RunList(dom DomId, list []CallbackToCall, res *CallCallbacksResult) {
	if len(list) == 0 {
		return
	}
	plan := CallbacksOfHitTest{NodesWithCallbacks: map[DomId][]CallbackToCall{dom: list}}
	r.Run(&plan, res)
}

// invokeGuarded runs one callback, converting a panic into DoNothing.
// Per-frame accumulators are assembled only after the callback returned, so
// a panic cannot leave them half-written for this invocation.
func invokeGuarded(cb Callback, data *RefAny, info *CallbackInfo, sink DebugSink) (update Update) {
	defer func() {
		if r := recover(); r != nil {
			debugf(sink, "Invoker", "callback panic recovered: %v", r)
			update = DoNothing
		}
	}()
	return cb(data, info)
}

// CallbackInfo is the view a callback gets of the runtime: read access to
// the frame's state plus mutation sinks that are applied after the frame's
// callbacks all returned.
type CallbackInfo struct {
	runner *CallbackRunner
	result *CallCallbacksResult

	hitDom  DomId
	hitNode NodeId
	hitItem *HitTestItem
}

func (ci *CallbackInfo) debugSink() DebugSink { return ci.runner.Sink }

// HitNode returns the node this callback was attached to.
func (ci *CallbackInfo) HitNode() DomNodeId {
	return DomNodeId{Dom: ci.hitDom, Node: ci.hitNode}
}

// CursorRelativeToItem returns the hit point in node-local space.
func (ci *CallbackInfo) CursorRelativeToItem() (LogicalPosition, bool) {
	if ci.hitItem == nil {
		return LogicalPosition{}, false
	}
	return ci.hitItem.PointRelativeToItem, true
}

// CursorInViewport returns the hit point in window space.
func (ci *CallbackInfo) CursorInViewport() (LogicalPosition, bool) {
	if ci.hitItem == nil {
		return LogicalPosition{}, false
	}
	return ci.hitItem.PointInViewport, true
}

// CurrentWindowState is the state as of this frame (read-only).
func (ci *CallbackInfo) CurrentWindowState() *FullWindowState { return ci.runner.CurrentState }

// PreviousWindowState is the end-of-last-frame snapshot (read-only).
func (ci *CallbackInfo) PreviousWindowState() *FullWindowState { return ci.runner.PreviousState }

// LayoutResults exposes the solved DOMs (read-only).
func (ci *CallbackInfo) LayoutResults() []*LayoutResult { return ci.runner.LayoutResults }

// NodeRect returns the solved box of a node.
func (ci *CallbackInfo) NodeRect(id DomNodeId) (LogicalRect, bool) {
	lr := layoutOf(ci.runner.LayoutResults, id.Dom)
	if lr == nil || !lr.ContainsNode(id.Node) {
		return LogicalRect{}, false
	}
	return lr.Rects[id.Node].Rect, true
}

// GetScrollOffset returns the current scroll offset of a node.
func (ci *CallbackInfo) GetScrollOffset(id DomNodeId) LogicalPosition {
	return ci.runner.ScrollStates.Offset(id.Dom, id.Node)
}

// GetImageCache returns the shared image cache (read-only during callbacks).
func (ci *CallbackInfo) GetImageCache() *ImageCache { return ci.runner.ImageCache }

// GetFontCache returns the shared font cache.
func (ci *CallbackInfo) GetFontCache() *FontCache { return ci.runner.FontCache }

// GetGlContext returns the shared GL context pointer. Callbacks must not
// change which context is current.
func (ci *CallbackInfo) GetGlContext() *GlContextPtr { return ci.runner.GlContext }

// GetSystemFonts lists the system font families.
func (ci *CallbackInfo) GetSystemFonts() []string { return ci.runner.SystemFonts }

// RawWindowHandle returns the backend's opaque window handle.
func (ci *CallbackInfo) RawWindowHandle() any { return ci.runner.RawHandle }

// WindowStateMut returns the modifiable window state, cloning the current
// one on first touch. The applier diffs it against the pre-frame snapshot.
func (ci *CallbackInfo) WindowStateMut() *WindowState {
	if ci.result.ModifiedWindowState == nil {
		copied := ci.runner.CurrentState.WindowState
		copied.Keyboard.PressedVirtualKeycodes = append([]VirtualKeyCode(nil), copied.Keyboard.PressedVirtualKeycodes...)
		copied.Keyboard.PressedScancodes = append([]uint32(nil), copied.Keyboard.PressedScancodes...)
		ci.result.ModifiedWindowState = &copied
	}
	return ci.result.ModifiedWindowState
}

// StopPropagation skips remaining callbacks with this event filter in this
// DOM for the rest of the frame.
func (ci *CallbackInfo) StopPropagation() { ci.result.stopPropagation = true }

// SetFocus requests a focus change, resolved after all callbacks returned.
// The last request of the frame wins.
func (ci *CallbackInfo) SetFocus(target FocusTarget) {
	t := target
	ci.result.FocusTarget = &t
}

// SetCursor changes the pointer shape; applied immediately after the frame.
func (ci *CallbackInfo) SetCursor(cursor MouseCursorType) {
	ci.WindowStateMut().Mouse.CursorType = cursor
	ci.result.CursorChanged = true
}

// ChangeWords replaces the text content of a node (incremental relayout).
func (ci *CallbackInfo) ChangeWords(id DomNodeId, words string) {
	if ci.result.WordsChanged == nil {
		ci.result.WordsChanged = map[DomId]map[NodeId]string{}
	}
	if ci.result.WordsChanged[id.Dom] == nil {
		ci.result.WordsChanged[id.Dom] = map[NodeId]string{}
	}
	ci.result.WordsChanged[id.Dom][id.Node] = words
}

// ChangeImage swaps the image shown by a node.
func (ci *CallbackInfo) ChangeImage(id DomNodeId, hash ImageRefHash) {
	if ci.result.ImagesChanged == nil {
		ci.result.ImagesChanged = map[DomId]map[NodeId]ImageRefHash{}
	}
	if ci.result.ImagesChanged[id.Dom] == nil {
		ci.result.ImagesChanged[id.Dom] = map[NodeId]ImageRefHash{}
	}
	ci.result.ImagesChanged[id.Dom][id.Node] = hash
}

// ChangeImageMask swaps the clip mask of a node.
func (ci *CallbackInfo) ChangeImageMask(id DomNodeId, mask ImageMask) {
	if ci.result.ImageMasksChanged == nil {
		ci.result.ImageMasksChanged = map[DomId]map[NodeId]ImageMask{}
	}
	if ci.result.ImageMasksChanged[id.Dom] == nil {
		ci.result.ImageMasksChanged[id.Dom] = map[NodeId]ImageMask{}
	}
	ci.result.ImageMasksChanged[id.Dom][id.Node] = mask
}

// ChangeCssProperty restyles one property on one node.
func (ci *CallbackInfo) ChangeCssProperty(id DomNodeId, prop CssProperty) {
	if ci.result.CssPropertiesChanged == nil {
		ci.result.CssPropertiesChanged = map[DomId]map[NodeId][]CssProperty{}
	}
	if ci.result.CssPropertiesChanged[id.Dom] == nil {
		ci.result.CssPropertiesChanged[id.Dom] = map[NodeId][]CssProperty{}
	}
	ci.result.CssPropertiesChanged[id.Dom][id.Node] =
		append(ci.result.CssPropertiesChanged[id.Dom][id.Node], prop)
}

// ScrollTo programmatically scrolls a node; the offset is clamped when the
// frame loop applies it.
func (ci *CallbackInfo) ScrollTo(id DomNodeId, offset LogicalPosition) {
	if ci.result.NodesScrolledInCallbacks == nil {
		ci.result.NodesScrolledInCallbacks = map[DomId]map[NodeId]LogicalPosition{}
	}
	if ci.result.NodesScrolledInCallbacks[id.Dom] == nil {
		ci.result.NodesScrolledInCallbacks[id.Dom] = map[NodeId]LogicalPosition{}
	}
	ci.result.NodesScrolledInCallbacks[id.Dom][id.Node] = offset
	ci.result.ShouldScrollRender = true
}

// QueueScrollInput appends a raw scroll sample for a node. Unlike ScrollTo
// this feeds the momentum pipeline; the offset moves when the frame drains
// the queue.
func (ci *CallbackInfo) QueueScrollInput(id DomNodeId, sample MomentumSample) {
	ci.runner.ScrollStates.QueueInput(id.Dom, id.Node, sample)
	ci.result.ShouldScrollRender = true
}

func (ci *CallbackInfo) markScrollRender() { ci.result.ShouldScrollRender = true }

// AddTimer schedules a timer starting next frame. Returns its id.
func (ci *CallbackInfo) AddTimer(timer *Timer) TimerId {
	id := NewTimerId()
	if ci.result.TimersAdded == nil {
		ci.result.TimersAdded = map[TimerId]*Timer{}
	}
	ci.result.TimersAdded[id] = timer
	ci.result.timerOrder = append(ci.result.timerOrder, id)
	return id
}

// StopTimer cancels a timer at the end of the frame.
func (ci *CallbackInfo) StopTimer(id TimerId) {
	if ci.result.TimersRemoved == nil {
		ci.result.TimersRemoved = map[TimerId]bool{}
	}
	ci.result.TimersRemoved[id] = true
}

// StartThread spawns a background worker through the window's factory.
func (ci *CallbackInfo) StartThread(data, writebackData *RefAny, body ThreadCallback) ThreadId {
	create := ci.runner.CreateThreadFn
	if create == nil {
		create = CreateThread
	}
	thread := create(data, writebackData, body)
	if ci.result.ThreadsAdded == nil {
		ci.result.ThreadsAdded = map[ThreadId]*Thread{}
	}
	ci.result.ThreadsAdded[thread.Id] = thread
	return thread.Id
}

// StopThread terminates a background worker at the end of the frame.
func (ci *CallbackInfo) StopThread(id ThreadId) {
	if ci.result.ThreadsRemoved == nil {
		ci.result.ThreadsRemoved = map[ThreadId]bool{}
	}
	ci.result.ThreadsRemoved[id] = true
}

// CreateWindow queues a new window; the registry builds it next tick.
func (ci *CallbackInfo) CreateWindow(opts WindowCreateOptions) {
	ci.result.WindowsCreated = append(ci.result.WindowsCreated, opts)
}
