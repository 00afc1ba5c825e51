// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/update.go
// Summary: The update lattice returned by callbacks and the per-frame work level.

package glint

// Update is what a callback asks the runtime to do afterwards. The invoker
// keeps the maximum over all callbacks of a frame.
type Update uint8

const (
	// DoNothing leaves the DOM alone; the frame may still re-render.
	DoNothing Update = iota
	// RefreshDom regenerates the DOM of the window the callback ran in.
	RefreshDom
	// RefreshDomAllWindows regenerates the DOMs of every open window.
	RefreshDomAllWindows
)

// Max returns the larger of the two updates.
func (u Update) Max(other Update) Update {
	if other > u {
		return other
	}
	return u
}

func (u Update) String() string {
	switch u {
	case DoNothing:
		return "DoNothing"
	case RefreshDom:
		return "RefreshDom"
	case RefreshDomAllWindows:
		return "RefreshDomAllWindows"
	default:
		return "Update(?)"
	}
}

// WorkLevel is the minimum re-work the frame loop decided on after
// callbacks ran. Levels form a lattice; the loop performs the maximum.
type WorkLevel uint8

const (
	// WorkDoNothing: nothing visible changed.
	WorkDoNothing WorkLevel = iota
	// WorkReRender: resubmit the last frame (GPU-only property change).
	WorkReRender
	// WorkUpdateDisplayList: rebuild the display list without relayout.
	WorkUpdateDisplayList
	// WorkIncrementalRelayout: apply css/word diffs to the existing layout.
	WorkIncrementalRelayout
	// WorkRegenerateDom: run the layout callback for this window again.
	WorkRegenerateDom
	// WorkRegenerateAllDoms: regenerate every window's DOM.
	WorkRegenerateAllDoms
	// WorkUpdateHitTesterAndReprocess: the hit tester is stale; re-run the
	// frame from the hit-test phase (at most once per frame).
	WorkUpdateHitTesterAndReprocess
)

// Max returns the larger of the two work levels.
func (w WorkLevel) Max(other WorkLevel) WorkLevel {
	if other > w {
		return other
	}
	return w
}

func (w WorkLevel) String() string {
	switch w {
	case WorkDoNothing:
		return "DoNothing"
	case WorkReRender:
		return "ReRender"
	case WorkUpdateDisplayList:
		return "UpdateDisplayList"
	case WorkIncrementalRelayout:
		return "IncrementalRelayout"
	case WorkRegenerateDom:
		return "RegenerateDom"
	case WorkRegenerateAllDoms:
		return "RegenerateAllDoms"
	case WorkUpdateHitTesterAndReprocess:
		return "UpdateHitTesterAndReprocess"
	default:
		return "WorkLevel(?)"
	}
}

// workLevelForUpdate translates a callback Update into the work lattice.
func workLevelForUpdate(u Update) WorkLevel {
	switch u {
	case RefreshDom:
		return WorkRegenerateDom
	case RefreshDomAllWindows:
		return WorkRegenerateAllDoms
	default:
		return WorkDoNothing
	}
}
