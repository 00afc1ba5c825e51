// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/timer.go
// Summary: Frame-loop timers: delayed, repeating and timed-out callbacks,
//          plus the animation timer that interpolates a CSS property.
// Usage: Timers live in the window's timer map and are drained once per
//        frame, in insertion order, before event callbacks run.

package glint

import (
	"sync/atomic"
	"time"
)

// TimerId identifies one timer within a window.
type TimerId uint64

var timerIdCounter atomic.Uint64

// NewTimerId allocates a process-unique timer id.
func NewTimerId() TimerId { return TimerId(timerIdCounter.Add(1)) }

// TerminateTimer is the should-terminate half of a timer callback result.
type TerminateTimer uint8

const (
	TimerContinue TerminateTimer = iota
	TimerTerminate
)

// TimerCallbackInfo is handed to timer callbacks on top of the regular
// CallbackInfo.
type TimerCallbackInfo struct {
	Info       *CallbackInfo
	Node       OptionDomNodeId
	FrameStart time.Time
	CallCount  uint64
	// IsAboutToFinish is true on the final invocation before the timeout
	// removes the timer.
	IsAboutToFinish bool
}

// TimerCallbackReturn is the result of one timer invocation.
type TimerCallbackReturn struct {
	ShouldUpdate    Update
	ShouldTerminate TerminateTimer
}

// TimerCallback runs on the frame thread when the timer is due.
type TimerCallback func(data *RefAny, info *TimerCallbackInfo) TimerCallbackReturn

// Timer is a frame-loop scheduled callback. An interval-less timer fires
// every frame; a timer with a timeout fires once more after the timeout
// elapsed (flagged) and is then removed.
type Timer struct {
	Data *RefAny
	Node OptionDomNodeId

	Created  time.Time
	LastRun  time.Time // zero until the first run
	RunCount uint64

	Delay    time.Duration
	Interval time.Duration
	Timeout  time.Duration // 0 = no timeout

	Callback TimerCallback
}

// NewTimer creates a timer firing every frame until terminated.
func NewTimer(data *RefAny, callback TimerCallback) *Timer {
	return &Timer{Data: data, Created: time.Now(), Callback: callback}
}

// WithDelay postpones the first run.
func (t *Timer) WithDelay(d time.Duration) *Timer { t.Delay = d; return t }

// WithInterval makes the timer repeat every d instead of every frame.
func (t *Timer) WithInterval(d time.Duration) *Timer { t.Interval = d; return t }

// WithTimeout removes the timer after d, firing once more flagged as the
// final run.
func (t *Timer) WithTimeout(d time.Duration) *Timer { t.Timeout = d; return t }

// InstantOfNextRun is max(created, last run) + delay + interval.
func (t *Timer) InstantOfNextRun() time.Time {
	base := t.Created
	if t.LastRun.After(base) {
		base = t.LastRun
	}
	return base.Add(t.Delay + t.Interval)
}

// IsDue reports whether the timer should fire this frame (ignoring timeout,
// which the integrator checks separately).
func (t *Timer) IsDue(now time.Time) bool {
	return !t.InstantOfNextRun().After(now)
}

// TimeoutElapsed reports whether the timer's lifetime is over.
func (t *Timer) TimeoutElapsed(now time.Time) bool {
	return t.Timeout > 0 && now.Sub(t.Created) >= t.Timeout
}

// Invoke runs the callback and records the run. The caller decides removal
// from the returned ShouldTerminate and the aboutToFinish flag it passed.
func (t *Timer) Invoke(info *CallbackInfo, frameStart time.Time, aboutToFinish bool) TimerCallbackReturn {
	ret := TimerCallbackReturn{ShouldUpdate: DoNothing, ShouldTerminate: TimerContinue}
	if t.Callback == nil {
		return ret
	}
	ret = invokeTimerGuarded(t, info, frameStart, aboutToFinish)
	t.LastRun = frameStart
	t.RunCount++
	return ret
}

func invokeTimerGuarded(t *Timer, info *CallbackInfo, frameStart time.Time, aboutToFinish bool) (ret TimerCallbackReturn) {
	defer func() {
		if r := recover(); r != nil {
			debugf(info.debugSink(), "Timer", "callback panic recovered: %v", r)
			ret = TimerCallbackReturn{ShouldUpdate: DoNothing, ShouldTerminate: TimerTerminate}
		}
	}()
	return t.Callback(t.Data, &TimerCallbackInfo{
		Info:            info,
		Node:            t.Node,
		FrameStart:      frameStart,
		CallCount:       t.RunCount,
		IsAboutToFinish: aboutToFinish,
	})
}

// AnimationRepeat controls what an animation does at the end of a cycle.
type AnimationRepeat uint8

const (
	AnimationNoRepeat AnimationRepeat = iota
	AnimationLoop
	AnimationPingPong
)

// Animation interpolates one CSS property on one node over a duration.
type Animation struct {
	Node     DomNodeId
	From     CssProperty
	To       CssProperty
	Duration time.Duration
	Repeat   AnimationRepeat
	// RelayoutOnFinish regenerates the DOM when the animation completes,
	// for properties whose final value affects layout.
	RelayoutOnFinish bool
}

// NewAnimationTimer wraps an Animation into a Timer. The timer fires every
// frame, pushes the interpolated property into the css-changed sink, and
// terminates (NoRepeat) or cycles (Loop, PingPong) when the duration ends.
func NewAnimationTimer(anim Animation) *Timer {
	if anim.Duration <= 0 {
		anim.Duration = time.Millisecond
	}
	a := anim
	start := time.Now()
	t := NewTimer(nil, func(_ *RefAny, info *TimerCallbackInfo) TimerCallbackReturn {
		elapsed := info.FrameStart.Sub(start)
		cycle := float64(elapsed) / float64(a.Duration)
		if a.Repeat == AnimationNoRepeat && cycle >= 1 {
			info.Info.ChangeCssProperty(a.Node, a.To)
			update := DoNothing
			if a.RelayoutOnFinish {
				update = RefreshDom
			}
			return TimerCallbackReturn{ShouldUpdate: update, ShouldTerminate: TimerTerminate}
		}
		frac := float32(cycle - float64(int64(cycle)))
		switch a.Repeat {
		case AnimationNoRepeat:
			frac = float32(cycle)
		case AnimationPingPong:
			if int64(cycle)%2 == 1 {
				frac = 1 - frac
			}
		}
		info.Info.ChangeCssProperty(a.Node, a.From.Interpolate(a.To, frac))
		return TimerCallbackReturn{ShouldUpdate: DoNothing, ShouldTerminate: TimerContinue}
	})
	t.Node = SomeNode(anim.Node)
	if anim.Repeat == AnimationNoRepeat {
		// let the timeout fire the final about-to-finish frame
		t.Timeout = anim.Duration
	}
	return t
}
