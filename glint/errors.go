// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/errors.go
// Summary: Sentinel errors, the fatal WindowError wrapper and the optional
//          debug sink. User-level errors are recovered locally; only backend
//          failures terminate a window.
// Usage: errors.Is against the sentinels; debugf for recoverable conditions.

package glint

import (
	"errors"
	"fmt"
	"log"
	"time"
)

var (
	// ErrFocusInvalidDomID: a focus request named a DOM that does not exist.
	ErrFocusInvalidDomID = errors.New("focus target references an unknown dom id")
	// ErrFocusInvalidNodeID: a focus request named a node outside its DOM.
	ErrFocusInvalidNodeID = errors.New("focus target references an unknown node id")
	// ErrCouldNotFindFocusNode: a css-path focus request matched nothing.
	ErrCouldNotFindFocusNode = errors.New("no node matches the focus css path")
)

// WindowError wraps a backend-side failure that terminates one window's
// frame loop. Other windows keep running.
type WindowError struct {
	Title string
	Err   error
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("window %q: %v", e.Title, e.Err)
}

func (e *WindowError) Unwrap() error { return e.Err }

// DebugMessage is one recoverable-condition record handed to the sink.
type DebugMessage struct {
	Time     time.Time
	Location string
	Message  string
}

// DebugSink receives recoverable-condition messages from the frame loop.
// Implementations must be cheap; Record is called on the frame thread.
type DebugSink interface {
	Record(msg DebugMessage)
}

// FrameStats summarizes one completed frame.
type FrameStats struct {
	Window    WindowId
	Time      time.Time
	Duration  time.Duration
	Events    int
	WorkLevel WorkLevel
	Update    Update
}

// FrameRecorder is implemented by sinks that also want one record per
// completed frame. Like Record, RecordFrame runs on the frame thread.
type FrameRecorder interface {
	RecordFrame(stats FrameStats)
}

// debugf logs a recoverable condition and forwards it to the sink, if any.
func debugf(sink DebugSink, location, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("%s: %s", location, msg)
	if sink != nil {
		sink.Record(DebugMessage{Time: time.Now(), Location: location, Message: msg})
	}
}
