// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/ids.go
// Summary: Identifier types shared by the runtime core.
// Usage: Used throughout the engine to address DOMs, nodes and resources.

package glint

import "sync/atomic"

// DomId is a dense index into the per-window slice of LayoutResults.
// The root DOM of a window is always DomId 0; iframes get fresh ids.
type DomId uint32

// RootDomId addresses the window's top-level DOM.
const RootDomId DomId = 0

// NodeId is a dense index into the node arrays of one LayoutResult.
type NodeId int32

// NodeIdNone marks the absence of a node. A DomNodeId carrying it refers
// to the root-less whole DOM (used by focus sentinels).
const NodeIdNone NodeId = -1

// IsNone reports whether the id is the whole-DOM sentinel.
func (n NodeId) IsNone() bool { return n < 0 }

// DomNodeId addresses a node across DOM boundaries.
type DomNodeId struct {
	Dom  DomId
	Node NodeId
}

// TagId is a stable id attached to hit-testable nodes, unique per process.
type TagId uint64

var nextTagId atomic.Uint64

// NewTagId hands out the next process-wide tag id. Never returns zero so
// that the zero value stays usable as "untagged".
func NewTagId() TagId {
	return TagId(nextTagId.Add(1))
}

// Epoch is the per-window frame counter. It wraps, but within the
// resource-GC window it is treated as strictly increasing.
type Epoch uint32

// Next returns the epoch after e.
func (e Epoch) Next() Epoch { return e + 1 }

// IdNamespace scopes resource keys to one renderer instance.
type IdNamespace uint32

// DocumentId identifies one renderer document (one per window).
type DocumentId struct {
	Namespace IdNamespace
	Id        uint32
}

// Au is an app unit used for font instance sizes (1/60th of a pixel,
// following the renderer convention).
type Au int32

// AuPerPx is the number of app units per CSS pixel.
const AuPerPx = 60

// AuFromPx converts a pixel size to app units.
func AuFromPx(px float32) Au { return Au(px * AuPerPx) }

// Px converts app units back to pixels.
func (a Au) Px() float32 { return float32(a) / AuPerPx }
