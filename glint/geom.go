// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/geom.go
// Summary: Logical geometry primitives used by layout results and hit testing.

package glint

// LogicalPosition is a point in logical (DPI-independent) pixels.
type LogicalPosition struct {
	X, Y float32
}

// Add returns p translated by q.
func (p LogicalPosition) Add(q LogicalPosition) LogicalPosition {
	return LogicalPosition{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p translated by -q.
func (p LogicalPosition) Sub(q LogicalPosition) LogicalPosition {
	return LogicalPosition{X: p.X - q.X, Y: p.Y - q.Y}
}

// LogicalSize is a size in logical pixels.
type LogicalSize struct {
	Width, Height float32
}

// LogicalRect is an axis-aligned rectangle in logical pixels.
type LogicalRect struct {
	Origin LogicalPosition
	Size   LogicalSize
}

// Contains reports whether p lies inside the rectangle. The right and
// bottom edges are exclusive, matching renderer clip semantics.
func (r LogicalRect) Contains(p LogicalPosition) bool {
	return p.X >= r.Origin.X && p.X < r.Origin.X+r.Size.Width &&
		p.Y >= r.Origin.Y && p.Y < r.Origin.Y+r.Size.Height
}

// Translate returns the rect moved by d.
func (r LogicalRect) Translate(d LogicalPosition) LogicalRect {
	return LogicalRect{Origin: r.Origin.Add(d), Size: r.Size}
}

// MaxX returns the exclusive right edge.
func (r LogicalRect) MaxX() float32 { return r.Origin.X + r.Size.Width }

// MaxY returns the exclusive bottom edge.
func (r LogicalRect) MaxY() float32 { return r.Origin.Y + r.Size.Height }

// PhysicalSize is a size in device pixels.
type PhysicalSize struct {
	Width, Height uint32
}

// PhysicalPosition is a point in device pixels.
type PhysicalPosition struct {
	X, Y int32
}

// WindowSize carries the dimensions the layout solver works against.
type WindowSize struct {
	Dimensions LogicalSize
	DPI        uint32
}

// HidpiFactor returns the scale between logical and device pixels.
func (s WindowSize) HidpiFactor() float32 {
	if s.DPI == 0 {
		return 1
	}
	return float32(s.DPI) / 96.0
}
