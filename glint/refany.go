// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/refany.go
// Summary: Reference-counted opaque user data handle passed to callbacks.
// Usage: Wraps application state so callbacks, timers and threads can share it.

package glint

import "sync/atomic"

// RefAny is an opaque, reference-counted handle around user data.
// Callbacks receive the same handle they were registered with; cloning
// bumps the count, Release drops it. The count only gates the family
// refcounting in the resource cache and window teardown bookkeeping —
// Go's GC owns the memory either way.
//
// Do not store a handle to the owning DOM inside the data; use id-based
// lookup through CallbackInfo instead.
type RefAny struct {
	value    any
	typeName string
	refs     *atomic.Int64
}

// NewRefAny wraps value in a fresh handle with a count of one.
func NewRefAny(value any) *RefAny {
	refs := &atomic.Int64{}
	refs.Store(1)
	return &RefAny{value: value, refs: refs}
}

// NewRefAnyNamed is NewRefAny with an explicit debug type name.
func NewRefAnyNamed(value any, typeName string) *RefAny {
	r := NewRefAny(value)
	r.typeName = typeName
	return r
}

// Value returns the wrapped data.
func (r *RefAny) Value() any {
	if r == nil {
		return nil
	}
	return r.value
}

// TypeName returns the debug name given at construction, if any.
func (r *RefAny) TypeName() string {
	if r == nil {
		return ""
	}
	return r.typeName
}

// Clone returns the same handle with the reference count bumped.
func (r *RefAny) Clone() *RefAny {
	if r == nil {
		return nil
	}
	r.refs.Add(1)
	return r
}

// Release drops one reference and reports whether it was the last.
func (r *RefAny) Release() bool {
	if r == nil {
		return false
	}
	return r.refs.Add(-1) <= 0
}

// RefCount returns the current reference count.
func (r *RefAny) RefCount() int64 {
	if r == nil {
		return 0
	}
	return r.refs.Load()
}
