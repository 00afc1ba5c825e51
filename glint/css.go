// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/css.go
// Summary: Minimal cascaded-property model: enough for restyles, animation
//          interpolation and the gpu-only / relayout classification.

package glint

import "fmt"

// CssPropertyType identifies an animatable / restylable property.
type CssPropertyType uint8

const (
	CssOpacity CssPropertyType = iota
	CssTransformTranslateX
	CssTransformTranslateY
	CssTransformRotate
	CssTransformScale
	CssWidth
	CssHeight
	CssFontSize
	CssColor
	CssBackgroundColor
)

// IsGpuOnly reports whether a change to this property can be uploaded as a
// GPU uniform without touching the display list.
func (t CssPropertyType) IsGpuOnly() bool {
	switch t {
	case CssOpacity, CssTransformTranslateX, CssTransformTranslateY,
		CssTransformRotate, CssTransformScale:
		return true
	default:
		return false
	}
}

// CanTriggerRelayout reports whether a change to this property moves boxes.
func (t CssPropertyType) CanTriggerRelayout() bool {
	switch t {
	case CssWidth, CssHeight, CssFontSize:
		return true
	default:
		return false
	}
}

func (t CssPropertyType) String() string {
	switch t {
	case CssOpacity:
		return "opacity"
	case CssTransformTranslateX:
		return "transform-translate-x"
	case CssTransformTranslateY:
		return "transform-translate-y"
	case CssTransformRotate:
		return "transform-rotate"
	case CssTransformScale:
		return "transform-scale"
	case CssWidth:
		return "width"
	case CssHeight:
		return "height"
	case CssFontSize:
		return "font-size"
	case CssColor:
		return "color"
	case CssBackgroundColor:
		return "background-color"
	default:
		return fmt.Sprintf("css(%d)", uint8(t))
	}
}

// ColorU is a packed RGBA color.
type ColorU struct {
	R, G, B, A uint8
}

// CssProperty is one resolved property value. Scalar properties use Value;
// color properties use Color.
type CssProperty struct {
	Type  CssPropertyType
	Value float32
	Color ColorU
}

// Interpolate returns the property at position t between a and b (t in 0..1).
// Color channels interpolate per component; scalars linearly.
func (a CssProperty) Interpolate(b CssProperty, t float32) CssProperty {
	out := a
	out.Value = a.Value + (b.Value-a.Value)*t
	lerp8 := func(x, y uint8) uint8 {
		return uint8(float32(x) + (float32(y)-float32(x))*t)
	}
	out.Color = ColorU{
		R: lerp8(a.Color.R, b.Color.R),
		G: lerp8(a.Color.G, b.Color.G),
		B: lerp8(a.Color.B, b.Color.B),
		A: lerp8(a.Color.A, b.Color.A),
	}
	return out
}

// ChangedCssProperty records a property transition for restyle bookkeeping.
type ChangedCssProperty struct {
	Previous CssProperty
	Current  CssProperty
}

// CssPathSelector matches one node by type, css id and/or classes.
// Zero fields are wildcards.
type CssPathSelector struct {
	NodeType NodeType
	HasType  bool
	Id       string
	Classes  []string
}

func (s CssPathSelector) matches(data *NodeData) bool {
	if s.HasType && data.Type != s.NodeType {
		return false
	}
	if s.Id != "" && data.Id != s.Id {
		return false
	}
	for _, class := range s.Classes {
		found := false
		for _, have := range data.Classes {
			if have == class {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// CssPath is a selector chain, outermost first. Matching is by ancestry:
// the last selector must match the node itself, each preceding selector
// some strict ancestor, in order.
type CssPath struct {
	Selectors []CssPathSelector
}

// MatchesNode checks the path against node within dom.
func (p CssPath) MatchesNode(dom *StyledDom, node NodeId) bool {
	if len(p.Selectors) == 0 || int(node) >= len(dom.NodeData) {
		return false
	}
	last := len(p.Selectors) - 1
	if !p.Selectors[last].matches(&dom.NodeData[node]) {
		return false
	}
	cur := dom.Parent[node]
	for i := last - 1; i >= 0; i-- {
		matched := false
		for !cur.IsNone() {
			if p.Selectors[i].matches(&dom.NodeData[cur]) {
				matched = true
				cur = dom.Parent[cur]
				break
			}
			cur = dom.Parent[cur]
		}
		if !matched {
			return false
		}
	}
	return true
}

func (p CssPath) String() string {
	out := ""
	for i, s := range p.Selectors {
		if i > 0 {
			out += " "
		}
		if s.Id != "" {
			out += "#" + s.Id
		}
		for _, c := range s.Classes {
			out += "." + c
		}
		if out == "" || (s.Id == "" && len(s.Classes) == 0) {
			out += "*"
		}
	}
	return out
}
