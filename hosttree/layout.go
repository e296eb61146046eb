// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: hosttree/layout.go
// Summary: The tree's block layout: vertical stacking plus fixed positioning.
// Usage: Runs after every structural or style mutation; bounds are always current.

package hosttree

import (
	"strconv"
	"strings"

	"github.com/framegrace/dockpin/dock"
)

// relayoutLocked recomputes every attached node's rectangle. Children stack
// vertically inside their parent; a node with position:fixed leaves the
// flow and takes its rectangle from its inline left/top/width/height.
func (t *Tree) relayoutLocked() {
	t.root.bounds = dock.Rect{Top: 0, Left: 0, Width: t.width, Height: t.height}
	t.layoutChildrenLocked(t.root)
}

func (t *Tree) layoutChildrenLocked(n *Node) {
	y := n.bounds.Top
	for _, c := range n.children {
		if c.styles["position"] == "fixed" {
			c.bounds = t.fixedRectLocked(c)
		} else {
			w := resolveLength(c.styles["width"], n.bounds.Width, n.bounds.Width)
			h := t.flowHeightLocked(c, n.bounds.Height)
			c.bounds = dock.Rect{Top: y, Left: n.bounds.Left, Width: w, Height: h}
			y += h
		}
		t.layoutChildrenLocked(c)
	}
}

// fixedRectLocked positions an out-of-flow node against the viewport.
func (t *Tree) fixedRectLocked(c *Node) dock.Rect {
	left := resolveLength(c.styles["left"], t.width, 0)
	top := resolveLength(c.styles["top"], t.height, 0)
	width := resolveLength(c.styles["width"], t.width, t.width-left)
	height := resolveLength(c.styles["height"], t.height, t.flowHeightLocked(c, t.height))
	return dock.Rect{Top: top, Left: left, Width: width, Height: height}
}

// flowHeightLocked is the height a node occupies in its parent's flow: the
// inline height if set, else the intrinsic height, else the sum of its
// in-flow children.
func (t *Tree) flowHeightLocked(c *Node, parentHeight float64) float64 {
	if v, ok := pxValue(c.styles["height"]); ok {
		return v
	}
	if p, ok := pctValue(c.styles["height"]); ok {
		return parentHeight * p
	}
	if c.intrinsicHeight > 0 {
		return c.intrinsicHeight
	}
	sum := 0.0
	for _, gc := range c.children {
		if gc.styles["position"] == "fixed" {
			continue
		}
		sum += t.flowHeightLocked(gc, parentHeight)
	}
	return sum
}

// resolveLength reads an inline length against a percentage reference,
// falling back when the value is unset or unparseable.
func resolveLength(value string, reference, fallback float64) float64 {
	if v, ok := pxValue(value); ok {
		return v
	}
	if p, ok := pctValue(value); ok {
		return reference * p
	}
	return fallback
}

func pxValue(s string) (float64, bool) {
	if !strings.HasSuffix(s, "px") {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "px"), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func pctValue(s string) (float64, bool) {
	if !strings.HasSuffix(s, "%") {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, false
	}
	return v / 100, true
}
