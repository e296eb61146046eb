// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: hosttree/scene.go
// Summary: The canonical host page the demo and simulator run against.
// Usage: Build once over a fresh Tree; mutate through the helpers to mimic host behaviour.

package hosttree

import (
	"fmt"

	"github.com/framegrace/dockpin/dock"
)

// SceneSpec sizes the canonical page. Zero fields fall back to pixel-scale
// defaults; a terminal host passes row-scale values instead.
type SceneSpec struct {
	HeaderHeight  float64
	UpperHeight   float64
	ToolbarHeight float64
	ContentHeight float64
}

func (s SceneSpec) withDefaults() SceneSpec {
	if s.HeaderHeight <= 0 {
		s.HeaderHeight = 40
	}
	if s.UpperHeight <= 0 {
		s.UpperHeight = 300
	}
	if s.ToolbarHeight <= 0 {
		s.ToolbarHeight = 40
	}
	if s.ContentHeight <= 0 {
		s.ContentHeight = 200
	}
	return s
}

// Scene is a ready-made host page: a header, the upper region, a bottom
// toolbar acting as the lower boundary marker, and the panel with its inner
// content. The toolbar is fixed to the viewport bottom, so resizing the
// upper region never moves the boundary; only viewport resizes do.
type Scene struct {
	Tree     *Tree
	Header   *Node
	Upper    *Node
	Boundary *Node
	Panel    *Node
	Content  *Node

	toolbarH float64
}

// BuildScene populates the tree with the canonical page at default sizes.
func BuildScene(t *Tree) *Scene {
	return BuildSceneSpec(t, SceneSpec{})
}

// BuildSceneSpec populates the tree with the canonical page. The upper
// region's next sibling is the boundary toolbar, which is what the engine's
// target resolution expects.
func BuildSceneSpec(t *Tree, spec SceneSpec) *Scene {
	spec = spec.withDefaults()
	sc := &Scene{Tree: t, toolbarH: spec.ToolbarHeight}
	_, h := t.Viewport()

	sc.Header = t.NewNode("header")
	sc.Header.SetIntrinsicHeight(spec.HeaderHeight)
	sc.Header.SetText("dockpin host")

	sc.Upper = t.NewNode("section")
	sc.Upper.AddMark(dock.DefaultUpperMark)
	sc.Upper.SetIntrinsicHeight(spec.UpperHeight)

	sc.Boundary = t.NewNode("footer")
	sc.Boundary.SetStyle("position", "fixed")
	sc.Boundary.SetStyle("top", fmt.Sprintf("%dpx", int(h-spec.ToolbarHeight)))
	sc.Boundary.SetStyle("width", "100%")
	sc.Boundary.SetStyle("height", fmt.Sprintf("%dpx", int(spec.ToolbarHeight)))
	sc.Boundary.SetText("toolbar")

	sc.Panel = t.NewNode("div")
	sc.Panel.AddMark(dock.DefaultPanelMark)
	sc.Content = t.NewNode("div")
	sc.Content.AddMark(dock.DefaultContentMark)
	sc.Content.SetIntrinsicHeight(spec.ContentHeight)
	sc.Panel.AppendChild(sc.Content)

	root := t.Root()
	root.AppendChild(sc.Header)
	root.AppendChild(sc.Upper)
	root.AppendChild(sc.Boundary)
	root.AppendChild(sc.Panel)
	return sc
}

// Resize changes the viewport. The toolbar is repositioned first so the
// resize-triggered pass already sees the boundary at its final place.
func (sc *Scene) Resize(w, h float64) {
	sc.Boundary.SetStyle("top", fmt.Sprintf("%dpx", int(h-sc.toolbarH)))
	sc.Tree.SetViewport(w, h)
}

// DetachPanel removes the panel the way a host re-render would.
func (sc *Scene) DetachPanel() {
	sc.Panel.Remove()
}

// AttachPanel puts the panel back at the end of the body.
func (sc *Scene) AttachPanel() {
	sc.Tree.Root().AppendChild(sc.Panel)
}
