// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: hosttree/script.go
// Summary: Scripted host misbehaviour shared by the simulator and tests.
// Usage: Run the helpers against a Scene to mimic a churning host.

package hosttree

import (
	"fmt"
	"math/rand"

	"github.com/framegrace/dockpin/dock"
)

// TamperLayout stomps one inline size the way a host re-render does: a
// random height on the panel or the upper region, or hiding the drag
// handle when one is attached.
func TamperLayout(sc *Scene, rng *rand.Rand) {
	px := fmt.Sprintf("%dpx", 50+rng.Intn(400))
	switch rng.Intn(3) {
	case 0:
		sc.Panel.SetStyle("height", px)
	case 1:
		sc.Upper.SetStyle("height", px)
	default:
		if handle := sc.Tree.ElementByMark(dock.HandleMark); handle != nil {
			handle.SetStyle("display", "none")
		}
	}
}

// RestyleStorm fires n tampers back to back.
func RestyleStorm(sc *Scene, rng *rand.Rand, n int) {
	for i := 0; i < n; i++ {
		TamperLayout(sc, rng)
	}
}

// AddFiller appends a short filler block to the panel content, the way a
// host streams new rows in. The caller owns removal.
func AddFiller(sc *Scene, rng *rand.Rand) *Node {
	n := sc.Tree.NewNode("div")
	n.SetIntrinsicHeight(float64(4 + rng.Intn(12)))
	sc.Content.AppendChild(n)
	return n
}

// Flicker detaches the panel and hands back the reattach, so the caller
// decides whether the gap stays inside the absence debounce.
func Flicker(sc *Scene) (reattach func()) {
	sc.DetachPanel()
	return sc.AttachPanel
}
