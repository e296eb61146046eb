// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: dock/geometry.go
// Summary: Derives target heights for both regions from live host geometry.
// Usage: First stage of every reconciliation pass and of each audit cycle.

package dock

// Geometry is the resolved vertical layout for one pass.
type Geometry struct {
	// Available is the span between the upper region's top edge and the
	// boundary marker's top edge, in pixels.
	Available float64
	// UpperHeight is the share of Available granted to the upper region.
	UpperHeight float64
	// PanelHeight is the share granted to the docked panel, including the
	// row reserved for the engine's own controls.
	PanelHeight float64
	// ContentHeight is PanelHeight minus the control reservation, floored
	// at zero for tiny viewports.
	ContentHeight float64
}

// resolveGeometry computes target heights from two live top edges. The
// reserve argument is the fixed pixel row kept for the drag handle.
// ok is false when the measured span is not positive, which happens
// routinely while the host is mid-render; callers must abort the pass
// without touching any styles.
func resolveGeometry(upperTop, boundaryTop float64, p Proportions, reserve float64) (Geometry, bool) {
	avail := boundaryTop - upperTop
	if avail <= 0 {
		return Geometry{}, false
	}

	g := Geometry{
		Available:   avail,
		UpperHeight: avail * p.Upper,
		PanelHeight: avail * p.Lower,
	}
	g.ContentHeight = g.PanelHeight - reserve
	if g.ContentHeight < 0 {
		g.ContentHeight = 0
	}
	return g, true
}
