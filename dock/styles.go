// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: dock/styles.go
// Summary: Writes and reverts the inline style overrides for both modes.
// Usage: Second stage of every reconciliation pass; shared with teardown.

package dock

import (
	"math"
	"strconv"
	"strings"
)

// Inline properties the docked procedure may write, kept as slices so the
// original-mode procedure and the auditor can walk the exact same set.
var (
	dockedPanelProps = []string{
		"position", "left", "top", "width", "height",
		"display", "flex-direction", "transform",
	}
	dockedContentProps = []string{"height", "width", "overflow-y"}
	dockedUpperProps   = []string{"height", "padding-bottom"}
)

// applyDockedStyles pins the panel directly below the upper region. The
// upper rectangle must be re-read after applyUpperSizing, because the
// panel's anchor is the upper region's post-resize bottom edge.
func applyDockedStyles(panel, content Element, upperRect Rect, g Geometry) {
	setStyleIfChanged(panel, "position", "fixed")
	setStyleIfChanged(panel, "left", formatPx(upperRect.Left))
	setStyleIfChanged(panel, "top", formatPx(upperRect.Bottom()))
	setStyleIfChanged(panel, "width", formatPx(upperRect.Width))
	setStyleIfChanged(panel, "height", formatPx(g.PanelHeight))
	setStyleIfChanged(panel, "display", "flex")
	setStyleIfChanged(panel, "flex-direction", "column")
	setStyleIfChanged(panel, "transform", "none")
	panel.RemoveStyle("z-index")

	// Content may be unresolvable mid-render; tolerated, not fatal.
	if content != nil {
		setStyleIfChanged(content, "height", formatPx(g.ContentHeight))
		setStyleIfChanged(content, "width", "100%")
		setStyleIfChanged(content, "overflow-y", "auto")
	}
}

// applyUpperSizing grants the upper region its share of the span.
func applyUpperSizing(upper Element, g Geometry) {
	setStyleIfChanged(upper, "height", formatPx(g.UpperHeight))
	setStyleIfChanged(upper, "padding-bottom", "0px")
}

// clearDockedStyles removes every property applyDockedStyles could have
// written, handing the panel and content back to the host's own layout.
func clearDockedStyles(panel, content Element) {
	if panel != nil {
		for _, prop := range dockedPanelProps {
			panel.RemoveStyle(prop)
		}
	}
	if content != nil {
		for _, prop := range dockedContentProps {
			content.RemoveStyle(prop)
		}
	}
}

// releaseUpperSizing removes the upper-region overrides. Idempotent; called
// from original-mode passes, from the absence handler once a disappearance
// is confirmed, and from teardown.
func releaseUpperSizing(upper Element) {
	if upper == nil {
		return
	}
	for _, prop := range dockedUpperProps {
		upper.RemoveStyle(prop)
	}
}

// setStyleIfChanged writes only when the inline value actually differs.
// The change detector watches these same nodes, so steady-state passes must
// produce zero mutations or the cooldown cycle would retrigger itself.
func setStyleIfChanged(el Element, name, value string) {
	if el.Style(name) == value {
		return
	}
	el.SetStyle(name, value)
}

// formatPx renders a pixel length rounded to two decimals, trimming
// trailing zeros the way hosts serialise inline lengths.
func formatPx(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + "px"
}

// parsePx reads a pixel length back; ok is false for unset or non-pixel
// values.
func parsePx(s string) (float64, bool) {
	if !strings.HasSuffix(s, "px") {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "px"), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
