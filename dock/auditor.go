// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: dock/auditor.go
// Summary: Periodic drift audit comparing expected and actual tree state.
// Usage: Runs every AuditInterval for the whole time the engine is started.

package dock

import (
	"fmt"
	"log"
	"math"
	"time"
)

// pxTolerance is how far an actual pixel value may sit from the expected
// one before the auditor calls it drift.
const pxTolerance = 0.1

// auditSnapshot is a flat record of everything the auditor compares. One is
// derived from expectations, one is captured from the tree, and a single
// diff walks both; no traversal logic is duplicated per property.
type auditSnapshot struct {
	handleParent   string
	toggleParent   string
	handleDisplay  string
	toggleDisplay  string
	handleChildren int
	toggleChildren int

	panel   map[string]string
	upper   map[string]string
	content map[string]string
}

// auditLoop ticks until quit closes.
func (e *Engine) auditLoop(quit chan struct{}) {
	ticker := time.NewTicker(e.opts.AuditInterval)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			e.audit()
		}
	}
}

// audit re-derives the expected state and diffs it against the tree. All
// four targets must be resolvable and the span positive, otherwise the
// cycle skips silently; the host is mid-transition and the observer path
// will cover it.
func (e *Engine) audit() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	t := e.resolveTargets()
	if t.panel == nil || t.upper == nil || t.boundary == nil || t.content == nil {
		e.mu.Unlock()
		return
	}
	g, ok := resolveGeometry(t.upper.Bounds().Top, t.boundary.Bounds().Top, e.props, e.opts.ControlHeight)
	if !ok {
		e.mu.Unlock()
		return
	}

	expected := e.expectedSnapshotLocked(t, g)
	actual := e.actualSnapshotLocked(t)
	mismatches := diffSnapshots(expected, actual)
	if len(mismatches) == 0 {
		e.mu.Unlock()
		return
	}
	e.driftRepairs++
	s := e.sched
	e.mu.Unlock()

	log.Printf("Engine: drift detected: %v", mismatches)
	e.dispatcher.Broadcast(Event{Type: EventDriftRepaired, Payload: DriftInfo{Mismatches: mismatches}})
	if s != nil {
		s.Schedule()
	}
}

// expectedSnapshotLocked builds the declarative target state for the
// current mode. Docked expectations anchor on the upper region's live
// rectangle, matching what a settled pass would have written.
func (e *Engine) expectedSnapshotLocked(t targetSet, g Geometry) auditSnapshot {
	if e.mode == ModeDocked {
		upperRect := t.upper.Bounds()
		return auditSnapshot{
			handleParent:   t.panel.ID(),
			toggleParent:   t.panel.ID(),
			handleDisplay:  "flex",
			toggleDisplay:  "flex",
			handleChildren: 1,
			toggleChildren: 1,
			panel: map[string]string{
				"position":       "fixed",
				"left":           formatPx(upperRect.Left),
				"top":            formatPx(upperRect.Bottom()),
				"width":          formatPx(upperRect.Width),
				"height":         formatPx(g.PanelHeight),
				"display":        "flex",
				"flex-direction": "column",
				"transform":      "none",
				"z-index":        "",
			},
			upper: map[string]string{
				"height":         formatPx(g.UpperHeight),
				"padding-bottom": "0px",
			},
			content: map[string]string{
				"height":     formatPx(g.ContentHeight),
				"width":      "100%",
				"overflow-y": "auto",
			},
		}
	}

	// Original mode: none of the docked overrides may remain anywhere.
	panel := make(map[string]string, len(dockedPanelProps))
	for _, prop := range dockedPanelProps {
		panel[prop] = ""
	}
	content := make(map[string]string, len(dockedContentProps))
	for _, prop := range dockedContentProps {
		content[prop] = ""
	}
	upper := make(map[string]string, len(dockedUpperProps))
	for _, prop := range dockedUpperProps {
		upper[prop] = ""
	}
	return auditSnapshot{
		handleParent:   "",
		toggleParent:   t.content.ID(),
		handleDisplay:  "none",
		toggleDisplay:  "flex",
		handleChildren: 1,
		toggleChildren: 1,
		panel:          panel,
		upper:          upper,
		content:        content,
	}
}

// actualSnapshotLocked captures the same record from the live tree, reading
// only the properties the expected side cares about.
func (e *Engine) actualSnapshotLocked(t targetSet) auditSnapshot {
	snap := auditSnapshot{
		panel:   make(map[string]string),
		upper:   make(map[string]string),
		content: make(map[string]string),
	}
	if e.handle != nil {
		if p := e.handle.Parent(); p != nil {
			snap.handleParent = p.ID()
		}
		snap.handleDisplay = e.handle.Style("display")
		snap.handleChildren = e.handle.ChildCount()
	}
	if e.toggleWrap != nil {
		if p := e.toggleWrap.Parent(); p != nil {
			snap.toggleParent = p.ID()
		}
		snap.toggleDisplay = e.toggleWrap.Style("display")
		snap.toggleChildren = e.toggleWrap.ChildCount()
	}
	for _, prop := range dockedPanelProps {
		snap.panel[prop] = t.panel.Style(prop)
	}
	snap.panel["z-index"] = t.panel.Style("z-index")
	for _, prop := range dockedUpperProps {
		snap.upper[prop] = t.upper.Style(prop)
	}
	for _, prop := range dockedContentProps {
		snap.content[prop] = t.content.Style(prop)
	}
	return snap
}

// diffSnapshots lists every field where actual deviates from expected.
// Structural mismatches short-circuit: when a control sits under the wrong
// parent the style comparisons are moot, a full pass is due anyway.
func diffSnapshots(expected, actual auditSnapshot) []string {
	var structural []string
	if expected.handleParent != actual.handleParent {
		structural = append(structural, fmt.Sprintf("handle parent %q != %q", actual.handleParent, expected.handleParent))
	}
	if expected.toggleParent != actual.toggleParent {
		structural = append(structural, fmt.Sprintf("toggle parent %q != %q", actual.toggleParent, expected.toggleParent))
	}
	if expected.handleDisplay != actual.handleDisplay {
		structural = append(structural, fmt.Sprintf("handle display %q != %q", actual.handleDisplay, expected.handleDisplay))
	}
	if expected.toggleDisplay != actual.toggleDisplay {
		structural = append(structural, fmt.Sprintf("toggle display %q != %q", actual.toggleDisplay, expected.toggleDisplay))
	}
	if expected.handleChildren != actual.handleChildren {
		structural = append(structural, fmt.Sprintf("handle children %d != %d", actual.handleChildren, expected.handleChildren))
	}
	if expected.toggleChildren != actual.toggleChildren {
		structural = append(structural, fmt.Sprintf("toggle children %d != %d", actual.toggleChildren, expected.toggleChildren))
	}
	if len(structural) > 0 {
		return structural
	}

	var drift []string
	drift = appendStyleDiffs(drift, "panel", expected.panel, actual.panel)
	drift = appendStyleDiffs(drift, "upper", expected.upper, actual.upper)
	drift = appendStyleDiffs(drift, "content", expected.content, actual.content)
	return drift
}

func appendStyleDiffs(out []string, label string, expected, actual map[string]string) []string {
	for prop, want := range expected {
		got := actual[prop]
		if styleValuesMatch(want, got) {
			continue
		}
		out = append(out, fmt.Sprintf("%s %s %q != %q", label, prop, got, want))
	}
	return out
}

// styleValuesMatch compares two inline values, numerically for pixel
// lengths so sub-pixel rounding by the host does not count as drift.
func styleValuesMatch(want, got string) bool {
	if want == got {
		return true
	}
	wv, wok := parsePx(want)
	gv, gok := parsePx(got)
	if wok && gok {
		return math.Abs(wv-gv) <= pxTolerance
	}
	return false
}
