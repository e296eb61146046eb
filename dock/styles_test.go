// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: dock/styles_test.go
// Summary: Exercises style application, idempotence and px formatting.
// Usage: Executed during `go test` to guard against regressions.

package dock

import "testing"

func TestApplyDockedStylesWritesFullSet(t *testing.T) {
	h := newFakeHost()
	panel := h.newElement("div")
	content := h.newElement("div")
	rect := Rect{Top: 40, Left: 10, Width: 320, Height: 300}
	g := Geometry{Available: 600, UpperHeight: 300, PanelHeight: 300, ContentHeight: 284}

	applyDockedStyles(panel, content, rect, g)

	want := map[string]string{
		"position":       "fixed",
		"left":           "10px",
		"top":            "340px",
		"width":          "320px",
		"height":         "300px",
		"display":        "flex",
		"flex-direction": "column",
		"transform":      "none",
	}
	for prop, val := range want {
		if got := panel.Style(prop); got != val {
			t.Errorf("panel %s = %q, want %q", prop, got, val)
		}
	}
	if got := content.Style("height"); got != "284px" {
		t.Errorf("content height = %q, want 284px", got)
	}
	if got := content.Style("overflow-y"); got != "auto" {
		t.Errorf("content overflow-y = %q, want auto", got)
	}
}

func TestApplyDockedStylesRemovesZIndex(t *testing.T) {
	h := newFakeHost()
	panel := h.newElement("div")
	panel.SetStyle("z-index", "50")

	applyDockedStyles(panel, nil, Rect{Width: 100, Height: 100}, Geometry{PanelHeight: 100})

	if got := panel.Style("z-index"); got != "" {
		t.Fatalf("expected z-index removed, still %q", got)
	}
}

func TestApplyDockedStylesIsIdempotent(t *testing.T) {
	h := newFakeHost()
	panel := h.newElement("div")
	content := h.newElement("div")
	rect := Rect{Top: 0, Left: 0, Width: 200, Height: 300}
	g := Geometry{Available: 600, UpperHeight: 300, PanelHeight: 300, ContentHeight: 284}

	applyDockedStyles(panel, content, rect, g)
	first := panel.styleSnapshot()
	writes := panel.writes

	applyDockedStyles(panel, content, rect, g)

	if panel.writes != writes {
		t.Fatalf("second application wrote styles again: %d -> %d", writes, panel.writes)
	}
	second := panel.styleSnapshot()
	for prop, val := range first {
		if second[prop] != val {
			t.Fatalf("style %s changed between applications: %q -> %q", prop, val, second[prop])
		}
	}
}

func TestClearDockedStylesRemovesEverything(t *testing.T) {
	h := newFakeHost()
	panel := h.newElement("div")
	content := h.newElement("div")
	g := Geometry{Available: 600, UpperHeight: 300, PanelHeight: 300, ContentHeight: 284}

	applyDockedStyles(panel, content, Rect{Width: 200, Height: 300}, g)
	clearDockedStyles(panel, content)

	for _, prop := range dockedPanelProps {
		if got := panel.Style(prop); got != "" {
			t.Errorf("panel %s still set to %q", prop, got)
		}
	}
	for _, prop := range dockedContentProps {
		if got := content.Style(prop); got != "" {
			t.Errorf("content %s still set to %q", prop, got)
		}
	}
}

func TestReleaseUpperSizing(t *testing.T) {
	h := newFakeHost()
	upper := h.newElement("aside")

	applyUpperSizing(upper, Geometry{UpperHeight: 300})
	if got := upper.Style("height"); got != "300px" {
		t.Fatalf("expected height 300px, got %q", got)
	}
	if got := upper.Style("padding-bottom"); got != "0px" {
		t.Fatalf("expected padding-bottom 0px, got %q", got)
	}

	releaseUpperSizing(upper)
	if upper.Style("height") != "" || upper.Style("padding-bottom") != "" {
		t.Fatalf("expected overrides removed, got %q/%q",
			upper.Style("height"), upper.Style("padding-bottom"))
	}

	// Safe on nil and on an already-released node.
	releaseUpperSizing(nil)
	releaseUpperSizing(upper)
}

func TestFormatPx(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{300, "300px"},
		{283.333333, "283.33px"},
		{0, "0px"},
		{16.5, "16.5px"},
	}
	for _, tc := range cases {
		if got := formatPx(tc.in); got != tc.want {
			t.Errorf("formatPx(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParsePx(t *testing.T) {
	if v, ok := parsePx("283.33px"); !ok || v != 283.33 {
		t.Fatalf("parsePx(283.33px) = %v, %v", v, ok)
	}
	if _, ok := parsePx(""); ok {
		t.Fatalf("empty value must not parse")
	}
	if _, ok := parsePx("100%"); ok {
		t.Fatalf("percentage must not parse as px")
	}
}
