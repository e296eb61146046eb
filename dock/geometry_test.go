// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: dock/geometry_test.go
// Summary: Exercises geometry resolution against known layouts.
// Usage: Executed during `go test` to guard against regressions.

package dock

import "testing"

func TestResolveGeometryEvenSplit(t *testing.T) {
	g, ok := resolveGeometry(0, 600, Proportions{Upper: 0.5, Lower: 0.5}, 16)
	if !ok {
		t.Fatalf("expected resolution to succeed")
	}

	if g.Available != 600 {
		t.Fatalf("expected available 600, got %v", g.Available)
	}
	if g.UpperHeight != 300 {
		t.Fatalf("expected upper height 300, got %v", g.UpperHeight)
	}
	if g.PanelHeight != 300 {
		t.Fatalf("expected panel height 300, got %v", g.PanelHeight)
	}
	if g.ContentHeight != 284 {
		t.Fatalf("expected content height 284, got %v", g.ContentHeight)
	}
}

func TestResolveGeometryOffsetTop(t *testing.T) {
	g, ok := resolveGeometry(40, 640, Proportions{Upper: 0.25, Lower: 0.75}, 16)
	if !ok {
		t.Fatalf("expected resolution to succeed")
	}

	if g.UpperHeight != 150 {
		t.Fatalf("expected upper height 150, got %v", g.UpperHeight)
	}
	if g.PanelHeight != 450 {
		t.Fatalf("expected panel height 450, got %v", g.PanelHeight)
	}
	if g.ContentHeight != 434 {
		t.Fatalf("expected content height 434, got %v", g.ContentHeight)
	}
}

func TestResolveGeometryFailsOnCollapsedSpan(t *testing.T) {
	if _, ok := resolveGeometry(100, 100, DefaultProportions(), 16); ok {
		t.Fatalf("zero span must not resolve")
	}
	if _, ok := resolveGeometry(200, 100, DefaultProportions(), 16); ok {
		t.Fatalf("negative span must not resolve")
	}
}

func TestResolveGeometryFloorsContentAtZero(t *testing.T) {
	g, ok := resolveGeometry(0, 20, Proportions{Upper: 0.5, Lower: 0.5}, 16)
	if !ok {
		t.Fatalf("expected resolution to succeed")
	}

	if g.ContentHeight != 0 {
		t.Fatalf("expected content floored at 0, got %v", g.ContentHeight)
	}
}
