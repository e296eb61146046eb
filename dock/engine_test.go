// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: dock/engine_test.go
// Summary: Exercises engine lifecycle, passes and teardown behaviour.
// Usage: Executed during `go test` to guard against regressions.

package dock

import (
	"testing"
	"time"
)

func TestNewRequiresHost(t *testing.T) {
	if _, err := New(nil, newMemStore(), Options{}); err == nil {
		t.Fatalf("expected error for nil host")
	}
}

func TestStartAppliesPersistedDockedLayout(t *testing.T) {
	h := newFakeHost()
	sc := newScene(h)
	e := startDocked(t, sc, nil)

	if got := sc.upper.Style("height"); got != "300px" {
		t.Fatalf("upper height = %q, want 300px", got)
	}
	want := map[string]string{
		"position": "fixed",
		"left":     "0px",
		"top":      "300px",
		"width":    "400px",
		"height":   "300px",
	}
	for prop, val := range want {
		if got := sc.panel.Style(prop); got != val {
			t.Errorf("panel %s = %q, want %q", prop, got, val)
		}
	}
	if got := sc.content.Style("height"); got != "284px" {
		t.Errorf("content height = %q, want 284px", got)
	}

	if len(sc.panel.children) < 2 {
		t.Fatalf("expected controls parented into panel, children=%d", len(sc.panel.children))
	}
	if sc.panel.children[0] != e.handle {
		t.Errorf("expected handle as first panel child")
	}
	if sc.panel.children[len(sc.panel.children)-1] != e.toggleWrap {
		t.Errorf("expected toggle as last panel child")
	}
	if h.resizeSubCount() != 1 {
		t.Errorf("expected resize listener hooked, got %d", h.resizeSubCount())
	}

	st := e.Stats()
	if st.Passes != 1 {
		t.Errorf("expected one pass, got %d", st.Passes)
	}
}

func TestStartLoadsPersistedProportions(t *testing.T) {
	h := newFakeHost()
	sc := newScene(h)
	store := newMemStore()
	if err := saveProportions(store, Proportions{Upper: 0.25, Lower: 0.75}); err != nil {
		t.Fatalf("saveProportions: %v", err)
	}
	startDocked(t, sc, store)

	if got := sc.upper.Style("height"); got != "150px" {
		t.Fatalf("upper height = %q, want 150px", got)
	}
	if got := sc.panel.Style("height"); got != "450px" {
		t.Fatalf("panel height = %q, want 450px", got)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	h := newFakeHost()
	sc := newScene(h)
	e := startDocked(t, sc, nil)

	e.Start()

	if h.mutationSubCount() != 1 {
		t.Fatalf("expected a single mutation subscription, got %d", h.mutationSubCount())
	}
	if st := e.Stats(); st.Passes != 1 {
		t.Fatalf("second Start must not rerun the pass, got %d", st.Passes)
	}
}

func TestSettledPassWritesNothing(t *testing.T) {
	h := newFakeHost()
	sc := newScene(h)
	e := startDocked(t, sc, nil)

	// A second full pass over a settled tree must not emit a single write,
	// otherwise the detector would chase the engine's own output forever.
	before := sc.panel.writes + sc.upper.writes + sc.content.writes
	e.reconcile()

	after := sc.panel.writes + sc.upper.writes + sc.content.writes
	if after != before {
		t.Fatalf("settled pass wrote styles: %d -> %d", before, after)
	}
}

func TestToggleFlipsModeAndPersists(t *testing.T) {
	h := newFakeHost()
	sc := newScene(h)
	store := newMemStore()
	e := startDocked(t, sc, store)

	e.Toggle()
	h.stepFrames()

	if e.Mode() != ModeOriginal {
		t.Fatalf("expected original mode, got %v", e.Mode())
	}
	if got := string(store.data[settingsKeyMode]); got != `{"docked":false}` {
		t.Fatalf("persisted mode = %s", got)
	}
	for _, prop := range dockedPanelProps {
		if got := sc.panel.Style(prop); got != "" {
			t.Errorf("panel %s still %q after undock", prop, got)
		}
	}
	if sc.upper.Style("height") != "" {
		t.Errorf("upper sizing not released on undock")
	}
	if e.handle.Parent() != nil {
		t.Errorf("handle must be detached in original mode")
	}
	if !sameElement(e.toggleWrap.Parent(), sc.content) {
		t.Errorf("toggle must live at the head of content in original mode")
	}
	if h.resizeSubCount() != 0 {
		t.Errorf("resize listener must be dropped in original mode")
	}
}

func TestToggleRoundTripRestoresGeometry(t *testing.T) {
	h := newFakeHost()
	sc := newScene(h)
	e := startDocked(t, sc, nil)

	before := sc.panel.styleSnapshot()

	e.Toggle()
	h.stepFrames()
	// Let the cooldown window close so the second toggle arms its own frame.
	time.Sleep(30 * time.Millisecond)
	e.Toggle()
	h.stepFrames()

	after := sc.panel.styleSnapshot()
	for prop, val := range before {
		if !styleValuesMatch(val, after[prop]) {
			t.Errorf("panel %s: %q -> %q after round trip", prop, val, after[prop])
		}
	}
	if got := sc.upper.Style("height"); got != "300px" {
		t.Errorf("upper height = %q after round trip, want 300px", got)
	}
}

func TestStopTearsEverythingDown(t *testing.T) {
	h := newFakeHost()
	sc := newScene(h)
	store := newMemStore()
	e := startDocked(t, sc, store)

	saves := len(store.setKeys)
	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if h.mutationSubCount() != 0 {
		t.Errorf("mutation observer still connected")
	}
	if h.resizeSubCount() != 0 {
		t.Errorf("resize listener still attached")
	}
	if h.pendingFrames() != 0 {
		t.Errorf("frame callback still pending")
	}
	if e.handle.Parent() != nil || e.toggleWrap.Parent() != nil {
		t.Errorf("control nodes still attached")
	}
	for _, prop := range dockedPanelProps {
		if got := sc.panel.Style(prop); got != "" {
			t.Errorf("panel %s still %q after stop", prop, got)
		}
	}
	if sc.upper.Style("height") != "" {
		t.Errorf("upper sizing not released on stop")
	}
	if len(store.setKeys) != saves+2 {
		t.Errorf("expected final mode+proportions saves, got %d new", len(store.setKeys)-saves)
	}

	// Second stop is a no-op.
	if err := e.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestStopThenStartRestoresLayout(t *testing.T) {
	h := newFakeHost()
	sc := newScene(h)
	e := startDocked(t, sc, nil)

	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	e.Start()

	if got := sc.panel.Style("position"); got != "fixed" {
		t.Fatalf("expected docked layout after restart, position=%q", got)
	}
	if h.mutationSubCount() != 1 {
		t.Fatalf("expected observer reconnected, got %d", h.mutationSubCount())
	}
}

func TestStartToleratesAbsentPanel(t *testing.T) {
	h := newFakeHost()
	sc := newScene(h)
	sc.panel.Remove()

	e, err := New(h, newMemStore(), testOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.Start()

	if st := e.Stats(); st.PassesAborted != 1 {
		t.Fatalf("expected one aborted pass, got %d", st.PassesAborted)
	}

	// Panel shows up later: the next mutation batch brings the layout in.
	sc.reattachPanel()
	h.deliver([]Mutation{{Kind: MutationChildren, Target: h.root, Added: []Element{sc.panel}}})
	h.stepFrames()

	if e.Mode() == ModeDocked {
		t.Fatalf("default mode should be original")
	}
	if !sameElement(e.toggleWrap.Parent(), sc.content) {
		t.Fatalf("expected toggle placed once the panel returned")
	}
}

func TestEngineBroadcastsEvents(t *testing.T) {
	h := newFakeHost()
	sc := newScene(h)
	e := startDocked(t, sc, nil)
	rec := &recordingListener{}
	e.Events().Subscribe(rec)

	e.Toggle()
	h.stepFrames()

	if rec.count(EventModeChanged) != 1 {
		t.Fatalf("expected one mode event, got %d", rec.count(EventModeChanged))
	}
	if rec.count(EventPassApplied) != 1 {
		t.Fatalf("expected one pass event, got %d", rec.count(EventPassApplied))
	}
	ev, ok := rec.last(EventPassApplied)
	if !ok {
		t.Fatalf("missing pass event")
	}
	info, ok := ev.Payload.(PassInfo)
	if !ok {
		t.Fatalf("unexpected payload %T", ev.Payload)
	}
	if info.Mode != ModeOriginal {
		t.Fatalf("pass event mode = %v, want original", info.Mode)
	}
	if info.Geometry.Available != 600 {
		t.Fatalf("pass event span = %v, want 600", info.Geometry.Available)
	}
}
