// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: dock/engine.go
// Summary: The reconciliation engine forcing the host tree into the desired layout.
// Usage: Created once per host surface; driven entirely by host callbacks and timers.

package dock

import (
	"fmt"
	"log"
	"sync"
	"time"

	"go.uber.org/multierr"
)

// Defaults for Options fields left at their zero value.
const (
	DefaultPanelMark   = "dockpin-panel"
	DefaultUpperMark   = "dockpin-upper"
	DefaultContentMark = "dockpin-content"

	DefaultControlHeight = 16.0
	DefaultCooldown      = 100 * time.Millisecond
	DefaultAuditInterval = 2000 * time.Millisecond
	DefaultAbsenceDelay  = 150 * time.Millisecond
)

// Options configures an Engine. The marks identify the externally-owned
// target nodes; the boundary marker is always the upper region's next
// sibling and the content node is looked up inside the panel.
type Options struct {
	PanelMark   string
	UpperMark   string
	ContentMark string

	// ControlHeight is the fixed pixel row reserved for the drag handle.
	ControlHeight float64

	Cooldown      time.Duration
	AuditInterval time.Duration
	AbsenceDelay  time.Duration
}

func (o Options) withDefaults() Options {
	if o.PanelMark == "" {
		o.PanelMark = DefaultPanelMark
	}
	if o.UpperMark == "" {
		o.UpperMark = DefaultUpperMark
	}
	if o.ContentMark == "" {
		o.ContentMark = DefaultContentMark
	}
	if o.ControlHeight <= 0 {
		o.ControlHeight = DefaultControlHeight
	}
	if o.Cooldown <= 0 {
		o.Cooldown = DefaultCooldown
	}
	if o.AuditInterval <= 0 {
		o.AuditInterval = DefaultAuditInterval
	}
	if o.AbsenceDelay <= 0 {
		o.AbsenceDelay = DefaultAbsenceDelay
	}
	return o
}

// Stats is a snapshot of the engine's counters.
type Stats struct {
	Requested       uint64
	Coalesced       uint64
	Passes          uint64
	PassesAborted   uint64
	DriftRepairs    uint64
	AbsenceReleases uint64
	ModeChanges     uint64
	DragMoves       uint64
}

// targetSet is one pass's view of the four external nodes. It is rebuilt by
// direct query on every pass and never cached across passes; any member may
// be nil.
type targetSet struct {
	panel    Element
	upper    Element
	boundary Element
	content  Element
}

// Engine holds a host tree's panel and upper region in the configured
// layout. All shared state is guarded by mu; host callbacks and timers each
// take the lock, so even though triggers arrive from several goroutines only
// one pass is ever in flight.
type Engine struct {
	host  Host
	store Storage
	opts  Options

	dispatcher *EventDispatcher

	mu      sync.Mutex
	started bool
	mode    Mode
	props   Proportions
	sched   *reapplyScheduler

	// Engine-owned control nodes, created lazily once and retained.
	toggleWrap   Element
	toggleButton Element
	handle       Element
	indicator    Element

	mutationCancel func()
	toggleCancel   func()
	handleCancel   func()
	resizeCancel   func()
	resizeHooked   bool

	drag         dragSession
	absenceTimer *time.Timer
	auditQuit    chan struct{}

	passes          uint64
	passesAborted   uint64
	driftRepairs    uint64
	absenceReleases uint64
	modeChanges     uint64
	dragMoves       uint64
}

// New wires an Engine over the given host and settings store. The store may
// be nil for a volatile run.
func New(host Host, store Storage, opts Options) (*Engine, error) {
	if host == nil {
		return nil, fmt.Errorf("host is required")
	}
	return &Engine{
		host:       host,
		store:      store,
		opts:       opts.withDefaults(),
		dispatcher: NewEventDispatcher(),
	}, nil
}

// Events exposes the engine's dispatcher for external listeners.
func (e *Engine) Events() *EventDispatcher { return e.dispatcher }

// Mode returns the current layout mode.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Proportions returns the current split.
func (e *Engine) Proportions() Proportions {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.props
}

// Stats returns a snapshot of the engine's counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	st := Stats{
		Passes:          e.passes,
		PassesAborted:   e.passesAborted,
		DriftRepairs:    e.driftRepairs,
		AbsenceReleases: e.absenceReleases,
		ModeChanges:     e.modeChanges,
		DragMoves:       e.dragMoves,
	}
	s := e.sched
	e.mu.Unlock()
	if s != nil {
		st.Requested, st.Coalesced, _ = s.counters()
	}
	return st
}

// Start loads persisted state, subscribes to the host, performs the first
// reconciliation pass and starts the drift auditor. Calling Start on a
// running engine is a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return
	}
	e.mode, e.props = loadSettings(e.store)
	e.sched = newReapplyScheduler(e.host, e.opts.Cooldown, e.reconcile)
	e.mutationCancel = e.host.SubscribeMutations(e.onMutations)
	e.auditQuit = make(chan struct{})
	quit := e.auditQuit
	e.started = true
	mode, props := e.mode, e.props
	e.mu.Unlock()

	log.Printf("Engine: starting mode=%s proportions=%.3f/%.3f", mode, props.Upper, props.Lower)
	e.reconcile()
	go e.auditLoop(quit)
}

// Stop tears the engine down: observer, frame, cooldown, audit and absence
// timers, control nodes, resize listener, then every style override, in that
// order. Safe to call when already stopped; the engine can be started again
// afterwards.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return nil
	}
	e.started = false

	if e.mutationCancel != nil {
		e.mutationCancel()
		e.mutationCancel = nil
	}
	if e.sched != nil {
		e.sched.Stop()
	}
	if e.auditQuit != nil {
		close(e.auditQuit)
		e.auditQuit = nil
	}
	if e.absenceTimer != nil {
		e.absenceTimer.Stop()
		e.absenceTimer = nil
	}
	if e.toggleCancel != nil {
		e.toggleCancel()
		e.toggleCancel = nil
	}
	if e.handleCancel != nil {
		e.handleCancel()
		e.handleCancel = nil
	}
	if e.toggleWrap != nil {
		e.toggleWrap.Remove()
	}
	if e.handle != nil {
		e.handle.Remove()
	}
	e.dropResizeHookLocked()

	t := e.resolveTargets()
	clearDockedStyles(t.panel, t.content)
	releaseUpperSizing(t.upper)

	e.drag = dragSession{}

	var errs error
	errs = multierr.Append(errs, saveMode(e.store, e.mode))
	errs = multierr.Append(errs, saveProportions(e.store, e.props))
	e.mu.Unlock()

	log.Printf("Engine: stopped")
	return errs
}

// Toggle flips the layout mode, persists it and schedules a pass.
func (e *Engine) Toggle() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	if e.mode == ModeDocked {
		e.mode = ModeOriginal
	} else {
		e.mode = ModeDocked
	}
	mode := e.mode
	e.modeChanges++
	if err := saveMode(e.store, mode); err != nil {
		log.Printf("Engine: failed to persist mode: %v", err)
	}
	s := e.sched
	e.mu.Unlock()

	log.Printf("Engine: mode now %s", mode)
	e.dispatcher.Broadcast(Event{Type: EventModeChanged, Payload: mode})
	if s != nil {
		s.Schedule()
	}
}

// requestReapply funnels a trigger into the scheduler.
func (e *Engine) requestReapply() {
	e.mu.Lock()
	s := e.sched
	started := e.started
	e.mu.Unlock()
	if started && s != nil {
		s.Schedule()
	}
}

// resolveTargets queries the four external nodes fresh. The boundary marker
// is the upper region's next sibling; the content node lives inside the
// panel.
func (e *Engine) resolveTargets() targetSet {
	var t targetSet
	t.panel = e.host.ElementByMark(e.opts.PanelMark)
	t.upper = e.host.ElementByMark(e.opts.UpperMark)
	if t.upper != nil {
		t.boundary = t.upper.NextSibling()
	}
	if t.panel != nil {
		t.content = t.panel.FindByMark(e.opts.ContentMark)
	}
	return t
}

// reconcile runs one full pass: geometry, then styles, then control
// placement. Unexpected panics are logged with the engine's state and
// re-raised; swallowing them would leave the tree half-written.
func (e *Engine) reconcile() {
	var ev *Event
	func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Engine: pass panicked mode=%s proportions=%.3f/%.3f: %v",
					e.mode, e.props.Upper, e.props.Lower, r)
				panic(r)
			}
		}()
		ev = e.reconcileLocked()
	}()
	if ev != nil {
		e.dispatcher.Broadcast(*ev)
	}
}

func (e *Engine) reconcileLocked() *Event {
	if !e.started {
		return nil
	}
	t := e.resolveTargets()
	if t.panel == nil || t.upper == nil || t.boundary == nil {
		e.passesAborted++
		log.Printf("Engine: pass skipped, targets unresolved (panel=%t upper=%t boundary=%t)",
			t.panel != nil, t.upper != nil, t.boundary != nil)
		return nil
	}

	g, ok := resolveGeometry(t.upper.Bounds().Top, t.boundary.Bounds().Top, e.props, e.opts.ControlHeight)
	if !ok {
		// Routine while the host is mid-render; the next trigger retries.
		e.passesAborted++
		log.Printf("Engine: pass skipped, non-positive span")
		return nil
	}

	if e.mode == ModeDocked {
		applyUpperSizing(t.upper, g)
		// The panel anchors to the upper region's post-resize bottom
		// edge, so the rectangle has to be read back after sizing.
		upperRect := t.upper.Bounds()
		applyDockedStyles(t.panel, t.content, upperRect, g)
		e.placeControlsDocked(t)
		e.ensureResizeHookLocked()
	} else {
		clearDockedStyles(t.panel, t.content)
		releaseUpperSizing(t.upper)
		e.placeControlsOriginal(t)
		e.dropResizeHookLocked()
	}

	e.passes++
	return &Event{Type: EventPassApplied, Payload: PassInfo{Mode: e.mode, Geometry: g}}
}

// ensureResizeHookLocked attaches the viewport resize listener. The boolean
// guard keeps the registration single even though every docked pass calls
// this.
func (e *Engine) ensureResizeHookLocked() {
	if e.resizeHooked {
		return
	}
	e.resizeCancel = e.host.SubscribeResize(e.requestReapply)
	e.resizeHooked = true
}

func (e *Engine) dropResizeHookLocked() {
	if !e.resizeHooked {
		return
	}
	if e.resizeCancel != nil {
		e.resizeCancel()
		e.resizeCancel = nil
	}
	e.resizeHooked = false
}
