// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: dock/drag.go
// Summary: Pointer-driven resize state machine for the proportion pair.
// Usage: Fed by the handle's pointer subscription while docked.

package dock

import "log"

// dragSession exists only between pointer-down on the handle and the next
// pointer-up. A fresh session is built per drag; nothing is reused.
type dragSession struct {
	active      bool
	anchorY     float64
	anchorProps Proportions
}

// onHandlePointer routes captured pointer samples through the state
// machine.
func (e *Engine) onHandlePointer(ev PointerEvent) {
	switch ev.Phase {
	case PointerDown:
		e.beginDrag(ev)
	case PointerMove:
		e.moveDrag(ev)
	case PointerUp:
		e.endDrag()
	}
}

// beginDrag opens a session. Drags never start in original mode; the handle
// is not even attached then, but the guard stands on its own.
func (e *Engine) beginDrag(ev PointerEvent) {
	e.mu.Lock()
	if !e.started || e.mode != ModeDocked || e.drag.active {
		e.mu.Unlock()
		return
	}
	e.drag = dragSession{active: true, anchorY: ev.Y, anchorProps: e.props}
	props := e.props
	e.mu.Unlock()

	e.dispatcher.Broadcast(Event{Type: EventDragStarted, Payload: props})
}

// moveDrag recomputes the split from the live span on every sample. The
// span is measured fresh each move, not cached from the session start, so
// host relayouts during the drag stay accounted for.
func (e *Engine) moveDrag(ev PointerEvent) {
	e.mu.Lock()
	if !e.drag.active {
		e.mu.Unlock()
		return
	}
	t := e.resolveTargets()
	if t.upper == nil || t.boundary == nil {
		e.mu.Unlock()
		return
	}
	upperTop := t.upper.Bounds().Top
	avail := t.boundary.Bounds().Top - upperTop
	if avail <= 0 {
		e.mu.Unlock()
		return
	}

	next := SplitAt((ev.Y - upperTop) / avail)
	if next == e.props {
		e.mu.Unlock()
		return
	}
	e.props = next
	e.dragMoves++
	if err := saveProportions(e.store, next); err != nil {
		log.Printf("Engine: failed to persist proportions: %v", err)
	}
	s := e.sched
	e.mu.Unlock()

	if s != nil {
		s.ScheduleNextFrame()
	}
}

// endDrag closes the session on pointer-up anywhere in the viewport.
func (e *Engine) endDrag() {
	e.mu.Lock()
	if !e.drag.active {
		e.mu.Unlock()
		return
	}
	anchor := e.drag.anchorProps
	e.drag = dragSession{}
	props := e.props
	e.mu.Unlock()

	log.Printf("Engine: drag finished %.3f/%.3f (was %.3f/%.3f)",
		props.Upper, props.Lower, anchor.Upper, anchor.Lower)
	e.dispatcher.Broadcast(Event{Type: EventDragEnded, Payload: props})
}
