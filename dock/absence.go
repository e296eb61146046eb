// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: dock/absence.go
// Summary: Debounces panel disappearance before releasing sibling sizing.
// Usage: Driven by the change detector's presence re-checks.

package dock

import (
	"log"
	"time"
)

// panelAbsent arms the debounce timer unless one is already pending. Host
// re-renders routinely detach the panel for a few frames; releasing the
// upper region's sizing on every flicker would make the page jump.
func (e *Engine) panelAbsent() {
	e.mu.Lock()
	if !e.started || e.absenceTimer != nil {
		e.mu.Unlock()
		return
	}
	delay := e.opts.AbsenceDelay
	e.absenceTimer = time.AfterFunc(delay, e.confirmAbsence)
	e.mu.Unlock()

	log.Printf("Engine: panel missing, waiting %v before releasing", delay)
}

// panelPresent cancels a pending absence timer. The reappeared panel
// probably needs its sizing reasserted, so a reapply is scheduled.
func (e *Engine) panelPresent() {
	e.mu.Lock()
	if e.absenceTimer == nil {
		e.mu.Unlock()
		return
	}
	e.absenceTimer.Stop()
	e.absenceTimer = nil
	s := e.sched
	e.mu.Unlock()

	log.Printf("Engine: panel returned before release")
	e.dispatcher.Broadcast(Event{Type: EventPanelReturned})
	if s != nil {
		s.Schedule()
	}
}

// confirmAbsence fires when the debounce window closes. Presence is
// verified live one last time: a timer that lost the race against a
// reappearing panel downgrades to a plain reapply request.
func (e *Engine) confirmAbsence() {
	e.mu.Lock()
	e.absenceTimer = nil
	if !e.started {
		e.mu.Unlock()
		return
	}
	if e.host.ElementByMark(e.opts.PanelMark) != nil {
		s := e.sched
		e.mu.Unlock()
		if s != nil {
			s.Schedule()
		}
		return
	}

	releaseUpperSizing(e.host.ElementByMark(e.opts.UpperMark))
	e.absenceReleases++
	e.mu.Unlock()

	log.Printf("Engine: panel absence confirmed, upper sizing released")
	e.dispatcher.Broadcast(Event{Type: EventPanelAbsent})
}
