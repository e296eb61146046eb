// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: dock/scheduler.go
// Summary: Coalesces reapply requests into one frame-aligned execution.
// Usage: Every trigger source funnels through this before touching the tree.

package dock

import (
	"sync"
	"time"
)

// reapplyScheduler collapses bursts of reapply requests into at most one
// execution per host frame, with a cooldown window that folds further
// requests into a single trailing execution.
//
// Invariant: at most one requested frame and one cooldown timer exist at any
// time. A request arriving while throttling never schedules a second frame,
// it only raises the pending flag.
type reapplyScheduler struct {
	host     Host
	cooldown time.Duration
	run      func()

	mu            sync.Mutex
	throttling    bool
	pending       bool
	frameCancel   func()
	cooldownTimer *time.Timer
	stopped       bool

	requested uint64
	coalesced uint64
	executed  uint64
}

func newReapplyScheduler(host Host, cooldown time.Duration, run func()) *reapplyScheduler {
	return &reapplyScheduler{host: host, cooldown: cooldown, run: run}
}

// Schedule requests one reconciliation pass. Bursts inside a cooldown window
// collapse into the current execution plus at most one trailing execution
// once the window closes.
func (s *reapplyScheduler) Schedule() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.requested++
	if s.throttling {
		s.pending = true
		s.coalesced++
		s.mu.Unlock()
		return
	}
	s.throttling = true
	s.armFrameLocked()
	s.cooldownTimer = time.AfterFunc(s.cooldown, s.cooldownExpired)
	s.mu.Unlock()
}

// ScheduleNextFrame requests a pass on the very next frame, skipping the
// cooldown gate. Drag moves use this so continuous updates track the pointer
// at frame rate; requests landing on an already-armed frame still coalesce.
func (s *reapplyScheduler) ScheduleNextFrame() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.requested++
	if s.frameCancel != nil {
		s.coalesced++
		s.mu.Unlock()
		return
	}
	s.armFrameLocked()
	s.mu.Unlock()
}

// armFrameLocked requests a host frame unless one is already in flight.
func (s *reapplyScheduler) armFrameLocked() {
	if s.frameCancel != nil {
		return
	}
	s.frameCancel = s.host.RequestFrame(s.fire)
}

func (s *reapplyScheduler) fire() {
	s.mu.Lock()
	s.frameCancel = nil
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.executed++
	run := s.run
	s.mu.Unlock()

	run()
}

func (s *reapplyScheduler) cooldownExpired() {
	s.mu.Lock()
	s.cooldownTimer = nil
	s.throttling = false
	if s.stopped || !s.pending {
		s.mu.Unlock()
		return
	}
	s.pending = false
	s.mu.Unlock()

	// Trailing execution: restart a fresh cycle so the latest state wins.
	s.Schedule()
}

// Stop cancels the in-flight frame and cooldown timer. Safe to call twice.
func (s *reapplyScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.throttling = false
	s.pending = false
	if s.frameCancel != nil {
		s.frameCancel()
		s.frameCancel = nil
	}
	if s.cooldownTimer != nil {
		s.cooldownTimer.Stop()
		s.cooldownTimer = nil
	}
}

// counters returns how many requests arrived, how many were folded into an
// existing cycle, and how many passes actually ran.
func (s *reapplyScheduler) counters() (requested, coalesced, executed uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requested, s.coalesced, s.executed
}
