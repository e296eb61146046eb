// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: dock/detector.go
// Summary: Classifies host mutation batches and re-verifies panel presence.
// Usage: Subscribed to the host for the whole time the engine runs.

package dock

// onMutations consumes one asynchronous mutation batch. Classification and
// presence verification are two independent consumers of the same batch:
// classification decides whether a reapply is worth scheduling, while
// presence is re-checked by direct query regardless of what the records
// claim, because the panel can vanish without a removal record naming it
// (an ancestor was removed instead).
func (e *Engine) onMutations(batch []Mutation) {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	t := e.resolveTargets()
	watch := make(map[string]bool, 5)
	if t.panel != nil {
		watch[t.panel.ID()] = true
	}
	if t.upper != nil {
		watch[t.upper.ID()] = true
	}
	for _, id := range e.controlIDsLocked() {
		watch[id] = true
	}
	s := e.sched
	e.mu.Unlock()

	if classifyBatch(batch, watch) && s != nil {
		s.Schedule()
	}

	if e.host.ElementByMark(e.opts.PanelMark) != nil {
		e.panelPresent()
	} else {
		e.panelAbsent()
	}
}

// classifyBatch reports whether any record in the batch is layout-relevant:
// a style change on a watched node, or any structural change anywhere.
// Structural changes are conservatively assumed layout-relevant.
func classifyBatch(batch []Mutation, watch map[string]bool) bool {
	for _, m := range batch {
		switch m.Kind {
		case MutationChildren:
			return true
		case MutationAttr:
			if m.Attr != "style" {
				continue
			}
			if m.Target != nil && watch[m.Target.ID()] {
				return true
			}
		}
	}
	return false
}
