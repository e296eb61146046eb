// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: dock/surface.go
// Summary: Owns the toggle control and drag handle and their placement.
// Usage: Third stage of every reconciliation pass, after styling.

package dock

// Marks the engine stamps onto its own nodes so hosts, renderers and tests
// can recognise them.
const (
	ToggleWrapMark = "dockpin-toggle"
	HandleMark     = "dockpin-handle"
	// DockedStateMark sits on the toggle wrapper only while docked.
	DockedStateMark = "dockpin-docked"
)

// ensureControlsLocked lazily creates the two control nodes and their
// pointer subscriptions. Created once, retained for the engine's lifetime;
// only their attachment point and styling change with mode. Re-subscribes
// after a teardown released the previous subscriptions.
func (e *Engine) ensureControlsLocked() {
	if e.toggleWrap == nil {
		wrap := e.host.CreateElement("div")
		wrap.AddMark(ToggleWrapMark)
		button := e.host.CreateElement("button")
		button.SetStyle("height", formatPx(e.opts.ControlHeight))
		wrap.AppendChild(button)
		e.toggleWrap = wrap
		e.toggleButton = button
	}
	if e.handle == nil {
		handle := e.host.CreateElement("div")
		handle.AddMark(HandleMark)
		handle.SetStyle("height", formatPx(e.opts.ControlHeight))
		handle.SetStyle("cursor", "ns-resize")
		indicator := e.host.CreateElement("span")
		handle.AppendChild(indicator)
		e.handle = handle
		e.indicator = indicator
	}
	if e.toggleCancel == nil {
		e.toggleCancel = e.host.SubscribePointer(e.toggleButton, e.onTogglePointer)
	}
	if e.handleCancel == nil {
		e.handleCancel = e.host.SubscribePointer(e.handle, e.onHandlePointer)
	}
}

// placeControlsDocked parents both controls into the panel, handle first.
// Re-parenting is skipped when a node is already where it belongs, so a
// settled pass moves nothing.
func (e *Engine) placeControlsDocked(t targetSet) {
	e.ensureControlsLocked()

	if !sameElement(e.handle.Parent(), t.panel) {
		t.panel.InsertFirst(e.handle)
	}
	if !sameElement(e.toggleWrap.Parent(), t.panel) {
		t.panel.AppendChild(e.toggleWrap)
	}
	setStyleIfChanged(e.handle, "display", "flex")
	setStyleIfChanged(e.toggleWrap, "display", "flex")
	if !e.toggleWrap.HasMark(DockedStateMark) {
		e.toggleWrap.AddMark(DockedStateMark)
	}
}

// placeControlsOriginal detaches the handle entirely and moves the toggle to
// the head of the content node, or detaches it too when content is not
// resolvable right now.
func (e *Engine) placeControlsOriginal(t targetSet) {
	e.ensureControlsLocked()

	setStyleIfChanged(e.handle, "display", "none")
	e.handle.Remove()

	if t.content != nil {
		if !sameElement(e.toggleWrap.Parent(), t.content) {
			t.content.InsertFirst(e.toggleWrap)
		}
		setStyleIfChanged(e.toggleWrap, "display", "flex")
	} else {
		e.toggleWrap.Remove()
	}
	if e.toggleWrap.HasMark(DockedStateMark) {
		e.toggleWrap.RemoveMark(DockedStateMark)
	}
}

// onTogglePointer flips the mode when the click completes on the button.
func (e *Engine) onTogglePointer(ev PointerEvent) {
	if ev.Phase != PointerUp {
		return
	}
	e.Toggle()
}

// controlIDsLocked lists the identities of the engine-owned nodes whose
// style changes are layout-relevant.
func (e *Engine) controlIDsLocked() []string {
	ids := make([]string, 0, 3)
	if e.toggleWrap != nil {
		ids = append(ids, e.toggleWrap.ID())
	}
	if e.toggleButton != nil {
		ids = append(ids, e.toggleButton.ID())
	}
	if e.handle != nil {
		ids = append(ids, e.handle.ID())
	}
	return ids
}

func sameElement(a, b Element) bool {
	if a == nil || b == nil {
		return false
	}
	return a.ID() == b.ID()
}
