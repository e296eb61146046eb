// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: dock/host.go
// Summary: Interfaces the reconciliation engine consumes from the host tree.
// Usage: Implemented by hosttree for tests and demos, or by adapters over a real page.

package dock

import "encoding/json"

// Rect is a bounding rectangle in viewport pixels.
type Rect struct {
	Top    float64
	Left   float64
	Width  float64
	Height float64
}

// Bottom returns the lower edge of the rectangle.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x < r.Left+r.Width && y >= r.Top && y < r.Bottom()
}

// Element is a single node of the host tree. It mirrors the subset of node
// behaviour the engine requires so the same engine can drive an in-memory
// tree, a test fake, or an adapter over a real document.
//
// Lookups anywhere in the engine may return nil: absence of a target node is
// a first-class state, never an error. Style reads return "" when the
// property has no inline value.
type Element interface {
	ID() string
	Alive() bool
	Parent() Element
	NextSibling() Element
	FirstChild() Element
	ChildCount() int
	Bounds() Rect
	Style(name string) string
	SetStyle(name, value string)
	RemoveStyle(name string)
	HasMark(mark string) bool
	AddMark(mark string)
	RemoveMark(mark string)
	FindByMark(mark string) Element
	AppendChild(child Element)
	InsertFirst(child Element)
	Remove()
}

// MutationKind classifies a single observed change to the host tree.
type MutationKind int

const (
	// MutationChildren reports nodes added to or removed from a parent.
	MutationChildren MutationKind = iota
	// MutationAttr reports an attribute change on a node.
	MutationAttr
)

// Mutation is one record of an observed host-tree change. Records are
// delivered in batches, asynchronously, after the change already happened;
// consumers must re-verify any state they care about by direct query.
type Mutation struct {
	Kind    MutationKind
	Target  Element
	Attr    string
	Added   []Element
	Removed []Element
}

// PointerPhase distinguishes the stages of a pointer interaction.
type PointerPhase int

const (
	PointerDown PointerPhase = iota
	PointerMove
	PointerUp
)

// PointerEvent is a pointer sample in viewport pixels.
type PointerEvent struct {
	Phase PointerPhase
	X     float64
	Y     float64
}

// Host is the external tree the engine reconciles against. All subscription
// methods return a cancel function; cancelling twice is safe.
//
// SubscribePointer uses capture semantics: the callback receives PointerDown
// when the press lands on the target element, then every PointerMove and the
// final PointerUp anywhere in the viewport until release.
type Host interface {
	ElementByMark(mark string) Element
	CreateElement(kind string) Element
	SubscribeMutations(fn func(batch []Mutation)) (cancel func())
	SubscribeResize(fn func()) (cancel func())
	SubscribePointer(target Element, fn func(ev PointerEvent)) (cancel func())
	RequestFrame(fn func()) (cancel func())
}

// Storage persists engine settings across restarts. Get returns (nil, nil)
// when the key has never been written. Implementations are expected to be
// scoped to this engine already, so keys are flat.
type Storage interface {
	Get(key string) (json.RawMessage, error)
	Set(key string, value interface{}) error
}
