// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: hosttree/tree.go
// Summary: An in-process host tree with asynchronous mutation delivery.
// Usage: Backs the demo and simulator; implements dock.Host end to end.

package hosttree

import (
	"sort"
	"sync"
	"time"

	"github.com/framegrace/dockpin/dock"
)

// Tree simulates the externally-owned visual tree the engine reconciles
// against. Mutations are recorded as they happen and delivered in batches
// from a pump goroutine, after the fact, exactly the asynchronous contract
// real observers give. Frames queue until Step runs them, or a frame loop
// drives Step on an interval.
type Tree struct {
	mu     sync.Mutex
	root   *Node
	width  float64
	height float64

	mutSubs    map[int]func([]dock.Mutation)
	resizeSubs map[int]func()
	subSeq     int

	pointerSubs map[string]pointerSub
	captured    *Node

	frames   map[int]func()
	frameSeq int

	records []dock.Mutation

	kickCh  chan struct{}
	flushCh chan chan struct{}
	quit    chan struct{}
	once    sync.Once

	frameStop chan struct{}
}

type pointerSub struct {
	node *Node
	fn   func(dock.PointerEvent)
}

var _ dock.Host = (*Tree)(nil)

// New builds a tree with an empty root spanning the given viewport and
// starts the delivery pump.
func New(width, height float64) *Tree {
	t := &Tree{
		width:       width,
		height:      height,
		mutSubs:     make(map[int]func([]dock.Mutation)),
		resizeSubs:  make(map[int]func()),
		pointerSubs: make(map[string]pointerSub),
		frames:      make(map[int]func()),
		kickCh:      make(chan struct{}, 1),
		flushCh:     make(chan chan struct{}),
		quit:        make(chan struct{}),
	}
	t.root = newNode(t, "body")
	t.relayoutLocked()
	go t.pump()
	return t
}

// Close stops the delivery pump and any running frame loop. Pending records
// are dropped.
func (t *Tree) Close() {
	t.once.Do(func() {
		t.StopFrames()
		close(t.quit)
	})
}

// Root returns the tree's root node.
func (t *Tree) Root() *Node { return t.root }

// Viewport returns the current viewport size.
func (t *Tree) Viewport() (w, h float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.width, t.height
}

// SetViewport resizes the viewport, relayouts and notifies resize
// subscribers.
func (t *Tree) SetViewport(w, h float64) {
	t.mu.Lock()
	t.width, t.height = w, h
	t.relayoutLocked()
	subs := make([]func(), 0, len(t.resizeSubs))
	for _, fn := range t.resizeSubs {
		subs = append(subs, fn)
	}
	t.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// ElementByMark finds the first marked node in document order, including
// the root.
func (t *Tree) ElementByMark(mark string) dock.Element {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.root.marks[mark] {
		return t.root
	}
	if found := t.root.findByMarkLocked(mark); found != nil {
		return found
	}
	return nil
}

// CreateElement builds a detached node owned by this tree.
func (t *Tree) CreateElement(kind string) dock.Element {
	return newNode(t, kind)
}

// NewNode is CreateElement without the interface wrapper, for scene code
// that wants the concrete type.
func (t *Tree) NewNode(kind string) *Node {
	return newNode(t, kind)
}

func (t *Tree) SubscribeMutations(fn func([]dock.Mutation)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subSeq++
	id := t.subSeq
	t.mutSubs[id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.mutSubs, id)
	}
}

func (t *Tree) SubscribeResize(fn func()) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subSeq++
	id := t.subSeq
	t.resizeSubs[id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.resizeSubs, id)
	}
}

// SubscribePointer registers a capture-style pointer handler for the target
// node. A later subscription for the same node replaces the earlier one.
func (t *Tree) SubscribePointer(target dock.Element, fn func(dock.PointerEvent)) func() {
	node := target.(*Node)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pointerSubs[node.id] = pointerSub{node: node, fn: fn}
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.pointerSubs, node.id)
		if t.captured == node {
			t.captured = nil
		}
	}
}

// RequestFrame queues a callback for the next Step.
func (t *Tree) RequestFrame(fn func()) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frameSeq++
	id := t.frameSeq
	t.frames[id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.frames, id)
	}
}

// Step runs every queued frame callback once, in request order.
func (t *Tree) Step() {
	t.mu.Lock()
	ids := make([]int, 0, len(t.frames))
	for id := range t.frames {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	pending := make([]func(), 0, len(ids))
	for _, id := range ids {
		pending = append(pending, t.frames[id])
		delete(t.frames, id)
	}
	t.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

// PendingFrames reports how many frame callbacks are queued.
func (t *Tree) PendingFrames() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.frames)
}

// StartFrames drives Step on the given interval until StopFrames or Close.
func (t *Tree) StartFrames(interval time.Duration) {
	t.mu.Lock()
	if t.frameStop != nil {
		t.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	t.frameStop = stop
	t.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				t.Step()
			}
		}
	}()
}

// StopFrames halts a running frame loop.
func (t *Tree) StopFrames() {
	t.mu.Lock()
	stop := t.frameStop
	t.frameStop = nil
	t.mu.Unlock()
	if stop != nil {
		close(stop)
	}
}

// recordLocked appends one mutation record to the pending batch.
func (t *Tree) recordLocked(m dock.Mutation) {
	t.records = append(t.records, m)
}

// kick wakes the pump without blocking; a wake already pending is enough.
func (t *Tree) kick() {
	select {
	case t.kickCh <- struct{}{}:
	default:
	}
}

// Flush blocks until every record produced so far has been delivered.
func (t *Tree) Flush() {
	done := make(chan struct{})
	select {
	case t.flushCh <- done:
		<-done
	case <-t.quit:
	}
}

// pump delivers batched records from its own goroutine. Observers see the
// tree only after the mutations already happened, so everything they learn
// is potentially stale; that asymmetry is the whole point.
func (t *Tree) pump() {
	for {
		select {
		case <-t.quit:
			return
		case <-t.kickCh:
			t.deliverPending()
		case done := <-t.flushCh:
			t.deliverPending()
			close(done)
		}
	}
}

func (t *Tree) deliverPending() {
	t.mu.Lock()
	batch := t.records
	t.records = nil
	subs := make([]func([]dock.Mutation), 0, len(t.mutSubs))
	for _, fn := range t.mutSubs {
		subs = append(subs, fn)
	}
	t.mu.Unlock()
	if len(batch) == 0 {
		return
	}
	for _, fn := range subs {
		fn(batch)
	}
}

// Pointer injects one pointer sample. A press is routed to the deepest
// subscribed node under the point and captures the pointer; every later
// sample goes to the capture owner until release.
func (t *Tree) Pointer(phase dock.PointerPhase, x, y float64) bool {
	ev := dock.PointerEvent{Phase: phase, X: x, Y: y}

	t.mu.Lock()
	var target pointerSub
	var ok bool
	switch phase {
	case dock.PointerDown:
		if node := t.hitTestLocked(x, y); node != nil {
			target, ok = t.pointerSubs[node.id], true
			t.captured = node
		}
	default:
		if t.captured != nil {
			target, ok = t.pointerSubs[t.captured.id]
		}
		if phase == dock.PointerUp {
			t.captured = nil
		}
	}
	t.mu.Unlock()

	if !ok || target.fn == nil {
		return false
	}
	target.fn(ev)
	return true
}

// hitTestLocked returns the last subscribed node in document order whose
// rectangle contains the point. Document order approximates paint order
// closely enough for a simulated tree; nodes later in the walk sit on top.
func (t *Tree) hitTestLocked(x, y float64) *Node {
	var hit *Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if _, subscribed := t.pointerSubs[n.id]; subscribed && n.bounds.Contains(x, y) {
			hit = n
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(t.root)
	return hit
}
