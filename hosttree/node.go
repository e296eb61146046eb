// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: hosttree/node.go
// Summary: A node of the simulated host tree.
// Usage: Created through Tree.CreateElement or the scene builder; always owned by one Tree.

package hosttree

import (
	"github.com/google/uuid"

	"github.com/framegrace/dockpin/dock"
)

// Node is one element of a simulated host tree. Every mutating method
// records what it did, relayouts the tree and wakes the delivery pump, the
// same observable sequence a document would produce. All state is guarded
// by the owning Tree's lock.
type Node struct {
	tree *Tree
	id   string
	kind string

	parent   *Node
	children []*Node

	marks  map[string]bool
	styles map[string]string
	text   string

	// intrinsicHeight is the flow height used when no height style is set
	// and the node has no children to derive one from.
	intrinsicHeight float64

	bounds dock.Rect
}

var _ dock.Element = (*Node)(nil)

func newNode(t *Tree, kind string) *Node {
	return &Node{
		tree:   t,
		id:     uuid.NewString(),
		kind:   kind,
		marks:  make(map[string]bool),
		styles: make(map[string]string),
	}
}

func (n *Node) ID() string { return n.id }

// Kind returns the element kind the node was created with.
func (n *Node) Kind() string { return n.kind }

// Alive reports whether the node is still attached under the tree root.
func (n *Node) Alive() bool {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	return n.attachedLocked()
}

func (n *Node) attachedLocked() bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur == n.tree.root {
			return true
		}
	}
	return false
}

func (n *Node) Parent() dock.Element {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *Node) NextSibling() dock.Element {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	if n.parent == nil {
		return nil
	}
	sibs := n.parent.children
	for i, c := range sibs {
		if c == n && i+1 < len(sibs) {
			return sibs[i+1]
		}
	}
	return nil
}

func (n *Node) FirstChild() dock.Element {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	if len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

func (n *Node) ChildCount() int {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	return len(n.children)
}

// Bounds returns the node's viewport rectangle from the latest relayout.
// Detached nodes keep their last rectangle.
func (n *Node) Bounds() dock.Rect {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	return n.bounds
}

func (n *Node) Style(name string) string {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	return n.styles[name]
}

// SetStyle writes one inline property. Writing the value already present
// is dropped without a record; nothing observable changed.
func (n *Node) SetStyle(name, value string) {
	n.tree.mu.Lock()
	if n.styles[name] == value {
		n.tree.mu.Unlock()
		return
	}
	n.styles[name] = value
	n.tree.relayoutLocked()
	n.tree.recordLocked(dock.Mutation{Kind: dock.MutationAttr, Target: n, Attr: "style"})
	n.tree.mu.Unlock()
	n.tree.kick()
}

func (n *Node) RemoveStyle(name string) {
	n.tree.mu.Lock()
	if _, ok := n.styles[name]; !ok {
		n.tree.mu.Unlock()
		return
	}
	delete(n.styles, name)
	n.tree.relayoutLocked()
	n.tree.recordLocked(dock.Mutation{Kind: dock.MutationAttr, Target: n, Attr: "style"})
	n.tree.mu.Unlock()
	n.tree.kick()
}

func (n *Node) HasMark(mark string) bool {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	return n.marks[mark]
}

func (n *Node) AddMark(mark string) {
	n.tree.mu.Lock()
	if n.marks[mark] {
		n.tree.mu.Unlock()
		return
	}
	n.marks[mark] = true
	n.tree.recordLocked(dock.Mutation{Kind: dock.MutationAttr, Target: n, Attr: "class"})
	n.tree.mu.Unlock()
	n.tree.kick()
}

func (n *Node) RemoveMark(mark string) {
	n.tree.mu.Lock()
	if !n.marks[mark] {
		n.tree.mu.Unlock()
		return
	}
	delete(n.marks, mark)
	n.tree.recordLocked(dock.Mutation{Kind: dock.MutationAttr, Target: n, Attr: "class"})
	n.tree.mu.Unlock()
	n.tree.kick()
}

// FindByMark searches the node's subtree, excluding the node itself.
func (n *Node) FindByMark(mark string) dock.Element {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	if found := n.findByMarkLocked(mark); found != nil {
		return found
	}
	return nil
}

func (n *Node) findByMarkLocked(mark string) *Node {
	for _, c := range n.children {
		if c.marks[mark] {
			return c
		}
		if found := c.findByMarkLocked(mark); found != nil {
			return found
		}
	}
	return nil
}

// AppendChild moves the child to the end of this node's children, detaching
// it from any previous parent first. A move out of another parent records
// the removal there as well, the way a document reports both sides.
func (n *Node) AppendChild(child dock.Element) {
	c := child.(*Node)
	n.tree.mu.Lock()
	old := c.parent
	c.detachLocked()
	c.parent = n
	n.children = append(n.children, c)
	n.tree.relayoutLocked()
	if old != nil && old != n {
		n.tree.recordLocked(dock.Mutation{Kind: dock.MutationChildren, Target: old, Removed: []dock.Element{c}})
	}
	n.tree.recordLocked(dock.Mutation{Kind: dock.MutationChildren, Target: n, Added: []dock.Element{c}})
	n.tree.mu.Unlock()
	n.tree.kick()
}

// InsertFirst moves the child to the head of this node's children.
func (n *Node) InsertFirst(child dock.Element) {
	c := child.(*Node)
	n.tree.mu.Lock()
	old := c.parent
	c.detachLocked()
	c.parent = n
	n.children = append([]*Node{c}, n.children...)
	n.tree.relayoutLocked()
	if old != nil && old != n {
		n.tree.recordLocked(dock.Mutation{Kind: dock.MutationChildren, Target: old, Removed: []dock.Element{c}})
	}
	n.tree.recordLocked(dock.Mutation{Kind: dock.MutationChildren, Target: n, Added: []dock.Element{c}})
	n.tree.mu.Unlock()
	n.tree.kick()
}

// Remove detaches the node from its parent. Detaching an orphan is a no-op.
func (n *Node) Remove() {
	n.tree.mu.Lock()
	parent := n.parent
	if parent == nil {
		n.tree.mu.Unlock()
		return
	}
	n.detachLocked()
	n.tree.relayoutLocked()
	n.tree.recordLocked(dock.Mutation{Kind: dock.MutationChildren, Target: parent, Removed: []dock.Element{n}})
	n.tree.mu.Unlock()
	n.tree.kick()
}

func (n *Node) detachLocked() {
	if n.parent == nil {
		return
	}
	sibs := n.parent.children
	for i, c := range sibs {
		if c == n {
			n.parent.children = append(sibs[:i], sibs[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// Text returns the node's display text.
func (n *Node) Text() string {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	return n.text
}

// SetText replaces the node's display text.
func (n *Node) SetText(text string) {
	n.tree.mu.Lock()
	if n.text == text {
		n.tree.mu.Unlock()
		return
	}
	n.text = text
	n.tree.recordLocked(dock.Mutation{Kind: dock.MutationAttr, Target: n, Attr: "text"})
	n.tree.mu.Unlock()
	n.tree.kick()
}

// SetIntrinsicHeight sets the flow height used when no height style is set.
func (n *Node) SetIntrinsicHeight(h float64) {
	n.tree.mu.Lock()
	n.intrinsicHeight = h
	n.tree.relayoutLocked()
	n.tree.mu.Unlock()
}
