package dock

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeElement is an in-memory stand-in for a host node. Bounds are set by
// the test, either as a fixed rect or through boundsFn when geometry has to
// react to style writes.
type fakeElement struct {
	host     *fakeHost
	id       string
	kind     string
	marks    map[string]bool
	styles   map[string]string
	parent   *fakeElement
	children []*fakeElement

	bounds   Rect
	boundsFn func() Rect

	writes int
}

func (e *fakeElement) ID() string { return e.id }

func (e *fakeElement) Alive() bool {
	for n := e; n != nil; n = n.parent {
		if n == e.host.root {
			return true
		}
	}
	return false
}

func (e *fakeElement) Parent() Element {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

func (e *fakeElement) NextSibling() Element {
	if e.parent == nil {
		return nil
	}
	for i, c := range e.parent.children {
		if c == e && i+1 < len(e.parent.children) {
			return e.parent.children[i+1]
		}
	}
	return nil
}

func (e *fakeElement) FirstChild() Element {
	if len(e.children) == 0 {
		return nil
	}
	return e.children[0]
}

func (e *fakeElement) ChildCount() int { return len(e.children) }

func (e *fakeElement) Bounds() Rect {
	if e.boundsFn != nil {
		return e.boundsFn()
	}
	return e.bounds
}

func (e *fakeElement) Style(name string) string { return e.styles[name] }

func (e *fakeElement) SetStyle(name, value string) {
	e.writes++
	e.styles[name] = value
}

func (e *fakeElement) RemoveStyle(name string) { delete(e.styles, name) }

func (e *fakeElement) HasMark(mark string) bool { return e.marks[mark] }

func (e *fakeElement) AddMark(mark string) { e.marks[mark] = true }

func (e *fakeElement) RemoveMark(mark string) { delete(e.marks, mark) }

func (e *fakeElement) FindByMark(mark string) Element {
	for _, c := range e.children {
		if c.marks[mark] {
			return c
		}
		if found := c.FindByMark(mark); found != nil {
			return found
		}
	}
	return nil
}

func (e *fakeElement) AppendChild(child Element) {
	c := child.(*fakeElement)
	c.detach()
	c.parent = e
	e.children = append(e.children, c)
}

func (e *fakeElement) InsertFirst(child Element) {
	c := child.(*fakeElement)
	c.detach()
	c.parent = e
	e.children = append([]*fakeElement{c}, e.children...)
}

func (e *fakeElement) Remove() { e.detach() }

func (e *fakeElement) detach() {
	if e.parent == nil {
		return
	}
	siblings := e.parent.children
	for i, c := range siblings {
		if c == e {
			e.parent.children = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	e.parent = nil
}

func (e *fakeElement) styleSnapshot() map[string]string {
	snap := make(map[string]string, len(e.styles))
	for k, v := range e.styles {
		snap[k] = v
	}
	return snap
}

// fakeHost implements Host with manual control over frames, mutation
// delivery, resize and pointer events. Subscription and frame state is
// mutex-guarded because scheduler timers arm frames from their own
// goroutines; elements themselves are only touched from the test goroutine
// or under the engine's lock.
type fakeHost struct {
	root *fakeElement
	seq  int

	mu         sync.Mutex
	mutSubs    map[int]func([]Mutation)
	resizeSubs map[int]func()
	pointerFns map[*fakeElement]func(PointerEvent)
	subSeq     int

	frames        map[int]func()
	frameSeq      int
	frameRequests int
}

func newFakeHost() *fakeHost {
	h := &fakeHost{
		mutSubs:    make(map[int]func([]Mutation)),
		resizeSubs: make(map[int]func()),
		pointerFns: make(map[*fakeElement]func(PointerEvent)),
		frames:     make(map[int]func()),
	}
	h.root = h.newElement("body")
	return h
}

func (h *fakeHost) newElement(kind string) *fakeElement {
	h.seq++
	return &fakeElement{
		host:   h,
		id:     fmt.Sprintf("%s-%d", kind, h.seq),
		kind:   kind,
		marks:  make(map[string]bool),
		styles: make(map[string]string),
	}
}

func (h *fakeHost) ElementByMark(mark string) Element {
	if h.root.marks[mark] {
		return h.root
	}
	return h.root.FindByMark(mark)
}

func (h *fakeHost) CreateElement(kind string) Element { return h.newElement(kind) }

func (h *fakeHost) SubscribeMutations(fn func([]Mutation)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subSeq++
	id := h.subSeq
	h.mutSubs[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.mutSubs, id)
	}
}

func (h *fakeHost) SubscribeResize(fn func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subSeq++
	id := h.subSeq
	h.resizeSubs[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.resizeSubs, id)
	}
}

func (h *fakeHost) SubscribePointer(target Element, fn func(PointerEvent)) func() {
	el := target.(*fakeElement)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pointerFns[el] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.pointerFns, el)
	}
}

func (h *fakeHost) RequestFrame(fn func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frameSeq++
	h.frameRequests++
	id := h.frameSeq
	h.frames[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.frames, id)
	}
}

// stepFrames runs every currently queued frame callback once.
func (h *fakeHost) stepFrames() {
	h.mu.Lock()
	pending := make([]func(), 0, len(h.frames))
	for id, fn := range h.frames {
		pending = append(pending, fn)
		delete(h.frames, id)
	}
	h.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

func (h *fakeHost) pendingFrames() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.frames)
}

// deliver hands a mutation batch to every observer, the way a host flushes
// its record queue after the fact.
func (h *fakeHost) deliver(batch []Mutation) {
	h.mu.Lock()
	subs := make([]func([]Mutation), 0, len(h.mutSubs))
	for _, fn := range h.mutSubs {
		subs = append(subs, fn)
	}
	h.mu.Unlock()
	for _, fn := range subs {
		fn(batch)
	}
}

func (h *fakeHost) fireResize() {
	h.mu.Lock()
	subs := make([]func(), 0, len(h.resizeSubs))
	for _, fn := range h.resizeSubs {
		subs = append(subs, fn)
	}
	h.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

func (h *fakeHost) pointer(target Element, ev PointerEvent) bool {
	h.mu.Lock()
	fn, ok := h.pointerFns[target.(*fakeElement)]
	h.mu.Unlock()
	if !ok {
		return false
	}
	fn(ev)
	return true
}

func (h *fakeHost) resizeSubCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.resizeSubs)
}

func (h *fakeHost) mutationSubCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.mutSubs)
}

// scene builds the canonical host layout the engine targets: an upper
// region whose next sibling is the boundary marker, and a panel holding the
// content node. The upper region's rectangle tracks its own height style so
// the two-pass anchor math sees realistic live geometry.
type scene struct {
	host     *fakeHost
	panel    *fakeElement
	upper    *fakeElement
	boundary *fakeElement
	content  *fakeElement
}

func newScene(h *fakeHost) *scene {
	sc := &scene{host: h}

	sc.upper = h.newElement("aside")
	sc.upper.AddMark(DefaultUpperMark)
	sc.upper.boundsFn = func() Rect {
		r := Rect{Top: 0, Left: 0, Width: 400, Height: 600}
		if v, ok := parsePx(sc.upper.styles["height"]); ok {
			r.Height = v
		}
		return r
	}

	sc.boundary = h.newElement("section")
	sc.boundary.bounds = Rect{Top: 600, Left: 0, Width: 400, Height: 80}

	sc.panel = h.newElement("div")
	sc.panel.AddMark(DefaultPanelMark)
	sc.content = h.newElement("div")
	sc.content.AddMark(DefaultContentMark)
	sc.panel.AppendChild(sc.content)

	h.root.AppendChild(sc.upper)
	h.root.AppendChild(sc.boundary)
	h.root.AppendChild(sc.panel)
	return sc
}

// reattachPanel puts a removed panel back at the end of the body.
func (sc *scene) reattachPanel() {
	sc.host.root.AppendChild(sc.panel)
}

// testOptions keeps the cooldown short and pushes the audit far away so
// tests drive audits explicitly.
func testOptions() Options {
	return Options{
		Cooldown:      20 * time.Millisecond,
		AuditInterval: time.Hour,
		AbsenceDelay:  30 * time.Millisecond,
	}
}

// recordingListener captures broadcast events for assertions.
type recordingListener struct {
	mu     sync.Mutex
	events []Event
}

func (l *recordingListener) OnEvent(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *recordingListener) count(t EventType) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ev := range l.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func (l *recordingListener) last(t EventType) (Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].Type == t {
			return l.events[i], true
		}
	}
	return Event{}, false
}

// startDocked boots an engine over the scene already in docked mode and
// settles the first pass.
func startDocked(t *testing.T, sc *scene, store *memStore) *Engine {
	t.Helper()
	if store == nil {
		store = newMemStore()
	}
	if err := saveMode(store, ModeDocked); err != nil {
		t.Fatalf("saveMode: %v", err)
	}
	e, err := New(sc.host, store, testOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.Start()
	if e.Mode() != ModeDocked {
		t.Fatalf("expected docked mode after start, got %v", e.Mode())
	}
	return e
}

// memStore is an in-memory Storage with optional injected failures.
type memStore struct {
	data    map[string]json.RawMessage
	setErr  error
	getErr  error
	setKeys []string
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]json.RawMessage)}
}

func (s *memStore) Get(key string) (json.RawMessage, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.data[key], nil
}

func (s *memStore) Set(key string, value interface{}) error {
	if s.setErr != nil {
		return s.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.data[key] = raw
	s.setKeys = append(s.setKeys, key)
	return nil
}
