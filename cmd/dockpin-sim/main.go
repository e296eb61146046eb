package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/framegrace/dockpin/dock"
	"github.com/framegrace/dockpin/hosttree"
	"github.com/framegrace/dockpin/storage"
)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "total duration of the churn run")
	seed := flag.Int64("seed", 1, "seed for the churn schedule")
	width := flag.Float64("width", 800, "viewport width in pixels")
	height := flag.Float64("height", 600, "viewport height in pixels")
	churnInterval := flag.Duration("churn", 25*time.Millisecond, "interval between churn ticks")
	frameInterval := flag.Duration("frame", 16*time.Millisecond, "interval between host frames")
	storePath := flag.String("store", "", "SQLite settings path (in-memory store when empty)")
	plugin := flag.String("plugin", "dockpin-sim", "settings scope for this run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	store, closeStore, err := openStore(*storePath, *plugin)
	if err != nil {
		log.Fatalf("open settings store: %v", err)
	}
	defer closeStore()

	tree := hosttree.New(*width, *height)
	scene := hosttree.BuildScene(tree)

	eng, err := dock.New(tree, store, dock.Options{})
	if err != nil {
		log.Fatalf("engine init failed: %v", err)
	}

	counter := newEventCounter(log.Default())
	eng.Events().Subscribe(counter)

	eng.Start()
	tree.StartFrames(*frameInterval)

	churn := &churner{
		tree:  tree,
		scene: scene,
		eng:   eng,
		rng:   rand.New(rand.NewSource(*seed)),
	}
	interactive := term.IsTerminal(int(os.Stdout.Fd()))

	ticker := time.NewTicker(*churnInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			tree.StopFrames()
			tree.Flush()
			if err := eng.Stop(); err != nil {
				log.Printf("engine stop: %v", err)
			}
			tree.Close()
			if interactive {
				fmt.Print("\r")
			}
			printSummary(churn, eng.Stats())
			counter.report()
			fmt.Println("churn run complete")
			return
		case <-ticker.C:
			churn.tick()
			if interactive && churn.ticks%40 == 0 {
				fmt.Printf("\rtick %d ", churn.ticks)
			}
		}
	}
}

func openStore(path, plugin string) (dock.Storage, func(), error) {
	if path == "" {
		return storage.NewMemory(), func() {}, nil
	}
	db, err := storage.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return db.Scope(plugin), func() { _ = db.Close() }, nil
}

// churner runs one random host-side disturbance per tick. It stands in for
// everything a real host does underneath the engine: reflows, style
// clobbering, node churn and user input.
type churner struct {
	tree  *hosttree.Tree
	scene *hosttree.Scene
	eng   *dock.Engine
	rng   *rand.Rand

	litter      []*hosttree.Node
	reattach    func()
	ticks       int
	detachedFor int
	tamperCount int
	detachCount int
	resizeCount int
	dragCount   int
	toggleCount int
	litterCount int
}

func (c *churner) tick() {
	c.ticks++
	// A detached panel comes back after a couple of ticks so both the
	// debounce window and the release path get exercised.
	if c.detachedFor > 0 {
		c.detachedFor++
		if c.detachedFor > 3 {
			c.reattach()
			c.reattach = nil
			c.detachedFor = 0
		}
		return
	}

	switch pick := c.rng.Intn(100); {
	case pick < 35:
		c.tamperStyle()
	case pick < 50:
		c.dropLitter()
	case pick < 65:
		c.drag()
	case pick < 80:
		c.resize()
	case pick < 90:
		c.toggle()
	default:
		c.detachPanel()
	}
}

func (c *churner) tamperStyle() {
	c.tamperCount++
	hosttree.TamperLayout(c.scene, c.rng)
}

func (c *churner) dropLitter() {
	c.litterCount++
	if len(c.litter) >= 8 {
		c.litter[0].Remove()
		c.litter = c.litter[1:]
		return
	}
	c.litter = append(c.litter, hosttree.AddFiller(c.scene, c.rng))
}

func (c *churner) drag() {
	handle := c.tree.ElementByMark(dock.HandleMark)
	if handle == nil {
		return
	}
	c.dragCount++
	hb := handle.Bounds()
	x := hb.Left + hb.Width/2
	c.tree.Pointer(dock.PointerDown, x, hb.Top+hb.Height/2)

	upperTop := c.scene.Upper.Bounds().Top
	span := c.scene.Boundary.Bounds().Top - upperTop
	moves := 1 + c.rng.Intn(3)
	for i := 0; i < moves; i++ {
		frac := 0.1 + 0.8*c.rng.Float64()
		c.tree.Pointer(dock.PointerMove, x, upperTop+frac*span)
	}
	c.tree.Pointer(dock.PointerUp, x, upperTop+span/2)
}

func (c *churner) resize() {
	c.resizeCount++
	w := 400 + float64(c.rng.Intn(800))
	h := 300 + float64(c.rng.Intn(600))
	c.scene.Resize(w, h)
}

func (c *churner) toggle() {
	c.toggleCount++
	c.eng.Toggle()
}

func (c *churner) detachPanel() {
	c.detachCount++
	c.reattach = hosttree.Flicker(c.scene)
	c.detachedFor = 1
}

func printSummary(c *churner, stats dock.Stats) {
	fmt.Printf("churn: %d style tampers, %d node churns, %d drags, %d resizes, %d toggles, %d detaches\n",
		c.tamperCount, c.litterCount, c.dragCount, c.resizeCount, c.toggleCount, c.detachCount)
	fmt.Printf("engine: %d requested, %d coalesced, %d passes (%d aborted)\n",
		stats.Requested, stats.Coalesced, stats.Passes, stats.PassesAborted)
	fmt.Printf("engine: %d drift repairs, %d absence releases, %d mode changes, %d drag moves\n",
		stats.DriftRepairs, stats.AbsenceReleases, stats.ModeChanges, stats.DragMoves)
}

// eventCounter tallies engine events and logs the notable ones.
type eventCounter struct {
	logger *log.Logger

	mu     sync.Mutex
	counts map[dock.EventType]uint64
}

func newEventCounter(logger *log.Logger) *eventCounter {
	return &eventCounter{logger: logger, counts: make(map[dock.EventType]uint64)}
}

func (ec *eventCounter) OnEvent(event dock.Event) {
	ec.mu.Lock()
	ec.counts[event.Type]++
	ec.mu.Unlock()

	switch event.Type {
	case dock.EventModeChanged:
		ec.logger.Printf("sim: mode changed to %v", event.Payload)
	case dock.EventDriftRepaired:
		if info, ok := event.Payload.(dock.DriftInfo); ok {
			ec.logger.Printf("sim: drift repaired (%d mismatches)", len(info.Mismatches))
		}
	case dock.EventPanelAbsent:
		ec.logger.Printf("sim: panel lost, overrides released")
	}
}

func (ec *eventCounter) report() {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	types := make([]int, 0, len(ec.counts))
	for t := range ec.counts {
		types = append(types, int(t))
	}
	sort.Ints(types)
	for _, t := range types {
		fmt.Printf("events: %-14s %d\n", eventName(dock.EventType(t)), ec.counts[dock.EventType(t)])
	}
}

func eventName(t dock.EventType) string {
	switch t {
	case dock.EventModeChanged:
		return "mode-changed"
	case dock.EventPassApplied:
		return "pass-applied"
	case dock.EventDriftRepaired:
		return "drift-repaired"
	case dock.EventPanelAbsent:
		return "panel-absent"
	case dock.EventPanelReturned:
		return "panel-returned"
	case dock.EventDragStarted:
		return "drag-started"
	case dock.EventDragEnded:
		return "drag-ended"
	default:
		return fmt.Sprintf("event-%d", int(t))
	}
}
