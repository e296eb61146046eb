// Copyright © 2025 Dockpin contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/dockpin-demo/main.go
// Summary: Interactive terminal demo running the engine over a live host tree.
// Usage: Run `dockpin-demo` in a terminal; drag the handle row, press d to toggle, q to quit.

package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/creack/pty"
	"github.com/gdamore/tcell/v2"
	"github.com/go-enry/go-enry/v2"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/framegrace/dockpin/config"
	"github.com/framegrace/dockpin/dock"
	"github.com/framegrace/dockpin/hosttree"
	"github.com/framegrace/dockpin/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("dockpin-demo", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file (default: user config dir)")
	storePath := fs.String("store", "", "SQLite settings path (default: next to the config)")
	docPath := fs.String("file", "", "source file shown in the upper region")
	command := fs.String("command", "", "command run under a pty; its output streams into the panel")
	logPath := fs.String("log", "", "append engine logs to this file (default: discard)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("dockpin-demo needs an interactive terminal")
	}

	// The engine logs through the standard logger; keep it off the screen.
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		log.SetOutput(f)
	} else {
		log.SetOutput(io.Discard)
	}

	if *configPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return fmt.Errorf("resolve config path: %w", err)
		}
		*configPath = p
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *storePath == "" {
		p, err := cfg.StorePathOrDefault()
		if err != nil {
			return fmt.Errorf("resolve store path: %w", err)
		}
		*storePath = p
	}

	db, err := storage.Open(*storePath)
	if err != nil {
		return fmt.Errorf("open settings store: %w", err)
	}
	defer db.Close()

	doc, err := loadDocument(*docPath)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("screen init: %w", err)
	}
	defer screen.Fini()
	screen.Clear()
	screen.EnableMouse()
	defer screen.DisableMouse()

	cols, rows := screen.Size()
	tree := hosttree.New(float64(cols), float64(rows))
	defer tree.Close()
	sc := hosttree.BuildSceneSpec(tree, hosttree.SceneSpec{
		HeaderHeight:  1,
		UpperHeight:   float64(rows / 2),
		ToolbarHeight: 1,
		ContentHeight: float64(rows / 3),
	})
	sc.Header.SetText("dockpin demo: " + doc.title)
	sc.Boundary.SetText("d dock/undock   q quit   drag the dotted row")

	opts := cfg.Options()
	opts.ControlHeight = 1
	eng, err := dock.New(tree, db.Scope(cfg.PluginID), opts)
	if err != nil {
		return fmt.Errorf("engine init failed: %w", err)
	}

	status := &statusLine{}
	eng.Events().Subscribe(status)

	feed := newContentFeed()
	if *command != "" {
		if err := streamCommand(*command, feed); err != nil {
			return fmt.Errorf("start command: %w", err)
		}
	} else {
		feed.push("panel content")
		feed.push("run with -command to stream a pty here")
	}

	eng.Start()
	defer func() {
		if err := eng.Stop(); err != nil {
			log.Printf("demo: engine stop: %v", err)
		}
	}()
	tree.StartFrames(16 * time.Millisecond)
	defer tree.StopFrames()

	quit := make(chan struct{})
	defer close(quit)
	go func() {
		ticker := time.NewTicker(33 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
			}
		}
	}()

	// Ctrl+C arrives as a key event under raw mode; this covers SIGTERM
	// from outside so the terminal still gets restored.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-quit:
		case <-sigCh:
			screen.PostEventWait(tcell.NewEventInterrupt(quitSignal{}))
		}
	}()

	ui := &renderer{tree: tree, doc: doc, feed: feed, status: status}
	ui.draw(screen)

	var lastButtons tcell.ButtonMask
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return nil
		}
		switch tev := ev.(type) {
		case *tcell.EventInterrupt:
			if _, ok := tev.Data().(quitSignal); ok {
				return nil
			}
			ui.draw(screen)
		case *tcell.EventResize:
			w, h := tev.Size()
			sc.Resize(float64(w), float64(h))
			screen.Sync()
			ui.draw(screen)
		case *tcell.EventKey:
			if tev.Key() == tcell.KeyCtrlC || tev.Rune() == 'q' {
				return nil
			}
			if tev.Rune() == 'd' {
				eng.Toggle()
			}
		case *tcell.EventMouse:
			x, y := tev.Position()
			buttons := tev.Buttons()
			// Sample at the cell centre so integral rect edges resolve cleanly.
			fx, fy := float64(x)+0.5, float64(y)+0.5
			pressed := buttons&tcell.Button1 != 0 && lastButtons&tcell.Button1 == 0
			released := buttons&tcell.Button1 == 0 && lastButtons&tcell.Button1 != 0
			lastButtons = buttons
			switch {
			case pressed:
				tree.Pointer(dock.PointerDown, fx, fy)
			case released:
				tree.Pointer(dock.PointerUp, fx, fy)
			case buttons&tcell.Button1 != 0:
				tree.Pointer(dock.PointerMove, fx, fy)
			}
			ui.draw(screen)
		}
	}
}

// quitSignal rides an interrupt event when the process is told to stop.
type quitSignal struct{}

// document is the highlighted source shown in the upper region.
type document struct {
	title string
	lines [][]styledRune
}

type styledRune struct {
	r  rune
	st tcell.Style
}

const sampleSource = `package main

import "fmt"

// greet prints a friendly banner for the docked panel demo.
func greet(name string) string {
	return fmt.Sprintf("hello, %s", name)
}

func main() {
	fmt.Println(greet("dockpin"))
}
`

// loadDocument reads and highlights the file, or a builtin sample when no
// path is given. Language detection picks the lexer; content analysis is
// the fallback for files enry cannot name.
func loadDocument(path string) (*document, error) {
	name := "sample.go"
	text := sampleSource
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		name = filepath.Base(path)
		text = string(data)
	}

	lexer := documentLexer(name, text)
	style := styles.Get("catppuccin-mocha")
	doc := &document{title: name}

	tokens, err := chroma.Tokenise(chroma.Coalesce(lexer), nil, text)
	if err != nil {
		for _, line := range strings.Split(text, "\n") {
			doc.lines = append(doc.lines, plainLine(line))
		}
		return doc, nil
	}

	current := make([]styledRune, 0, 80)
	for _, tok := range tokens {
		if tok.Type == chroma.EOFType {
			break
		}
		st := tokenStyle(style.Get(tok.Type))
		for _, r := range tok.Value {
			if r == '\n' {
				doc.lines = append(doc.lines, current)
				current = make([]styledRune, 0, 80)
				continue
			}
			if r == '\t' {
				for i := 0; i < 4; i++ {
					current = append(current, styledRune{r: ' ', st: st})
				}
				continue
			}
			current = append(current, styledRune{r: r, st: st})
		}
	}
	if len(current) > 0 {
		doc.lines = append(doc.lines, current)
	}
	return doc, nil
}

func documentLexer(name, text string) chroma.Lexer {
	if lang := enry.GetLanguage(name, []byte(text)); lang != "" {
		if l := lexers.Get(lang); l != nil {
			return l
		}
	}
	if l := lexers.Analyse(text); l != nil {
		return l
	}
	return lexers.Fallback
}

func tokenStyle(entry chroma.StyleEntry) tcell.Style {
	st := tcell.StyleDefault
	if entry.Colour.IsSet() {
		st = st.Foreground(tcell.NewRGBColor(
			int32(entry.Colour.Red()),
			int32(entry.Colour.Green()),
			int32(entry.Colour.Blue()),
		))
	}
	if entry.Bold == chroma.Yes {
		st = st.Bold(true)
	}
	if entry.Italic == chroma.Yes {
		st = st.Italic(true)
	}
	return st
}

func plainLine(s string) []styledRune {
	out := make([]styledRune, 0, len(s))
	for _, r := range s {
		out = append(out, styledRune{r: r, st: tcell.StyleDefault})
	}
	return out
}

// contentFeed is the scrolling line buffer shown inside the panel content.
type contentFeed struct {
	mu    sync.Mutex
	lines []string
}

func newContentFeed() *contentFeed {
	return &contentFeed{}
}

func (f *contentFeed) push(line string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, line)
	if len(f.lines) > 500 {
		f.lines = f.lines[len(f.lines)-500:]
	}
}

func (f *contentFeed) tail(n int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n >= len(f.lines) {
		return append([]string(nil), f.lines...)
	}
	return append([]string(nil), f.lines[len(f.lines)-n:]...)
}

var ansiEscapes = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

// streamCommand runs the command under a pty and feeds its output lines
// into the content buffer, escapes stripped and tabs expanded.
func streamCommand(command string, feed *contentFeed) error {
	cmd := exec.Command("/bin/sh", "-c", command)
	f, err := pty.Start(cmd)
	if err != nil {
		return err
	}
	feed.push("$ " + command)
	go func() {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := ansiEscapes.ReplaceAllString(scanner.Text(), "")
			feed.push(strings.ReplaceAll(line, "\t", "    "))
		}
		if err := cmd.Wait(); err != nil {
			feed.push(fmt.Sprintf("[command exited: %v]", err))
			return
		}
		feed.push("[command exited]")
	}()
	return nil
}

// statusLine keeps the most recent engine event for the toolbar row.
type statusLine struct {
	mu   sync.Mutex
	text string
}

func (s *statusLine) OnEvent(event dock.Event) {
	var text string
	switch event.Type {
	case dock.EventModeChanged:
		text = fmt.Sprintf("mode: %v", event.Payload)
	case dock.EventDragEnded:
		if p, ok := event.Payload.(dock.Proportions); ok {
			text = fmt.Sprintf("split %.0f/%.0f", p.Upper*100, p.Lower*100)
		}
	case dock.EventDriftRepaired:
		text = "drift repaired"
	case dock.EventPanelAbsent:
		text = "panel lost"
	case dock.EventPanelReturned:
		text = "panel back"
	default:
		return
	}
	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
}

func (s *statusLine) current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// renderer draws the host tree into the terminal, one cell per pixel.
type renderer struct {
	tree   *hosttree.Tree
	doc    *document
	feed   *contentFeed
	status *statusLine
}

var (
	styleHeader  = tcell.StyleDefault.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite)
	styleToolbar = tcell.StyleDefault.Background(tcell.ColorDarkSlateGray).Foreground(tcell.ColorWhite)
	stylePanel   = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorSilver)
	styleHandle  = tcell.StyleDefault.Background(tcell.ColorGray).Foreground(tcell.ColorBlack)
	styleToggle  = tcell.StyleDefault.Background(tcell.ColorDarkBlue).Foreground(tcell.ColorWhite)
	styleUpper   = tcell.StyleDefault
)

func (v *renderer) draw(screen tcell.Screen) {
	screen.Clear()
	v.paint(screen, v.tree.Root())
	screen.Show()
}

// paint draws nodes in document order, so later siblings and the fixed
// panel overdraw whatever sits underneath them.
func (v *renderer) paint(screen tcell.Screen, el dock.Element) {
	if n, ok := el.(*hosttree.Node); ok {
		v.paintNode(screen, n)
	}
	for c := el.FirstChild(); c != nil; c = c.NextSibling() {
		v.paint(screen, c)
	}
}

func (v *renderer) paintNode(screen tcell.Screen, n *hosttree.Node) {
	b := n.Bounds()
	x0, y0 := int(b.Left), int(b.Top)
	w, h := int(b.Width), int(b.Height)
	if w <= 0 || h <= 0 {
		return
	}

	switch {
	case n.HasMark(dock.DefaultUpperMark):
		fillRect(screen, x0, y0, w, h, styleUpper)
		v.paintDocument(screen, x0, y0, w, h)
	case n.HasMark(dock.DefaultContentMark):
		fillRect(screen, x0, y0, w, h, stylePanel)
		v.paintFeed(screen, x0, y0, w, h)
	case n.HasMark(dock.HandleMark):
		if n.Style("display") == "none" {
			return
		}
		label := " drag "
		pad := (w - runewidth.StringWidth(label)) / 2
		if pad < 0 {
			pad = 0
		}
		row := runewidth.Truncate(strings.Repeat("·", pad)+label+strings.Repeat("·", w), w, "")
		drawText(screen, x0, y0, w, row, styleHandle)
	case n.HasMark(dock.ToggleWrapMark):
		label := "[ dock ]"
		if n.HasMark(dock.DockedStateMark) {
			label = "[ undock ]"
		}
		fillRect(screen, x0, y0, w, h, styleToggle)
		drawText(screen, x0, y0, w, label+"  click to toggle", styleToggle)
	case n.Kind() == "header":
		fillRect(screen, x0, y0, w, h, styleHeader)
		drawText(screen, x0, y0, w, " "+n.Text(), styleHeader)
	case n.Kind() == "footer":
		fillRect(screen, x0, y0, w, h, styleToolbar)
		drawText(screen, x0, y0, w, " "+n.Text(), styleToolbar)
		if status := v.status.current(); status != "" {
			sw := runewidth.StringWidth(status)
			drawText(screen, x0+w-sw-1, y0, sw+1, status, styleToolbar)
		}
	case n.HasMark(dock.DefaultPanelMark):
		fillRect(screen, x0, y0, w, h, stylePanel)
	}
}

func (v *renderer) paintDocument(screen tcell.Screen, x0, y0, w, h int) {
	for row := 0; row < h && row < len(v.doc.lines); row++ {
		x := x0
		for _, sr := range v.doc.lines[row] {
			rw := runewidth.RuneWidth(sr.r)
			if x+rw > x0+w {
				break
			}
			screen.SetContent(x, y0+row, sr.r, nil, sr.st)
			x += rw
		}
	}
}

func (v *renderer) paintFeed(screen tcell.Screen, x0, y0, w, h int) {
	lines := v.feed.tail(h)
	for row, line := range lines {
		drawText(screen, x0+1, y0+row, w-1, runewidth.Truncate(line, w-1, "…"), stylePanel)
	}
}

func fillRect(screen tcell.Screen, x0, y0, w, h int, st tcell.Style) {
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			screen.SetContent(x, y, ' ', nil, st)
		}
	}
}

func drawText(screen tcell.Screen, x0, y0, w int, text string, st tcell.Style) {
	x := x0
	for _, r := range runewidth.Truncate(text, w, "") {
		screen.SetContent(x, y0, r, nil, st)
		x += runewidth.RuneWidth(r)
	}
}
