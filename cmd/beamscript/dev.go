package main

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/howeyc/fsnotify"
	"github.com/rivo/tview"

	"github.com/user-none/emgs/emu"
)

// devMode reruns the scenario at path every time it is saved and shows
// the capture report in a terminal view. It returns when the view is
// closed.
func devMode(path string, o options) error {
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Watch(filepath.Dir(path)); err != nil {
		return err
	}

	d := newDevView()
	log.SetPrefix("")
	log.SetOutput(d.log)
	defer func() {
		log.SetOutput(os.Stderr)
		log.SetPrefix("beamscript: ")
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.loop(watcher, path, o, reportWidth()-2)
	}()
	err = d.app.Run()
	close(d.done)
	wg.Wait()
	return err
}

type devView struct {
	report *tview.TextView
	log    *tview.TextView
	state  *tview.TextView
	rows   *tview.Flex
	app    *tview.Application

	step  chan struct{}
	rerun chan struct{}
	// done is closed once the application has stopped. Nothing drains
	// the update queue after that.
	done chan struct{}
}

func newDevView() *devView {
	d := &devView{
		report: tview.NewTextView().
			SetWrap(false),
		log: tview.NewTextView().
			SetMaxLines(1000),
		state: tview.NewTextView().
			SetWrap(false),
		rows: tview.NewFlex().
			SetDirection(tview.FlexRow),
		app:   tview.NewApplication(),
		step:  make(chan struct{}, 1),
		rerun: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	d.log.SetChangedFunc(func() { d.app.Draw() })
	d.report.SetBorder(true).SetTitle(" capture ")
	d.state.SetBackgroundColor(tcell.ColorDarkGrey)
	d.rows.
		AddItem(d.report, 0, 3, false).
		AddItem(d.log, 0, 1, false).
		AddItem(d.state, 1, 0, false)
	d.app.SetRoot(d.rows, true)

	d.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch ev.Rune() {
		case 'q':
			d.app.Stop()
		case 'n':
			signal(d.step)
		case 'r':
			signal(d.rerun)
		default:
			return ev
		}
		return nil
	})
	return d
}

// signal sends on a one-slot channel without blocking.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// loop owns the running scenario. Reports are rendered here and handed
// to the view as text.
func (d *devView) loop(watcher *fsnotify.Watcher, path string, o options, width int) {
	var sc *scenario
	defer func() {
		if sc != nil {
			sc.Close()
		}
	}()

	run := time.After(time.Millisecond)
	for {
		select {
		case <-run:
			next, err := openScenario(path, o)
			if err != nil {
				log.Printf("run: %v", err)
				d.setState(err.Error(), tcell.ColorWhite, tcell.ColorDarkRed)
				break
			}
			if sc != nil {
				sc.Close()
			}
			sc = next
			log.Printf("ran %s", filepath.Base(path))
			d.show(sc, width)
		case <-d.step:
			if sc != nil {
				sc.Step(1)
				d.show(sc, width)
			}
		case <-d.rerun:
			run = time.After(time.Millisecond)
		case ev := <-watcher.Event:
			if ev.Name == path && !ev.IsAttrib() {
				run = time.After(100 * time.Millisecond)
			}
		case err := <-watcher.Error:
			log.Printf("watcher: %v", err)
		case <-d.done:
			return
		}
	}
}

func (d *devView) show(sc *scenario, width int) {
	var b strings.Builder
	if err := writeReport(&b, sc.video, width); err != nil {
		log.Printf("report: %v", err)
		return
	}
	text := b.String()
	fg, bg := tcell.ColorBlack, tcell.ColorDarkGrey
	switch sc.video.Read().Mode() {
	case emu.TagSecond:
		fg, bg = tcell.ColorYellow, tcell.ColorDarkBlue
	case emu.TagMerged:
		fg, bg = tcell.ColorWhite, tcell.ColorDarkBlue
	}
	state := sc.String() + "  [n] step  [r] rerun  [q] quit"
	d.update(func() {
		d.report.SetText(text)
	})
	d.setState(state, fg, bg)
}

func (d *devView) setState(text string, fg, bg tcell.Color) {
	d.update(func() {
		d.state.SetTextColor(fg)
		d.state.SetBackgroundColor(bg)
		d.state.SetText(text)
	})
}

// update queues f on the application unless it has already stopped.
func (d *devView) update(f func()) {
	select {
	case <-d.done:
		return
	default:
	}
	d.app.QueueUpdateDraw(f)
}
