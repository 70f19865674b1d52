package input

import (
	"bytes"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

const maxScreenLines = 500

// ScreenWriter is an io.Writer that renders the most recent complete lines
// onto a tcell screen, newest at the bottom.
type ScreenWriter struct {
	mu      sync.Mutex
	screen  tcell.Screen
	lines   []string
	partial []byte
}

func NewScreenWriter(screen tcell.Screen) *ScreenWriter {
	return &ScreenWriter{screen: screen}
}

func (w *ScreenWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.partial = append(w.partial, p...)
	for {
		idx := bytes.IndexByte(w.partial, '\n')
		if idx < 0 {
			break
		}
		w.lines = append(w.lines, string(w.partial[:idx]))
		w.partial = w.partial[idx+1:]
	}
	if len(w.lines) > maxScreenLines {
		w.lines = append([]string(nil), w.lines[len(w.lines)-maxScreenLines:]...)
	}
	w.drawLocked()
	return len(p), nil
}

// Lines returns the buffered complete lines.
func (w *ScreenWriter) Lines() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.lines...)
}

func (w *ScreenWriter) Redraw() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.screen.Sync()
	w.drawLocked()
}

func (w *ScreenWriter) drawLocked() {
	width, height := w.screen.Size()
	w.screen.Clear()
	start := max(0, len(w.lines)-height)
	for y, line := range w.lines[start:] {
		x := 0
		for _, r := range line {
			rw := runewidth.RuneWidth(r)
			if x+rw > width {
				break
			}
			w.screen.SetContent(x, y, r, nil, tcell.StyleDefault)
			x += rw
		}
	}
	w.screen.Show()
}
