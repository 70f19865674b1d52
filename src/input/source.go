package input

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"keytally/src/models"
)

// Handler receives resolved-shape events. Returning false ends Run.
type Handler interface {
	HandleKey(ctx context.Context, ev models.KeyEvent) bool
	HandleMouse(ctx context.Context, ev models.MouseEvent) bool
}

// TerminalSource reads keyboard and mouse events from the controlling
// terminal. Output meant for the console goes through Console so it is
// drawn on the screen instead of corrupting it.
type TerminalSource struct {
	screen  tcell.Screen
	console *ScreenWriter
	buttons tcell.ButtonMask
}

func NewTerminalSource() (*TerminalSource, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create terminal screen: %w", err)
	}
	return NewTerminalSourceWithScreen(screen)
}

// NewTerminalSourceWithScreen initializes screen and enables mouse reporting.
func NewTerminalSourceWithScreen(screen tcell.Screen) (*TerminalSource, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init terminal screen: %w", err)
	}
	screen.EnableMouse()
	return &TerminalSource{
		screen:  screen,
		console: NewScreenWriter(screen),
	}, nil
}

func (s *TerminalSource) Console() *ScreenWriter {
	return s.console
}

// Close restores the terminal.
func (s *TerminalSource) Close() {
	s.screen.Fini()
}

// Run delivers events to h until h asks to stop, ctx is done, or the
// screen is closed.
func (s *TerminalSource) Run(ctx context.Context, h Handler) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.screen.PostEvent(tcell.NewEventInterrupt(nil))
		case <-done:
		}
	}()

	for {
		ev := s.screen.PollEvent()
		if ev == nil {
			return nil
		}

		switch ev := ev.(type) {
		case *tcell.EventKey:
			if !h.HandleKey(ctx, KeyEventFromTcell(ev)) {
				return nil
			}
		case *tcell.EventMouse:
			cur := ev.Buttons()
			transitions := buttonTransitions(s.buttons, cur)
			s.buttons = cur
			for _, me := range transitions {
				if !h.HandleMouse(ctx, me) {
					return nil
				}
			}
		case *tcell.EventResize:
			s.console.Redraw()
		case *tcell.EventInterrupt:
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
}
