package input

import (
	"github.com/gdamore/tcell/v2"

	"keytally/src/models"
)

var keyNames = map[tcell.Key]string{
	tcell.KeyEnter:     "enter",
	tcell.KeyBackspace: "backspace",
	tcell.KeyDelete:    "delete",
	tcell.KeyTab:       "tab",
	tcell.KeyBacktab:   "tab",
	tcell.KeyEscape:    "esc",
	tcell.KeyUp:        "up",
	tcell.KeyDown:      "down",
	tcell.KeyLeft:      "left",
	tcell.KeyRight:     "right",
	tcell.KeyPgUp:      "page_up",
	tcell.KeyPgDn:      "page_down",
	tcell.KeyHome:      "home",
	tcell.KeyEnd:       "end",
	tcell.KeyInsert:    "insert",
	tcell.KeyF1:        "f1",
	tcell.KeyF2:        "f2",
	tcell.KeyF3:        "f3",
	tcell.KeyF4:        "f4",
	tcell.KeyF5:        "f5",
	tcell.KeyF6:        "f6",
	tcell.KeyF7:        "f7",
	tcell.KeyF8:        "f8",
	tcell.KeyF9:        "f9",
	tcell.KeyF10:       "f10",
	tcell.KeyF11:       "f11",
	tcell.KeyF12:       "f12",
}

// KeyEventFromTcell converts a terminal key event. Keys without a tracked
// name keep tcell's own name so diagnostics can show them.
func KeyEventFromTcell(ev *tcell.EventKey) models.KeyEvent {
	if ev.Key() == tcell.KeyRune {
		return models.KeyEvent{Char: ev.Rune()}
	}
	if name, ok := keyNames[ev.Key()]; ok {
		return models.KeyEvent{Name: name}
	}
	// Most terminals send DEL for the backspace key.
	if ev.Key() == tcell.KeyBackspace2 {
		return models.KeyEvent{Name: "backspace"}
	}
	return models.KeyEvent{Name: ev.Name()}
}

var trackedButtons = []struct {
	mask   tcell.ButtonMask
	button models.MouseButton
}{
	{tcell.Button1, models.MouseButtonLeft},
	{tcell.Button2, models.MouseButtonRight},
	{tcell.Button3, models.MouseButtonMiddle},
	{tcell.Button4, models.MouseButtonOther},
	{tcell.Button5, models.MouseButtonOther},
	{tcell.Button6, models.MouseButtonOther},
	{tcell.Button7, models.MouseButtonOther},
	{tcell.Button8, models.MouseButtonOther},
}

// buttonTransitions derives press and release events from two consecutive
// button masks. Wheel bits are not buttons and never produce events.
func buttonTransitions(prev, cur tcell.ButtonMask) []models.MouseEvent {
	var out []models.MouseEvent
	for _, b := range trackedButtons {
		was := prev&b.mask != 0
		now := cur&b.mask != 0
		if was == now {
			continue
		}
		out = append(out, models.MouseEvent{Button: b.button, Pressed: now})
	}
	return out
}
