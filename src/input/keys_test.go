package input

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"keytally/src/models"
)

func TestKeyEventFromTcell(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want models.KeyEvent
	}{
		{name: "rune", ev: tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), want: models.KeyEvent{Char: 'q'}},
		{name: "space rune", ev: tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), want: models.KeyEvent{Char: ' '}},
		{name: "escape", ev: tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), want: models.KeyEvent{Name: "esc"}},
		{name: "enter", ev: tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), want: models.KeyEvent{Name: "enter"}},
		{name: "page down", ev: tcell.NewEventKey(tcell.KeyPgDn, 0, tcell.ModNone), want: models.KeyEvent{Name: "page_down"}},
		{name: "function key", ev: tcell.NewEventKey(tcell.KeyF11, 0, tcell.ModNone), want: models.KeyEvent{Name: "f11"}},
		{name: "delete character", ev: tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone), want: models.KeyEvent{Name: "backspace"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := KeyEventFromTcell(tc.ev); got != tc.want {
				t.Fatalf("KeyEventFromTcell = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestKeyEventFromTcellKeepsUntrackedName(t *testing.T) {
	got := KeyEventFromTcell(tcell.NewEventKey(tcell.KeyF20, 0, tcell.ModNone))
	if got.Char != 0 || got.Name == "" {
		t.Fatalf("untracked key should carry its tcell name, got %+v", got)
	}
}

func TestButtonTransitions(t *testing.T) {
	tests := []struct {
		name string
		prev tcell.ButtonMask
		cur  tcell.ButtonMask
		want []models.MouseEvent
	}{
		{name: "no change", prev: tcell.ButtonNone, cur: tcell.ButtonNone},
		{name: "left press", prev: tcell.ButtonNone, cur: tcell.Button1, want: []models.MouseEvent{{Button: models.MouseButtonLeft, Pressed: true}}},
		{name: "left held", prev: tcell.Button1, cur: tcell.Button1},
		{name: "left release", prev: tcell.Button1, cur: tcell.ButtonNone, want: []models.MouseEvent{{Button: models.MouseButtonLeft, Pressed: false}}},
		{
			name: "chord",
			prev: tcell.Button1,
			cur:  tcell.Button2 | tcell.Button3,
			want: []models.MouseEvent{
				{Button: models.MouseButtonLeft, Pressed: false},
				{Button: models.MouseButtonRight, Pressed: true},
				{Button: models.MouseButtonMiddle, Pressed: true},
			},
		},
		{name: "extra button", prev: tcell.ButtonNone, cur: tcell.Button4, want: []models.MouseEvent{{Button: models.MouseButtonOther, Pressed: true}}},
		{name: "wheel is ignored", prev: tcell.ButtonNone, cur: tcell.WheelUp},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := buttonTransitions(tc.prev, tc.cur)
			if len(got) != len(tc.want) {
				t.Fatalf("buttonTransitions = %+v, want %+v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("buttonTransitions[%d] = %+v, want %+v", i, got[i], tc.want[i])
				}
			}
		})
	}
}
