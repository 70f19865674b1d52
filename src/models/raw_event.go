package models

// KeyEvent is a raw key press delivered by an input source. Exactly one of
// Char or Name is meaningful: Char is set for printable keys, Name carries
// the symbolic name of a non-character key (e.g. "Key.shift_r", "Enter").
type KeyEvent struct {
	Char rune
	Name string
}

// MouseButton identifies a physical mouse button.
type MouseButton int

const (
	MouseButtonOther MouseButton = iota
	MouseButtonLeft
	MouseButtonRight
	MouseButtonMiddle
)

// MouseEvent is a raw button transition.
type MouseEvent struct {
	Button  MouseButton
	Pressed bool
}
