package models

// InputID names one trackable input, e.g. "a", "shift", "mouse_left".
type InputID string

// InputKind is the category an InputID belongs to. The three kinds are disjoint.
type InputKind int

const (
	KindNamedKey InputKind = iota + 1
	KindCharacter
	KindMouseButton
)

func (k InputKind) String() string {
	switch k {
	case KindNamedKey:
		return "named_key"
	case KindCharacter:
		return "character"
	case KindMouseButton:
		return "mouse_button"
	default:
		return "unknown"
	}
}

// Input is a resolved, tracked input.
type Input struct {
	Kind InputKind
	ID   InputID
}
