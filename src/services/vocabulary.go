package services

import (
	"errors"
	"sort"
	"strings"

	"keytally/src/models"
)

// ErrUnknownInput marks a raw event that does not resolve to a tracked input.
var ErrUnknownInput = errors.New("unknown input")

const (
	MouseLeft   models.InputID = "mouse_left"
	MouseRight  models.InputID = "mouse_right"
	MouseMiddle models.InputID = "mouse_middle"

	// StopKey ends the session.
	StopKey models.InputID = "esc"
)

var namedKeys = []models.InputID{
	"shift", "shift_r", "shift_l", "ctrl", "ctrl_r", "ctrl_l",
	"alt", "alt_r", "alt_l", "cmd", "cmd_r", "cmd_l",
	"enter", "backspace", "delete", "space", "tab", "caps_lock",
	"esc", "up", "down", "left", "right",
	"page_up", "page_down", "home", "end",
	"insert", "num_lock", "scroll_lock",
	"f1", "f2", "f3", "f4", "f5", "f6",
	"f7", "f8", "f9", "f10", "f11", "f12",
}

const printableCharacters = "abcdefghijklmnopqrstuvwxyz" +
	"0123456789" +
	"`-=[]\\;',./" +
	"~!@#$%^&*()_+{}|:\"<>?"

var mouseButtons = map[models.MouseButton]models.InputID{
	models.MouseButtonLeft:   MouseLeft,
	models.MouseButtonRight:  MouseRight,
	models.MouseButtonMiddle: MouseMiddle,
}

// Whitespace characters arrive from some sources as runes; they are tracked
// under their named-key identifiers.
var whitespaceNames = map[rune]models.InputID{
	' ':  "space",
	'\t': "tab",
	'\r': "enter",
	'\n': "enter",
}

// Vocabulary is the closed set of tracked inputs. It is immutable after
// construction and safe for concurrent use.
type Vocabulary struct {
	kinds map[models.InputID]models.InputKind
	ids   []models.InputID
}

func NewVocabulary() *Vocabulary {
	kinds := make(map[models.InputID]models.InputKind, len(namedKeys)+len(printableCharacters)+len(mouseButtons))
	for _, id := range namedKeys {
		kinds[id] = models.KindNamedKey
	}
	for _, r := range printableCharacters {
		kinds[models.InputID(r)] = models.KindCharacter
	}
	for _, id := range mouseButtons {
		kinds[id] = models.KindMouseButton
	}

	ids := make([]models.InputID, 0, len(kinds))
	for id := range kinds {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return &Vocabulary{kinds: kinds, ids: ids}
}

// IDs returns every tracked identifier in ascending order.
func (v *Vocabulary) IDs() []models.InputID {
	return append([]models.InputID(nil), v.ids...)
}

func (v *Vocabulary) Len() int {
	return len(v.ids)
}

func (v *Vocabulary) Kind(id models.InputID) (models.InputKind, bool) {
	kind, ok := v.kinds[id]
	return kind, ok
}

func (v *Vocabulary) Contains(id models.InputID) bool {
	_, ok := v.kinds[id]
	return ok
}

// ResolveKey maps a key press to a tracked input. Printable characters
// resolve to themselves; other keys resolve by lowercased symbolic name with
// any namespace prefix ("Key.") removed.
func (v *Vocabulary) ResolveKey(ev models.KeyEvent) (models.Input, bool) {
	if ev.Char != 0 {
		if id, ok := whitespaceNames[ev.Char]; ok {
			return v.lookup(id, models.KindNamedKey)
		}
		return v.lookup(models.InputID(ev.Char), models.KindCharacter)
	}
	name := KeyName(ev)
	if name == "" {
		return models.Input{}, false
	}
	return v.lookup(models.InputID(name), models.KindNamedKey)
}

// ResolveMouse maps a button transition to a tracked input. Only presses of
// the left, right and middle buttons resolve.
func (v *Vocabulary) ResolveMouse(ev models.MouseEvent) (models.Input, bool) {
	if !ev.Pressed {
		return models.Input{}, false
	}
	id, ok := mouseButtons[ev.Button]
	if !ok {
		return models.Input{}, false
	}
	return v.lookup(id, models.KindMouseButton)
}

func (v *Vocabulary) lookup(id models.InputID, want models.InputKind) (models.Input, bool) {
	kind, ok := v.kinds[id]
	if !ok || kind != want {
		return models.Input{}, false
	}
	return models.Input{Kind: kind, ID: id}, true
}

// KeyName renders a raw key event the way diagnostics report it.
func KeyName(ev models.KeyEvent) string {
	if ev.Char != 0 {
		return string(ev.Char)
	}
	name := strings.ToLower(strings.TrimSpace(ev.Name))
	if idx := strings.LastIndex(name, "."); idx >= 0 && idx < len(name)-1 {
		name = name[idx+1:]
	}
	return name
}
