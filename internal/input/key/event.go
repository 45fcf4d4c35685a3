package key

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Event represents a single key press event.
type Event struct {
	// Key identifies the key pressed.
	Key Key

	// Rune is the character for KeyRune events.
	Rune rune

	// Modifiers contains the active modifier keys.
	Modifiers Modifier

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// NewRuneEvent creates a key event for a character.
func NewRuneEvent(r rune, mods Modifier) Event {
	return Event{
		Key:       KeyRune,
		Rune:      r,
		Modifiers: mods,
		Timestamp: time.Now(),
	}
}

// NewSpecialEvent creates a key event for a special key.
func NewSpecialEvent(key Key, mods Modifier) Event {
	return Event{
		Key:       key,
		Modifiers: mods,
		Timestamp: time.Now(),
	}
}

// IsRune returns true if this is a character key event.
func (e Event) IsRune() bool {
	return e.Key == KeyRune && e.Rune != 0
}

// IsShortcut reports whether the event is a command shortcut candidate:
// Ctrl or Meta held, Alt not held.
func (e Event) IsShortcut() bool {
	return (e.Modifiers.HasCtrl() || e.Modifiers.HasMeta()) && !e.Modifiers.HasAlt()
}

// Chord returns the normalized form of the event used as a lookup key.
func (e Event) Chord() Chord {
	c := Chord{Key: e.Key, Mods: e.Modifiers}
	if e.Key == KeyRune {
		c.Rune = unicode.ToLower(e.Rune)
		if unicode.IsUpper(e.Rune) {
			c.Mods = c.Mods.With(ModShift)
		}
	}
	return c
}

// String returns a canonical representation like "Ctrl-S" or "Enter".
func (e Event) String() string {
	return e.Chord().String()
}

// GoString implements fmt.GoStringer for debugging.
func (e Event) GoString() string {
	return fmt.Sprintf("Event{Key: %s, Rune: %q, Modifiers: %s}",
		e.Key.String(), e.Rune, e.Modifiers.String())
}

// Chord is a comparable, normalized key combination.
// Rune is always lower case; an upper-case letter is expressed with ModShift.
type Chord struct {
	Key  Key
	Rune rune
	Mods Modifier
}

// String renders the chord in hyphenated form, e.g. "Ctrl-Shift-Z".
func (c Chord) String() string {
	var name string
	switch {
	case c.Key != KeyRune:
		name = c.Key.String()
	case c.Rune == ' ':
		name = "Space"
	case c.Rune == '-':
		name = "Minus"
	default:
		name = strings.ToUpper(string(c.Rune))
	}

	if mods := c.Mods.String(); mods != "" {
		return mods + "-" + name
	}
	return name
}
