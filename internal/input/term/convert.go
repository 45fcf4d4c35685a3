// Package term is the terminal front end: it converts tcell input into key
// events and runs the interactive session loop.
package term

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keycmd/internal/input/key"
)

var specialKeys = map[tcell.Key]key.Key{
	tcell.KeyEscape:     key.KeyEscape,
	tcell.KeyEnter:      key.KeyEnter,
	tcell.KeyTab:        key.KeyTab,
	tcell.KeyBackspace:  key.KeyBackspace,
	tcell.KeyBackspace2: key.KeyBackspace,
	tcell.KeyDelete:     key.KeyDelete,
	tcell.KeyInsert:     key.KeyInsert,
	tcell.KeyHome:       key.KeyHome,
	tcell.KeyEnd:        key.KeyEnd,
	tcell.KeyPgUp:       key.KeyPageUp,
	tcell.KeyPgDn:       key.KeyPageDown,
	tcell.KeyUp:         key.KeyUp,
	tcell.KeyDown:       key.KeyDown,
	tcell.KeyLeft:       key.KeyLeft,
	tcell.KeyRight:      key.KeyRight,
	tcell.KeyF1:         key.KeyF1,
	tcell.KeyF2:         key.KeyF2,
	tcell.KeyF3:         key.KeyF3,
	tcell.KeyF4:         key.KeyF4,
	tcell.KeyF5:         key.KeyF5,
	tcell.KeyF6:         key.KeyF6,
	tcell.KeyF7:         key.KeyF7,
	tcell.KeyF8:         key.KeyF8,
	tcell.KeyF9:         key.KeyF9,
	tcell.KeyF10:        key.KeyF10,
	tcell.KeyF11:        key.KeyF11,
	tcell.KeyF12:        key.KeyF12,
}

// FromTcell converts a tcell key event.
//
// tcell reports Ctrl+letter as a dedicated key (tcell.KeyCtrlS and so on),
// and raw control codes may still arrive from some terminals. Both are
// turned back into the letter with ModCtrl so that "Ctrl-S" bindings match.
// Tab, Enter and Backspace share codes with Ctrl+I, Ctrl+M and Ctrl+H; they
// are reported as the named key unless tcell flagged the Ctrl modifier.
func FromTcell(ev *tcell.EventKey) key.Event {
	out := key.Event{
		Modifiers: convertMod(ev.Modifiers()),
		Timestamp: ev.When(),
	}

	k := ev.Key()
	switch {
	case k == tcell.KeyRune:
		out.Key = key.KeyRune
		out.Rune = ev.Rune()
		return out
	case k == tcell.KeyCtrlSpace || k == tcell.KeyNUL:
		return ctrlRune(out, ' ')
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		return ctrlRune(out, 'a'+rune(k-tcell.KeyCtrlA))
	case k >= tcell.KeySOH && k <= tcell.KeySUB && (out.Modifiers.HasCtrl() || !isTypeable(k)):
		return ctrlRune(out, 'a'+rune(k-tcell.KeySOH))
	}

	if special, ok := specialKeys[k]; ok {
		out.Key = special
		return out
	}
	out.Key = key.KeyNone
	return out
}

func ctrlRune(ev key.Event, r rune) key.Event {
	ev.Key = key.KeyRune
	ev.Rune = r
	ev.Modifiers = ev.Modifiers.With(key.ModCtrl)
	return ev
}

// isTypeable reports whether a control code is produced by a dedicated key.
func isTypeable(k tcell.Key) bool {
	switch k {
	case tcell.KeyTab, tcell.KeyEnter, tcell.KeyBackspace:
		return true
	}
	return false
}

func convertMod(m tcell.ModMask) key.Modifier {
	var result key.Modifier
	if m&tcell.ModShift != 0 {
		result |= key.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		result |= key.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		result |= key.ModAlt
	}
	if m&tcell.ModMeta != 0 {
		result |= key.ModMeta
	}
	return result
}
