package key

import "strings"

// Modifier represents keyboard modifier keys.
type Modifier uint8

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0

	// ModShift indicates the Shift key.
	ModShift Modifier = 1 << iota

	// ModCtrl indicates the Control key.
	ModCtrl

	// ModAlt indicates the Alt key (Option on macOS).
	ModAlt

	// ModMeta indicates the Meta key (Cmd on macOS, Win on Windows).
	ModMeta
)

// Has returns true if m contains the specified modifier.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// HasShift returns true if Shift is pressed.
func (m Modifier) HasShift() bool { return m.Has(ModShift) }

// HasCtrl returns true if Control is pressed.
func (m Modifier) HasCtrl() bool { return m.Has(ModCtrl) }

// HasAlt returns true if Alt is pressed.
func (m Modifier) HasAlt() bool { return m.Has(ModAlt) }

// HasMeta returns true if Meta is pressed.
func (m Modifier) HasMeta() bool { return m.Has(ModMeta) }

// With returns a new Modifier with the specified modifier added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// Without returns a new Modifier with the specified modifier removed.
func (m Modifier) Without(mod Modifier) Modifier {
	return m &^ mod
}

// modifierOrder is the display order used by String.
var modifierOrder = [...]struct {
	mod  Modifier
	name string
}{
	{ModCtrl, "Ctrl"},
	{ModAlt, "Alt"},
	{ModShift, "Shift"},
	{ModMeta, "Meta"},
}

// String renders the set as e.g. "Ctrl-Alt-Shift". The order is fixed so
// equal sets always print the same.
func (m Modifier) String() string {
	parts := make([]string, 0, len(modifierOrder))
	for _, o := range modifierOrder {
		if m.Has(o.mod) {
			parts = append(parts, o.name)
		}
	}
	return strings.Join(parts, "-")
}

// Accepted modifier spellings, lowercase. The single letters follow the
// <C-s>/<A-x>/<S-x>/<M-x>/<D-x> bracket notation.
var modifierNameMap = map[string]Modifier{
	"c": ModCtrl, "ctrl": ModCtrl, "control": ModCtrl,
	"a": ModAlt, "alt": ModAlt, "opt": ModAlt, "option": ModAlt,
	"s": ModShift, "shift": ModShift,
	"m": ModMeta, "d": ModMeta, "meta": ModMeta, "cmd": ModMeta, "command": ModMeta,
	"super": ModMeta, "win": ModMeta,
}

// ModifierFromName looks up a modifier name case-insensitively. Unknown
// names yield ModNone.
func ModifierFromName(name string) Modifier {
	return modifierNameMap[strings.ToLower(strings.TrimSpace(name))]
}
