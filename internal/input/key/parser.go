package key

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Parse errors
var (
	ErrEmptySpec   = errors.New("empty key specification")
	ErrInvalidSpec = errors.New("invalid key specification")
)

// Parse parses a shortcut spec into a Chord.
func Parse(spec string) (Chord, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Chord{}, ErrEmptySpec
	}

	// Vim-style <...> notation
	if len(spec) > 2 && strings.HasPrefix(spec, "<") && strings.HasSuffix(spec, ">") {
		return parseParts(splitSpec(spec[1:len(spec)-1], '-'))
	}

	if strings.Contains(spec, "+") && len(spec) > 1 {
		return parseParts(splitSpec(spec, '+'))
	}
	return parseParts(splitSpec(spec, '-'))
}

// MustParse parses a key specification and panics on error.
// Use only for known-valid specs in initialization code.
func MustParse(spec string) Chord {
	c, err := Parse(spec)
	if err != nil {
		panic("invalid key specification: " + spec + ": " + err.Error())
	}
	return c
}

// Normalize parses and re-formats a spec to its canonical form.
func Normalize(spec string) (string, error) {
	c, err := Parse(spec)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// splitSpec splits on sep, treating a trailing separator as the key itself
// ("Ctrl--" is Ctrl plus the minus key).
func splitSpec(s string, sep byte) []string {
	if len(s) == 1 {
		return []string{s}
	}
	if s[len(s)-1] == sep && len(s) >= 2 && s[len(s)-2] == sep {
		head := strings.Split(s[:len(s)-2], string(sep))
		return append(head, string(sep))
	}
	return strings.Split(s, string(sep))
}

func parseParts(parts []string) (Chord, error) {
	if len(parts) == 0 {
		return Chord{}, ErrInvalidSpec
	}

	var mods Modifier
	for _, p := range parts[:len(parts)-1] {
		mod := ModifierFromName(p)
		if mod == ModNone {
			return Chord{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
		}
		mods = mods.With(mod)
	}

	keyPart := strings.TrimSpace(parts[len(parts)-1])
	if keyPart == "" {
		return Chord{}, ErrInvalidSpec
	}

	if k := KeyFromName(keyPart); k != KeyNone {
		return Chord{Key: k, Mods: mods}, nil
	}
	if r, ok := runeNameMap[strings.ToLower(keyPart)]; ok {
		return Chord{Key: KeyRune, Rune: r, Mods: mods}, nil
	}

	runes := []rune(keyPart)
	if len(runes) != 1 {
		return Chord{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, keyPart)
	}

	// Letters in modified specs are case-insensitive ("Ctrl-S" == "Ctrl-s");
	// a bare upper-case letter implies Shift.
	r := runes[0]
	if unicode.IsUpper(r) && mods == ModNone {
		mods = ModShift
	}
	return Chord{Key: KeyRune, Rune: unicode.ToLower(r), Mods: mods}, nil
}
