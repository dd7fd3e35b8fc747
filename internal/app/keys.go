package app

import (
	"strings"
	"unicode"

	bubbletea "github.com/charmbracelet/bubbletea"

	"github.com/dloss/deckview/internal/nav"
)

var namedCodes = map[string]string{
	"left":  nav.CodeArrowLeft,
	"right": nav.CodeArrowRight,
	"up":    nav.CodeArrowUp,
	"down":  nav.CodeArrowDown,
	" ":     nav.CodeSpace,
	"space": nav.CodeSpace,
	"home":  nav.CodeHome,
	"end":   nav.CodeEnd,
	"esc":   nav.CodeEscape,
}

// keyFromTea translates a terminal key into the controller's key vocabulary.
func keyFromTea(msg bubbletea.KeyMsg, textInput bool) nav.Key {
	k := nav.Key{Alt: msg.Alt, TextInput: textInput}
	s := strings.TrimPrefix(msg.String(), "alt+")
	if rest, ok := strings.CutPrefix(s, "ctrl+"); ok {
		k.Ctrl = true
		s = rest
	}
	if rest, ok := strings.CutPrefix(s, "shift+"); ok {
		k.Shift = true
		s = rest
	}

	if code, ok := namedCodes[s]; ok {
		k.Code = code
		return k
	}

	runes := []rune(s)
	if len(runes) != 1 {
		return k
	}
	r := runes[0]
	switch {
	case r >= '0' && r <= '9':
		k.Code = nav.DigitCode(int(r - '0'))
	case r == '/':
		k.Code = nav.CodeSlash
	case r == '?':
		k.Code = nav.CodeSlash
		k.Shift = true
	case r < unicode.MaxASCII && unicode.IsLetter(r):
		k.Code = "Key" + string(unicode.ToUpper(r))
		if unicode.IsUpper(r) {
			k.Shift = true
		}
	}
	return k
}
