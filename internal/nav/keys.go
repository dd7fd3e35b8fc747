package nav

import (
	"strconv"
	"strings"
)

// Key is a keydown event in the browser's physical-key vocabulary
// ("ArrowLeft", "Space", "KeyF", "Digit3", "Slash", "Escape", ...). Front
// ends translate their own events into it. TextInput is set when focus is in
// a text-entry element, where typing must not move slides.
type Key struct {
	Code      string
	Shift     bool
	Ctrl      bool
	Meta      bool
	Alt       bool
	TextInput bool
}

// Key codes the controller reacts to.
const (
	CodeArrowLeft  = "ArrowLeft"
	CodeArrowRight = "ArrowRight"
	CodeArrowUp    = "ArrowUp"
	CodeArrowDown  = "ArrowDown"
	CodeSpace      = "Space"
	CodeHome       = "Home"
	CodeEnd        = "End"
	CodeEscape     = "Escape"
	CodeKeyF       = "KeyF"
	CodeKeyH       = "KeyH"
	CodeSlash      = "Slash"
)

// DigitCode returns the code for a number-row digit.
func DigitCode(d int) string {
	return "Digit" + strconv.Itoa(d)
}

// digit extracts the value of a "DigitN" code.
func (k Key) digit() (int, bool) {
	rest, ok := strings.CutPrefix(k.Code, "Digit")
	if !ok || len(rest) != 1 {
		return 0, false
	}
	d, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return d, true
}
