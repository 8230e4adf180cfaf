// Package console provides the line-oriented terminal frontend: command
// dispatch, battle rendering, and the engine's display notifier.
package console

import (
	"fmt"
	"strings"
)

// ANSI escape code constants for terminal styling.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
	White  = "\033[37m"

	BrightRed    = "\033[91m"
	BrightGreen  = "\033[92m"
	BrightYellow = "\033[93m"
	BrightCyan   = "\033[96m"
)

// Palette applies colors, or passes text through unchanged when disabled.
type Palette struct {
	Enabled bool
}

// Colorize wraps text with color and a reset suffix.
//
// Postcondition: Returns text unchanged when the palette is disabled.
func (p Palette) Colorize(color, text string) string {
	if !p.Enabled {
		return text
	}
	return color + text + Reset
}

// Colorf formats and then colorizes.
func (p Palette) Colorf(color, format string, args ...any) string {
	return p.Colorize(color, fmt.Sprintf(format, args...))
}

// StripANSI removes all ANSI escape sequences from a string.
//
// Postcondition: Returns text with all \033[...m sequences removed.
func StripANSI(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\033' && i+1 < len(s) && s[i+1] == '[' {
			if j := strings.IndexByte(s[i+2:], 'm'); j >= 0 {
				i += j + 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// hpColor picks a color from the remaining hp fraction.
func hpColor(frac float64) string {
	switch {
	case frac > 0.6:
		return BrightGreen
	case frac > 0.3:
		return BrightYellow
	default:
		return BrightRed
	}
}

// bar renders a fixed-width gauge such as [#######---].
func bar(cur, total, width int) string {
	if total <= 0 || width <= 0 {
		return "[" + strings.Repeat("-", max(width, 0)) + "]"
	}
	filled := cur * width / total
	filled = min(max(filled, 0), width)
	if cur > 0 && filled == 0 {
		filled = 1
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
