// Package ui holds the terminal styling shared by the CLI output.
package ui

import "os"

// ANSI color and style constants for CLI output
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[97m"
	ColorRed    = "\033[31m"
)

// Plain disables styling in the helpers below. It starts true when NO_COLOR
// is set.
var Plain = os.Getenv("NO_COLOR") != ""

// Paint wraps s in the given style unless Plain is set
func Paint(style, s string) string {
	if Plain {
		return s
	}
	return style + s + ColorReset
}

func Bold(s string) string { return Paint(ColorBold, s) }

func Success(s string) string { return Paint(ColorGreen, s) }

func Info(s string) string { return Paint(ColorDim+ColorYellow, s) }

func Error(s string) string { return Paint(ColorRed, s) }
