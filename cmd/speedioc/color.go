package main

import (
	"os"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()

	bold    = color.New(color.Bold).SprintFunc()
	boldRed = color.New(color.FgRed, color.Bold).SprintFunc()
)

// configureColors disables colors when asked to or when NO_COLOR is set.
// fatih/color already turns them off for non-terminal output.
func configureColors(noColor bool) {
	if (noColor || os.Getenv("NO_COLOR") != "") && !color.NoColor {
		color.NoColor = true
	}
}

// statusColor renders a plan entry status.
func statusColor(status string) string {
	switch status {
	case "active":
		return green(status)
	case "overridden":
		return yellow(status)
	default:
		return gray(status)
	}
}
