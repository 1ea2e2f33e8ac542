package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	activeColor  = color.New(color.FgGreen)
	dimColor     = color.New(color.Faint)
	nameColor    = color.New(color.FgCyan)
)

func success(format string, args ...any) {
	successColor.Printf("✓ "+format+"\n", args...)
}

func warn(format string, args ...any) {
	warnColor.Printf("⚠ "+format+"\n", args...)
}

func fail(format string, args ...any) {
	errorColor.Printf("✗ "+format+"\n", args...)
}

func verbose(format string, args ...any) {
	if flagVerbose {
		dimColor.Printf(format+"\n", args...)
	}
}

// printJSON emits any value as indented JSON, for --json output.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// statusBadge renders a workflow's active flag.
func statusBadge(active bool) string {
	if active {
		return activeColor.Sprint("active")
	}
	return dimColor.Sprint("inactive")
}

func httpStatusColor(code int) *color.Color {
	switch {
	case code >= 200 && code < 300:
		return successColor
	case code >= 400:
		return errorColor
	default:
		return warnColor
	}
}
