// Package output renders user-facing CLI output. Informational and
// progress messages go to Stderr; machine-usable results (tables, values)
// go to Stdout, so selection and listing output stays scriptable. Both
// writers can be overridden in tests.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
	gray   = color.New(color.FgHiBlack)
	bold   = color.New(color.Bold)

	// Output writers (can be overridden for testing).
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr

	noColor = os.Getenv("NO_COLOR") != "" || !isTerminal(os.Stdout)
)

func init() {
	if noColor {
		color.NoColor = true
	}
}

// Success prints a success message with a checkmark.
// Example: ✓ Sandbox created
func Success(format string, a ...any) {
	fmt.Fprintf(Stderr, green.Sprint("✓")+" "+format+"\n", a...)
}

// Info prints an informational message with an arrow.
// Example: → Creating instance...
func Info(format string, a ...any) {
	fmt.Fprintf(Stderr, cyan.Sprint("→")+" "+format+"\n", a...)
}

// Warning prints a warning message.
// Example: ⚠ readiness not confirmed, continuing
func Warning(format string, a ...any) {
	fmt.Fprintf(Stderr, yellow.Sprint("⚠")+" "+format+"\n", a...)
}

// Error prints an error message.
// Example: ✗ failed to create instance: quota exceeded
func Error(format string, a ...any) {
	fmt.Fprintf(Stderr, red.Sprint("✗")+" "+format+"\n", a...)
}

// Step prints a step in a multi-step process.
// Example: [2/6] Ensuring firewall rule
func Step(step, total int, message string) {
	gray.Fprintf(Stderr, "[%d/%d] ", step, total)
	fmt.Fprintln(Stderr, message)
}

// StepSuccess prints a successful step completion.
func StepSuccess(step, total int, message string) {
	gray.Fprintf(Stderr, "[%d/%d] ", step, total)
	fmt.Fprintf(Stderr, "%s %s\n", green.Sprint("✓"), message)
}

// StepWarning prints a step that completed in a degraded state.
func StepWarning(step, total int, message string) {
	gray.Fprintf(Stderr, "[%d/%d] ", step, total)
	fmt.Fprintf(Stderr, "%s %s\n", yellow.Sprint("⚠"), message)
}

// Header prints a section header with a separator line.
func Header(text string) {
	fmt.Fprintln(Stderr)
	fmt.Fprintln(Stderr, bold.Sprint(text))
	fmt.Fprintln(Stderr, gray.Sprint(strings.Repeat("━", 50)))
}

// KeyValue prints a key-value pair with indentation.
// Example:   Zone: us-central1-a
func KeyValue(key, value string) {
	fmt.Fprintf(Stdout, "  %s: %s\n", gray.Sprint(key), value)
}

// Blank prints a blank line.
func Blank() {
	fmt.Fprintln(Stderr)
}

// Option prints one numbered menu entry. Menus accompany a Prompt and
// share its informational channel, leaving Stdout for results.
// Example:   2) sandboxctl-alice (us-central1-a)
func Option(n int, label string) {
	fmt.Fprintf(Stderr, "  %s %s\n", gray.Sprintf("%d)", n), label)
}

// Println prints a plain line to Stdout.
func Println(a ...any) {
	fmt.Fprintln(Stdout, a...)
}

// Printf prints formatted plain text to Stdout.
func Printf(format string, a ...any) {
	fmt.Fprintf(Stdout, format, a...)
}

// Bold returns text in bold.
func Bold(text string) string { return bold.Sprint(text) }

// Cyan returns text in cyan.
func Cyan(text string) string { return cyan.Sprint(text) }

// Gray returns text in gray.
func Gray(text string) string { return gray.Sprint(text) }

// Green returns text in green.
func Green(text string) string { return green.Sprint(text) }

// Yellow returns text in yellow.
func Yellow(text string) string { return yellow.Sprint(text) }

// Prompt prints a question to Stderr and reads one trimmed line from in.
// Prompts share the informational channel so redirected stdout never
// captures them. It reads a byte at a time so consecutive prompts on the
// same reader never consume each other's input.
func Prompt(in io.Reader, prompt string) (string, error) {
	fmt.Fprintf(Stderr, "%s: ", cyan.Sprint("?")+" "+prompt)

	var line strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			line.WriteByte(buf[0])
		}
		if err != nil {
			if line.Len() == 0 {
				return "", err
			}
			break
		}
	}
	return strings.TrimSpace(line.String()), nil
}

// StatusBadge returns a colored status marker for an instance state.
func StatusBadge(status string) string {
	switch strings.ToUpper(status) {
	case "RUNNING":
		return green.Sprint("● " + status)
	case "PROVISIONING", "STAGING":
		return yellow.Sprint("● " + status)
	case "STOPPING", "TERMINATED", "SUSPENDED":
		return red.Sprint("● " + status)
	default:
		return gray.Sprint("● " + status)
	}
}

// Table prints a simple aligned table with headers to Stdout.
func Table(headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for i, h := range headers {
		fmt.Fprintf(Stdout, "%-*s  ", widths[i], h)
	}
	fmt.Fprintln(Stdout)
	for i := range headers {
		fmt.Fprintf(Stdout, "%s  ", gray.Sprint(strings.Repeat("─", widths[i])))
	}
	fmt.Fprintln(Stdout)
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				fmt.Fprintf(Stdout, "%-*s  ", widths[i], cell)
			}
		}
		fmt.Fprintln(Stdout)
	}
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		fileInfo, _ := f.Stat()
		return (fileInfo.Mode() & os.ModeCharDevice) != 0
	}
	return false
}
