package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiDim    = "\033[2m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

// termStyle colors output only when stdout is a terminal.
type termStyle struct {
	out       io.Writer
	useColors bool
}

func newTermStyle() *termStyle {
	return &termStyle{
		out:       os.Stdout,
		useColors: term.IsTerminal(int(os.Stdout.Fd())),
	}
}

func (t *termStyle) colorize(code, text string) string {
	if !t.useColors {
		return text
	}
	return code + text + ansiReset
}

func (t *termStyle) Header(title string) {
	bar := strings.Repeat("━", 48)
	fmt.Fprintln(t.out, t.colorize(ansiCyan, bar))
	fmt.Fprintln(t.out, t.colorize(ansiBold+ansiCyan, "  "+title))
	fmt.Fprintln(t.out, t.colorize(ansiCyan, bar))
}

// Status prints a timer notification.
func (t *termStyle) Status(msg string) {
	fmt.Fprintln(t.out, t.colorize(ansiBold, msg))
}

func (t *termStyle) Success(msg string) {
	fmt.Fprintln(t.out, t.colorize(ansiGreen, "✓ "+msg))
}

func (t *termStyle) Warn(msg string) {
	fmt.Fprintln(t.out, t.colorize(ansiYellow, "⚠ "+msg))
}

func (t *termStyle) Error(msg string) {
	fmt.Fprintln(t.out, t.colorize(ansiRed, "✗ "+msg))
}

func (t *termStyle) Dim(text string) string {
	return t.colorize(ansiDim, text)
}

func (t *termStyle) KeyValue(key, value string) {
	fmt.Fprintf(t.out, "  %s  %s\n", t.colorize(ansiBold, fmt.Sprintf("%-12s", key+":")), value)
}
