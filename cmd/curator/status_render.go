package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

var statusStyles = map[statusKind]struct {
	label string
	ansi  string
}{
	statusInfo:  {"INFO", "\x1b[34m"},
	statusOK:    {"OK", "\x1b[32m"},
	statusWarn:  {"WARN", "\x1b[33m"},
	statusError: {"ERROR", "\x1b[31m"},
}

const (
	ansiReset        = "\x1b[0m"
	statusLabelWidth = 18
)

// statusWriter prints aligned "label: [KIND] message" lines, colored only
// when out is a terminal.
type statusWriter struct {
	out   io.Writer
	color bool
}

func newStatusWriter(out io.Writer) *statusWriter {
	return &statusWriter{out: out, color: isTerminal(out)}
}

func (w *statusWriter) header(title string) {
	line := "== " + strings.TrimSpace(title) + " =="
	w.println(w.paint(statusInfo, line))
	w.println(w.paint(statusInfo, strings.Repeat("-", len(line))))
}

func (w *statusWriter) line(label string, kind statusKind, message string) {
	text := fmt.Sprintf("  %-*s [%s]", statusLabelWidth, label+":", statusStyles[kind].label)
	if message != "" {
		text += " " + message
	}
	w.println(w.paint(kind, text))
}

func (w *statusWriter) paint(kind statusKind, text string) string {
	if !w.color {
		return text
	}
	return statusStyles[kind].ansi + text + ansiReset
}

func (w *statusWriter) println(text string) {
	fmt.Fprintln(w.out, text)
}

func isTerminal(out io.Writer) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
