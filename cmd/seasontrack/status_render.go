package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"seasontrack/internal/preflight"
)

type statusLevel int

const (
	levelInfo statusLevel = iota
	levelOK
	levelWarn
	levelError
)

type levelStyle struct {
	tag   string
	color string
}

var levelStyles = map[statusLevel]levelStyle{
	levelInfo:  {tag: "INFO", color: "\x1b[34m"},
	levelOK:    {tag: "OK", color: "\x1b[32m"},
	levelWarn:  {tag: "WARN", color: "\x1b[33m"},
	levelError: {tag: "ERROR", color: "\x1b[31m"},
}

const ansiReset = "\x1b[0m"

// statusLabelWidth fits the longest check name ("Data directory").
const statusLabelWidth = 16

func (l statusLevel) tag() string { return levelStyles[l].tag }

// levelForResult maps a preflight result onto a status level.
func levelForResult(result preflight.Result) statusLevel {
	switch {
	case !result.Passed:
		return levelError
	case result.Warning:
		return levelWarn
	default:
		return levelOK
	}
}

// statusWriter buffers the status report so it is written in one call.
// Only the level tag is coloured, which keeps labels aligned on terminals.
type statusWriter struct {
	out      io.Writer
	colorize bool
	lines    []string
}

func newStatusWriter(out io.Writer) *statusWriter {
	return &statusWriter{out: out, colorize: isTerminal(out)}
}

func (s *statusWriter) section(title string) {
	if len(s.lines) > 0 {
		s.lines = append(s.lines, "")
	}
	title = strings.TrimSpace(title)
	s.lines = append(s.lines, title, strings.Repeat("=", len(title)))
}

func (s *statusWriter) line(label string, level statusLevel, detail string) {
	tag := fmt.Sprintf("%-5s", level.tag())
	if s.colorize {
		tag = levelStyles[level].color + tag + ansiReset
	}
	s.lines = append(s.lines, strings.TrimRight(
		fmt.Sprintf("  %-*s %s  %s", statusLabelWidth, label, tag, detail), " "))
}

func (s *statusWriter) check(result preflight.Result) {
	s.line(result.Name, levelForResult(result), result.Detail)
}

func (s *statusWriter) flush() error {
	_, err := fmt.Fprintln(s.out, strings.Join(s.lines, "\n"))
	s.lines = nil
	return err
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
