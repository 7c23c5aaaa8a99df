package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"payloadseed/internal/preflight"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

const (
	statusLabelWidth = 22
	statusIndent     = "  "
)

func renderCheckLine(result preflight.Result, colorize bool) string {
	label := "OK"
	color := ansiGreen
	if !result.Passed {
		label = "FAIL"
		color = ansiRed
	}
	status := fmt.Sprintf("[%s]", label)
	if result.Detail != "" {
		status = fmt.Sprintf("[%s] %s", label, result.Detail)
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, result.Name+":", status)
	if colorize {
		return color + line + ansiReset
	}
	return line
}

func printChecks(out io.Writer, results []preflight.Result) {
	colorize := shouldColorize(out)
	for _, result := range results {
		fmt.Fprintln(out, renderCheckLine(result, colorize))
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
