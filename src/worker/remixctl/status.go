package main

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

func stateLabel(writer io.Writer, available bool) string {
	label, colors := "ok", text.Colors{text.FgGreen}
	if !available {
		label, colors = "missing", text.Colors{text.FgRed, text.Bold}
	}

	if !isTerminal(writer) {
		return label
	}

	return colors.Sprint(label)
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}

	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
