package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the formwork banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text, color string
	}{
		{"   __                                    _    ", "#818cf8"},
		{"  / _| ___  _ __ _ __ _____      _____  _ __| | __", "#a78bfa"},
		{" | |_ / _ \\| '__| '_ ` _ \\ \\ /\\ / / _ \\| '__| |/ /", "#c084fc"},
		{" |  _| (_) | |  | | | | | \\ V  V / (_) | |  |   < ", "#e879f9"},
		{" |_|  \\___/|_|  |_| |_| |_|\\_/\\_/ \\___/|_|  |_|\\_\\", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, p.String("  "+version).Faint())
	fmt.Fprintln(w)
}
