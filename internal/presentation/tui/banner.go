package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Orrery banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{`   ___                            `, "#fde68a"},
		{`  / _ \ _ __ _ __ ___ _ __ _   _  `, "#fcd34d"},
		{` | | | | '__| '__/ _ \ '__| | | | `, "#fbbf24"},
		{` | |_| | |  | | |  __/ |  | |_| | `, "#f59e0b"},
		{`  \___/|_|  |_|  \___|_|   \__, | `, "#d97706"},
		{`                           |___/  `, "#b45309"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
