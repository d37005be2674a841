package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the babsim banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	// Hyundai blue fading to teal
	lines := []struct {
		text  string
		color string
	}{
		{" _           _     _           ", "#002c5f"},
		{"| |__   __ _| |__ (_)_ __ ___  ", "#00418a"},
		{"| '_ \\ / _` | '_ \\| | '_ ` _ \\ ", "#0057b8"},
		{"| |_) | (_| | |_) | | | | | | |", "#007fa8"},
		{"|_.__/ \\__,_|_.__/|_|_| |_| |_|", "#00aad2"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Prompt returns the coloured input prompt of the chat loop.
func Prompt(w io.Writer) string {
	out := termenv.NewOutput(w)
	return out.String("you> ").Foreground(out.Color("#00aad2")).Bold().String()
}

// Dim renders s in a faint style, used for run metadata.
func Dim(w io.Writer, s string) string {
	out := termenv.NewOutput(w)
	return out.String(s).Faint().String()
}
