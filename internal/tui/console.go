package tui

import (
	"fmt"
	"io"

	"xnbconv/internal/processor"
)

// RunConsole prints one line per status change until updates is closed.
// It is the reporter for output that is not an interactive terminal.
func RunConsole(w io.Writer, updates <-chan processor.Progress) {
	last := ""
	for p := range updates {
		if p.Status == last {
			continue
		}
		last = p.Status
		fmt.Fprintf(w, "[%3.0f%%] %s\n", p.Percent, p.Status)
	}
}

// Drain discards updates until the channel is closed.
func Drain(updates <-chan processor.Progress) {
	for range updates {
	}
}
