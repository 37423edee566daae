package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/nguyentantai21042004/session-narrator/internal/summarizer"
)

var (
	colorCyan   = lipgloss.Color("#00FFFF")
	colorGreen  = lipgloss.Color("#00FF00")
	colorYellow = lipgloss.Color("#FFFF00")
	colorRed    = lipgloss.Color("#FF0000")
	colorGray   = lipgloss.Color("#666666")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	phaseStyle = lipgloss.NewStyle().
			Foreground(colorCyan)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	okStyle = lipgloss.NewStyle().
		Foreground(colorGreen).
		Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)
)

// progressPrinter renders summarizer progress as one line per step. Styling is
// dropped when the output is not a terminal.
type progressPrinter struct {
	w      io.Writer
	styled bool
	start  time.Time
}

func newProgressPrinter(f *os.File) *progressPrinter {
	return &progressPrinter{
		w:      f,
		styled: term.IsTerminal(int(f.Fd())),
		start:  time.Now(),
	}
}

func (p *progressPrinter) render(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}

// Print is a summarizer.ProgressFunc.
func (p *progressPrinter) Print(pr summarizer.Progress) {
	if pr.State == summarizer.StateCombining {
		p.start = time.Now()
	}

	var msg string
	switch pr.State {
	case summarizer.StateCombining:
		msg = "Combining transcripts"
	case summarizer.StateChunking:
		msg = "Splitting into chunks"
	case summarizer.StateSummarizingChunk:
		msg = fmt.Sprintf("Summarizing chunk %d/%d", pr.Chunk, pr.Total)
	case summarizer.StateReducing:
		msg = "Writing the final narrative"
	default:
		msg = string(pr.State)
	}

	elapsed := time.Since(p.start).Round(time.Second)
	fmt.Fprintf(p.w, "%s %s\n", p.render(phaseStyle, "▸ "+msg), p.render(mutedStyle, elapsed.String()))
}

func (p *progressPrinter) Done(msg string) {
	fmt.Fprintln(p.w, p.render(okStyle, "✓ "+msg))
}

func (p *progressPrinter) Warn(msg string) {
	fmt.Fprintln(p.w, p.render(warnStyle, "! "+msg))
}
