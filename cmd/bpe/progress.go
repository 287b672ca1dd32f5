package main

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	countStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("147"))

	doneStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))
)

// progress prints "Processing: done / total" on a single, rewritten, line.
type progress struct {
	w        io.Writer
	interval time.Duration
	last     time.Time
	printed  bool
}

func newProgress(w io.Writer) *progress {
	return &progress{w: w, interval: 100 * time.Millisecond}
}

// Update implements the bpe.WithProgress callback. Updates are throttled, except the last one.
func (p *progress) Update(done, total int) {
	now := time.Now()
	if done < total && p.printed && now.Sub(p.last) < p.interval {
		return
	}
	p.last = now
	p.printed = true
	_, _ = fmt.Fprintf(p.w, "\r%s %s", labelStyle.Render("Processing:"),
		countStyle.Render(fmt.Sprintf("%d / %d", done, total)))
}

// Done ends the progress line.
func (p *progress) Done() {
	if p.printed {
		_, _ = fmt.Fprintln(p.w)
	}
	_, _ = fmt.Fprintln(p.w, doneStyle.Render("Done!"))
}
