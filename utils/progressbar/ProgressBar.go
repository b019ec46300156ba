// Package progressbar implements functionality of printing a progress
// bar to the terminal window
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressBar implements a terminal progress bar with a free-form
// status suffix. The bar is redrawn in place on each Increment call,
// so callers should not write to the same output stream while the bar
// is open.
type ProgressBar struct {
	out io.Writer

	// width determines the number of characters wide that the filled
	// portion of the progress bar should be
	width int

	// max determines the number of times Increment should be called
	// before the progress bar reaches 100%
	max int

	current int
	start   time.Time
	closed  bool
}

// New returns a new progress bar that is width characters wide and
// reaches 100% after max Increment calls. The bar is drawn to out.
func New(out io.Writer, width, max int) *ProgressBar {
	return &ProgressBar{
		out:   out,
		width: width,
		max:   max,
		start: time.Now(),
	}
}

// Increment increments the internal progress counter and redraws the
// bar. The suffix argument is printed after the bar and can be used
// to display run statistics.
func (p *ProgressBar) Increment(suffix string) {
	if p.closed {
		panic("increment: increment on closed progress bar")
	}
	if p.current < p.max {
		p.current++
	}
	p.draw(suffix)
}

// Close closes the progress bar so that it will no longer be redrawn
func (p *ProgressBar) Close() {
	if p.closed {
		panic("close: close on closed progress bar")
	}
	p.closed = true
	fmt.Fprintln(p.out) // Jump to next line after the printed bar
}

// draw redraws the progress bar in place
func (p *ProgressBar) draw(suffix string) {
	progress := float64(p.current) / float64(p.max)
	filled := int(progress * float64(p.width))

	var bar strings.Builder
	bar.WriteString("|")
	for i := 0; i < filled; i++ {
		bar.WriteString("█")
	}
	for i := filled; i < p.width; i++ {
		bar.WriteString(" ")
	}
	elapsed := time.Since(p.start).Round(time.Second)
	bar.WriteString(fmt.Sprintf("| [%.2f%v | elapsed: %v]", progress*100,
		"%", elapsed))

	if suffix != "" {
		bar.WriteString(" ")
		bar.WriteString(suffix)
	}

	fmt.Fprintf(p.out, "\r\033[K%v", bar.String())
}
