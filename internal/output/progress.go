package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// writerIsTTY reports whether w is a terminal. Writers without an Fd method,
// such as *bytes.Buffer, are never terminals.
func writerIsTTY(w io.Writer) bool {
	type fder interface {
		Fd() uintptr
	}
	if f, ok := w.(fder); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}

// Progress reports how many of a known number of items have been processed.
// On a terminal it redraws a single line; elsewhere it prints one line when
// the work completes.
//
//	[==========>         ] 12/24 importing gems
type Progress struct {
	mu          sync.Mutex
	total       int
	current     int
	width       int
	description string
	writer      io.Writer
}

// NewProgress creates a progress line writing to stderr.
func NewProgress(total int, description string) *Progress {
	return &Progress{
		total:       total,
		width:       20,
		description: description,
		writer:      os.Stderr,
	}
}

// SetWriter redirects the progress output.
func (p *Progress) SetWriter(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writer = w
}

// Increment advances the progress by one item.
func (p *Progress) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current < p.total {
		p.current++
	}
	if writerIsTTY(p.writer) {
		fmt.Fprintf(p.writer, "\r%s", p.line())
	}
}

// Finish marks every item processed and terminates the line.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = p.total
	if writerIsTTY(p.writer) {
		fmt.Fprintf(p.writer, "\r%s\n", p.line())
		return
	}
	fmt.Fprintln(p.writer, p.line())
}

// line renders the current state. Must be called with the lock held.
func (p *Progress) line() string {
	filled := 0
	if p.total > 0 {
		filled = p.current * p.width / p.total
	}

	var bar strings.Builder
	bar.WriteByte('[')
	for i := 0; i < p.width; i++ {
		switch {
		case i < filled-1:
			bar.WriteByte('=')
		case i == filled-1:
			bar.WriteByte('>')
		default:
			bar.WriteByte(' ')
		}
	}
	bar.WriteByte(']')

	return fmt.Sprintf("%s %d/%d %s", bar.String(), p.current, p.total, p.description)
}

// Spinner animates an indeterminate operation on a terminal. On any other
// writer it prints the message once.
type Spinner struct {
	mu      sync.Mutex
	message string
	running bool
	writer  io.Writer
	done    chan struct{}
}

var spinnerFrames = []string{"|", "/", "-", "\\"}

// NewSpinner creates a stopped spinner writing to stderr.
func NewSpinner(message string) *Spinner {
	return &Spinner{
		message: message,
		writer:  os.Stderr,
	}
}

// SetWriter redirects the spinner output.
func (s *Spinner) SetWriter(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer = w
}

// Start begins the animation. Calling Start on a running spinner is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.done = make(chan struct{})

	if !writerIsTTY(s.writer) {
		fmt.Fprintf(s.writer, "%s...\n", s.message)
		return
	}

	go s.animate(s.done)
}

func (s *Spinner) animate(done <-chan struct{}) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for frame := 0; ; frame = (frame + 1) % len(spinnerFrames) {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.mu.Lock()
			// Stop may have cleared the line while this tick waited on the lock.
			select {
			case <-done:
				s.mu.Unlock()
				return
			default:
			}
			fmt.Fprintf(s.writer, "\r%s  %s", spinnerFrames[frame], s.message)
			s.mu.Unlock()
		}
	}
}

// Stop ends the animation and clears the line. Safe to call more than once.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	close(s.done)

	if writerIsTTY(s.writer) {
		fmt.Fprintf(s.writer, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
	}
}

// StopWithMessage stops the spinner and prints a final message.
func (s *Spinner) StopWithMessage(message string) {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.writer, message)
}
