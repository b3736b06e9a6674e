package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// spinnerFrames is shared by the inline spinner and the watch TUI.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 100 * time.Millisecond

// spinner animates a single status line on stderr while a packing run is
// in flight. It is tied to the command context, so an interrupt clears
// the line before the command reports its outcome.
type spinner struct {
	label    string
	parent   context.Context
	run      context.Context
	stop     context.CancelFunc
	finished chan struct{}
}

// newSpinnerWithContext creates a spinner bound to ctx. The spinner does
// not draw until Start is called.
func newSpinnerWithContext(ctx context.Context, label string) *spinner {
	run, stop := context.WithCancel(ctx)
	return &spinner{
		label:    label,
		parent:   ctx,
		run:      run,
		stop:     stop,
		finished: make(chan struct{}),
	}
}

// Start launches the animation goroutine. The line is redrawn in place
// until Stop is called or the parent context ends.
func (s *spinner) Start() {
	go s.loop()
}

func (s *spinner) loop() {
	defer func() {
		// Blank the status line so the final output starts clean.
		fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", len(s.label)+4))
		close(s.finished)
	}()

	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-s.run.Done():
			return
		case <-ticker.C:
			frame := spinnerFrames[i%len(spinnerFrames)]
			fmt.Fprintf(os.Stderr, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.label))
		}
	}
}

// Stop halts the animation and waits for the status line to be cleared.
// Stopping more than once is harmless.
func (s *spinner) Stop() {
	s.stop()
	<-s.finished
}

// StopWithError stops the spinner and prints an error line in its place.
func (s *spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the surrounding command was interrupted, as
// opposed to the spinner being stopped by its owner.
func (s *spinner) Cancelled() bool {
	return s.parent.Err() != nil
}
