package cli

import (
	"fmt"
	"sync"

	"github.com/peter2500zz/mod-auto-download/pkg/progress"
)

// phaseLabels maps pipeline phases to the short labels shown on the spinner.
var phaseLabels = map[progress.Phase]string{
	progress.PhaseResolveMods:    "resolving mods",
	progress.PhaseResolveVersion: "checking versions",
	progress.PhaseResolveDeps:    "expanding dependencies",
	progress.PhaseResolveFiles:   "resolving files",
	progress.PhaseDownload:       "downloading",
}

// spinnerSink feeds pipeline progress events into a spinner line. Counters
// reset when the phase changes, so one sink serves the whole run.
type spinnerSink struct {
	spinner *Spinner

	mu    sync.Mutex
	phase progress.Phase
	count int
}

func newSpinnerSink(s *Spinner) *spinnerSink {
	return &spinnerSink{spinner: s}
}

func (s *spinnerSink) Emit(e progress.Event) {
	s.mu.Lock()
	if e.Phase != s.phase {
		s.phase = e.Phase
		s.count = 0
	}
	s.count += e.Advanced
	line := phaseLabels[e.Phase]
	switch {
	case e.Total == progress.TotalUnknown:
		line = fmt.Sprintf("%s (%d)", line, s.count)
	case e.Total > 0:
		line = fmt.Sprintf("%s (%d/%d)", line, s.count, e.Total)
	}
	if e.Message != "" {
		line += ": " + e.Message
	}
	s.mu.Unlock()

	s.spinner.SetMessage(line)
}
