// Package progress defines the reporting sink the core emits events to.
//
// The core packages never print or log directly; they hand discrete events
// to a [Sink] supplied by the caller. The CLI installs a sink that renders
// them, tests and library consumers can pass [Noop]. There is no package
// level default: the sink is always an explicit argument.
package progress

// Phase identifies which stage of a run an event belongs to.
type Phase string

const (
	PhaseResolveMods    Phase = "resolve-mods"
	PhaseResolveVersion Phase = "resolve-versions"
	PhaseResolveDeps    Phase = "resolve-dependencies"
	PhaseResolveFiles   Phase = "resolve-files"
	PhaseDownload       Phase = "download"
)

// TotalUnknown marks a phase whose total unit count is discovered lazily,
// such as dependency expansion.
const TotalUnknown = -1

// Event is one discrete progress notification.
type Event struct {
	Phase    Phase  // which stage emitted the event
	Advanced int    // units of work completed by this event (may be 0)
	Total    int    // total units for the phase, or TotalUnknown
	Message  string // human-readable note, may be empty
}

// Sink receives progress events. Implementations must be safe for
// concurrent use; phase workers emit from multiple goroutines.
type Sink interface {
	Emit(e Event)
}

// Noop is a Sink that discards all events.
type Noop struct{}

func (Noop) Emit(Event) {}

// Func adapts a function to the Sink interface.
type Func func(Event)

func (f Func) Emit(e Event) { f(e) }
