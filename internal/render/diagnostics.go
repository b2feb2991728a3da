package render

import "sync"

// Diagnostic kinds.
const (
	DiagUnknownNode         = "unknown_node"
	DiagUnresolvedReference = "unresolved_reference"
	DiagHighlightFailed     = "highlight_failed"
)

// Diagnostic is a non-fatal problem found while rendering.
type Diagnostic struct {
	Kind    string
	Package string
	Page    string
	Message string
}

// Diagnostics receives render diagnostics. Implementations must be safe
// for concurrent use.
type Diagnostics interface {
	Report(Diagnostic)
}

type discard struct{}

func (discard) Report(Diagnostic) {}

// Collector keeps every reported diagnostic in memory.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
}

func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, d)
}

// Diagnostics returns a snapshot of what has been reported.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Diagnostic(nil), c.items...)
}
