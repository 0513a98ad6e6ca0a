// Package toast defines the notification sink mutation paths report
// human-readable outcomes to. The TUI binds it to bubbleup alerts; plain
// CLI commands bind it to colored output.
package toast

// Sink receives human-readable notifications. Implementations must be safe
// for concurrent use.
type Sink interface {
	Success(message string)
	Error(message string)
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Success(string) {}
func (discard) Error(string)   {}
