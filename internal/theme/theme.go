// Package theme holds the process-wide color theme. It is initialized once
// from the persisted configuration value and read through an explicit
// accessor, never ambiently.
package theme

import "sync"

// Theme name.
const (
	Dark  = "dark"
	Light = "light"
)

var (
	mu      sync.Mutex
	current = Dark
)

// Init sets the theme from the persisted configuration value. Unknown
// values fall back to dark.
func Init(value string) {
	mu.Lock()
	defer mu.Unlock()
	if value == Light {
		current = Light
		return
	}
	current = Dark
}

// Current returns the active theme.
func Current() string {
	mu.Lock()
	defer mu.Unlock()
	return current
}

// Toggle flips the theme and returns the new value. The caller persists it.
func Toggle() string {
	mu.Lock()
	defer mu.Unlock()
	if current == Dark {
		current = Light
	} else {
		current = Dark
	}
	return current
}
