// Package selection tracks which chat is active.
package selection

import "sync"

// None is the empty selection.
const None = ""

// Selector holds the active chat id and fans selection changes out to a
// single observer. Select is idempotent: re-selecting the active chat has
// no side effects.
type Selector struct {
	mu       sync.Mutex
	active   string
	onChange func(chatID string)
}

// New selector with no active chat.
func New() *Selector {
	return &Selector{}
}

// OnChange registers the observer invoked after every effective selection
// change. The observer runs outside the selector's lock.
func (s *Selector) OnChange(fn func(chatID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Active returns the active chat id, or None.
func (s *Selector) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Select makes chatID the active chat. Selecting the already-active chat is
// a no-op. Returns whether the selection changed.
func (s *Selector) Select(chatID string) bool {
	s.mu.Lock()
	if s.active == chatID {
		s.mu.Unlock()
		return false
	}
	s.active = chatID
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(chatID)
	}
	return true
}

// ClearIf resets the selection to None if chatID is currently active. Used
// by the registry's delete path so a deleted chat never stays selected.
func (s *Selector) ClearIf(chatID string) bool {
	s.mu.Lock()
	if s.active != chatID || chatID == None {
		s.mu.Unlock()
		return false
	}
	s.active = None
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(None)
	}
	return true
}
