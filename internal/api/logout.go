package api

import "sync"

// LogoutReason says why a logout was requested.
type LogoutReason string

// ReasonUnauthorized is fired when the server answers 401.
const ReasonUnauthorized LogoutReason = "unauthorized"

// LogoutSignal broadcasts "the user should log out" to registered handlers.
// Handlers run synchronously on the firing goroutine.
type LogoutSignal struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]func(LogoutReason)
}

// NewLogoutSignal returns a signal with no handlers.
func NewLogoutSignal() *LogoutSignal {
	return &LogoutSignal{handlers: make(map[int]func(LogoutReason))}
}

// Subscribe registers fn and returns a function that removes it.
func (s *LogoutSignal) Subscribe(fn func(LogoutReason)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.handlers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.handlers, id)
			s.mu.Unlock()
		})
	}
}

// Fire calls every handler once.
func (s *LogoutSignal) Fire(reason LogoutReason) {
	if s == nil {
		return
	}
	s.mu.Lock()
	handlers := make([]func(LogoutReason), 0, len(s.handlers))
	for _, fn := range s.handlers {
		handlers = append(handlers, fn)
	}
	s.mu.Unlock()

	for _, fn := range handlers {
		fn(reason)
	}
}
