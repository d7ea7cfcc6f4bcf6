package screenshotter

import "sync"

// ErrorLog collects console errors and uncaught exceptions reported by a page,
// in the order they arrive. Browser event listeners run on their own
// goroutines, so every method is safe for concurrent use.
type ErrorLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *ErrorLog) addConsoleError(text string) {
	l.Add("console error: " + text)
}

func (l *ErrorLog) addPageError(message string) {
	l.Add("page error: " + message)
}

// Add appends a message.
func (l *ErrorLog) Add(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, message)
}

// Entries returns a copy of the collected messages.
func (l *ErrorLog) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}
