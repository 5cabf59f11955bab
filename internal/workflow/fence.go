package workflow

import (
	"sync"

	"github.com/google/uuid"
)

// Fence serializes list refreshes without cancellation: each refresh is
// issued a token, and only the response carrying the latest token may be
// applied. A stale response — including one that lands after logout, when
// the fence has been invalidated — is dropped instead of overwriting
// fresher state.
type Fence struct {
	mu      sync.Mutex
	current string
}

// Issue starts a new generation and returns its token. Any earlier token
// stops being admitted immediately.
func (f *Fence) Issue() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = uuid.NewString()
	return f.current
}

// Admit reports whether a response carrying token is still current.
func (f *Fence) Admit(token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return token != "" && token == f.current
}

// Invalidate drops all outstanding generations. Called on logout so that
// in-flight authenticated responses can never populate state afterwards.
func (f *Fence) Invalidate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = ""
}
