package checkout

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"smpos/backend/internal/domain"
)

// DefaultTerminal is used when a request names no till.
const DefaultTerminal = "main-terminal"

// DefaultMaxTerminals bounds how many tills one process tracks.
const DefaultMaxTerminals = 32

var (
	ErrInvalidTerminal = errors.New("invalid terminal id")
	ErrTerminalLimit   = errors.New("too many open terminals")
)

var terminalPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,31}$`)

// Registry keeps one session per till, up to a fixed number of tills. When
// full, a till with an empty cart makes room for a new one.
type Registry struct {
	mu       sync.Mutex
	max      int
	sessions map[string]*Session
}

func NewRegistry(maxTerminals int) *Registry {
	if maxTerminals < 1 {
		maxTerminals = DefaultMaxTerminals
	}
	return &Registry{max: maxTerminals, sessions: make(map[string]*Session)}
}

// Session returns the till's session, opening an empty one on first use.
func (r *Registry) Session(terminalID string) (*Session, error) {
	terminalID = normalizeTerminal(terminalID)
	if !terminalPattern.MatchString(terminalID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTerminal, terminalID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[terminalID]; ok {
		return session, nil
	}
	if len(r.sessions) >= r.max && !r.evictIdleLocked() {
		return nil, ErrTerminalLimit
	}
	session := NewSession(terminalID)
	r.sessions[terminalID] = session
	return session, nil
}

// Len reports the number of tracked tills.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) evictIdleLocked() bool {
	for id, session := range r.sessions {
		if session.View().State == domain.CheckoutEmpty {
			delete(r.sessions, id)
			return true
		}
	}
	return false
}

func normalizeTerminal(terminalID string) string {
	terminalID = strings.TrimSpace(terminalID)
	if terminalID == "" {
		return DefaultTerminal
	}
	return terminalID
}
