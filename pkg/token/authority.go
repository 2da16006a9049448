// Package token implements the in-memory bearer token authority shared by
// every service. Tokens are opaque, live only for the process lifetime and
// are the sole piece of mutable state touched by concurrent requests.
package token

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Authority issues and validates opaque bearer tokens. The zero TTL means
// tokens never expire; entries are only discarded at process exit.
type Authority struct {
	mu     sync.RWMutex
	tokens map[string]time.Time // token -> issuance time
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthority creates an Authority with the given token lifetime.
func NewAuthority(ttl time.Duration) *Authority {
	return &Authority{
		tokens: make(map[string]time.Time),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue generates a fresh opaque token and records it as valid. It never
// fails.
func (a *Authority) Issue() string {
	tok := uuid.NewString()

	a.mu.Lock()
	a.tokens[tok] = a.now()
	a.mu.Unlock()

	return tok
}

// Validate reports whether the token was issued by this authority and has not
// expired. It is read-only: failed validations have no side effects.
func (a *Authority) Validate(tok string) bool {
	a.mu.RLock()
	issuedAt, ok := a.tokens[tok]
	a.mu.RUnlock()

	if !ok {
		return false
	}
	if a.ttl <= 0 {
		return true
	}
	return a.now().Sub(issuedAt) < a.ttl
}

// Count returns the number of tokens issued so far, expired ones included.
func (a *Authority) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.tokens)
}
