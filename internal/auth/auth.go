// Package auth implements the credential verifier and the per-process login
// session. Lockout is deliberately process-scoped: five consecutive failures
// halt further attempts until restart.
package auth

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MaxAttempts is the consecutive-failure budget before lockout.
const MaxAttempts = 5

// ErrLocked is returned once the attempt budget is exhausted.
var ErrLocked = errors.New("too many failed logins")

// Verifier checks a username/password pair against a pre-shared
// bcrypt-hashed credential table.
type Verifier struct {
	hashes map[string][]byte
}

// NewVerifier builds a verifier from username -> bcrypt hash.
func NewVerifier(hashes map[string]string) *Verifier {
	m := make(map[string][]byte, len(hashes))
	for user, hash := range hashes {
		m[user] = []byte(hash)
	}
	return &Verifier{hashes: m}
}

// Verify reports whether the pair matches a known credential.
func (v *Verifier) Verify(username, password string) bool {
	hash, ok := v.hashes[username]
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// Session is the injected process-wide login state: the logged-in flag and
// the failed-attempt counter. It starts logged out and is torn down with
// the process.
type Session struct {
	mu       sync.Mutex
	verifier *Verifier
	loggedIn bool
	failures int
}

func NewSession(verifier *Verifier) *Session {
	return &Session{verifier: verifier}
}

// Login attempts to authenticate. A success resets nothing that matters
// (the counter only tracks consecutive failures before the first success);
// a failure consumes one attempt. Once MaxAttempts failures accumulate,
// every call returns ErrLocked.
func (s *Session) Login(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failures >= MaxAttempts {
		return ErrLocked
	}

	if !s.verifier.Verify(username, password) {
		s.failures++
		if s.failures >= MaxAttempts {
			return ErrLocked
		}
		return errors.New("wrong credentials")
	}

	s.loggedIn = true
	return nil
}

// LoggedIn reports whether the session has authenticated.
func (s *Session) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

// AttemptsLeft returns the remaining failure budget.
func (s *Session) AttemptsLeft() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	left := MaxAttempts - s.failures
	if left < 0 {
		return 0
	}
	return left
}

// Logout clears the logged-in flag. The failure counter is untouched.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggedIn = false
}
