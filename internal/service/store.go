package service

import (
	"time"

	"github.com/ayo6706/banking-ledger/internal/auth"
)

// PasswordHasher produces and checks password digests.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(digest, password string) (bool, error)
}

// TokenSigner issues session tokens.
type TokenSigner interface {
	Sign(id auth.Identity) (string, error)
}

// Clock returns the current time. Services default to time.Now.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
