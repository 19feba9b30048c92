package encryption

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"ssci-go/internal/gateway"
)

// LockHasher hashes and verifies file lock passcodes with bcrypt. The plain
// passcode is never stored and never cached across calls.
type LockHasher struct{}

var _ gateway.PasscodeVerifier = (*LockHasher)(nil)

func NewLockHasher() *LockHasher { return &LockHasher{} }

// Hash returns a bcrypt hash of the passcode.
func (LockHasher) Hash(passcode string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing passcode: %w", err)
	}
	return string(hash), nil
}

// Check reports whether the passcode matches the stored hash. An empty or
// malformed hash never matches.
func (LockHasher) Check(hash, passcode string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(passcode)) == nil
}
