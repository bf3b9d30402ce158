// Package otp issues and verifies the numeric one-time codes used to
// authorize password resets.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	// Length is the number of decimal digits in a code.
	Length = 6
	// TTL is how long a stored code stays valid.
	TTL = 15 * time.Minute
)

// Generate returns a code of Length uniformly distributed decimal digits.
func Generate() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < Length; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", Length, n), nil
}

// Store keeps at most one live code per key. Put replaces any existing entry
// and restarts the TTL.
//
// ConsumeIfMatch reports whether the stored code for key equals code. A match
// removes the entry, making codes single-use. A wrong guess leaves the entry
// in place so further attempts against a still-valid code remain possible;
// absent or expired entries report false. Implementations must make the
// compare-and-delete atomic with respect to concurrent calls.
type Store interface {
	Put(ctx context.Context, key, code string) error
	ConsumeIfMatch(ctx context.Context, key, code string) (bool, error)
}
