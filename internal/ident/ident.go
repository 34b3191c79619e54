// Package ident generates the opaque identifiers the marketplace hands out:
// order ids, session tokens and one-time login codes. All of them come from
// crypto/rand.
package ident

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// NewOrderID returns an id of the form ORD- plus 8 uppercase hex characters.
// Collisions are vanishingly rare at this length but callers still re-check
// uniqueness against the store and retry.
func NewOrderID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return "ORD-" + strings.ToUpper(hex.EncodeToString(b))
}

// NewSessionToken returns a 32-char hex token for the session layer.
func NewSessionToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// NewOTP returns a zero-padded 6 digit one-time code.
func NewOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		// rand.Reader failing means the whole process is in trouble;
		// a fixed code would be worse than refusing login.
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64())
}
