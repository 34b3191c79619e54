package ident

import (
	"regexp"
	"testing"
)

func TestNewOrderIDShape(t *testing.T) {
	re := regexp.MustCompile(`^ORD-[0-9A-F]{8}$`)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewOrderID()
		if !re.MatchString(id) {
			t.Fatalf("bad order id %q", id)
		}
		seen[id] = true
	}
	if len(seen) < 99 {
		t.Fatalf("only %d distinct ids in 100 draws", len(seen))
	}
}

func TestNewSessionToken(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-f]{32}$`)
	a, b := NewSessionToken(), NewSessionToken()
	if !re.MatchString(a) || !re.MatchString(b) {
		t.Fatalf("bad tokens %q %q", a, b)
	}
	if a == b {
		t.Fatal("tokens must not repeat")
	}
}

func TestNewOTP(t *testing.T) {
	re := regexp.MustCompile(`^[0-9]{6}$`)
	for i := 0; i < 50; i++ {
		if code := NewOTP(); !re.MatchString(code) {
			t.Fatalf("bad otp %q", code)
		}
	}
}
