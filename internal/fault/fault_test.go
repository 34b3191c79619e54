package fault

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapKeepsSentinelMatching(t *testing.T) {
	err := Wrap(ErrInvalidState, "order is %s", "DELIVERED")
	if !errors.Is(err, ErrInvalidState) {
		t.Fatal("wrapped error lost its sentinel")
	}
	if got := err.Error(); got != "invalid state: order is DELIVERED" {
		t.Fatalf("message = %q", got)
	}

	// double wrapping still matches
	outer := fmt.Errorf("place order: %w", err)
	if !errors.Is(outer, ErrInvalidState) {
		t.Fatal("re-wrapped error lost its sentinel")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{ErrInvalidState, http.StatusConflict},
		{ErrNotAuthorized, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrAlreadyResolved, http.StatusConflict},
		{ErrUnavailable, http.StatusServiceUnavailable},
		{errors.New("anything else"), http.StatusInternalServerError},
		{Wrap(ErrNotFound, "order %s", "ORD-AAAA0000"), http.StatusNotFound},
	}
	for _, c := range cases {
		if got := HTTPStatus(c.err); got != c.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}
