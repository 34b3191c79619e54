package geo

import (
	"math"
	"testing"
)

func TestValidCoord(t *testing.T) {
	cases := []struct {
		lat, lng float64
		want     bool
	}{
		{0, 0, true},
		{7.7322, 8.5391, true},
		{90, 180, true},
		{-90, -180, true},
		{90.0001, 0, false},
		{-91, 0, false},
		{0, 180.5, false},
		{0, -181, false},
	}
	for _, c := range cases {
		if got := ValidCoord(c.lat, c.lng); got != c.want {
			t.Errorf("ValidCoord(%v, %v) = %v, want %v", c.lat, c.lng, got, c.want)
		}
	}
}

func TestHaversine(t *testing.T) {
	if d := Haversine(7.7322, 8.5391, 7.7322, 8.5391); d != 0 {
		t.Errorf("same point distance = %f, want 0", d)
	}

	// one degree of latitude is about 111 km everywhere
	d := Haversine(7, 8.5, 8, 8.5)
	if math.Abs(d-111195) > 200 {
		t.Errorf("one-degree latitude hop = %f m, want ~111195", d)
	}

	// symmetric in its endpoints
	a := Haversine(7.7322, 8.5391, 9.0765, 7.3986)
	b := Haversine(9.0765, 7.3986, 7.7322, 8.5391)
	if math.Abs(a-b) > 1e-6 {
		t.Errorf("asymmetric distance: %f vs %f", a, b)
	}
}
