package code

import "testing"

func TestNumeric_FixedWidthDigitsOnly(t *testing.T) {
	for _, width := range []int{4, 5, 6} {
		for i := 0; i < 200; i++ {
			c, err := Numeric(width)
			if err != nil {
				t.Fatalf("Numeric(%d): %v", width, err)
			}
			if len(c) != width {
				t.Fatalf("Numeric(%d) = %q, want width %d", width, c, width)
			}
			for _, r := range c {
				if r < '0' || r > '9' {
					t.Fatalf("Numeric(%d) = %q, non-digit %q", width, c, r)
				}
			}
		}
	}
}

func TestUnique_SkipsLiveCodes(t *testing.T) {
	// Width 1 has only ten values; blocking all but one forces regeneration.
	c, err := Unique(1, func(c string) bool { return c != "7" })
	if err != nil {
		t.Fatalf("Unique: %v", err)
	}
	if c != "7" {
		t.Fatalf("Unique returned a live code: %q", c)
	}
}

func TestUnique_NoCollisionsAcross10000(t *testing.T) {
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		c, err := Unique(5, func(c string) bool { return seen[c] })
		if err != nil {
			t.Fatalf("generation %d: %v", i, err)
		}
		if seen[c] {
			t.Fatalf("generation %d: duplicate code %q", i, c)
		}
		seen[c] = true
	}
}
