// Package code produces the short numeric codes used to address quizzes
// (host codes), live sessions (join codes) and players. Each of those is an
// independent namespace; uniqueness is the caller's inUse predicate.
package code

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Numeric returns a fixed-width code drawn uniformly from [0, 10^width),
// left-padded with zeros.
func Numeric(width int) (string, error) {
	bound := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(width)), nil)
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", width, n), nil
}

// Unique regenerates until inUse reports the code as free.
func Unique(width int, inUse func(string) bool) (string, error) {
	for {
		c, err := Numeric(width)
		if err != nil {
			return "", err
		}
		if !inUse(c) {
			return c, nil
		}
	}
}
