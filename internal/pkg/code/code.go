package code

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Numeric generates a cryptographically random code of n decimal digits,
// zero-padded. Used for two-factor and password recovery codes.
func Numeric(n int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < n; i++ {
		max.Mul(max, big.NewInt(10))
	}
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", n, v), nil
}
