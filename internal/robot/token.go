package robot

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
)

const (
	tokenAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	TokenLength   = 36
)

// GenerateToken returns a fresh base62 secret.
func GenerateToken() (string, error) {
	max := big.NewInt(int64(len(tokenAlphabet)))
	buf := make([]byte, TokenLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate token: %w", err)
		}
		buf[i] = tokenAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// Digest is the only form of the token that leaves the client.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Entropy returns the bits entropy (length times log2 of distinct symbols)
// and the base-62 Shannon entropy of token.
func Entropy(token string) (bits, shannon float64) {
	if token == "" {
		return 0, 0
	}
	counts := map[rune]int{}
	total := 0
	for _, r := range token {
		counts[r]++
		total++
	}

	bits = float64(total) * math.Log2(float64(len(counts)))

	base := math.Log(float64(len(tokenAlphabet)))
	for _, c := range counts {
		p := float64(c) / float64(total)
		shannon -= p * math.Log(p) / base
	}
	return bits, shannon
}
