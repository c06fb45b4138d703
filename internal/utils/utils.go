package utils

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidBound is returned when a random bound is not positive.
var ErrInvalidBound = errors.New("random bound must be positive")

// RandomInt returns a uniformly distributed integer in [0, n) from crypto/rand.
func RandomInt(n int) (int, error) {
	if n <= 0 {
		return 0, ErrInvalidBound
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to read random number: %w", err)
	}
	return int(v.Int64()), nil
}

// Shuffle permutes items in place with a Fisher-Yates pass driven by RandomInt.
func Shuffle[T any](items []T) error {
	for i := len(items) - 1; i > 0; i-- {
		j, err := RandomInt(i + 1)
		if err != nil {
			return err
		}
		items[i], items[j] = items[j], items[i]
	}
	return nil
}

// GenerateRandomString generates a random upper-case base32 string of the specified length
func GenerateRandomString(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b)
	return encoded[:length], nil
}

// NewDrawRef builds a human-referenceable draw id such as DRAW-20261016-7KQ2M6XA.
func NewDrawRef(prefix string, at time.Time) (string, error) {
	suffix, err := GenerateRandomString(8)
	if err != nil {
		return "", err
	}
	if prefix == "" {
		prefix = "DRAW"
	}
	return fmt.Sprintf("%s-%s-%s", prefix, at.UTC().Format("20060102"), suffix), nil
}

// FormatPence renders minor units as pounds, e.g. 1250 -> "£12.50".
func FormatPence(pence int64) string {
	amount := decimal.New(pence, -2).StringFixed(2)
	if strings.HasPrefix(amount, "-") {
		return "-£" + amount[1:]
	}
	return "£" + amount
}

// MaskID hides all but the last four characters of an identifier.
func MaskID(id string) string {
	if len(id) <= 4 {
		return id
	}
	return strings.Repeat("*", len(id)-4) + id[len(id)-4:]
}
