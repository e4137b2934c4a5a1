// Package utils contains small helpers shared across packages.
package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
	"unicode/utf8"
)

// ShortenString cuts s after l characters and appends '...'. l == 0 means no limit.
func ShortenString(s string, l int) string {
	if l != 0 && utf8.RuneCountInString(s) > l {
		return fmt.Sprintf("%s...", string([]rune(s)[:l]))
	}
	return s
}

// HSVToRGB converts a hsv color with components in [0, 1] to rgb.
func HSVToRGB(h, s, v float64) (int32, int32, int32) {
	// from https://go.dev/play/p/9q5yBNDh3W
	var r, g, b float64
	h = h * 6
	i := math.Floor(h)
	v1 := v * (1 - s)
	v2 := v * (1 - s*(h-i))
	v3 := v * (1 - s*(1-(h-i)))

	switch i {
	case 0:
		r, g, b = v, v3, v1
	case 1:
		r, g, b = v2, v, v1
	case 2:
		r, g, b = v1, v, v3
	case 3:
		r, g, b = v1, v2, v
	case 4:
		r, g, b = v3, v1, v
	default:
		r, g, b = v, v1, v2
	}

	r = r * 255 //RGB results from 0 to 255
	g = g * 255
	b = b * 255
	return int32(r), int32(g), int32(b)
}

// RandomString returns base followed by a dash and 16 random hex characters.
func RandomString(base string) (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", base, hex.EncodeToString(b)), nil
}
