// Package color parses hex colors and scores RGB similarity.
package color

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxDistance is the Euclidean distance between black and white.
var MaxDistance = math.Sqrt(3 * 255 * 255)

var ErrInvalidHex = errors.New("color: hex must be 6 hex digits with an optional leading #")

type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// ParseHex accepts "RRGGBB" or "#RRGGBB", case-insensitive.
func ParseHex(value string) (RGB, error) {
	s := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidHex, value)
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidHex, value)
	}
	return RGB{R: int(n >> 16 & 0xff), G: int(n >> 8 & 0xff), B: int(n & 0xff)}, nil
}

// Hex renders the color as "#RRGGBB".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", clamp(c.R), clamp(c.G), clamp(c.B))
}

// Distance is the Euclidean distance in RGB space.
func Distance(a, b RGB) float64 {
	dr := float64(a.R - b.R)
	dg := float64(a.G - b.G)
	db := float64(a.B - b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// Similarity maps distance onto [0, 100], rounded to two decimals. It is
// exactly 100 only for identical colors.
func Similarity(a, b RGB) float64 {
	return Round2(100 - Distance(a, b)/MaxDistance*100)
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
