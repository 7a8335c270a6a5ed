package utils

import (
	"fmt"
	"regexp"
)

var colourRe = regexp.MustCompile(`^#[0-9A-Fa-f]{8}$`)

// Colour is a normalised RGBA colour as GL wants it
type Colour struct {
	R float32
	G float32
	B float32
	A float32
}

func ColourValidate(c string) bool {
	return colourRe.MatchString(c)
}

// ColourParse parses #RRGGBBAA. Invalid input yields transparent black,
// callers are expected to have validated it first.
func ColourParse(s string) Colour {
	var r, g, b, a uint8
	_, err := fmt.Sscanf(s, "#%02x%02x%02x%02x", &r, &g, &b, &a)
	if err != nil {
		return Colour{}
	}
	return Colour{
		R: float32(r) / 255,
		G: float32(g) / 255,
		B: float32(b) / 255,
		A: float32(a) / 255,
	}
}
