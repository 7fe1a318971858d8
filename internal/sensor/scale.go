package sensor

import (
	"fmt"
	"strings"

	"codeberg.org/mutker/thermotrack/internal/errors"
)

// Scale is the unit readings are reported in.
type Scale string

const (
	Celsius    Scale = "C"
	Fahrenheit Scale = "F"
)

// ParseScale accepts "C", "F", "celsius" or "fahrenheit" in any case.
func ParseScale(s string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "celsius":
		return Celsius, nil
	case "f", "fahrenheit":
		return Fahrenheit, nil
	default:
		return "", errors.New().WithData(ErrInvalidConfig, struct {
			Field string
			Value string
		}{
			Field: "scale",
			Value: s,
		})
	}
}

// Convert converts a Celsius value into s.
func (s Scale) Convert(celsius float64) float64 {
	if s == Fahrenheit {
		return celsius*9/5 + 32
	}
	return celsius
}

// Format renders v with two decimals and the unit, e.g. "72.50°F".
func (s Scale) Format(v float64) string {
	return fmt.Sprintf("%0.2f°%s", v, string(s))
}
