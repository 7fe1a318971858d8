// Package sensor reads temperatures from a one-wire DS18B20 probe or from
// an NVIDIA GPU through NVML.
package sensor

// Reader performs one blocking temperature read in the reader's scale.
type Reader interface {
	ReadTemperature() (float64, error)
}

// Locator lists candidate device IDs.
type Locator interface {
	ListCandidateIDs() ([]string, error)
}

// Kind selects the sensor backend
type Kind string

const (
	KindOneWire Kind = "w1"
	KindNVML    Kind = "nvml"
)

// IsValid returns whether the kind is a known backend
func (k Kind) IsValid() bool {
	switch k {
	case KindOneWire, KindNVML:
		return true
	default:
		return false
	}
}

// Config selects and configures the sensor backend.
type Config struct {
	Kind       Kind
	DevicesDir string
	ID         string
	Scale      Scale
}
