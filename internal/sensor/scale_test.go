package sensor_test

import (
	"testing"

	"codeberg.org/mutker/thermotrack/internal/errors"
	"codeberg.org/mutker/thermotrack/internal/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScale(t *testing.T) {
	for in, want := range map[string]sensor.Scale{
		"C": sensor.Celsius, "celsius": sensor.Celsius, " f ": sensor.Fahrenheit, "Fahrenheit": sensor.Fahrenheit,
	} {
		got, err := sensor.ParseScale(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := sensor.ParseScale("kelvin")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidConfig))
}

func TestScaleConvertAndFormat(t *testing.T) {
	assert.Equal(t, 212.0, sensor.Fahrenheit.Convert(100))
	assert.Equal(t, 100.0, sensor.Celsius.Convert(100))
	assert.Equal(t, "72.50°F", sensor.Fahrenheit.Format(72.5))
	assert.Equal(t, "-3.13°C", sensor.Celsius.Format(-3.126))
}
