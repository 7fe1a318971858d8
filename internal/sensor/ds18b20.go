package sensor

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"codeberg.org/mutker/thermotrack/internal/errors"
)

const (
	// DefaultDevicesDir is where the w1 kernel driver exposes devices.
	DefaultDevicesDir = "/sys/bus/w1/devices"

	busMasterPrefix = "w1_bus_master"
	slaveFile       = "w1_slave"
	tempPrefix      = "t="
)

// DirLocator lists one-wire devices found in a sysfs-style directory.
type DirLocator struct {
	Dir string
}

func (l DirLocator) ListCandidateIDs() ([]string, error) {
	dir := l.Dir
	if dir == "" {
		dir = DefaultDevicesDir
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.New().Wrap(ErrDeviceNotFound, err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), busMasterPrefix) {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Strings(ids)

	return ids, nil
}

// StaticLocator returns a fixed list of device IDs.
type StaticLocator []string

func (l StaticLocator) ListCandidateIDs() ([]string, error) {
	return append([]string(nil), l...), nil
}

// Reading is one decoded DS18B20 record.
type Reading struct {
	Raw        int
	Celsius    float64
	Fahrenheit float64
}

// ParseRecord decodes the two-line w1_slave record. The last field of the
// second line must be t=<milli-degrees Celsius>:
//
//	72 01 4b 46 7f ff 0e 10 57 : crc=57 YES
//	72 01 4b 46 7f ff 0e 10 57 t=23125
func ParseRecord(data []byte) (Reading, error) {
	errFactory := errors.New()

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		return Reading{}, errFactory.WithData(ErrMalformedRecord, struct {
			Reason string
			Lines  int
		}{
			Reason: "expected two lines",
			Lines:  len(lines),
		})
	}

	fields := strings.Fields(lines[1])
	if len(fields) == 0 || !strings.HasPrefix(fields[len(fields)-1], tempPrefix) {
		return Reading{}, errFactory.WithData(ErrMalformedRecord, struct {
			Reason string
			Line   string
		}{
			Reason: "missing t= field",
			Line:   lines[1],
		})
	}

	raw, err := strconv.Atoi(strings.TrimPrefix(fields[len(fields)-1], tempPrefix))
	if err != nil {
		return Reading{}, errFactory.Wrap(ErrMalformedRecord, err)
	}

	celsius := float64(raw) / 1000.0

	return Reading{
		Raw:        raw,
		Celsius:    celsius,
		Fahrenheit: Fahrenheit.Convert(celsius),
	}, nil
}

// DS18B20 reads a one-wire temperature probe through sysfs.
type DS18B20 struct {
	id    string
	path  string
	scale Scale
}

// OpenDS18B20 opens the device with the given id under dir. An empty id
// selects the first candidate reported by locator.
func OpenDS18B20(locator Locator, dir, id string, scale Scale) (*DS18B20, error) {
	errFactory := errors.New()

	if dir == "" {
		dir = DefaultDevicesDir
	}
	if locator == nil {
		locator = DirLocator{Dir: dir}
	}

	if id == "" {
		ids, err := locator.ListCandidateIDs()
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, errFactory.WithData(ErrDeviceNotFound, dir)
		}
		id = ids[0]
	}

	path := filepath.Join(dir, id, slaveFile)
	if _, err := os.Stat(path); err != nil {
		return nil, errFactory.Wrap(ErrDeviceNotFound, err)
	}

	return &DS18B20{id: id, path: path, scale: scale}, nil
}

func (d *DS18B20) ID() string {
	return d.id
}

func (d *DS18B20) Path() string {
	return d.path
}

// Read returns the decoded record.
func (d *DS18B20) Read() (Reading, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return Reading{}, errors.New().Wrap(ErrReadFailed, err)
	}

	reading, err := ParseRecord(data)
	if err != nil {
		return Reading{}, errors.New().Wrap(ErrReadFailed, err)
	}

	return reading, nil
}

// ReadTemperature implements Reader.
func (d *DS18B20) ReadTemperature() (float64, error) {
	reading, err := d.Read()
	if err != nil {
		return 0, err
	}

	return d.scale.Convert(reading.Celsius), nil
}

// Close is a no-op; the record is reopened on every read.
func (d *DS18B20) Close() error {
	return nil
}

func (d *DS18B20) String() string {
	return "DS18B20 " + d.id
}
