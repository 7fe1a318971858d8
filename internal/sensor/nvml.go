package sensor

import (
	"strconv"
	"sync"

	"codeberg.org/mutker/thermotrack/internal/errors"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// nvmlLibrary abstracts the NVML calls the GPU reader needs, so the
// lifecycle can be tested without a driver.
type nvmlLibrary interface {
	Init() nvml.Return
	Shutdown() nvml.Return
	DeviceGetHandleByIndex(index int) (nvml.Device, nvml.Return)
	DeviceGetHandleByUUID(uuid string) (nvml.Device, nvml.Return)
}

type systemNVML struct{}

func (systemNVML) Init() nvml.Return     { return nvml.Init() }
func (systemNVML) Shutdown() nvml.Return { return nvml.Shutdown() }

func (systemNVML) DeviceGetHandleByIndex(index int) (nvml.Device, nvml.Return) {
	return nvml.DeviceGetHandleByIndex(index)
}

func (systemNVML) DeviceGetHandleByUUID(uuid string) (nvml.Device, nvml.Return) {
	return nvml.DeviceGetHandleByUUID(uuid)
}

// NVML reads the core temperature of an NVIDIA GPU.
type NVML struct {
	lib    nvmlLibrary
	device nvml.Device
	name   string
	scale  Scale

	mu          sync.Mutex
	initialized bool
}

// OpenNVML initializes NVML and resolves the device. id is either a device
// index ("0") or a GPU UUID; empty selects index 0.
func OpenNVML(id string, scale Scale) (*NVML, error) {
	return openNVML(systemNVML{}, id, scale)
}

func openNVML(lib nvmlLibrary, id string, scale Scale) (*NVML, error) {
	errFactory := errors.New()

	if ret := lib.Init(); ret != nvml.SUCCESS {
		return nil, errFactory.Wrap(ErrNVMLInitFailed, newNVMLError(ret))
	}
	g := &NVML{lib: lib, scale: scale, initialized: true}

	var (
		device nvml.Device
		ret    nvml.Return
	)
	if index, err := strconv.Atoi(id); err == nil || id == "" {
		device, ret = lib.DeviceGetHandleByIndex(index)
	} else {
		device, ret = lib.DeviceGetHandleByUUID(id)
	}
	if ret != nvml.SUCCESS {
		_ = g.Close()
		return nil, errFactory.Wrap(ErrDeviceNotFound, newNVMLError(ret))
	}
	g.device = device

	if name, ret := device.GetName(); ret == nvml.SUCCESS {
		g.name = name
	}

	return g, nil
}

func (g *NVML) Name() string {
	return g.name
}

// ReadTemperature implements Reader.
func (g *NVML) ReadTemperature() (float64, error) {
	errFactory := errors.New()

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.initialized {
		return 0, errFactory.New(ErrNVMLNotInitialized)
	}

	temp, ret := g.device.GetTemperature(nvml.TEMPERATURE_GPU)
	if ret != nvml.SUCCESS {
		return 0, errFactory.Wrap(ErrReadFailed, newNVMLError(ret))
	}

	return g.scale.Convert(float64(temp)), nil
}

// Close shuts NVML down. It is safe to call more than once.
func (g *NVML) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.initialized {
		return nil
	}

	if ret := g.lib.Shutdown(); ret != nvml.SUCCESS {
		return errors.New().Wrap(ErrNVMLShutdownFailed, newNVMLError(ret))
	}
	g.initialized = false

	return nil
}

func (g *NVML) String() string {
	if g.name == "" {
		return "NVML GPU"
	}
	return "NVML " + g.name
}
