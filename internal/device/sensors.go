package device

import (
	"fmt"

	"github.com/banshee-data/devsync/internal/stream"
)

// Sensor is one sub-device of a camera. Sensors are shared handles and
// are compared by identity.
type Sensor interface {
	Name() string
	Streams() []stream.Stream
}

// UVCSensor is a sensor backed by a UVC interface.
type UVCSensor interface {
	Sensor
	DevicePath() string
}

// Resetter is implemented by devices that support a hardware reset.
type Resetter interface {
	HardwareReset() error
}

// AddSensor appends s and returns its index. The same sensor may be added
// more than once.
func (d *Device) AddSensor(s Sensor) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sensors = append(d.sensors, s)
	return len(d.sensors) - 1
}

// AssignSensor replaces the sensor at index i. It returns the index of the
// last sensor.
func (d *Device) AssignSensor(s Sensor, i int) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= len(d.sensors) {
		return 0, fmt.Errorf("%w: %d (have %d sensors)", ErrInvalidIndex, i, len(d.sensors))
	}
	d.sensors[i] = s
	return len(d.sensors) - 1, nil
}

// Sensor returns the sensor at index i.
func (d *Device) Sensor(i int) (Sensor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i < 0 || i >= len(d.sensors) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSubdevice, i)
	}
	return d.sensors[i], nil
}

// FindSensorIndex returns the index of the first slot holding s.
func (d *Device) FindSensorIndex(s Sensor) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for i, have := range d.sensors {
		if have == s {
			return i, nil
		}
	}
	return 0, ErrSensorNotFound
}

// SensorCount returns the number of registered sensors.
func (d *Device) SensorCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sensors)
}

// Sensors returns a snapshot of the registered sensors.
func (d *Device) Sensors() []Sensor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Sensor(nil), d.sensors...)
}

// UVCSensor returns the sensor at index i if it is UVC backed.
func (d *Device) UVCSensor(i int) (UVCSensor, bool) {
	s, err := d.Sensor(i)
	if err != nil {
		return nil, false
	}
	u, ok := s.(UVCSensor)
	return u, ok
}

// HardwareReset is not supported by the base device. Variants that can
// reset override it.
func (d *Device) HardwareReset() error {
	return ErrNotImplemented
}
