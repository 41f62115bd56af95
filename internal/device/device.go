// Package device holds the per-device state shared by every camera variant:
// the sensor registry, validity tracking against the hot-plug feed, the
// extrinsics group registry and the matcher entry points.
//
// Concrete variants embed *Device and add their own sensors and
// capabilities on top of it.
package device

import (
	"fmt"
	"sync"

	"github.com/banshee-data/devsync/internal/extrinsics"
	"github.com/banshee-data/devsync/internal/hotplug"
	"github.com/banshee-data/devsync/internal/matcher"
	"github.com/banshee-data/devsync/internal/monitoring"
)

// ChangeFeed is the device-change notification service a Device subscribes
// to. *hotplug.Hub satisfies it.
type ChangeFeed interface {
	Subscribe(cb hotplug.Callback) (string, error)
	Unsubscribe(id string)
}

// Options configures a Device.
type Options struct {
	// Key identifies the backend device group this device was built from.
	// A removal notification carrying the same key invalidates the device.
	Key hotplug.Key

	// NotifyChanges subscribes the device to the change feed.
	NotifyChanges bool

	// Topology selects the tree built by CreateTopologyMatcher.
	Topology matcher.Topology

	// Matchers tunes every matcher the device creates.
	Matchers matcher.Options

	// Graph resolves extrinsics between streams. Nil means no transform is
	// ever available.
	Graph extrinsics.Graph
}

// Device is the base camera device.
type Device struct {
	key      hotplug.Key
	topology matcher.Topology
	factory  *matcher.Factory
	graph    extrinsics.Graph

	// changeMu guards validity and the feed subscription.
	changeMu sync.Mutex
	valid    bool
	feed     ChangeFeed
	subID    string

	mu      sync.RWMutex
	sensors []Sensor
	groups  map[int]groupEntry
}

// New creates a device. With opts.NotifyChanges the device subscribes to
// feed and construction fails with ErrFeedUnavailable if that is not
// possible.
func New(feed ChangeFeed, opts Options) (*Device, error) {
	d := &Device{
		key:      opts.Key,
		topology: opts.Topology,
		factory:  matcher.NewFactory(opts.Matchers),
		graph:    opts.Graph,
		valid:    true,
		groups:   make(map[int]groupEntry),
	}

	if opts.NotifyChanges {
		if feed == nil {
			return nil, fmt.Errorf("%w: no feed configured", ErrFeedUnavailable)
		}
		id, err := feed.Subscribe(d.onDevicesChanged)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFeedUnavailable, err)
		}
		d.feed = feed
		d.subID = id
	}
	return d, nil
}

// Key returns the backend device group key.
func (d *Device) Key() hotplug.Key { return d.key }

// IsValid reports whether the device is still attached. It becomes false
// once the feed reports the removal of the device's key and never becomes
// true again.
func (d *Device) IsValid() bool {
	d.changeMu.Lock()
	defer d.changeMu.Unlock()
	return d.valid
}

// Close unsubscribes from the change feed and releases the sensors. It is
// safe to call more than once.
func (d *Device) Close() error {
	d.changeMu.Lock()
	if d.feed != nil {
		d.feed.Unsubscribe(d.subID)
		d.feed = nil
		d.subID = ""
	}
	d.changeMu.Unlock()

	d.mu.Lock()
	d.sensors = nil
	d.mu.Unlock()
	return nil
}

func (d *Device) onDevicesChanged(removed, added []hotplug.DeviceInfo) {
	d.changeMu.Lock()
	defer d.changeMu.Unlock()
	for _, info := range removed {
		if info.Key == d.key {
			d.valid = false
			monitoring.Logf("device %s: disconnected", d.key)
			return
		}
	}
}
