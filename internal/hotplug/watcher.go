package hotplug

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial/enumerator"

	"github.com/banshee-data/devsync/internal/monitoring"
	"github.com/banshee-data/devsync/internal/timeutil"
)

// DefaultPollInterval is how often a Watcher re-enumerates when no interval
// is configured.
const DefaultPollInterval = time.Second

// Lister enumerates the devices currently attached.
type Lister func() ([]DeviceInfo, error)

// SerialLister enumerates USB serial interfaces. USB devices with a serial
// number are keyed by vid:pid:serial so the key survives a change of port
// path; everything else is keyed by path.
func SerialLister() ([]DeviceInfo, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate ports: %w", err)
	}
	out := make([]DeviceInfo, 0, len(ports))
	for _, p := range ports {
		d := DeviceInfo{Key: Key(p.Name), Name: p.Name, Path: p.Name}
		if p.IsUSB {
			d.VID = strings.ToLower(p.VID)
			d.PID = strings.ToLower(p.PID)
			d.Serial = p.SerialNumber
			if p.Product != "" {
				d.Name = p.Product
			}
			if p.SerialNumber != "" {
				d.Key = Key(fmt.Sprintf("usb:%s:%s:%s", d.VID, d.PID, p.SerialNumber))
			}
		}
		out = append(out, d)
	}
	return out, nil
}

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	Interval time.Duration  // polling period (default: 1s)
	Clock    timeutil.Clock // tick source (default: real clock)
}

// Watcher polls a Lister and publishes the difference between successive
// enumerations to a Hub.
type Watcher struct {
	hub      *Hub
	list     Lister
	interval time.Duration
	clock    timeutil.Clock

	mu    sync.Mutex
	known map[Key]DeviceInfo
}

// NewWatcher creates a Watcher feeding hub from list. A nil list uses
// SerialLister.
func NewWatcher(hub *Hub, list Lister, opts WatcherOptions) *Watcher {
	if list == nil {
		list = SerialLister
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	return &Watcher{
		hub:      hub,
		list:     list,
		interval: opts.Interval,
		clock:    opts.Clock,
		known:    make(map[Key]DeviceInfo),
	}
}

// Scan enumerates once and publishes any change.
func (w *Watcher) Scan() error {
	current, err := w.list()
	if err != nil {
		return err
	}

	w.mu.Lock()
	next := make(map[Key]DeviceInfo, len(current))
	var added, removed []DeviceInfo
	for _, d := range current {
		// Composite USB devices list one port per interface under one key.
		if _, dup := next[d.Key]; dup {
			continue
		}
		next[d.Key] = d
		if _, ok := w.known[d.Key]; !ok {
			added = append(added, d)
		}
	}
	for k, d := range w.known {
		if _, ok := next[k]; !ok {
			removed = append(removed, d)
		}
	}
	w.known = next
	w.mu.Unlock()

	if len(added) == 0 && len(removed) == 0 {
		return nil
	}
	sortByKey(added)
	sortByKey(removed)
	w.hub.Publish(removed, added)
	return nil
}

// Run scans immediately and then once per interval until ctx is done.
// Enumeration errors are logged and polling continues.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	if err := w.Scan(); err != nil {
		monitoring.Logf("hotplug: scan failed: %v", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			if err := w.Scan(); err != nil {
				monitoring.Logf("hotplug: scan failed: %v", err)
			}
		}
	}
}

func sortByKey(ds []DeviceInfo) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].Key < ds[j].Key })
}
