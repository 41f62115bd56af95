// Package hotplug provides the device-change feed: a service that tells
// subscribers which physical devices were removed or added.
//
// A Hub is created once per process, before any device subscribes, and must
// outlive every subscriber. Devices receive it by injection rather than
// reaching for a global.
package hotplug

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/devsync/internal/monitoring"
)

// ErrHubClosed is returned by Subscribe once the hub has been closed.
var ErrHubClosed = errors.New("hotplug hub is closed")

// Key identifies one backend device group (the set of USB interfaces that
// make up one physical camera). Keys are stable across enumerations.
type Key string

// DeviceInfo describes an enumerated device.
type DeviceInfo struct {
	Key    Key    `json:"key"`
	Name   string `json:"name"`
	Path   string `json:"path"`
	VID    string `json:"vid,omitempty"`
	PID    string `json:"pid,omitempty"`
	Serial string `json:"serial,omitempty"`
}

// Callback receives one change notification. It runs on the publisher's
// goroutine and must not block for long.
type Callback func(removed, added []DeviceInfo)

type subscription struct {
	id string
	cb Callback
}

// Hub fans device-change notifications out to subscribers.
type Hub struct {
	mu          sync.Mutex
	subscribers []subscription
	devices     map[Key]DeviceInfo
	closed      bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{devices: make(map[Key]DeviceInfo)}
}

// Subscribe registers cb and returns the id to unsubscribe with.
func (h *Hub) Subscribe(cb Callback) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return "", ErrHubClosed
	}
	id := uuid.NewString()
	h.subscribers = append(h.subscribers, subscription{id: id, cb: cb})
	return id, nil
}

// Unsubscribe removes a subscription. Unknown ids are ignored. Once it
// returns, the callback is not invoked by later Publish calls.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, s := range h.subscribers {
		if s.id == id {
			h.subscribers = append(h.subscribers[:i:i], h.subscribers[i+1:]...)
			return
		}
	}
}

// Publish records the change and delivers it to every subscriber, in
// subscription order. Callbacks run outside the hub lock so they may
// subscribe or unsubscribe.
func (h *Hub) Publish(removed, added []DeviceInfo) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	for _, d := range removed {
		delete(h.devices, d.Key)
	}
	for _, d := range added {
		h.devices[d.Key] = d
	}
	subs := append([]subscription(nil), h.subscribers...)
	h.mu.Unlock()

	monitoring.Logf("hotplug: %d removed, %d added, notifying %d subscribers", len(removed), len(added), len(subs))
	for _, s := range subs {
		s.cb(removed, added)
	}
}

// Devices returns the currently known devices sorted by key.
func (h *Hub) Devices() []DeviceInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]DeviceInfo, 0, len(h.devices))
	for _, d := range h.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// SubscriberCount returns the number of active subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close drops all subscriptions and rejects new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.subscribers = nil
	return nil
}
