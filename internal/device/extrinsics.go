package device

import (
	"fmt"

	"github.com/banshee-data/devsync/internal/extrinsics"
	"github.com/banshee-data/devsync/internal/matcher"
	"github.com/banshee-data/devsync/internal/stream"
)

type groupEntry struct {
	group uint32
	pin   stream.Stream
}

// RegisterStreamToExtrinsicGroup places s in group. The first stream
// registered to a group becomes its pin and every later member resolves
// its extrinsics relative to it. Registering s again replaces its entry.
// A nil stream is ignored.
func (d *Device) RegisterStreamToExtrinsicGroup(s stream.Stream, group uint32) {
	if s == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	pin := s
	for _, e := range d.groups {
		if e.group == group {
			pin = e.pin
			break
		}
	}
	d.groups[s.UniqueID()] = groupEntry{group: group, pin: pin}
}

// Extrinsics returns the group of s and the transform from the group pin
// to s.
func (d *Device) Extrinsics(s stream.Stream) (uint32, extrinsics.Transform, error) {
	if s == nil {
		return 0, extrinsics.Transform{}, fmt.Errorf("%w: nil stream", ErrStreamNotRegistered)
	}
	d.mu.RLock()
	e, ok := d.groups[s.UniqueID()]
	d.mu.RUnlock()
	if !ok {
		return 0, extrinsics.Transform{}, fmt.Errorf("%w: stream %d", ErrStreamNotRegistered, s.UniqueID())
	}

	if d.graph == nil {
		return 0, extrinsics.Transform{}, fmt.Errorf("%w: no extrinsics graph configured", ErrTransformUnavailable)
	}
	t, ok := d.graph.TryFetchExtrinsics(e.pin, s)
	if !ok {
		return 0, extrinsics.Transform{}, fmt.Errorf("%w: from stream %d to stream %d",
			ErrTransformUnavailable, e.pin.UniqueID(), s.UniqueID())
	}
	return e.group, t, nil
}

// ExtrinsicGroup returns the group and pin registered for s.
func (d *Device) ExtrinsicGroup(s stream.Stream) (uint32, stream.Stream, bool) {
	if s == nil {
		return 0, nil, false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.groups[s.UniqueID()]
	if !ok {
		return 0, nil, false
	}
	return e.group, e.pin, true
}

// CreateMatcher returns the matcher for a single stream: an identity
// matcher for the frame's stream. A frame without a stream gets a
// pass-through matcher.
func (d *Device) CreateMatcher(f *stream.Frame) matcher.Matcher {
	if f == nil || f.Stream == nil {
		return d.factory.CreateDefault(nil)
	}
	return d.factory.CreateIdentity(f.Stream)
}

// CreateTopologyMatcher builds the device's configured topology over
// profiles.
func (d *Device) CreateTopologyMatcher(profiles []stream.Stream) matcher.Matcher {
	return d.factory.Create(d.topology, profiles)
}
