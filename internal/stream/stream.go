// Package stream defines the stream, frame and frame-set types shared by the
// matcher tree and the device registry.
//
// Streams are owned by sensors. Everything in this package that refers to a
// stream holds a plain interface value and never manages its lifetime.
package stream

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Type identifies the kind of data a stream carries.
type Type int

const (
	Any Type = iota
	Depth
	Color
	Infrared
	Fisheye
	Gyro
	Accel
	Pose
	Confidence
)

var typeNames = map[Type]string{
	Any:        "Any",
	Depth:      "Depth",
	Color:      "Color",
	Infrared:   "Infrared",
	Fisheye:    "Fisheye",
	Gyro:       "Gyro",
	Accel:      "Accel",
	Pose:       "Pose",
	Confidence: "Confidence",
}

// String returns the human-readable stream type name.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType converts a stream type name (case-insensitive) into a Type.
func ParseType(s string) (Type, error) {
	for t, name := range typeNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return Any, fmt.Errorf("unknown stream type %q", s)
}

// Stream is the contract a sensor exposes for each of its streams.
type Stream interface {
	// UniqueID returns the process-wide unique id of the stream.
	UniqueID() int
	// StreamType returns the kind of data carried by the stream.
	StreamType() Type
	// Index distinguishes streams of the same type (e.g. left/right infrared).
	Index() int
	// FPS is the nominal frame rate, or 0 when unknown.
	FPS() int
}

// uniqueIDs hands out process-wide stream ids.
var uniqueIDs atomic.Int64

// NextUniqueID reserves and returns a new process-wide stream id.
func NextUniqueID() int {
	return int(uniqueIDs.Add(1) - 1)
}

// Profile is the default Stream implementation.
type Profile struct {
	id         int
	streamType Type
	index      int
	fps        int
}

// NewProfile creates a stream profile with a freshly allocated unique id.
func NewProfile(t Type, index, fps int) *Profile {
	return NewProfileWithID(NextUniqueID(), t, index, fps)
}

// NewProfileWithID creates a stream profile with a caller-chosen id. The
// caller is responsible for keeping the id unique.
func NewProfileWithID(id int, t Type, index, fps int) *Profile {
	return &Profile{id: id, streamType: t, index: index, fps: fps}
}

func (p *Profile) UniqueID() int    { return p.id }
func (p *Profile) StreamType() Type { return p.streamType }
func (p *Profile) Index() int       { return p.index }
func (p *Profile) FPS() int         { return p.fps }

// Clone returns a copy of the profile under a new unique id.
func (p *Profile) Clone() *Profile {
	return NewProfile(p.streamType, p.index, p.fps)
}

func (p *Profile) String() string {
	if p.index > 0 {
		return fmt.Sprintf("%s%d #%d@%dfps", p.streamType, p.index, p.id, p.fps)
	}
	return fmt.Sprintf("%s #%d@%dfps", p.streamType, p.id, p.fps)
}
