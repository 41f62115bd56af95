package stream

import (
	"fmt"
	"strings"
	"time"
)

// Frame is a single sample delivered by a sensor on one stream.
type Frame struct {
	Stream    Stream    // stream that produced the frame (not owned)
	Number    uint64    // hardware frame counter
	Timestamp time.Time // device timestamp of the sample
	Arrival   time.Time // host wall-clock time the frame was received
	Data      []byte    // opaque payload, never inspected here
}

// StreamID returns the unique id of the frame's stream, or -1 when the frame
// carries no stream.
func (f *Frame) StreamID() int {
	if f == nil || f.Stream == nil {
		return -1
	}
	return f.Stream.UniqueID()
}

func (f *Frame) String() string {
	if f == nil {
		return "<nil>"
	}
	ts := f.Timestamp.UnixNano() / int64(time.Microsecond)
	if f.Stream == nil {
		return fmt.Sprintf("?#%d@%dus", f.Number, ts)
	}
	return fmt.Sprintf("%s/%d#%d@%dus", f.Stream.StreamType(), f.Stream.UniqueID(), f.Number, ts)
}

// Set is a group of frames emitted together by a matcher. Frames keep the
// order of the matcher children that produced them.
type Set struct {
	Frames []*Frame
}

// NewSet wraps frames into a Set.
func NewSet(frames ...*Frame) Set {
	return Set{Frames: frames}
}

// Len returns the number of frames in the set.
func (s Set) Len() int { return len(s.Frames) }

// Timestamp is the representative timestamp of the set: the timestamp of
// its first frame.
func (s Set) Timestamp() time.Time {
	if len(s.Frames) == 0 {
		return time.Time{}
	}
	return s.Frames[0].Timestamp
}

// FrameNumber is the representative frame number of the set: the frame
// number of its first frame.
func (s Set) FrameNumber() uint64 {
	if len(s.Frames) == 0 {
		return 0
	}
	return s.Frames[0].Number
}

// StreamIDs lists the stream id of every frame, in set order.
func (s Set) StreamIDs() []int {
	ids := make([]int, 0, len(s.Frames))
	for _, f := range s.Frames {
		ids = append(ids, f.StreamID())
	}
	return ids
}

// Contains reports whether the set holds a frame from the given stream.
func (s Set) Contains(streamID int) bool {
	for _, f := range s.Frames {
		if f.StreamID() == streamID {
			return true
		}
	}
	return false
}

// Merge returns a new set holding the frames of s followed by those of other.
func (s Set) Merge(other Set) Set {
	frames := make([]*Frame, 0, len(s.Frames)+len(other.Frames))
	frames = append(frames, s.Frames...)
	frames = append(frames, other.Frames...)
	return Set{Frames: frames}
}

func (s Set) String() string {
	parts := make([]string, 0, len(s.Frames))
	for _, f := range s.Frames {
		parts = append(parts, f.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}
