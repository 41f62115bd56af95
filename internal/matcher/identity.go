package matcher

import (
	"strconv"

	"github.com/banshee-data/devsync/internal/stream"
)

// Identity passes frames of a single stream straight through.
type Identity struct {
	streamID   int
	streamType stream.Type
}

// NewIdentity creates a pass-through matcher bound to one stream id.
func NewIdentity(streamID int, t stream.Type) *Identity {
	return &Identity{streamID: streamID, streamType: t}
}

// Consume emits the frame immediately as a singleton set.
func (m *Identity) Consume(f *stream.Frame) []stream.Set {
	if f.StreamID() != m.streamID {
		debugf("identity %d: got frame %v from another stream", m.streamID, f)
	}
	return []stream.Set{stream.NewSet(f)}
}

func (m *Identity) StreamIDs() []int { return []int{m.streamID} }

// StreamType returns the type of the bound stream.
func (m *Identity) StreamType() stream.Type { return m.streamType }

func (m *Identity) String() string { return strconv.Itoa(m.streamID) }
