// Package matcher decides which frames from different streams belong to the
// same moment and emits them together as synchronized sets.
//
// A matcher tree is built once per stream-configuration session by the
// Factory and fed one frame at a time. Leaves are Identity matchers bound to
// a single stream. Streams on a shared hardware trigger are grouped under a
// FrameNumberComposite, and independently clocked groups are joined by a
// TimestampComposite.
//
// Trees are not safe for concurrent use: the frame-dispatch layer must
// serialize Consume and Poll calls for any one tree.
package matcher

import (
	"errors"
	"time"

	"github.com/banshee-data/devsync/internal/stream"
	"github.com/banshee-data/devsync/internal/timeutil"
)

var (
	// ErrDuplicateStream is returned when two children of a composite claim
	// the same stream id.
	ErrDuplicateStream = errors.New("stream owned by more than one matcher")
	// ErrUnknownTopology is returned by ParseTopology for unrecognised names.
	ErrUnknownTopology = errors.New("unknown matcher topology")
)

// Matcher consumes frames and emits synchronized frame sets.
type Matcher interface {
	// Consume accepts one frame and returns the sets that became ready, oldest
	// first. Most calls return zero or one set.
	Consume(f *stream.Frame) []stream.Set
	// StreamIDs lists the stream ids this matcher is responsible for.
	StreamIDs() []int
	// String describes the tree shape, e.g. "TS(FN(0,1),2)".
	String() string
}

// Poller is implemented by matchers that hold frames back on a timeout.
// The dispatch layer calls Poll periodically to release them.
type Poller interface {
	Poll() []stream.Set
}

// Defaults applied by Options when a field is left zero.
const (
	DefaultWindow      = 16 * time.Millisecond  // about half a frame period at 30 fps
	DefaultTimeout     = 100 * time.Millisecond // how long a head waits for a silent peer
	DefaultMaxQueue    = 8                      // pending outputs per child
	DefaultMaxFrameLag = 4                      // frame numbers a peer may trail before it is skipped
)

// Options tunes the composite matchers.
type Options struct {
	Window      time.Duration  // timestamp proximity window (default: 16ms)
	Timeout     time.Duration  // wait for a missing timestamp peer (default: 100ms)
	MaxQueue    int            // per-child pending outputs before eviction (default: 8)
	MaxFrameLag uint64         // frame-number lag tolerated for a missing peer (default: 4)
	Clock       timeutil.Clock // time source for timeouts (default: real clock)
	Metrics     *Metrics       // optional Prometheus export
}

func (o Options) withDefaults() Options {
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxQueue <= 0 {
		o.MaxQueue = DefaultMaxQueue
	}
	if o.MaxFrameLag == 0 {
		o.MaxFrameLag = DefaultMaxFrameLag
	}
	if o.Clock == nil {
		o.Clock = timeutil.RealClock{}
	}
	return o
}

// Stats counts what a composite has emitted.
type Stats struct {
	Matched  uint64 // sets combining an output from every child
	Partial  uint64 // sets emitted with at least one child missing
	Overflow uint64 // outputs evicted alone by the queue bound
	Foreign  uint64 // frames from streams the composite does not own
}
