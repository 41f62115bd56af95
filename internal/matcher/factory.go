package matcher

import (
	"fmt"
	"strings"

	"github.com/banshee-data/devsync/internal/monitoring"
	"github.com/banshee-data/devsync/internal/stream"
)

// Topology names the synchronization layout of a camera's streams.
type Topology int

const (
	Default Topology = iota // timestamp composite over one identity per stream
	DI                      // depth + infrared on one trigger
	DIC                     // depth + infrared, plus color
	DLR                     // depth + left + right on one trigger
	DLRC                    // depth + left + right, plus color
)

var topologyNames = map[Topology]string{
	Default: "DEFAULT",
	DI:      "DI",
	DIC:     "DI_C",
	DLR:     "DLR",
	DLRC:    "DLR_C",
}

func (t Topology) String() string {
	if name, ok := topologyNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Topology(%d)", int(t))
}

// MinProfiles is the number of streams a topology needs. Below it the
// factory builds the default tree.
func (t Topology) MinProfiles() int {
	switch t {
	case DI:
		return 2
	case DIC, DLR:
		return 3
	case DLRC:
		return 4
	default:
		return 0
	}
}

// ParseTopology converts a topology name such as "DI_C" into a Topology.
func ParseTopology(s string) (Topology, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for t, n := range topologyNames {
		if n == name {
			return t, nil
		}
	}
	return Default, fmt.Errorf("%w: %q", ErrUnknownTopology, s)
}

// Factory builds matcher trees for a device's streams.
type Factory struct {
	opts Options
}

// NewFactory returns a factory whose composites use opts.
func NewFactory(opts Options) *Factory {
	return &Factory{opts: opts.withDefaults()}
}

// Create builds the tree for topology t over profiles. When there are too
// few profiles for t, or t is unknown, the default tree is built instead;
// that is a lower-fidelity mode, not an error. Stream types are not checked
// against the topology.
func (f *Factory) Create(t Topology, profiles []stream.Stream) Matcher {
	profiles = uniqueProfiles(profiles)
	if t != Default && len(profiles) < t.MinProfiles() {
		monitoring.Logf("matcher: %s needs %d profiles, got %d; created default matcher", t, t.MinProfiles(), len(profiles))
		f.opts.Metrics.fallback()
		return f.defaultTree(profiles)
	}

	switch t {
	case DI, DLR:
		return f.createFrameNumber(profiles)
	case DIC:
		return f.timestampComposite(f.createFrameNumber(profiles[:2]), f.CreateIdentity(profiles[2]))
	case DLRC:
		return f.timestampComposite(f.createFrameNumber(profiles[:3]), f.CreateIdentity(profiles[3]))
	case Default:
		monitoring.Logf("matcher: created default matcher over %d profiles", len(profiles))
		return f.defaultTree(profiles)
	default:
		monitoring.Logf("matcher: unknown topology %s; created default matcher", t)
		f.opts.Metrics.fallback()
		return f.defaultTree(profiles)
	}
}

// CreateIdentity builds the pass-through matcher for one stream.
func (f *Factory) CreateIdentity(s stream.Stream) *Identity {
	return NewIdentity(s.UniqueID(), s.StreamType())
}

// CreateDefault builds a timestamp composite over one identity per profile.
func (f *Factory) CreateDefault(profiles []stream.Stream) Matcher {
	return f.defaultTree(uniqueProfiles(profiles))
}

// defaultTree expects profiles already passed through uniqueProfiles.
func (f *Factory) defaultTree(profiles []stream.Stream) Matcher {
	children := make([]Matcher, 0, len(profiles))
	for _, p := range profiles {
		children = append(children, f.CreateIdentity(p))
	}
	return f.timestampComposite(children...)
}

// timestampComposite joins children that are known to own disjoint streams.
func (f *Factory) timestampComposite(children ...Matcher) *TimestampComposite {
	m, err := NewTimestampComposite(children, f.opts)
	if err != nil {
		panic(fmt.Sprintf("matcher: building timestamp composite: %v", err))
	}
	return m
}

func (f *Factory) createFrameNumber(profiles []stream.Stream) *FrameNumberComposite {
	children := make([]Matcher, 0, len(profiles))
	for _, p := range profiles {
		children = append(children, f.CreateIdentity(p))
	}
	m, err := NewFrameNumberComposite(children, f.opts)
	if err != nil {
		panic(fmt.Sprintf("matcher: building frame-number composite: %v", err))
	}
	return m
}

// uniqueProfiles drops nil profiles and repeated stream ids, keeping the
// first occurrence, so the composites never see a stream twice.
func uniqueProfiles(profiles []stream.Stream) []stream.Stream {
	seen := make(map[int]bool, len(profiles))
	out := make([]stream.Stream, 0, len(profiles))
	for _, p := range profiles {
		if p == nil || seen[p.UniqueID()] {
			continue
		}
		seen[p.UniqueID()] = true
		out = append(out, p)
	}
	if len(out) != len(profiles) {
		monitoring.Logf("matcher: ignored %d nil or repeated profiles", len(profiles)-len(out))
	}
	return out
}
