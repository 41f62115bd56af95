package matcher

import (
	"time"

	"github.com/banshee-data/devsync/internal/stream"
)

// FrameNumberComposite groups child outputs that carry the same hardware
// frame counter. Sensors on a shared trigger count in lockstep, so exact
// equality is the matching rule and there is no clock skew to tolerate.
type FrameNumberComposite struct {
	*composite
}

// NewFrameNumberComposite builds a frame-number composite over children,
// which it owns from then on.
func NewFrameNumberComposite(children []Matcher, opts Options) (*FrameNumberComposite, error) {
	opts = opts.withDefaults()
	policy := &frameNumberPolicy{
		maxLag: opts.MaxFrameLag,
		last:   make([]uint64, len(children)),
		seen:   make([]bool, len(children)),
	}
	c, err := newComposite(policy, opts, children)
	if err != nil {
		return nil, err
	}
	return &FrameNumberComposite{composite: c}, nil
}

type frameNumberPolicy struct {
	maxLag uint64
	last   []uint64 // last frame number seen per child
	seen   []bool
}

func (p *frameNumberPolicy) name() string { return "FN" }

func (p *frameNumberPolicy) equivalent(a, b stream.Set) bool {
	return a.FrameNumber() == b.FrameNumber()
}

func (p *frameNumberPolicy) less(a, b stream.Set) bool {
	return a.FrameNumber() < b.FrameNumber()
}

func (p *frameNumberPolicy) observe(child int, s stream.Set) {
	p.last[child] = s.FrameNumber()
	p.seen[child] = true
}

// skipMissing gives up on an idle child once it has moved past the
// candidate, or once the newest queued output is more than maxLag frames
// ahead of what the child would deliver next. A child that has never
// delivered is always waited for; the queue bound limits that wait.
func (p *frameNumberPolicy) skipMissing(child int, candidate, newest stream.Set, _ time.Duration) bool {
	if !p.seen[child] {
		return false
	}
	next := p.last[child] + 1
	if candidate.FrameNumber() < next {
		return true
	}
	latest := newest.FrameNumber()
	return latest > next && latest-next > p.maxLag
}
