package matcher

import (
	"time"

	"github.com/banshee-data/devsync/internal/stream"
)

// maxLagPeriods is how many frame periods a silent peer may trail the
// candidate before it is treated as stalled.
const maxLagPeriods = 10

// TimestampComposite joins independently clocked child groups by timestamp
// proximity. Outputs closer than the window are emitted as one set; an
// output whose peers stay silent past the timeout is emitted alone.
type TimestampComposite struct {
	*composite
}

// NewTimestampComposite builds a timestamp composite over children, which it
// owns from then on. A composite with no children passes every frame
// through as a singleton set.
func NewTimestampComposite(children []Matcher, opts Options) (*TimestampComposite, error) {
	opts = opts.withDefaults()
	policy := &timestampPolicy{
		window:  opts.Window,
		timeout: opts.Timeout,
		last:    make([]time.Time, len(children)),
		period:  make([]time.Duration, len(children)),
		seen:    make([]bool, len(children)),
	}
	c, err := newComposite(policy, opts, children)
	if err != nil {
		return nil, err
	}
	return &TimestampComposite{composite: c}, nil
}

type timestampPolicy struct {
	window  time.Duration
	timeout time.Duration
	last    []time.Time     // timestamp of the last output per child
	period  []time.Duration // observed spacing between outputs per child
	seen    []bool
}

func (p *timestampPolicy) name() string { return "TS" }

func (p *timestampPolicy) equivalent(a, b stream.Set) bool {
	gap := a.Timestamp().Sub(b.Timestamp())
	if gap < 0 {
		gap = -gap
	}
	return gap < p.window
}

func (p *timestampPolicy) less(a, b stream.Set) bool {
	return a.Timestamp().Before(b.Timestamp())
}

func (p *timestampPolicy) observe(child int, s stream.Set) {
	ts := s.Timestamp()
	if p.seen[child] {
		if d := ts.Sub(p.last[child]); d > 0 {
			p.period[child] = d
		}
	}
	p.last[child] = ts
	p.seen[child] = true
}

// skipMissing waits for an idle child while its next output could still
// land inside the window around the candidate. The timeout bounds every
// wait, including for children that have never delivered.
func (p *timestampPolicy) skipMissing(child int, candidate, _ stream.Set, waited time.Duration) bool {
	if waited >= p.timeout {
		return true
	}
	if !p.seen[child] || p.period[child] == 0 {
		return false
	}
	expected := p.last[child].Add(p.period[child])
	ahead := expected.Sub(candidate.Timestamp())
	if ahead >= p.window {
		return true
	}
	return -ahead > maxLagPeriods*p.period[child]
}
