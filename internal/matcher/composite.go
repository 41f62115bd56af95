package matcher

import (
	"fmt"
	"strings"
	"time"

	"github.com/banshee-data/devsync/internal/stream"
)

// syncPolicy is what distinguishes the frame-number and timestamp
// composites. Everything else about buffering and dispatch is shared.
type syncPolicy interface {
	// name is the short tag used in tree descriptions and metrics.
	name() string
	// equivalent reports whether two child outputs belong together.
	equivalent(a, b stream.Set) bool
	// less orders child outputs; the earliest head is the dispatch candidate.
	less(a, b stream.Set) bool
	// observe records an output accepted from child i.
	observe(child int, s stream.Set)
	// skipMissing reports whether the candidate may be dispatched without
	// an output from the idle child.
	skipMissing(child int, candidate, newest stream.Set, waited time.Duration) bool
}

type pendingSet struct {
	set      stream.Set
	enqueued time.Time // clock time the child emitted it
}

// composite owns its children and one FIFO of pending outputs per child.
type composite struct {
	policy   syncPolicy
	opts     Options
	children []Matcher
	owner    map[int]int // stream id -> child index
	queues   [][]pendingSet
	stats    Stats
}

func newComposite(policy syncPolicy, opts Options, children []Matcher) (*composite, error) {
	c := &composite{
		policy:   policy,
		opts:     opts.withDefaults(),
		children: children,
		owner:    make(map[int]int),
		queues:   make([][]pendingSet, len(children)),
	}
	for i, child := range children {
		for _, id := range child.StreamIDs() {
			if prev, dup := c.owner[id]; dup {
				return nil, fmt.Errorf("%w: stream %d in children %d and %d", ErrDuplicateStream, id, prev, i)
			}
			c.owner[id] = i
		}
	}
	return c, nil
}

func (c *composite) Consume(f *stream.Frame) []stream.Set {
	idx, ok := c.owner[f.StreamID()]
	if !ok {
		debugf("%s: frame %v is not owned here, passing through", c, f)
		c.stats.Foreign++
		c.opts.Metrics.observe(c.policy.name(), outcomeForeign)
		return []stream.Set{stream.NewSet(f)}
	}

	var out []stream.Set
	for _, s := range c.children[idx].Consume(f) {
		out = append(out, c.enqueue(idx, s)...)
	}
	return append(out, c.sync()...)
}

// Poll releases heads whose peers have timed out. Children that hold
// frames back are polled first and their output is queued like any other.
func (c *composite) Poll() []stream.Set {
	var out []stream.Set
	for i, child := range c.children {
		p, ok := child.(Poller)
		if !ok {
			continue
		}
		for _, s := range p.Poll() {
			out = append(out, c.enqueue(i, s)...)
		}
	}
	return append(out, c.sync()...)
}

func (c *composite) StreamIDs() []int {
	var ids []int
	for _, child := range c.children {
		ids = append(ids, child.StreamIDs()...)
	}
	return ids
}

// Pending returns the number of child outputs waiting for their peers.
func (c *composite) Pending() int {
	n := 0
	for _, q := range c.queues {
		n += len(q)
	}
	return n
}

// Stats returns a copy of the dispatch counters.
func (c *composite) Stats() Stats {
	return c.stats
}

func (c *composite) String() string {
	parts := make([]string, 0, len(c.children))
	for _, child := range c.children {
		parts = append(parts, child.String())
	}
	return c.policy.name() + "(" + strings.Join(parts, ",") + ")"
}

func (c *composite) enqueue(child int, s stream.Set) []stream.Set {
	c.policy.observe(child, s)
	c.queues[child] = append(c.queues[child], pendingSet{set: s, enqueued: c.opts.Clock.Now()})
	if len(c.queues[child]) <= c.opts.MaxQueue {
		return nil
	}

	evicted := c.queues[child][0]
	c.queues[child] = c.queues[child][1:]
	c.stats.Overflow++
	c.opts.Metrics.observe(c.policy.name(), outcomeOverflow)
	debugf("%s: queue for child %d full, emitting %v alone", c, child, evicted.set)
	return []stream.Set{evicted.set}
}

func (c *composite) sync() []stream.Set {
	var out []stream.Set
	for {
		var heads []int
		for i, q := range c.queues {
			if len(q) > 0 {
				heads = append(heads, i)
			}
		}
		if len(heads) == 0 {
			return out
		}

		candidate := heads[0]
		for _, i := range heads[1:] {
			if c.policy.less(c.head(i), c.head(candidate)) {
				candidate = i
			}
		}

		group := make([]int, 0, len(heads))
		for _, i := range heads {
			if i == candidate || c.policy.equivalent(c.head(i), c.head(candidate)) {
				group = append(group, i)
			}
		}

		// A child with a newer head has moved past the candidate. Children
		// with empty queues may still deliver a partner, so the policy
		// decides whether each of them can be skipped.
		if len(heads) < len(c.children) && !c.canSkipMissing(candidate) {
			return out
		}
		out = append(out, c.dispatch(group))
	}
}

func (c *composite) canSkipMissing(candidate int) bool {
	head := c.queues[candidate][0]
	waited := c.opts.Clock.Since(head.enqueued)
	newest := c.newest()
	for i, q := range c.queues {
		if len(q) > 0 {
			continue
		}
		if !c.policy.skipMissing(i, head.set, newest, waited) {
			return false
		}
	}
	return true
}

// newest returns the latest queued output across all children.
func (c *composite) newest() stream.Set {
	var newest stream.Set
	found := false
	for _, q := range c.queues {
		for _, p := range q {
			if !found || c.policy.less(newest, p.set) {
				newest = p.set
				found = true
			}
		}
	}
	return newest
}

func (c *composite) head(child int) stream.Set {
	return c.queues[child][0].set
}

// dispatch pops the heads of the grouped children and merges them in child
// order.
func (c *composite) dispatch(group []int) stream.Set {
	var merged stream.Set
	for _, i := range group {
		merged = merged.Merge(c.queues[i][0].set)
		c.queues[i] = c.queues[i][1:]
	}
	if len(group) == len(c.children) {
		c.stats.Matched++
		c.opts.Metrics.observe(c.policy.name(), outcomeMatched)
	} else {
		c.stats.Partial++
		c.opts.Metrics.observe(c.policy.name(), outcomePartial)
	}
	debugf("%s: dispatching %v (%d/%d children)", c, merged, len(group), len(c.children))
	return merged
}
