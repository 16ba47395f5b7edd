// Package candidate holds the run's pool of remote media links and the
// popularity counters an external harvester recorded for each one.
package candidate

import (
	"math/rand/v2"
	"sync"
)

// Stats are the harvester's popularity counters for one link.
type Stats struct {
	Seen    uint64
	Visited uint64
}

// Candidate is one link drawn from the pool.
type Candidate struct {
	Link string
	Stats
}

// Pool is a draw-without-replacement set of candidates. The normalizers
// MaxSeen and MaxVisited are captured once at construction.
type Pool struct {
	mu         sync.Mutex
	links      []string
	stats      map[string]Stats
	maxSeen    uint64
	maxVisited uint64
	total      int
	rng        *rand.Rand
}

// NewPool snapshots entries into a pool. The map is copied.
func NewPool(entries map[string]Stats) *Pool {
	return newPool(entries, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
}

// NewPoolWithSeed is NewPool with a deterministic draw order.
func NewPoolWithSeed(entries map[string]Stats, seed uint64) *Pool {
	return newPool(entries, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func newPool(entries map[string]Stats, rng *rand.Rand) *Pool {
	p := &Pool{
		links: make([]string, 0, len(entries)),
		stats: make(map[string]Stats, len(entries)),
		rng:   rng,
	}
	for link, st := range entries {
		if link == "" {
			continue
		}
		p.links = append(p.links, link)
		p.stats[link] = st
		p.maxSeen = max(p.maxSeen, st.Seen)
		p.maxVisited = max(p.maxVisited, st.Visited)
	}
	p.maxSeen = max(p.maxSeen, 1)
	p.maxVisited = max(p.maxVisited, 1)
	p.total = len(p.links)
	return p
}

// Draw removes and returns one uniformly random candidate. ok is false once
// the pool is empty.
func (p *Pool) Draw() (Candidate, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.links)
	if n == 0 {
		return Candidate{}, false
	}
	i := p.rng.IntN(n)
	link := p.links[i]
	p.links[i] = p.links[n-1]
	p.links = p.links[:n-1]

	st := p.stats[link]
	delete(p.stats, link)
	return Candidate{Link: link, Stats: st}, true
}

// Len reports how many candidates remain.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.links)
}

// Total reports the pool size at construction.
func (p *Pool) Total() int { return p.total }

// MaxSeen is the largest seen count at construction, at least 1.
func (p *Pool) MaxSeen() uint64 { return p.maxSeen }

// MaxVisited is the largest visited count at construction, at least 1.
func (p *Pool) MaxVisited() uint64 { return p.maxVisited }
