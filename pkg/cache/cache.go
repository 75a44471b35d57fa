package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/calibra-ai/oraclegate/pkg/observability/metrics"
)

// Verdict is an oracle classification outcome. Entries represent coarse
// regime classifications, not verbatim answers, which is why near-identical
// inputs may safely share one.
type Verdict struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Model      string  `json:"model,omitempty"`
}

// Entry is one cached verdict. Owned exclusively by the cache.
type Entry struct {
	Key          string
	Verdict      Verdict
	StoredAt     time.Time
	ExpiresAt    time.Time
	LastAccessAt time.Time
	HitCount     int64
}

// Stats is a point-in-time snapshot of cache effectiveness.
type Stats struct {
	Size    int     `json:"size"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Options configures a ResultCache.
type Options struct {
	MaxEntries int
	TTL        time.Duration
	Policy     EvictionPolicy
}

// ResultCache maps (normalized message, language) to a previously obtained
// oracle verdict. Expiry is enforced on read: a TTL-expired entry is evicted
// and reported as a miss even if it is still resident. Safe for concurrent
// use; a write racing another write may be dropped, which at worst costs one
// extra oracle call.
type ResultCache struct {
	mu      sync.RWMutex
	entries []Entry
	index   map[string]int

	maxEntries int
	ttl        time.Duration
	policy     EvictionPolicy

	hits   int64
	misses int64

	now func() time.Time
}

// New builds a ResultCache. Zero or negative MaxEntries defaults to 1000;
// zero TTL defaults to one hour; nil Policy defaults to FIFO.
func New(opts Options) *ResultCache {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 1000
	}
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	if opts.Policy == nil {
		opts.Policy = &FIFOPolicy{}
	}
	return &ResultCache{
		entries:    make([]Entry, 0, opts.MaxEntries),
		index:      make(map[string]int, opts.MaxEntries),
		maxEntries: opts.MaxEntries,
		ttl:        opts.TTL,
		policy:     opts.Policy,
		now:        time.Now,
	}
}

// NormalizeKey collapses whitespace, trims, and lowercases the message, then
// appends the language tag. "Hello!" and "hello!" share an entry by design.
func NormalizeKey(text, language string) string {
	fields := strings.Fields(strings.ToLower(text))
	return strings.Join(fields, " ") + "|" + strings.ToLower(language)
}

// Get returns the cached verdict for (text, language), or false on a miss.
// Expired entries are evicted on the spot.
func (c *ResultCache) Get(text, language string) (*Verdict, bool) {
	key := NormalizeKey(text, language)
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.index[key]
	if !ok {
		c.misses++
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}
	if now.After(c.entries[idx].ExpiresAt) {
		c.removeAt(idx)
		c.misses++
		metrics.CacheMissesTotal.Inc()
		metrics.CacheEvictionsTotal.WithLabelValues("ttl").Inc()
		return nil, false
	}

	c.entries[idx].LastAccessAt = now
	c.entries[idx].HitCount++
	c.hits++
	metrics.CacheHitsTotal.Inc()

	verdict := c.entries[idx].Verdict
	return &verdict, true
}

// Set stores a verdict, evicting expired entries first and then, if still
// full, one victim chosen by the eviction policy.
func (c *ResultCache) Set(text, language string, verdict Verdict) {
	key := NormalizeKey(text, language)
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if idx, ok := c.index[key]; ok {
		c.entries[idx].Verdict = verdict
		c.entries[idx].StoredAt = now
		c.entries[idx].ExpiresAt = now.Add(c.ttl)
		return
	}

	c.evictExpired(now)
	for len(c.entries) >= c.maxEntries {
		victim := c.policy.SelectVictim(c.entries)
		if victim < 0 {
			break
		}
		c.removeAt(victim)
		metrics.CacheEvictionsTotal.WithLabelValues("overflow").Inc()
	}

	c.entries = append(c.entries, Entry{
		Key:          key,
		Verdict:      verdict,
		StoredAt:     now,
		ExpiresAt:    now.Add(c.ttl),
		LastAccessAt: now,
	})
	c.index[key] = len(c.entries) - 1
}

// Stats returns a snapshot of size and hit counters.
func (c *ResultCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return Stats{
		Size:    len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: rate,
	}
}

// evictExpired drops every entry past its TTL. Called opportunistically on
// writes; reads evict lazily.
func (c *ResultCache) evictExpired(now time.Time) {
	for i := 0; i < len(c.entries); {
		if now.After(c.entries[i].ExpiresAt) {
			c.removeAt(i)
			metrics.CacheEvictionsTotal.WithLabelValues("ttl").Inc()
			continue
		}
		i++
	}
}

// removeAt deletes entries[i] by swapping in the last entry. Callers hold
// the write lock.
func (c *ResultCache) removeAt(i int) {
	delete(c.index, c.entries[i].Key)
	last := len(c.entries) - 1
	if i != last {
		c.entries[i] = c.entries[last]
		c.index[c.entries[i].Key] = i
	}
	c.entries = c.entries[:last]
}
