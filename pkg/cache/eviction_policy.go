package cache

// EvictionPolicy selects which live entry to drop when the cache is full.
// TTL expiry is handled before any policy runs: no entry may outlive its TTL
// regardless of access frequency, so policies only arbitrate among live
// entries.
type EvictionPolicy interface {
	SelectVictim(entries []Entry) int
}

// FIFOPolicy evicts the oldest-inserted entry. This is the default and the
// only policy with a correctness story for stale verdicts: the entry closest
// to expiry goes first.
type FIFOPolicy struct{}

func (p *FIFOPolicy) SelectVictim(entries []Entry) int {
	if len(entries) == 0 {
		return -1
	}

	oldestIdx := 0
	for i := 1; i < len(entries); i++ {
		if entries[i].StoredAt.Before(entries[oldestIdx].StoredAt) {
			oldestIdx = i
		}
	}
	return oldestIdx
}

// LRUPolicy evicts the least recently read entry.
type LRUPolicy struct{}

func (p *LRUPolicy) SelectVictim(entries []Entry) int {
	if len(entries) == 0 {
		return -1
	}

	oldestIdx := 0
	for i := 1; i < len(entries); i++ {
		if entries[i].LastAccessAt.Before(entries[oldestIdx].LastAccessAt) {
			oldestIdx = i
		}
	}
	return oldestIdx
}

// LFUPolicy evicts the least frequently read entry.
type LFUPolicy struct{}

func (p *LFUPolicy) SelectVictim(entries []Entry) int {
	if len(entries) == 0 {
		return -1
	}

	victimIdx := 0
	for i := 1; i < len(entries); i++ {
		if entries[i].HitCount < entries[victimIdx].HitCount {
			victimIdx = i
		} else if entries[i].HitCount == entries[victimIdx].HitCount {
			// Use LRU as tiebreaker to avoid random selection
			if entries[i].LastAccessAt.Before(entries[victimIdx].LastAccessAt) {
				victimIdx = i
			}
		}
	}
	return victimIdx
}

// PolicyFromName maps a config string to a policy, defaulting to FIFO.
func PolicyFromName(name string) EvictionPolicy {
	switch name {
	case "lru":
		return &LRUPolicy{}
	case "lfu":
		return &LFUPolicy{}
	default:
		return &FIFOPolicy{}
	}
}
