package cache

// Reason explains a reuse-or-recompile decision.
type Reason string

const (
	ReasonReused        Reason = "reused"
	ReasonNew           Reason = "new shader"
	ReasonChanged       Reason = "digest changed"
	ReasonMissingBinary Reason = "binary missing from previous bundle"
)

// Cache holds the previous run's state and accumulates the next cache map.
// It is owned by a single pipeline run.
type Cache struct {
	prevDigests  map[string]string
	prevBinaries map[string][]byte
	next         map[string]string
}

// New returns a Cache over the previous run's digests and bundle binaries.
// Either map may be nil (first run, discarded state).
func New(prevDigests map[string]string, prevBinaries map[string][]byte) *Cache {
	if prevDigests == nil {
		prevDigests = map[string]string{}
	}
	if prevBinaries == nil {
		prevBinaries = map[string][]byte{}
	}
	return &Cache{
		prevDigests:  prevDigests,
		prevBinaries: prevBinaries,
		next:         make(map[string]string),
	}
}

// Lookup returns the previous binary for name when the previous run recorded
// the same digest for it and the previous bundle still holds its binary.
// The Reason is ReasonReused on a hit and names the cause of a miss otherwise.
func (c *Cache) Lookup(name, digest string) ([]byte, Reason) {
	prev, known := c.prevDigests[name]
	bin, have := c.prevBinaries[name]
	switch {
	case !known:
		return nil, ReasonNew
	case prev != digest:
		return nil, ReasonChanged
	case !have:
		return nil, ReasonMissingBinary
	}
	return bin, ReasonReused
}

// PreviousDigest returns the digest recorded for name by the previous run.
func (c *Cache) PreviousDigest(name string) (string, bool) {
	d, ok := c.prevDigests[name]
	return d, ok
}

// Record stores the current digest for name in the next cache map.
func (c *Cache) Record(name, digest string) {
	c.next[name] = digest
}

// Entries returns the next cache map. It contains only names recorded during
// this run.
func (c *Cache) Entries() map[string]string {
	out := make(map[string]string, len(c.next))
	for k, v := range c.next {
		out[k] = v
	}
	return out
}
