package stub

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/modfin/tooliscode/tools"
)

// Cache memoizes Render by a stable hash of the descriptor list, so a
// caller that renders the same tool list more than once doesn't re-walk the
// schema tree each time.
type Cache struct {
	lru *lru.Cache[string, string]
}

// NewCache builds a Cache holding up to size rendered stub sources.
func NewCache(size int) (*Cache, error) {
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

// Render returns the cached stub source for descs, rendering and storing it
// on a miss.
func (c *Cache) Render(descs []tools.Descriptor) string {
	key := digest(descs)
	if cached, ok := c.lru.Get(key); ok {
		return cached
	}
	rendered := Render(descs)
	c.lru.Add(key, rendered)
	return rendered
}

func digest(descs []tools.Descriptor) string {
	// The descriptor list is small and JSON-encodes deterministically
	// enough for cache-key purposes (struct field order is fixed); this
	// isn't used for anything security-sensitive, only memoization.
	raw, err := json.Marshal(descs)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
