package adsb

import (
	"fmt"

	"github.com/patrickmn/go-cache"
)

// icaoCache is the small LRU-ish cache of recently-seen ICAO addresses that
// DF0/4/5/16/20/21 frames are checked against, since those formats carry no
// CRC-protected address field of their own (§4.3 item 2). Grounded on
// Regentag-go1090's mode_s.Decoder.icao_cache, which wraps the same library.
type icaoCache struct {
	c *cache.Cache
}

func newICAOCache() *icaoCache {
	return &icaoCache{c: cache.New(icaoCacheTTL, icaoCacheTTL/6)}
}

func (c *icaoCache) Seen(addr uint32) bool {
	_, ok := c.c.Get(icaoKey(addr))
	return ok
}

func (c *icaoCache) Add(addr uint32) {
	c.c.SetDefault(icaoKey(addr), struct{}{})
}

func icaoKey(addr uint32) string {
	return fmt.Sprintf("%06x", addr)
}
