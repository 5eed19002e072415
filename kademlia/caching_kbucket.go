package kademlia

import "math/big"

// CachingKBucket is a KBucket with a bounded FIFO replacement cache of up
// to Config.CacheK additional contacts. Removing a contact from the main
// list automatically refills it from the cache's newest entry. This is the
// variant RoutingTable actually stores.
type CachingKBucket struct {
	*KBucket

	cacheK int
	// cache holds candidate contacts, oldest at index 0 (head), newest at
	// the tail. Implemented as a slice used as a deque: append at the
	// tail, slice off the head on overflow.
	cache []Contact
}

// NewCachingKBucket creates an empty CachingKBucket covering
// [rangeMin, rangeMax).
func NewCachingKBucket(rangeMin, rangeMax *big.Int, cfg *Config, clock Clock) *CachingKBucket {
	cfg = configOrDefault(cfg)
	return &CachingKBucket{
		KBucket: NewKBucket(rangeMin, rangeMax, cfg, clock),
		cacheK:  cfg.CacheK,
	}
}

// cacheIndexOf returns the index of the cached contact with the given
// guid, or -1.
func (cb *CachingKBucket) cacheIndexOf(guid Identifier) int {
	for i, c := range cb.cache {
		if c.GUID == guid {
			return i
		}
	}
	return -1
}

// CacheContact stores a contact in the replacement cache, evicting any
// existing entry with the same guid first and appending the observation to
// the tail. If the cache then exceeds CacheK, the oldest (head) entry is
// evicted.
func (cb *CachingKBucket) CacheContact(c Contact) {
	if i := cb.cacheIndexOf(c.GUID); i >= 0 {
		cb.cache = append(cb.cache[:i], cb.cache[i+1:]...)
	}
	cb.cache = append(cb.cache, c)
	if len(cb.cache) > cb.cacheK {
		cb.cache = cb.cache[1:]
	}
}

// GetCachedContacts returns all cached contacts, oldest first.
func (cb *CachingKBucket) GetCachedContacts() []Contact {
	result := make([]Contact, len(cb.cache))
	copy(result, cb.cache)
	return result
}

// RemoveContact removes c from the main list, then refills from the cache.
func (cb *CachingKBucket) RemoveContact(c Contact) {
	cb.RemoveGUID(c.GUID)
}

// RemoveGUID removes the contact with the given guid from the main list,
// then refills from the cache.
func (cb *CachingKBucket) RemoveGUID(guid Identifier) {
	cb.KBucket.RemoveGUID(guid)
	cb.FillFromCache()
}

// FillFromCache moves the newest cached contacts into the main list until
// either the main list is full or the cache is exhausted, promoting the
// most promising replacement first.
func (cb *CachingKBucket) FillFromCache() {
	for cb.KBucket.Len() < cb.k && len(cb.cache) > 0 {
		last := len(cb.cache) - 1
		candidate := cb.cache[last]
		cb.cache = cb.cache[:last]
		// AddContact cannot fail here: the main list has room by
		// construction of the loop condition.
		_ = cb.KBucket.AddContact(candidate)
	}
}

// SplitKBucket performs the base range split, then partitions the
// replacement cache between the two halves by the (now-narrowed) range of
// this bucket versus the new bucket, preserving relative order within each
// side. Both buckets are then refilled from their own cache.
func (cb *CachingKBucket) SplitKBucket() *CachingKBucket {
	mid := cb.midpoint()
	// splitAt mutates cb.KBucket in place to the low half and returns a
	// fresh KBucket covering the high half.
	highBase := cb.splitAt(mid)

	newBucket := &CachingKBucket{
		KBucket: highBase,
		cacheK:  cb.cacheK,
	}

	keepCache, movedCache := partitionContacts(cb.cache, cb.ContactInRange)
	cb.cache = keepCache
	newBucket.cache = movedCache

	cb.FillFromCache()
	newBucket.FillFromCache()

	return newBucket
}
