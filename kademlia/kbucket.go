package kademlia

import (
	"math/big"
	"sync/atomic"
)

// KBucket is a freshness-ordered sequence of up to Config.K contacts whose
// identifiers lie in the half-open range [RangeMin, RangeMax). Fresh or
// recently refreshed contacts sit near the tail; stale contacts sit near
// the head. KBucket alone has no replacement cache; see CachingKBucket for
// the variant the RoutingTable actually uses.
//
// lastAccessed is stored atomically so RoutingTable can touch a bucket from
// a successful GetContact while holding only its read lock, keeping
// read-only queries safe to run concurrently with each other.
type KBucket struct {
	rangeMin *big.Int
	rangeMax *big.Int

	lastAccessed atomic.Int64
	clock        Clock

	k        int
	contacts []Contact
}

// NewKBucket creates an empty KBucket covering [rangeMin, rangeMax). cfg
// supplies K (nil means DefaultConfig); clock supplies the touch discipline
// clock (nil means the system clock).
func NewKBucket(rangeMin, rangeMax *big.Int, cfg *Config, clock Clock) *KBucket {
	cfg = configOrDefault(cfg)
	clock = clockOrDefault(clock)
	kb := &KBucket{
		rangeMin: new(big.Int).Set(rangeMin),
		rangeMax: new(big.Int).Set(rangeMax),
		clock:    clock,
		k:        cfg.K,
	}
	kb.Touch()
	return kb
}

// Len returns the number of contacts currently stored.
func (kb *KBucket) Len() int {
	return len(kb.contacts)
}

// RangeMin returns the inclusive lower bound of this bucket's range.
func (kb *KBucket) RangeMin() *big.Int {
	return new(big.Int).Set(kb.rangeMin)
}

// RangeMax returns the exclusive upper bound of this bucket's range.
func (kb *KBucket) RangeMax() *big.Int {
	return new(big.Int).Set(kb.rangeMax)
}

// LastAccessed returns the Unix-epoch second count this bucket was last
// touched.
func (kb *KBucket) LastAccessed() int64 {
	return kb.lastAccessed.Load()
}

// Touch sets last_accessed to the current time.
func (kb *KBucket) Touch() {
	kb.lastAccessed.Store(kb.clock.NowSeconds())
}

// indexOf returns the index of the contact with the given guid, or -1.
func (kb *KBucket) indexOf(guid Identifier) int {
	for i, c := range kb.contacts {
		if c.GUID == guid {
			return i
		}
	}
	return -1
}

// AddContact adds a contact to the bucket. If a contact with the same guid
// already exists it is removed and the fresh observation is appended to
// the tail (refresh). Otherwise, if the bucket has room, the contact is
// appended. If the bucket is full and the guid is new, AddContact fails
// with errBucketFull and leaves the bucket unchanged.
func (kb *KBucket) AddContact(c Contact) error {
	if i := kb.indexOf(c.GUID); i >= 0 {
		kb.contacts = append(kb.contacts[:i], kb.contacts[i+1:]...)
		kb.contacts = append(kb.contacts, c)
		return nil
	}

	if len(kb.contacts) < kb.k {
		kb.contacts = append(kb.contacts, c)
		return nil
	}

	return errBucketFull
}

// GetContact returns the stored contact with the given guid, if present.
func (kb *KBucket) GetContact(guid Identifier) (Contact, bool) {
	if i := kb.indexOf(guid); i >= 0 {
		return kb.contacts[i], true
	}
	return Contact{}, false
}

// GetContacts returns up to count freshest contacts (tail first), skipping
// excludedGUID if it is non-empty. A negative count means "all"; a count of
// zero returns an empty, non-nil slice. Exclusion never reduces the
// returned count when another contact is available: the walk starts from
// the tail, skips the excluded guid, and stops once count is reached or the
// contact list is exhausted.
func (kb *KBucket) GetContacts(count int, excludedGUID Identifier) []Contact {
	if len(kb.contacts) == 0 || count == 0 {
		return []Contact{}
	}

	if count < 0 || count > len(kb.contacts) {
		count = len(kb.contacts)
	}

	result := make([]Contact, 0, count)
	for i := len(kb.contacts) - 1; i >= 0 && len(result) < count; i-- {
		c := kb.contacts[i]
		if excludedGUID != "" && c.GUID == excludedGUID {
			continue
		}
		result = append(result, c)
	}
	return result
}

// RemoveContact removes the given contact by identity (guid). It is a
// no-op if no such contact is stored.
func (kb *KBucket) RemoveContact(c Contact) {
	kb.RemoveGUID(c.GUID)
}

// RemoveGUID removes the contact with the given guid. It is a no-op if no
// such contact is stored.
func (kb *KBucket) RemoveGUID(guid Identifier) {
	if i := kb.indexOf(guid); i >= 0 {
		kb.contacts = append(kb.contacts[:i], kb.contacts[i+1:]...)
	}
}

// ContactInRange reports whether c's guid falls in this bucket's range.
func (kb *KBucket) ContactInRange(c Contact) bool {
	return kb.GUIDInRange(c.GUID)
}

// GUIDInRange reports whether guid falls in this bucket's
// [RangeMin, RangeMax) range.
func (kb *KBucket) GUIDInRange(guid Identifier) bool {
	n := guid.Num()
	return kb.rangeMin.Cmp(n) <= 0 && n.Cmp(kb.rangeMax) < 0
}

// SplitKBucket halves this bucket's range at its midpoint, relocating
// contacts into the two halves, and returns a new KBucket covering the
// high half. The caller must ensure RangeMax - RangeMin >= 2.
func (kb *KBucket) SplitKBucket() *KBucket {
	return kb.splitAt(kb.midpoint())
}

// midpoint returns range_min + (range_max - range_min) / 2, using integer
// division.
func (kb *KBucket) midpoint() *big.Int {
	span := new(big.Int).Sub(kb.rangeMax, kb.rangeMin)
	half := new(big.Int).Rsh(span, 1)
	return new(big.Int).Add(kb.rangeMin, half)
}

// splitAt performs the actual range halving and contact partitioning,
// shared by KBucket and CachingKBucket so the caching variant can insert
// its own cache-splitting step in between.
func (kb *KBucket) splitAt(mid *big.Int) *KBucket {
	newBucket := &KBucket{
		rangeMin: new(big.Int).Set(mid),
		rangeMax: new(big.Int).Set(kb.rangeMax),
		clock:    kb.clock,
		k:        kb.k,
	}
	newBucket.Touch()

	kb.rangeMax = new(big.Int).Set(mid)

	keep, moved := partitionContacts(kb.contacts, kb.ContactInRange)
	kb.contacts = keep
	newBucket.contacts = moved

	return newBucket
}

// partitionContacts splits contacts into two slices according to pred,
// preserving relative order within each side.
func partitionContacts(contacts []Contact, pred func(Contact) bool) (yes, no []Contact) {
	for _, c := range contacts {
		if pred(c) {
			yes = append(yes, c)
		} else {
			no = append(no, c)
		}
	}
	return yes, no
}
