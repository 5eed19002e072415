package kademlia

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/sirupsen/logrus"
)

// RoutingTable is an ordered, non-overlapping, exhaustive partition of the
// identifier space into CachingKBuckets. It routes contact observations and
// queries to the responsible bucket, splitting buckets on demand when they
// overflow and the local identifier falls in their range.
//
// RoutingTable is safe for concurrent read-only queries (GetContact,
// FindCloseNodes, GetRefreshList) running alongside each other, and
// serializes all mutations (AddContact, RemoveContact, RemoveGUID) behind a
// single table-wide lock.
type RoutingTable struct {
	ownGUID Identifier
	cfg     *Config
	clock   Clock
	rnd     RandomSource
	log     *logrus.Entry

	mu      sync.RWMutex
	buckets []*CachingKBucket
}

// NewRoutingTable creates a RoutingTable for ownGUID, initially a single
// bucket spanning the whole identifier space [0, 2^cfg.BitNodeIDLen). A nil
// cfg, clock, rnd, or log falls back to DefaultConfig, the system clock,
// math/rand/v2, and a scoped entry on logrus's standard logger,
// respectively — mirroring this package's nil-means-default convention for
// injected collaborators.
func NewRoutingTable(ownGUID Identifier, cfg *Config, clock Clock, rnd RandomSource, log *logrus.Entry) *RoutingTable {
	cfg = configOrDefault(cfg)
	clock = clockOrDefault(clock)
	rnd = randomSourceOrDefault(rnd)
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("own_guid", ownGUID)

	fullSpace := new(big.Int).Lsh(big.NewInt(1), uint(cfg.BitNodeIDLen))
	root := NewCachingKBucket(big.NewInt(0), fullSpace, cfg, clock)

	return &RoutingTable{
		ownGUID: ownGUID,
		cfg:     cfg,
		clock:   clock,
		rnd:     rnd,
		log:     log,
		buckets: []*CachingKBucket{root},
	}
}

// OwnGUID returns the identifier this routing table was built for.
func (rt *RoutingTable) OwnGUID() Identifier {
	return rt.ownGUID
}

// Config returns the tuning this routing table was built with.
func (rt *RoutingTable) Config() *Config {
	return rt.cfg
}

// Len returns the number of buckets currently partitioning the ID space.
func (rt *RoutingTable) Len() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return len(rt.buckets)
}

// Bucket returns the bucket at the given index, for introspection (e.g. by
// cmd/kademliatable's `buckets` command or tests asserting the partition
// invariant).
func (rt *RoutingTable) Bucket(i int) *CachingKBucket {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.buckets[i]
}

func (rt *RoutingTable) validateGUID(guid Identifier) error {
	if len(guid) != rt.cfg.HexNodeIDLen() {
		return fmt.Errorf("kademlia: guid %q has length %d, want %d: %w", guid, len(guid), rt.cfg.HexNodeIDLen(), ErrBadIdentifier)
	}
	if _, ok := new(big.Int).SetString(string(guid), 16); !ok {
		return fmt.Errorf("kademlia: guid %q is not valid hexadecimal: %w", guid, ErrBadIdentifier)
	}
	return nil
}

// bucketIndexLocked returns the index of the bucket responsible for guid,
// found by binary search over the contiguous, non-overlapping bucket
// ranges. Callers must hold rt.mu.
func (rt *RoutingTable) bucketIndexLocked(guid Identifier) (int, error) {
	n := guid.Num()
	low, high := 0, len(rt.buckets)
	for low < high {
		mid := low + (high-low)/2
		b := rt.buckets[mid]
		switch {
		case b.RangeMin().Cmp(n) > 0:
			high = mid
		case b.RangeMax().Cmp(n) <= 0:
			low = mid + 1
		default:
			return mid, nil
		}
	}
	return 0, fmt.Errorf("kademlia: no bucket responsible for guid %q: %w", guid, ErrBadIdentifier)
}

// insertBucketLocked inserts newBucket at position idx, shifting later
// buckets up by one. Callers must hold rt.mu for writing.
func (rt *RoutingTable) insertBucketLocked(idx int, newBucket *CachingKBucket) {
	rt.buckets = append(rt.buckets, nil)
	copy(rt.buckets[idx+1:], rt.buckets[idx:])
	rt.buckets[idx] = newBucket
}

// AddContact adds the given contact to the correct bucket, splitting and
// retrying or caching as needed. Observations of the local identifier are
// logged and ignored. AddContact fails with ErrBadIdentifier if c.GUID is
// not representable in this table's identifier space; it never returns the
// internal bucket-full signal.
func (rt *RoutingTable) AddContact(c Contact) error {
	if err := rt.validateGUID(c.GUID); err != nil {
		return err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if c.GUID == rt.ownGUID {
		rt.log.Info("kademlia: refusing to add own guid to routing table")
		return nil
	}

	for {
		idx, err := rt.bucketIndexLocked(c.GUID)
		if err != nil {
			return err
		}
		bucket := rt.buckets[idx]

		err = bucket.AddContact(c)
		if err == nil {
			bucket.Touch()
			rt.log.WithFields(logrus.Fields{
				"guid":         c.GUID,
				"bucket_index": idx,
				"action":       "added",
			}).Debug("kademlia: stored contact")
			return nil
		}
		if !errors.Is(err, errBucketFull) {
			return err
		}

		if bucket.GUIDInRange(rt.ownGUID) {
			newBucket := bucket.SplitKBucket()
			rt.insertBucketLocked(idx+1, newBucket)
			rt.log.WithFields(logrus.Fields{
				"bucket_index":  idx,
				"new_range_min": newBucket.RangeMin(),
				"new_range_max": newBucket.RangeMax(),
			}).Debug("kademlia: split bucket")
			continue
		}

		bucket.CacheContact(c)
		rt.log.WithFields(logrus.Fields{
			"guid":         c.GUID,
			"bucket_index": idx,
			"action":       "cached",
		}).Debug("kademlia: cached contact")
		return nil
	}
}

// GetContact returns the known contact with the given guid, if any.
func (rt *RoutingTable) GetContact(guid Identifier) (Contact, bool, error) {
	if err := rt.validateGUID(guid); err != nil {
		return Contact{}, false, err
	}

	rt.mu.RLock()
	defer rt.mu.RUnlock()

	idx, err := rt.bucketIndexLocked(guid)
	if err != nil {
		return Contact{}, false, err
	}
	bucket := rt.buckets[idx]
	c, ok := bucket.GetContact(guid)
	if ok {
		bucket.Touch()
	}
	return c, ok, nil
}

// RemoveContact routes to the responsible bucket and removes c. No error if
// absent.
func (rt *RoutingTable) RemoveContact(c Contact) error {
	return rt.RemoveGUID(c.GUID)
}

// RemoveGUID routes to the responsible bucket and removes the contact with
// the given guid. No error if absent.
func (rt *RoutingTable) RemoveGUID(guid Identifier) error {
	if err := rt.validateGUID(guid); err != nil {
		return err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	idx, err := rt.bucketIndexLocked(guid)
	if err != nil {
		return err
	}
	rt.buckets[idx].RemoveGUID(guid)
	return nil
}

// FindCloseNodes finds up to count known contacts closest to targetGUID,
// excluding senderGUID if it is non-empty. It visits the bucket responsible
// for targetGUID, then alternately walks outward to adjacent buckets,
// collecting freshest-first contacts from each until count is reached or
// every bucket has been visited. The result may be shorter than count only
// when the table does not know enough peers.
func (rt *RoutingTable) FindCloseNodes(targetGUID Identifier, count int, senderGUID Identifier) ([]Contact, error) {
	if err := rt.validateGUID(targetGUID); err != nil {
		return nil, err
	}
	if count < 0 {
		count = 0
	}

	rt.mu.RLock()
	defer rt.mu.RUnlock()

	startIdx, err := rt.bucketIndexLocked(targetGUID)
	if err != nil {
		return nil, err
	}

	result := make([]Contact, 0, count)
	for _, idx := range outwardIndices(startIdx, len(rt.buckets)) {
		if len(result) >= count {
			break
		}
		bucket := rt.buckets[idx]
		result = append(result, bucket.GetContacts(count-len(result), senderGUID)...)
	}

	return result, nil
}

// outwardIndices yields idx, then idx-1, idx+1, idx-2, idx+2, ..., skipping
// indices outside [0, n): closest XOR-shell first, freshness breaks ties
// within a bucket.
func outwardIndices(idx, n int) []int {
	indices := make([]int, 0, n)
	if idx >= 0 && idx < n {
		indices = append(indices, idx)
	}
	for offset := 1; ; offset++ {
		low, high := idx-offset, idx+offset
		added := false
		if low >= 0 && low < n {
			indices = append(indices, low)
			added = true
		}
		if high >= 0 && high < n {
			indices = append(indices, high)
			added = true
		}
		if !added {
			break
		}
	}
	return indices
}

// GetRefreshList returns, for each bucket whose LastAccessed is older than
// Config.RefreshTimeout (or every bucket when force is true), one uniformly
// random identifier within that bucket's range, for a periodic refresher to
// probe.
func (rt *RoutingTable) GetRefreshList(force bool) ([]Identifier, error) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	now := rt.clock.NowSeconds()
	timeoutSeconds := int64(rt.cfg.RefreshTimeout.Seconds())

	result := make([]Identifier, 0, len(rt.buckets))
	for _, bucket := range rt.buckets {
		if !force && now-bucket.LastAccessed() < timeoutSeconds {
			continue
		}
		id, err := RandomInRange(bucket.RangeMin(), bucket.RangeMax(), rt.cfg.BitNodeIDLen, rt.rnd)
		if err != nil {
			return nil, err
		}
		result = append(result, id)
	}

	rt.log.WithFields(logrus.Fields{
		"force": force,
		"count": len(result),
	}).Debug("kademlia: computed refresh list")

	return result, nil
}
