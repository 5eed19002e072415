package kademlia

import "errors"

// ErrBadIdentifier is returned whenever a hex identifier has the wrong
// length, an identifier falls outside [0, 2^bitLen), or routing-table
// invariants are violated so badly that no bucket claims responsibility for
// a guid. It is a programmer/input-validation error and is never swallowed.
var ErrBadIdentifier = errors.New("kademlia: bad identifier")

// errBucketFull is raised internally by KBucket.AddContact when a bucket
// has no room and no existing entry to refresh. It is a signal strictly
// between KBucket and RoutingTable: RoutingTable always catches it and
// either splits-and-retries or caches the contact. It must never escape a
// RoutingTable method.
var errBucketFull = errors.New("kademlia: bucket full")
