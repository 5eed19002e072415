// Package kademlia implements the routing table a distributed hash table
// peer uses to remember other peers, organized by XOR distance from the
// local identifier.
//
// The package answers the two questions that dominate DHT behavior:
// "which peers do I know that are closest to identifier X?" and "how do I
// absorb new peer observations without forgetting useful ones?" It does not
// implement network transport, message serialization, or iterative
// (alpha-parallel) node lookups; those are external collaborators that
// consume this package's RoutingTable.
//
// # Identifier space
//
// Identifiers are 160-bit values by default (Config.BitNodeIDLen sets the
// width), rendered as 40-character lowercase hex strings at that width. The hex form is canonical for storage and equality; the integer
// form (via Identifier.Num) is canonical for range membership and XOR
// distance.
//
// # Routing table
//
//	cfg := kademlia.DefaultConfig()
//	own, _ := kademlia.ParseIdentifier(someHexGUID)
//	rt := kademlia.NewRoutingTable(own, cfg, nil, nil, nil)
//
//	c, _ := kademlia.NewContact("203.0.113.7", 33445, peerGUID)
//	err := rt.AddContact(c)
//
//	closest, _ := rt.FindCloseNodes(targetGUID, cfg.K, "")
//	refresh, _ := rt.GetRefreshList(false)
//
// # Concurrency
//
// RoutingTable is safe for concurrent read-only queries (GetContact,
// FindCloseNodes, GetRefreshList) and serializes mutations (AddContact,
// RemoveContact, RemoveGUID) behind a single table-wide lock. It is not
// designed for concurrent mutation from more than one logical caller at a
// time; splitting a bucket touches the bucket slice itself, so per-bucket
// locking is not a safe substitute.
package kademlia
