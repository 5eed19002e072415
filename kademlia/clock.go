package kademlia

import "time"

// Clock abstracts time for deterministic testing of staleness and touch
// discipline: wall-clock access is injected rather than owned by the
// routing table.
type Clock interface {
	// NowSeconds returns a nondecreasing Unix-epoch second count.
	NowSeconds() int64
}

// systemClock is the production Clock, backed by the standard library.
type systemClock struct{}

// NowSeconds returns time.Now's Unix-epoch second count.
func (systemClock) NowSeconds() int64 {
	return time.Now().Unix()
}

// defaultClock is used whenever a nil Clock is supplied, mirroring this
// codebase's existing nil-means-default convention for injected
// collaborators (compare TimeProvider in the DHT package this was
// adapted from).
var defaultClock Clock = systemClock{}

func clockOrDefault(c Clock) Clock {
	if c == nil {
		return defaultClock
	}
	return c
}
