package kademlia

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallKBucketConfig(k int) *Config {
	cfg := DefaultConfig()
	cfg.K = k
	return cfg
}

func contactAt(t *testing.T, n int64) Contact {
	t.Helper()
	id := mustNumID(t, n)
	c, err := NewContact("203.0.113.1", 33445, id.String())
	require.NoError(t, err)
	return c
}

func TestNewKBucketStartsEmptyAndTouched(t *testing.T) {
	clock := &fakeClock{seconds: 100}
	kb := NewKBucket(big.NewInt(0), big.NewInt(1000), smallKBucketConfig(2), clock)
	assert.Equal(t, 0, kb.Len())
	assert.Equal(t, int64(100), kb.LastAccessed())
}

func TestKBucketAddContactFillsThenRejects(t *testing.T) {
	kb := NewKBucket(big.NewInt(0), big.NewInt(1000), smallKBucketConfig(2), &fakeClock{})

	require.NoError(t, kb.AddContact(contactAt(t, 1)))
	require.NoError(t, kb.AddContact(contactAt(t, 2)))
	assert.Equal(t, 2, kb.Len())

	err := kb.AddContact(contactAt(t, 3))
	assert.ErrorIs(t, err, errBucketFull)
	assert.Equal(t, 2, kb.Len(), "rejected contact must not be stored")
}

func TestKBucketAddContactRefreshesExisting(t *testing.T) {
	kb := NewKBucket(big.NewInt(0), big.NewInt(1000), smallKBucketConfig(3), &fakeClock{})

	require.NoError(t, kb.AddContact(contactAt(t, 1)))
	require.NoError(t, kb.AddContact(contactAt(t, 2)))
	require.NoError(t, kb.AddContact(contactAt(t, 1))) // refresh, moves to tail

	assert.Equal(t, 2, kb.Len())
	contacts := kb.GetContacts(-1, "")
	require.Len(t, contacts, 2)
	assert.Equal(t, mustNumID(t, 1), contacts[0].GUID, "freshest (just refreshed) contact must come first")
}

func TestKBucketGetContact(t *testing.T) {
	kb := NewKBucket(big.NewInt(0), big.NewInt(1000), smallKBucketConfig(2), &fakeClock{})
	require.NoError(t, kb.AddContact(contactAt(t, 1)))

	got, ok := kb.GetContact(mustNumID(t, 1))
	assert.True(t, ok)
	assert.Equal(t, mustNumID(t, 1), got.GUID)

	_, ok = kb.GetContact(mustNumID(t, 2))
	assert.False(t, ok)
}

func TestKBucketGetContactsExcludesAndOrders(t *testing.T) {
	kb := NewKBucket(big.NewInt(0), big.NewInt(1000), smallKBucketConfig(5), &fakeClock{})
	for _, n := range []int64{1, 2, 3} {
		require.NoError(t, kb.AddContact(contactAt(t, n)))
	}

	all := kb.GetContacts(-1, "")
	require.Len(t, all, 3)
	assert.Equal(t, []Identifier{mustNumID(t, 3), mustNumID(t, 2), mustNumID(t, 1)}, []Identifier{all[0].GUID, all[1].GUID, all[2].GUID})

	limited := kb.GetContacts(2, "")
	assert.Len(t, limited, 2)

	excluded := kb.GetContacts(-1, mustNumID(t, 3))
	require.Len(t, excluded, 2)
	for _, c := range excluded {
		assert.NotEqual(t, mustNumID(t, 3), c.GUID)
	}
}

func TestKBucketGetContactsEmptyBucket(t *testing.T) {
	kb := NewKBucket(big.NewInt(0), big.NewInt(1000), smallKBucketConfig(2), &fakeClock{})
	got := kb.GetContacts(5, "")
	assert.NotNil(t, got)
	assert.Len(t, got, 0)
}

func TestKBucketRemoveContact(t *testing.T) {
	kb := NewKBucket(big.NewInt(0), big.NewInt(1000), smallKBucketConfig(2), &fakeClock{})
	c := contactAt(t, 1)
	require.NoError(t, kb.AddContact(c))

	kb.RemoveContact(c)
	assert.Equal(t, 0, kb.Len())

	// no-op when absent
	kb.RemoveGUID(mustNumID(t, 99))
	assert.Equal(t, 0, kb.Len())
}

func TestKBucketRangeMembership(t *testing.T) {
	kb := NewKBucket(big.NewInt(100), big.NewInt(200), smallKBucketConfig(2), &fakeClock{})
	assert.True(t, kb.GUIDInRange(mustNumID(t, 100)))
	assert.True(t, kb.GUIDInRange(mustNumID(t, 199)))
	assert.False(t, kb.GUIDInRange(mustNumID(t, 200)))
	assert.False(t, kb.GUIDInRange(mustNumID(t, 99)))
}

func TestKBucketSplitPartitionsContactsAndRange(t *testing.T) {
	kb := NewKBucket(big.NewInt(0), big.NewInt(1000), smallKBucketConfig(10), &fakeClock{})
	for _, n := range []int64{10, 600, 900, 20} {
		require.NoError(t, kb.AddContact(contactAt(t, n)))
	}

	high := kb.SplitKBucket()

	assert.Equal(t, big.NewInt(0), kb.RangeMin())
	assert.Equal(t, big.NewInt(500), kb.RangeMax())
	assert.Equal(t, big.NewInt(500), high.RangeMin())
	assert.Equal(t, big.NewInt(1000), high.RangeMax())

	for _, c := range kb.GetContacts(-1, "") {
		assert.True(t, kb.GUIDInRange(c.GUID))
	}
	for _, c := range high.GetContacts(-1, "") {
		assert.True(t, high.GUIDInRange(c.GUID))
	}
	assert.Equal(t, 2, kb.Len())
	assert.Equal(t, 2, high.Len())
}
