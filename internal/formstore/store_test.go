package formstore

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) add(d time.Duration) { c.t = c.t.Add(d) }

func newStore(ttl time.Duration) (*MemoryStore, *clock) {
	c := &clock{t: time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(ttl)
	s.now = c.now
	return s, c
}

func TestMemoryStore_MergeAndReplace(t *testing.T) {
	s, _ := newStore(time.Hour)
	key := Key("u-1", FormFirstStage)

	_, ok := s.Get(key)
	assert.False(t, ok)

	s.Merge(key, map[string]string{"barAsRead": "1009.1", "dryBulbAsRead": "29"})
	d := s.Merge(key, map[string]string{"dryBulbAsRead": "29.5", "barAsRead": ""})
	assert.Equal(t, map[string]string{"dryBulbAsRead": "29.5"}, d.Fields)

	d = s.Replace(key, map[string]string{"Td": "24", "empty": ""})
	assert.Equal(t, map[string]string{"Td": "24"}, d.Fields)

	got, ok := s.Get(key)
	require.True(t, ok)
	assert.Equal(t, d.Fields, got.Fields)

	// Returned maps are copies.
	got.Fields["Td"] = "99"
	again, _ := s.Get(key)
	assert.Equal(t, "24", again.Fields["Td"])
}

func TestMemoryStore_KeysAreIndependent(t *testing.T) {
	s, _ := newStore(time.Hour)
	s.Replace(Key("u-1", FormFirstStage), map[string]string{"a": "1"})
	s.Replace(Key("u-1", FormSecondStage), map[string]string{"b": "2"})
	s.Replace(Key("u-2", FormFirstStage), map[string]string{"c": "3"})

	s.Reset(Key("u-1", FormFirstStage))
	_, ok := s.Get(Key("u-1", FormFirstStage))
	assert.False(t, ok)
	_, ok = s.Get(Key("u-1", FormSecondStage))
	assert.True(t, ok)
	_, ok = s.Get(Key("u-2", FormFirstStage))
	assert.True(t, ok)

	s.Reset("missing")
}

func TestMemoryStore_LazyExpiry(t *testing.T) {
	s, c := newStore(30 * time.Minute)
	key := Key("u-1", FormFirstStage)

	s.Merge(key, map[string]string{"a": "1"})
	c.add(29 * time.Minute)
	_, ok := s.Get(key)
	require.True(t, ok)

	// A write restarts the clock.
	s.Merge(key, map[string]string{"b": "2"})
	c.add(29 * time.Minute)
	d, ok := s.Get(key)
	require.True(t, ok)
	assert.Len(t, d.Fields, 2)

	c.add(time.Minute)
	_, ok = s.Get(key)
	assert.False(t, ok)
	_, ok = s.Get(key)
	assert.False(t, ok, "expiry is idempotent")
	assert.Zero(t, s.Len())

	// Merging onto an expired draft starts from empty.
	s.Merge(key, map[string]string{"c": "3"})
	c.add(time.Hour)
	d = s.Merge(key, map[string]string{"d": "4"})
	assert.Equal(t, map[string]string{"d": "4"}, d.Fields)
}

func TestMemoryStore_Sweep(t *testing.T) {
	s, c := newStore(time.Hour)
	s.Replace("old-1", map[string]string{"a": "1"})
	s.Replace("old-2", map[string]string{"a": "1"})
	c.add(40 * time.Minute)
	s.Replace("fresh", map[string]string{"a": "1"})
	c.add(20 * time.Minute)

	assert.Equal(t, 2, s.Sweep())
	assert.Equal(t, 1, s.Len())
	assert.Zero(t, s.Sweep())
}

func TestMemoryStore_NoTTLKeepsDrafts(t *testing.T) {
	s, c := newStore(0)
	s.Replace("k", map[string]string{"a": "1"})
	c.add(1000 * time.Hour)
	_, ok := s.Get("k")
	assert.True(t, ok)
	assert.Zero(t, s.Sweep())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Merge("shared", map[string]string{"n": "x"})
				s.Get("shared")
				s.Sweep()
			}
		}()
	}
	wg.Wait()
	d, ok := s.Get("shared")
	require.True(t, ok)
	assert.Equal(t, "x", d.Fields["n"])
}

func TestValidForm(t *testing.T) {
	assert.True(t, ValidForm("first-stage"))
	assert.True(t, ValidForm("second-stage"))
	assert.False(t, ValidForm("third-stage"))
	assert.False(t, ValidForm(""))
}
