package invites

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCacheGetAbsent(t *testing.T) {
	c := NewCache()

	if _, ok := c.Get("guild-1"); ok {
		t.Error("Get() on an empty cache reported a snapshot")
	}
}

func TestCacheReplaceAndGet(t *testing.T) {
	c := NewCache()

	c.Replace("guild-1", NewSnapshot([]Invite{
		{Code: "ABC", Uses: 5},
		{Code: "XYZ", Uses: 1},
	}, 7))

	got, ok := c.Get("guild-1")
	if !ok {
		t.Fatal("Get() missed after Replace()")
	}

	want := Snapshot{
		Uses:       map[string]int{"ABC": 5, "XYZ": 1},
		VanityUses: 7,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}

	// Other guilds are unaffected.
	if _, ok := c.Get("guild-2"); ok {
		t.Error("Get() returned a snapshot for an unrelated guild")
	}
}

func TestCacheGetReturnsCopy(t *testing.T) {
	c := NewCache()
	c.Replace("guild-1", NewSnapshot([]Invite{{Code: "ABC", Uses: 5}}, 0))

	got, _ := c.Get("guild-1")
	got.Uses["ABC"] = 99

	again, _ := c.Get("guild-1")
	if again.Uses["ABC"] != 5 {
		t.Errorf("mutating a Get() result leaked into the cache: got %d, want 5", again.Uses["ABC"])
	}
}

func TestCacheApplyIncrementalUpdate(t *testing.T) {
	c := NewCache()

	// No snapshot yet: the update is dropped, not adopted as a baseline.
	c.ApplyIncrementalUpdate("guild-1", "NEW", 0)
	if _, ok := c.Get("guild-1"); ok {
		t.Fatal("ApplyIncrementalUpdate() created a snapshot from nothing")
	}

	c.Replace("guild-1", NewSnapshot([]Invite{{Code: "ABC", Uses: 5}}, 3))
	c.ApplyIncrementalUpdate("guild-1", "NEW", 0)

	got, _ := c.Get("guild-1")
	want := Snapshot{
		Uses:       map[string]int{"ABC": 5, "NEW": 0},
		VanityUses: 3,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshot after incremental update mismatch (-want +got):\n%s", diff)
	}
}
