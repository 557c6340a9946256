// Package invites holds the per-guild invite snapshot cache and the
// attribution engine that diffs two snapshots to figure out which invite
// brought a new member in.
package invites

import "sync"

// An Invite is a single invite link as the platform reports it, in the
// platform's own enumeration order. Inviter fields are empty when the
// inviter is unknown (left the guild, or a widget/server-owned invite).
type Invite struct {
	Code            string
	Uses            int
	InviterID       string
	InviterUsername string
}

// A Snapshot is a point-in-time capture of every invite code's use count
// for one guild, plus the vanity URL's separate counter.
type Snapshot struct {
	Uses       map[string]int
	VanityUses int
}

// NewSnapshot builds a snapshot from a fetched invite list.
func NewSnapshot(invs []Invite, vanityUses int) Snapshot {
	uses := make(map[string]int, len(invs))
	for _, inv := range invs {
		uses[inv.Code] = inv.Uses
	}

	return Snapshot{
		Uses:       uses,
		VanityUses: vanityUses,
	}
}

func (s Snapshot) clone() Snapshot {
	uses := make(map[string]int, len(s.Uses))
	for code, n := range s.Uses {
		uses[code] = n
	}

	return Snapshot{
		Uses:       uses,
		VanityUses: s.VanityUses,
	}
}

// Cache maps guild IDs to their last-observed snapshot. It lives for the
// lifetime of the bot session: it starts empty, so after a restart the
// first join in each guild attributes as unknown until a baseline exists.
//
// The mutex only keeps map access safe across handler goroutines. Joins in
// the same guild are deliberately not serialized against each other; two
// overlapping joins racing on one entry is tolerated, bounded staleness.
type Cache struct {
	mu        sync.Mutex
	snapshots map[string]Snapshot
}

func NewCache() *Cache {
	return &Cache{
		snapshots: make(map[string]Snapshot),
	}
}

// Get returns a copy of the guild's snapshot, or false when the guild has
// never been snapshotted. Callers treat the returned value as immutable.
func (c *Cache) Get(guildID string) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, ok := c.snapshots[guildID]
	if !ok {
		return Snapshot{}, false
	}

	return snap.clone(), true
}

// Replace swaps in a whole new snapshot for the guild. There is no partial
// merge: the previous snapshot is discarded entirely.
func (c *Cache) Replace(guildID string, snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshots[guildID] = snap.clone()
}

// ApplyIncrementalUpdate sets the count for a single code, for
// invite-created events. It does nothing when the guild has no snapshot
// yet; the next full refresh will pick the code up.
func (c *Cache) ApplyIncrementalUpdate(guildID, code string, uses int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, ok := c.snapshots[guildID]
	if !ok {
		return
	}
	snap.Uses[code] = uses
}
