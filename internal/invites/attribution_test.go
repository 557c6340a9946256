package invites

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func intPtr(n int) *int {
	return &n
}

func TestAttribute(t *testing.T) {
	tests := []struct {
		name       string
		old        *Snapshot
		fresh      []Invite
		vanityCode string
		vanityUses *int
		want       Result
	}{
		{
			name: "no prior snapshot",
			old:  nil,
			fresh: []Invite{
				{Code: "ABC", Uses: 5, InviterID: "u1", InviterUsername: "alice"},
			},
			want: Unknown(ReasonNoPriorSnapshot),
		},
		{
			name: "single increase matches inviter",
			old: &Snapshot{
				Uses: map[string]int{"ABC": 5},
			},
			fresh: []Invite{
				{Code: "ABC", Uses: 6, InviterID: "u1", InviterUsername: "alice"},
			},
			want: Result{
				Kind:            KindMatched,
				InviterID:       "u1",
				InviterUsername: "alice",
				InviteCode:      "ABC",
			},
		},
		{
			name: "new code counts from zero",
			old: &Snapshot{
				Uses: map[string]int{"ABC": 5},
			},
			fresh: []Invite{
				{Code: "ABC", Uses: 5},
				{Code: "XYZ", Uses: 1, InviterID: "u2", InviterUsername: "Alice"},
			},
			want: Result{
				Kind:            KindMatched,
				InviterID:       "u2",
				InviterUsername: "Alice",
				InviteCode:      "XYZ",
			},
		},
		{
			name: "first increasing code wins",
			old: &Snapshot{
				Uses: map[string]int{"AAA": 1, "BBB": 1},
			},
			fresh: []Invite{
				{Code: "AAA", Uses: 2, InviterID: "u1", InviterUsername: "alice"},
				{Code: "BBB", Uses: 2, InviterID: "u2", InviterUsername: "bob"},
			},
			want: Result{
				Kind:            KindMatched,
				InviterID:       "u1",
				InviterUsername: "alice",
				InviteCode:      "AAA",
			},
		},
		{
			name: "increased code without inviter",
			old: &Snapshot{
				Uses: map[string]int{"ABC": 5},
			},
			fresh: []Invite{
				{Code: "ABC", Uses: 6},
			},
			want: Result{
				Kind:       KindUnknown,
				InviteCode: "ABC",
				Reason:     ReasonInviterAbsent,
			},
		},
		{
			name: "no change and no vanity",
			old: &Snapshot{
				Uses: map[string]int{"ABC": 5},
			},
			fresh: []Invite{
				{Code: "ABC", Uses: 5, InviterID: "u1", InviterUsername: "alice"},
			},
			want: Unknown(ReasonNoCountIncrease),
		},
		{
			name: "vanity uses increased",
			old: &Snapshot{
				Uses:       map[string]int{"ABC": 5},
				VanityUses: 2,
			},
			fresh: []Invite{
				{Code: "ABC", Uses: 5, InviterID: "u1", InviterUsername: "alice"},
			},
			vanityCode: "srv",
			vanityUses: intPtr(3),
			want: Result{
				Kind:       KindVanityMatched,
				InviteCode: "srv",
			},
		},
		{
			name: "regular match takes precedence over vanity",
			old: &Snapshot{
				Uses:       map[string]int{"ABC": 5},
				VanityUses: 2,
			},
			fresh: []Invite{
				{Code: "ABC", Uses: 6, InviterID: "u1", InviterUsername: "alice"},
			},
			vanityCode: "srv",
			vanityUses: intPtr(3),
			want: Result{
				Kind:            KindMatched,
				InviterID:       "u1",
				InviterUsername: "alice",
				InviteCode:      "ABC",
			},
		},
		{
			name: "vanity unchanged",
			old: &Snapshot{
				Uses:       map[string]int{"ABC": 5},
				VanityUses: 3,
			},
			fresh: []Invite{
				{Code: "ABC", Uses: 5, InviterID: "u1", InviterUsername: "alice"},
			},
			vanityCode: "srv",
			vanityUses: intPtr(3),
			want:       Unknown(ReasonNoCountIncrease),
		},
		{
			name: "vanity fetch failed",
			old: &Snapshot{
				Uses: map[string]int{"ABC": 5},
			},
			fresh: []Invite{
				{Code: "ABC", Uses: 5, InviterID: "u1", InviterUsername: "alice"},
			},
			vanityCode: "srv",
			vanityUses: nil,
			want:       Unknown(ReasonVanityFailed),
		},
		{
			name: "absent prior ignores fresh contents",
			old:  nil,
			fresh: []Invite{
				{Code: "ABC", Uses: 99, InviterID: "u1", InviterUsername: "alice"},
			},
			vanityCode: "srv",
			vanityUses: intPtr(100),
			want:       Unknown(ReasonNoPriorSnapshot),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Attribute(tc.old, tc.fresh, tc.vanityCode, tc.vanityUses)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Attribute() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAttributeIsPure(t *testing.T) {
	old := &Snapshot{
		Uses:       map[string]int{"ABC": 5},
		VanityUses: 1,
	}
	fresh := []Invite{
		{Code: "ABC", Uses: 6, InviterID: "u1", InviterUsername: "alice"},
	}

	first := Attribute(old, fresh, "srv", intPtr(2))
	second := Attribute(old, fresh, "srv", intPtr(2))

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated Attribute() calls disagree (-first +second):\n%s", diff)
	}
	if old.Uses["ABC"] != 5 || old.VanityUses != 1 {
		t.Errorf("Attribute() mutated the old snapshot: %+v", old)
	}
}
