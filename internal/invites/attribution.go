package invites

// Kind says what the attribution concluded.
type Kind string

const (
	// KindMatched means a regular invite's counter increased and we know
	// who created it.
	KindMatched Kind = "matched"
	// KindVanityMatched means only the guild's vanity URL counter moved.
	KindVanityMatched Kind = "vanity_matched"
	// KindUnknown means no inviter could be inferred; Reason says why.
	KindUnknown Kind = "unknown"
)

// Reason explains an unknown attribution.
type Reason string

const (
	ReasonNoPriorSnapshot Reason = "no_prior_snapshot"
	ReasonNoCountIncrease Reason = "no_count_increase_detected"
	ReasonInviterAbsent   Reason = "inviter_absent_on_invite"
	ReasonVanityFailed    Reason = "vanity_fetch_failed"
	ReasonNoPermission    Reason = "permission_denied"
)

// A Result is the outcome of attributing one join.
type Result struct {
	Kind            Kind
	InviterID       string
	InviterUsername string
	InviteCode      string
	Reason          Reason
}

// Unknown builds an unknown result for the given reason.
func Unknown(reason Reason) Result {
	return Result{Kind: KindUnknown, Reason: reason}
}

// Attribute diffs a fresh invite list against the previously cached
// snapshot and infers which invite was just consumed. It is a pure
// function: the caller fetches everything and updates the cache afterward.
//
// old is nil when the guild has no baseline yet. fresh must be in the
// platform's enumeration order: the first code whose count strictly
// increased wins, and simultaneous increases to two codes are not
// disambiguated. vanityUses is nil when the vanity counter could not be
// fetched (or was not fetched because vanityCode is empty); the vanity
// counter is only consulted when no regular code moved.
func Attribute(old *Snapshot, fresh []Invite, vanityCode string, vanityUses *int) Result {
	if old == nil {
		return Unknown(ReasonNoPriorSnapshot)
	}

	for _, inv := range fresh {
		// Codes created since the old snapshot count from zero.
		if inv.Uses <= old.Uses[inv.Code] {
			continue
		}

		if inv.InviterID == "" {
			r := Unknown(ReasonInviterAbsent)
			r.InviteCode = inv.Code
			return r
		}

		return Result{
			Kind:            KindMatched,
			InviterID:       inv.InviterID,
			InviterUsername: inv.InviterUsername,
			InviteCode:      inv.Code,
		}
	}

	if vanityCode != "" {
		if vanityUses == nil {
			return Unknown(ReasonVanityFailed)
		}
		if *vanityUses > old.VanityUses {
			return Result{
				Kind:       KindVanityMatched,
				InviteCode: vanityCode,
			}
		}
	}

	return Unknown(ReasonNoCountIncrease)
}
