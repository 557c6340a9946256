package discord

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"

	"github.com/onyxroyal/invitedash/internal/core/models"
)

func TestSearchInvitesEmbed(t *testing.T) {
	joined := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	recs := []models.JoinRecord{
		{DiscordUserID: "m2", DiscordUsername: "member2", JoinedAt: joined.Add(time.Hour)},
		{DiscordUserID: "m1", DiscordUsername: "member1", JoinedAt: joined},
	}

	got := searchInvitesEmbed("alice", recs)

	want := &discordgo.MessageEmbed{
		Title: "Members invited by alice",
		Description: fmt.Sprintf("1. **member2** (<@m2>) - <t:%d:R>\n2. **member1** (<@m1>) - <t:%d:R>\n",
			joined.Add(time.Hour).Unix(), joined.Unix()),
		Color:  defaultEmbedColor,
		Footer: &discordgo.MessageEmbedFooter{Text: "Total Invites: 2"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("searchInvitesEmbed() mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchInvitesEmbedTruncates(t *testing.T) {
	recs := make([]models.JoinRecord, searchInvitesMax+5)
	for n := range recs {
		recs[n] = models.JoinRecord{
			DiscordUserID:   fmt.Sprintf("m%d", n+1),
			DiscordUsername: fmt.Sprintf("member%d", n+1),
		}
	}

	got := searchInvitesEmbed("alice", recs)

	if lines := strings.Count(got.Description, ". **"); lines != searchInvitesMax {
		t.Errorf("embed lists %d members, want %d", lines, searchInvitesMax)
	}
	if !strings.Contains(got.Description, "*...and 5 more members.*") {
		t.Errorf("embed is missing the truncation note:\n%s", got.Description)
	}
	if got.Footer.Text != fmt.Sprintf("Total Invites: %d", len(recs)) {
		t.Errorf("footer = %q, want the full count", got.Footer.Text)
	}
}
