package antispam

import (
	"context"
	"testing"
)

func mentionMessage(userID string, mentions int) *Message {
	msg := testMessage(userID, "hey")
	msg.Mentions = mentions
	return msg
}

func TestMentionFilterHardLimit(t *testing.T) {
	mod := newFakeModerator()
	f := NewMentionFilter(newTestDeps(mod))

	// Default hard limit is 10: one message at it is deleted and banned.
	f.Process(context.Background(), mentionMessage("u1", 10))

	if _, deleted, banned, _ := mod.counts(); deleted != 1 || banned != 1 {
		t.Fatalf("expected delete+ban, got deleted=%d banned=%d", deleted, banned)
	}
}

func TestMentionFilterAccumulatesCounts(t *testing.T) {
	mod := newFakeModerator()
	f := NewMentionFilter(newTestDeps(mod))
	ctx := context.Background()

	// Soft limit 4, warn at 8: two messages of 4 mentions land exactly on
	// the warn limit.
	f.Process(ctx, mentionMessage("u1", 4))
	f.Process(ctx, mentionMessage("u1", 4))
	if sent, _, _, _ := mod.counts(); sent != 1 {
		t.Fatalf("expected one warning at total 8, got %d", sent)
	}

	// A jump past the ban limit of 16 bans even without hitting it exactly.
	f.Process(ctx, mentionMessage("u1", 9))
	if _, _, banned, _ := mod.counts(); banned != 1 {
		t.Fatalf("expected ban after total crossed 16, got %d", banned)
	}
}

func TestMentionFilterBelowSoftLimitIgnored(t *testing.T) {
	mod := newFakeModerator()
	f := NewMentionFilter(newTestDeps(mod))

	f.Process(context.Background(), mentionMessage("u1", 3))
	if _, ok := f.store.Peek("g1", "u1"); ok {
		t.Fatal("messages below the soft limit must not open a record")
	}
}
