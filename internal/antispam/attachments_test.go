package antispam

import (
	"context"
	"testing"
)

func attachmentMessage(userID string, attachments int) *Message {
	msg := testMessage(userID, "")
	msg.Attachments = attachments
	return msg
}

func TestAttachmentFilterEscalation(t *testing.T) {
	mod := newFakeModerator()
	f := NewAttachmentFilter(newTestDeps(mod))
	ctx := context.Background()

	// Defaults: warn at 3, ban at 5.
	for i := 0; i < 2; i++ {
		f.Process(ctx, attachmentMessage("u1", 1))
	}
	if sent, _, banned, _ := mod.counts(); sent != 0 || banned != 0 {
		t.Fatalf("no action expected below the warn limit, got sent=%d banned=%d", sent, banned)
	}

	f.Process(ctx, attachmentMessage("u1", 1))
	if sent, _, _, _ := mod.counts(); sent != 1 {
		t.Fatalf("expected one warning at the limit, got %d", sent)
	}

	f.Process(ctx, attachmentMessage("u1", 1))
	if sent, _, banned, _ := mod.counts(); sent != 1 || banned != 0 {
		t.Fatalf("fourth message must neither warn again nor ban, got sent=%d banned=%d", sent, banned)
	}

	f.Process(ctx, attachmentMessage("u1", 1))
	if _, _, banned, _ := mod.counts(); banned != 1 {
		t.Fatalf("expected ban at the fifth attachment message, got %d", banned)
	}
	if _, ok := f.store.Peek("g1", "u1"); ok {
		t.Fatal("record must be removed after the ban")
	}
}

func TestAttachmentFilterTextResetsStreak(t *testing.T) {
	mod := newFakeModerator()
	f := NewAttachmentFilter(newTestDeps(mod))
	ctx := context.Background()

	f.Process(ctx, attachmentMessage("u1", 2))
	f.Process(ctx, attachmentMessage("u1", 1))
	f.Process(ctx, testMessage("u1", "just words"))

	if _, ok := f.store.Peek("g1", "u1"); ok {
		t.Fatal("plain text message must clear the record")
	}
}

func TestAttachmentFilterModeratorExempt(t *testing.T) {
	mod := newFakeModerator()
	mod.mods["staff"] = true
	f := NewAttachmentFilter(newTestDeps(mod))
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		f.Process(ctx, attachmentMessage("staff", 1))
	}
	if sent, _, banned, _ := mod.counts(); sent != 0 || banned != 0 {
		t.Fatalf("moderator must be exempt, got sent=%d banned=%d", sent, banned)
	}
}
