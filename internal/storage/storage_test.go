package storage

import (
	"context"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)

	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestUpsertGuildSettings(t *testing.T) {
	store := newTestStore(t)

	settings := GuildSettings{GuildID: "g1", LogChannel: "c1"}
	if err := store.UpsertGuildSettings(context.Background(), settings); err != nil {
		t.Fatalf("upsert guild settings: %v", err)
	}

	settings.LogChannel = "c2"
	if err := store.UpsertGuildSettings(context.Background(), settings); err != nil {
		t.Fatalf("update guild settings: %v", err)
	}

	got, err := store.GetGuildSettings(context.Background(), "g1")
	if err != nil {
		t.Fatalf("get guild settings: %v", err)
	}
	if got.LogChannel != "c2" {
		t.Fatalf("expected channel c2, got %q", got.LogChannel)
	}
}

func TestGetGuildSettingsMissing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetGuildSettings(context.Background(), "absent")
	if err != nil {
		t.Fatalf("get guild settings: %v", err)
	}
	if got.LogChannel != "" {
		t.Fatalf("expected empty log channel, got %q", got.LogChannel)
	}
}

func TestFilterConfigRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc, err := store.Get(ctx, "g1", "links")
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if doc != nil {
		t.Fatalf("expected nil config before first set, got %q", doc)
	}

	if err := store.Set(ctx, "g1", "links", []byte(`{"warn_limit":4}`)); err != nil {
		t.Fatalf("set config: %v", err)
	}
	if err := store.Set(ctx, "g1", "links", []byte(`{"warn_limit":6}`)); err != nil {
		t.Fatalf("overwrite config: %v", err)
	}

	doc, err = store.Get(ctx, "g1", "links")
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if string(doc) != `{"warn_limit":6}` {
		t.Fatalf("expected latest document, got %q", doc)
	}

	other, err := store.Get(ctx, "g2", "links")
	if err != nil {
		t.Fatalf("get other guild: %v", err)
	}
	if other != nil {
		t.Fatalf("config leaked across guilds: %q", other)
	}
}

func TestAuditLogRetention(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	old := AuditLog{GuildID: "g1", UserID: "u1", Level: "WARN", Event: "links", Action: "warn", CreatedAt: now.AddDate(0, 0, -40)}
	recent := AuditLog{GuildID: "g1", UserID: "u2", Level: "CRIT", Event: "links", Action: "ban", CreatedAt: now.Add(-time.Hour)}
	for _, entry := range []AuditLog{old, recent} {
		if err := store.AddAuditLog(ctx, entry); err != nil {
			t.Fatalf("add audit log: %v", err)
		}
	}

	if err := store.CleanupAuditLogs(ctx, 30); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	logs, err := store.ListAuditLogs(ctx, "g1", now.AddDate(0, 0, -60))
	if err != nil {
		t.Fatalf("list audit logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 log after cleanup, got %d", len(logs))
	}
	if logs[0].Action != "ban" {
		t.Fatalf("wrong survivor: %+v", logs[0])
	}
}
