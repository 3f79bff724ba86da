package antispam

import (
	"context"
	"sync"
	"time"

	"floodwarden/internal/modules/audit"

	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeModerator records every action a filter takes.
type fakeModerator struct {
	mu           sync.Mutex
	sent         []string
	deleted      []string
	banned       []string
	kicked       []string
	mods         map[string]bool
	invites      map[string]InviteInfo
	inviteErr    error
	resolveCalls int
	banErr       error
}

func newFakeModerator() *fakeModerator {
	return &fakeModerator{
		mods:    make(map[string]bool),
		invites: make(map[string]InviteInfo),
	}
}

func (m *fakeModerator) SendMessage(ctx context.Context, channelID, content string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, content)
	return "m1", nil
}

func (m *fakeModerator) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, messageID)
	return nil
}

func (m *fakeModerator) BanUser(ctx context.Context, guildID, userID, reason string, purgeDays int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.banErr != nil {
		return m.banErr
	}
	m.banned = append(m.banned, userID)
	return nil
}

func (m *fakeModerator) KickUser(ctx context.Context, guildID, userID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kicked = append(m.kicked, userID)
	return nil
}

func (m *fakeModerator) ResolveInvite(ctx context.Context, code string) (InviteInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolveCalls++
	if m.inviteErr != nil {
		return InviteInfo{}, m.inviteErr
	}
	info, ok := m.invites[code]
	if !ok {
		return InviteInfo{}, context.Canceled
	}
	return info, nil
}

func (m *fakeModerator) IsModerator(guildID, channelID, userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mods[userID]
}

func (m *fakeModerator) counts() (sent, deleted, banned, kicked int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent), len(m.deleted), len(m.banned), len(m.kicked)
}

// memoryConfig is an in-memory ConfigStore.
type memoryConfig struct {
	mu   sync.Mutex
	docs map[string][]byte
	sets int
}

func newMemoryConfig() *memoryConfig {
	return &memoryConfig{docs: make(map[string][]byte)}
}

func (c *memoryConfig) Get(ctx context.Context, guildID, filter string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.docs[guildID+"/"+filter], nil
}

func (c *memoryConfig) Set(ctx context.Context, guildID, filter string, doc []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[guildID+"/"+filter] = doc
	c.sets++
	return nil
}

func newTestDeps(mod *fakeModerator) Deps {
	return Deps{
		Moderator: mod,
		Config:    newMemoryConfig(),
		Audit:     audit.NewLogger(nil, zap.NewNop()),
		Logger:    zap.NewNop(),
	}
}

func testMessage(userID, content string) *Message {
	return &Message{
		ID:        "msg-" + userID,
		GuildID:   "g1",
		ChannelID: "c1",
		AuthorID:  userID,
		Content:   content,
	}
}
