package antispam

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

type panicFilter struct{}

func (panicFilter) Name() string                             { return "panics" }
func (panicFilter) Process(context.Context, *Message)        { panic("boom") }
func (panicFilter) Cleanup() int                             { return 0 }
func (panicFilter) Clear(string, string) error               { return nil }
func (panicFilter) ClearAll(string) int                      { return 0 }
func (panicFilter) Configure(context.Context, string, []byte) error { return nil }
func (panicFilter) Describe(context.Context, string) ([]byte, error) { return nil, nil }
func (panicFilter) Tracked(string) int                       { return 0 }

type countingFilter struct {
	panicFilter
	processed int
}

func (f *countingFilter) Name() string                      { return "counts" }
func (f *countingFilter) Process(context.Context, *Message) { f.processed++ }

func TestEngineContainsFilterPanic(t *testing.T) {
	after := &countingFilter{}
	e := &Engine{log: zap.NewNop(), filters: []Filter{panicFilter{}, after}}

	e.Process(context.Background(), testMessage("u1", "hi"))

	if after.processed != 1 {
		t.Fatalf("filters after a panicking one must still run, got %d", after.processed)
	}
}

func TestEngineFilterLookup(t *testing.T) {
	mod := newFakeModerator()
	e := NewEngine(newTestDeps(mod))

	if len(e.Filters()) != 6 {
		t.Fatalf("expected 6 filters, got %d", len(e.Filters()))
	}
	for _, name := range []string{"attachments", "invites", "mentions", "links", "unicode", "duplicates"} {
		if e.Filter(name) == nil {
			t.Fatalf("missing filter %q", name)
		}
	}
	if e.Filter("nope") != nil {
		t.Fatal("unknown name must return nil")
	}
}

func TestEngineCleanupSumsFilters(t *testing.T) {
	mod := newFakeModerator()
	e := NewEngine(newTestDeps(mod))
	clock := newFakeClock()

	attachments := e.Filter("attachments").(*AttachmentFilter)
	attachments.store.WithClock(clock)
	attachments.store.Mutate("g1", "u1", 1, nil)
	attachments.store.Mutate("g1", "u2", 1, nil)
	clock.advance(1)

	if removed := e.Cleanup(); removed != 2 {
		t.Fatalf("expected 2 swept, got %d", removed)
	}
}
