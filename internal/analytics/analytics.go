package analytics

import (
	"context"
	"time"

	"floodwarden/internal/storage"
)

type Service struct {
	store *storage.Store
}

func New(store *storage.Store) *Service {
	return &Service{store: store}
}

type Report struct {
	Total    int
	ByLevel  map[string]int
	ByFilter map[string]int
	ByAction map[string]int
}

// Report aggregates the guild's audit entries since the given time, broken
// down by level, by filter, and by moderation action.
func (s *Service) Report(ctx context.Context, guildID string, since time.Time) (Report, error) {
	logs, err := s.store.ListAuditLogs(ctx, guildID, since)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		ByLevel:  make(map[string]int),
		ByFilter: make(map[string]int),
		ByAction: make(map[string]int),
	}
	for _, log := range logs {
		report.Total++
		report.ByLevel[log.Level]++
		report.ByFilter[log.Event]++
		if log.Action != "" {
			report.ByAction[log.Action]++
		}
	}
	return report, nil
}
