package service

import (
	"context"
	"strings"
	"time"

	"blog_api/internal/models"
	"blog_api/internal/repository"
)

// maxStreamBatch bounds how many events a single Since call returns.
const maxStreamBatch = 500

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

const msgInvalidTimeRange = "invalid time range: from must be <= to"

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (repository.EventFilter, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return repository.EventFilter{}, newError(ErrValidation, msgInvalidTimeRange)
	}

	return repository.EventFilter{
		From:   from,
		To:     to,
		Type:   normalizeEventType(f.Type),
		PostID: strings.TrimSpace(f.PostID),
	}, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.PostEvent, error) {
	filter, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, filter)
}

func (s *EventLogService) Since(ctx context.Context, after time.Time, limit int) ([]models.PostEvent, error) {
	if limit <= 0 || limit > maxStreamBatch {
		limit = maxStreamBatch
	}
	return s.eventRepo.List(ctx, repository.EventFilter{
		After: normalizeToUTC(after),
		Limit: limit,
	})
}
