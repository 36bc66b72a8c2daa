package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/planbook/planbook-api/internal/models"
	appErrors "github.com/planbook/planbook-api/pkg/errors"
)

type scheduleEventReader interface {
	ListFiltered(ctx context.Context, filter models.ScheduleEventFilter) ([]models.ScheduleEvent, error)
}

// ScheduleEventService serves schedule event reads through the cache. The
// cache key embeds the filter so generator writes can invalidate by schedule
// prefix.
type ScheduleEventService struct {
	repo   scheduleEventReader
	cache  *CacheService
	logger *zap.Logger
}

// NewScheduleEventService wires the read service.
func NewScheduleEventService(repo scheduleEventReader, cache *CacheService, logger *zap.Logger) *ScheduleEventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleEventService{repo: repo, cache: cache, logger: logger}
}

// List returns events matching the filter, cached per schedule.
func (s *ScheduleEventService) List(ctx context.Context, filter models.ScheduleEventFilter) ([]models.ScheduleEvent, error) {
	if filter.ScheduleID == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "scheduleId is required")
	}

	key := eventCacheKey(filter)
	if s.cache.Enabled() {
		var cached []models.ScheduleEvent
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	events, err := s.repo.ListFiltered(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule events")
	}

	if s.cache.Enabled() {
		s.cache.Set(ctx, key, events, 0)
	}
	return events, nil
}

func eventCacheKey(filter models.ScheduleEventFilter) string {
	from, to := "", ""
	if filter.From != nil {
		from = filter.From.Format("2006-01-02")
	}
	if filter.To != nil {
		to = filter.To.Format("2006-01-02")
	}
	return fmt.Sprintf("schedule:events:%d:%d:%d:%s:%s", filter.ScheduleID, filter.CourseID, filter.Period, from, to)
}
