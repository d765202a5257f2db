package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/voicelens/backend/internal/models"
)

// ValidationError means user-chosen parameters are unusable. It is raised
// before any insight query is issued, so a bad range never renders a
// partial chart.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// defaultEpoch bounds how far back the date pickers can reach.
var defaultEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// resolveDateRange fills missing bounds from the warehouse's available date
// window and validates the result. An empty bounds result falls back to the
// fixed epoch and today.
func (s *Service) resolveDateRange(ctx context.Context, start, end *time.Time) (models.DateRange, error) {
	rng := models.DateRange{}
	if start != nil {
		rng.Start = *start
	}
	if end != nil {
		rng.End = *end
	}

	if start == nil || end == nil {
		min, max, err := s.dateBounds(ctx)
		if err != nil {
			return models.DateRange{}, err
		}
		if start == nil {
			rng.Start = min
		}
		if end == nil {
			rng.End = max
		}
	}

	if rng.Start.After(rng.End) {
		return models.DateRange{}, &ValidationError{
			Message: fmt.Sprintf("start_date %s is after end_date %s",
				rng.Start.Format("2006-01-02"), rng.End.Format("2006-01-02")),
		}
	}
	return rng, nil
}

// dateBounds is cached like the pages it seeds, so a default render served
// from cache skips the warehouse entirely.
func (s *Service) dateBounds(ctx context.Context) (time.Time, time.Time, error) {
	sql, args := s.Builder.DateBounds(defaultEpoch)

	var b models.DateRange
	key := cacheKey("date-bounds", sql, args)
	if s.cached(ctx, key, &b) {
		return b.Start, b.End, nil
	}

	rs, err := s.Gateway.Query(ctx, sql, args...)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	min := rs.Time(0, "min_date")
	max := rs.Time(0, "max_date")
	if rs.Empty() || min.IsZero() || max.IsZero() {
		min, max = defaultEpoch, today()
	}
	s.store(ctx, key, models.DateRange{Start: min, End: max})
	return min, max, nil
}

func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}
