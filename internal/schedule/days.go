package schedule

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/courthive/dayplan/internal/clock"
	"github.com/courthive/dayplan/internal/tournament"
)

// PlanDays plans several days concurrently. Each day is an independent pass
// over the same records; requests must name distinct dates and must not
// share matchUp ids. Results are returned in request order.
func (s *Scheduler) PlanDays(ctx context.Context, reqs []Request) ([]*Result, error) {
	dates := make(map[string]bool)
	owners := make(map[string]string)
	for _, req := range reqs {
		date := clock.ExtractDate(req.ScheduleDate)
		if dates[date] {
			return nil, fmt.Errorf("%w: date %s requested twice", ErrOverlappingScope, date)
		}
		dates[date] = true
		for _, id := range req.MatchUpIDs {
			if other, ok := owners[id]; ok && other != date {
				return nil, fmt.Errorf("%w: matchUp %s requested on %s and %s", ErrOverlappingScope, id, other, date)
			}
			owners[id] = date
		}
	}

	results := make([]*Result, len(reqs))
	g, gCtx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			res, err := s.Plan(req)
			if err != nil {
				return fmt.Errorf("planning %s: %w", req.ScheduleDate, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// CommitDays writes planned days one after another.
func (s *Scheduler) CommitDays(results []*Result, mut tournament.Mutator) error {
	for _, res := range results {
		if err := s.Commit(res, mut); err != nil {
			return fmt.Errorf("committing %s: %w", res.ScheduleDate, err)
		}
	}
	return nil
}
