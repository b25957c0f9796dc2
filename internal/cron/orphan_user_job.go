package cron

import (
	"context"
	"fmt"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/logger"
)

type OrphanUserJobParams struct {
	Logger      *logger.Logger
	Coordinator orphanSweeper
}

type orphanSweeper interface {
	SweepOrphans(ctx context.Context) (int64, error)
}

// NewOrphanUserJob deactivates users left without any active organization
// membership, typically after an organization cascade.
func NewOrphanUserJob(params OrphanUserJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Coordinator == nil {
		return nil, fmt.Errorf("deletion coordinator required")
	}
	return &orphanUserJob{
		logg:        params.Logger,
		coordinator: params.Coordinator,
	}, nil
}

type orphanUserJob struct {
	logg        *logger.Logger
	coordinator orphanSweeper
}

func (j *orphanUserJob) Name() string { return "orphan-user-sweep" }

func (j *orphanUserJob) Run(ctx context.Context) error {
	deactivated, err := j.coordinator.SweepOrphans(ctx)
	if err != nil {
		return fmt.Errorf("orphan user sweep: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "rows_deactivated", deactivated)
	j.logg.Info(logCtx, "orphan user sweep complete")
	return nil
}
