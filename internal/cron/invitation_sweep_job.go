package cron

import (
	"context"
	"fmt"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/logger"
)

type InvitationSweepJobParams struct {
	Logger  *logger.Logger
	Sweeper invitationSweeper
}

type invitationSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// NewInvitationSweepJob expires pending invitations past their deadline.
// Expiry is otherwise lazy, triggered by token validation; this job catches
// the invitations nobody ever presents again.
func NewInvitationSweepJob(params InvitationSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sweeper == nil {
		return nil, fmt.Errorf("invitation sweeper required")
	}
	return &invitationSweepJob{
		logg:    params.Logger,
		sweeper: params.Sweeper,
	}, nil
}

type invitationSweepJob struct {
	logg    *logger.Logger
	sweeper invitationSweeper
}

func (j *invitationSweepJob) Name() string { return "invitation-expiry-sweep" }

func (j *invitationSweepJob) Run(ctx context.Context) error {
	swept, err := j.sweeper.SweepExpired(ctx)
	if err != nil {
		return fmt.Errorf("invitation sweep: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "rows_expired", swept)
	j.logg.Info(logCtx, "invitation sweep complete")
	return nil
}
