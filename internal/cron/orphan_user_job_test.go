package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/logger"
)

func TestOrphanUserJobRunsSweep(t *testing.T) {
	sweeper := &fakeOrphanSweeper{deactivated: 3}
	job, err := NewOrphanUserJob(OrphanUserJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		Coordinator: sweeper,
	})
	if err != nil {
		t.Fatalf("NewOrphanUserJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sweeper.called != 1 {
		t.Fatalf("expected sweep called once, got %d", sweeper.called)
	}
}

func TestOrphanUserJobPropagatesErrors(t *testing.T) {
	job, err := NewOrphanUserJob(OrphanUserJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		Coordinator: &fakeOrphanSweeper{err: errors.New("boom")},
	})
	if err != nil {
		t.Fatalf("NewOrphanUserJob: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

type fakeOrphanSweeper struct {
	deactivated int64
	err         error
	called      int
}

func (f *fakeOrphanSweeper) SweepOrphans(ctx context.Context) (int64, error) {
	f.called++
	if f.err != nil {
		return 0, f.err
	}
	return f.deactivated, nil
}
