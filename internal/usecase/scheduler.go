package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsAgent/internal/ports"
)

// IngestFunc runs one ingestion and reports how many articles were stored.
type IngestFunc func(ctx context.Context) (int, error)

// Scheduler wires the interval driver with the ingestion use case.
type Scheduler struct {
	driver ports.Scheduler
	ingest IngestFunc
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring ingestion.
func NewScheduler(driver ports.Scheduler, ingest IngestFunc, log *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, ingest: ingest, logger: log}
}

// Start registers the ingestion job with the provided driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.ingest == nil {
		return nil
	}

	job := func(trigger time.Time) {
		stored, err := s.ingest(ctx)
		if s.logger == nil {
			return
		}
		if err != nil {
			s.logger.Error("scheduled ingestion failed", "trigger", trigger, "error", err)
			return
		}
		s.logger.Info("scheduled ingestion done", "trigger", trigger, "stored", stored)
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
