package usecase

import (
	"context"
	"time"

	"NewsForge/internal/ports"
)

// Scheduler wires the interval driver with the cycle controller.
type Scheduler struct {
	driver     ports.Scheduler
	controller *CycleController
}

// NewScheduler returns a helper to start/stop recurring generation cycles.
func NewScheduler(driver ports.Scheduler, controller *CycleController) *Scheduler {
	return &Scheduler{driver: driver, controller: controller}
}

// Start registers the cycle run with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.controller == nil {
		return nil
	}

	job := func(trigger time.Time) {
		_ = s.controller.RunCycle(ctx, trigger)
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
