// Package scheduler polls the schedule source and raises ScheduleSetChanged
// when the schedule set differs from the previous cycle.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"schedule_bot/internal/detect"
	"schedule_bot/internal/model"
)

// Source supplies the current schedule set.
type Source interface {
	Fetch(ctx context.Context) ([]model.Schedule, error)
}

// InfoStore persists the ScheduleInfo set of the last cycle.
type InfoStore interface {
	ListScheduleInfos(ctx context.Context) ([]model.ScheduleInfo, error)
	ReplaceScheduleInfos(ctx context.Context, infos []model.ScheduleInfo) error
}

// Signaler receives schedule set changes.
type Signaler interface {
	ScheduleSetChanged(ctx context.Context, schedules []model.Schedule, changes model.FilesChanging) error
}

// Scheduler periodically refreshes the schedule set.
type Scheduler struct {
	source   Source
	store    InfoStore
	signaler Signaler
	log      *slog.Logger
	tick     time.Duration

	// primed is set after the first cycle whose signal was accepted.
	primed bool
}

// New creates a Scheduler with a 10-minute refresh interval.
func New(source Source, store InfoStore, signaler Signaler, log *slog.Logger) *Scheduler {
	return &Scheduler{
		source:   source,
		store:    store,
		signaler: signaler,
		log:      log,
		tick:     10 * time.Minute,
	}
}

// SetTickInterval overrides the default refresh interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// Run starts the refresh loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.refresh(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *Scheduler) refresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	schedules, err := s.source.Fetch(ctx)
	if err != nil {
		s.log.Error("fetch schedules", "error", err)
		return
	}

	previous, err := s.store.ListScheduleInfos(ctx)
	if err != nil {
		s.log.Error("list schedule infos", "error", err)
		return
	}

	changes := detect.Classify(previous, schedules)
	s.log.Debug("schedules classified",
		"schedules", len(schedules),
		"added_or_changed", len(changes.AddedOrChanged),
		"without_changes", len(changes.WithoutChanges),
		"deleted", len(changes.Deleted),
	)

	if s.primed && !changes.HasChanges() {
		return
	}

	if err := s.signaler.ScheduleSetChanged(ctx, schedules, changes); err != nil {
		s.log.Error("signal schedule set changed", "error", err)
		return
	}
	s.primed = true

	if err := s.store.ReplaceScheduleInfos(ctx, detect.Infos(schedules)); err != nil {
		s.log.Error("replace schedule infos", "error", err)
		return
	}

	if changes.HasChanges() {
		s.log.Info("schedule set changed",
			"added_or_changed", len(changes.AddedOrChanged),
			"deleted", len(changes.Deleted),
		)
	}
}
