package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a unit of background work. An empty schedule registers the job for
// on-demand runs only.
type Job interface {
	GetName() string
	GetSchedule() string
	Execute(ctx context.Context) error
}

type Scheduler struct {
	cron *cron.Cron
	jobs []Job
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		jobs: make([]Job, 0),
	}
}

// Register adds job and schedules it when it carries a cron expression.
func (s *Scheduler) Register(job Job) error {
	schedule := job.GetSchedule()
	if schedule != "" {
		_, err := s.cron.AddFunc(schedule, func() {
			s.run(context.Background(), job)
		})
		if err != nil {
			return fmt.Errorf("schedule job %s: %w", job.GetName(), err)
		}
		zap.L().Info("job scheduled", zap.String("job", job.GetName()), zap.String("cron", schedule))
	} else {
		zap.L().Info("job registered for on-demand runs", zap.String("job", job.GetName()))
	}

	s.jobs = append(s.jobs, job)
	return nil
}

func (s *Scheduler) run(ctx context.Context, job Job) {
	log := zap.L().With(zap.String("job", job.GetName()))
	log.Info("job started")
	if err := job.Execute(ctx); err != nil {
		log.Error("job failed", zap.Error(err))
		return
	}
	log.Info("job completed")
}

func (s *Scheduler) Start() {
	s.cron.Start()
	zap.L().Info("scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	zap.L().Info("scheduler stopped")
}

// RunByName executes a registered job immediately.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.GetName() == name {
			return job.Execute(ctx)
		}
	}
	return fmt.Errorf("job %q not found", name)
}

func (s *Scheduler) JobNames() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.GetName()
	}
	return names
}
