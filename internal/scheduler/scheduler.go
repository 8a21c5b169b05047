package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyJobName = errors.New("job name is required")
	ErrBadInterval  = errors.New("job interval must be positive")
)

// Service wraps a gocron scheduler. Jobs receive the context passed to New
// and stop seeing work once it is cancelled.
type Service struct {
	scheduler gocron.Scheduler
	ctx       context.Context
	log       *zap.Logger
	stopOnce  sync.Once
	stopErr   error
}

func New(ctx context.Context, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("scheduler")
	sched, err := gocron.NewScheduler(
		gocron.WithGlobalJobOptions(
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
					log.Error("scheduler job panicked",
						zap.String("job_id", jobID.String()),
						zap.String("job_name", jobName),
						zap.Any("panic", recoverData))
				}),
			),
		),
	)
	if err != nil {
		return nil, err
	}
	return &Service{scheduler: sched, ctx: ctx, log: log}, nil
}

func (s *Service) Start() {
	s.log.Info("scheduler starting")
	s.scheduler.Start()
}

// Stop shuts the scheduler down once; later calls return the first result.
func (s *Service) Stop() error {
	s.stopOnce.Do(func() {
		s.log.Info("scheduler stopping")
		s.stopErr = s.scheduler.Shutdown()
	})
	return s.stopErr
}

// Every registers task to run every interval, starting one interval from now.
func (s *Service) Every(name string, interval time.Duration, task func(context.Context) error) (gocron.Job, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyJobName
	}
	if interval <= 0 {
		return nil, ErrBadInterval
	}
	jobLog := s.log.With(zap.String("job_name", name), zap.Duration("interval", interval))

	wrapped := func() {
		if s.ctx.Err() != nil {
			return
		}
		start := time.Now()
		if err := task(s.ctx); err != nil {
			jobLog.Warn("scheduler job failed", zap.Error(err))
			return
		}
		jobLog.Debug("scheduler job completed", zap.Duration("elapsed", time.Since(start)))
	}

	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(wrapped),
		gocron.WithName(name),
	)
	if err != nil {
		jobLog.Error("failed to register scheduler job", zap.Error(err))
		return nil, err
	}
	jobLog.Info("scheduler job registered")
	return job, nil
}
