package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"golang-backtest/config"
	"golang-backtest/internal/dto"
	"golang-backtest/internal/model"
	"golang-backtest/internal/repository"
	"golang-backtest/pkg/logger"
	"golang-backtest/pkg/utils"

	"github.com/robfig/cron/v3"
)

const (
	jobTimeout         = 30 * time.Minute
	jobRunRetention    = 30 * 24 * time.Hour
	cleanUpJobName     = "job_run_clean_up"
	cleanUpJobSchedule = "@daily"
)

type SchedulerService interface {
	// Start registers the configured jobs and starts the cron loop.
	Start(ctx context.Context) error
	// Stop waits for running jobs to finish.
	Stop() context.Context
	// RunJob executes the named job now.
	RunJob(ctx context.Context, name string) error
	Jobs() []config.SchedulerJob
	GetRecentRuns(ctx context.Context, name string, limit int) ([]model.JobRun, error)
}

type schedulerService struct {
	cfg        *config.Config
	log        *logger.Logger
	cronParser cron.Parser
	cron       *cron.Cron
	jobRunRepo repository.JobRunRepository
	signal     SignalService
	jobs       map[string]config.SchedulerJob
}

// cronLogger routes cron messages through the application logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, logger.Field("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.ErrorContextWithAlert(context.Background(), "cron: "+msg, logger.ErrorField(err), logger.Field("details", keysAndValues))
}

func NewSchedulerService(
	cfg *config.Config,
	log *logger.Logger,
	jobRunRepo repository.JobRunRepository,
	signal SignalService,
) SchedulerService {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	cl := cronLogger{log: log}

	jobs := make(map[string]config.SchedulerJob, len(cfg.Scheduler.Jobs))
	for _, j := range cfg.Scheduler.Jobs {
		jobs[j.Name] = j
	}

	return &schedulerService{
		cfg:        cfg,
		log:        log,
		cronParser: parser,
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(utils.LoadLocation(cfg.Scheduler.TimeZone)),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
			cron.WithLogger(cl),
		),
		jobRunRepo: jobRunRepo,
		signal:     signal,
		jobs:       jobs,
	}
}

func (s *schedulerService) Start(ctx context.Context) error {
	for _, job := range s.cfg.Scheduler.Jobs {
		if _, err := s.cronParser.Parse(job.Cron); err != nil {
			return fmt.Errorf("failed to parse cron expression of %s: %w", job.Name, err)
		}
		if _, err := s.cron.AddFunc(job.Cron, func() {
			if err := s.RunJob(ctx, job.Name); err != nil {
				s.log.ErrorContextWithAlert(ctx, "Scheduled job failed", logger.ErrorField(err), logger.StringField("job_name", job.Name))
			}
		}); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
		}
		s.log.InfoContext(ctx, "Job scheduled",
			logger.StringField("job_name", job.Name),
			logger.StringField("strategy", job.Strategy),
			logger.StringField("cron", job.Cron),
		)
	}

	if _, err := s.cron.AddFunc(cleanUpJobSchedule, func() { s.cleanUp(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", cleanUpJobName, err)
	}

	s.cron.Start()
	s.log.InfoContext(ctx, "Scheduler started",
		logger.IntField("jobs", len(s.cfg.Scheduler.Jobs)),
		logger.StringField("time_zone", s.cfg.Scheduler.TimeZone),
	)
	return nil
}

func (s *schedulerService) Stop() context.Context {
	s.log.Info("Stopping scheduler")
	return s.cron.Stop()
}

func (s *schedulerService) RunJob(ctx context.Context, name string) error {
	job, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w: unknown job %q", ErrInvalidRequest, name)
	}

	run := &model.JobRun{
		JobName:   job.Name,
		Strategy:  job.Strategy,
		StartedAt: time.Now(),
		Status:    model.StatusRunning,
	}
	if err := s.jobRunRepo.Create(ctx, run); err != nil {
		s.log.ErrorContext(ctx, "Failed to create job run", logger.ErrorField(err), logger.StringField("job_name", job.Name))
		return fmt.Errorf("failed to create job run: %w", err)
	}

	ctx = logger.NewContext(ctx, s.log.FromContext(ctx).With(
		logger.StringField("job_name", job.Name),
		logger.UintField("job_run_id", run.ID),
	))
	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	s.log.InfoContext(jobCtx, "Running job", logger.StringField("strategy", job.Strategy))
	result, runErr := s.signal.SendTodaySignals(jobCtx, dto.SignalRequest{
		UniverseRequest: dto.UniverseRequest{
			RankStart: job.RankStart,
			RankEnd:   job.RankEnd,
		},
		Strategy:               job.Strategy,
		DaysToNextResult:       job.DaysToNextResult,
		DaysSinceLastResult:    job.DaysSinceLastResult,
		MinWeekPreviousEntries: job.MinWeekPreviousEntries,
	})

	run.CompletedAt = sql.NullTime{Time: time.Now(), Valid: true}
	run.Status = model.StatusCompleted
	if runErr != nil {
		run.Status = model.StatusFailed
		run.ErrorMessage = sql.NullString{String: runErr.Error(), Valid: true}
	} else {
		output, err := json.Marshal(map[string]interface{}{
			"as_of":    result.AsOf,
			"entries":  len(result.Entries),
			"exits":    len(result.Exits),
			"failures": len(result.Failures),
		})
		if err == nil {
			run.Output = sql.NullString{String: string(output), Valid: true}
		}
	}
	if err := s.jobRunRepo.Update(context.WithoutCancel(ctx), run); err != nil {
		s.log.ErrorContext(ctx, "Failed to update job run", logger.ErrorField(err))
	}

	if runErr != nil {
		return fmt.Errorf("job %s failed: %w", job.Name, runErr)
	}
	s.log.InfoContext(ctx, "Job completed")
	return nil
}

func (s *schedulerService) Jobs() []config.SchedulerJob {
	return s.cfg.Scheduler.Jobs
}

func (s *schedulerService) GetRecentRuns(ctx context.Context, name string, limit int) ([]model.JobRun, error) {
	runs, err := s.jobRunRepo.GetRecent(ctx, name, limit)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get job runs", logger.ErrorField(err), logger.StringField("job_name", name))
		return nil, fmt.Errorf("failed to get job runs: %w", err)
	}
	return runs, nil
}

func (s *schedulerService) cleanUp(ctx context.Context) {
	deleted, err := s.jobRunRepo.DeleteOlderThan(ctx, time.Now().Add(-jobRunRetention))
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to delete old job runs", logger.ErrorField(err))
		return
	}
	s.log.InfoContext(ctx, "Old job runs deleted", logger.IntField("deleted", int(deleted)))
}
