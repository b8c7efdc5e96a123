package scheduler

import (
	"context"
	"fmt"
	"time"

	"questionnaire_reminder/internal/app"
	"questionnaire_reminder/internal/domain/messaging"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// cronLogger adapts a logrus entry to cron.Logger.
type cronLogger struct {
	entry *logrus.Entry
}

func kvFields(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(kvFields(keysAndValues)).Debug("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(kvFields(keysAndValues)).WithError(err).Error("cron: " + msg)
}

type ReminderScheduler struct {
	cronEngine *cron.Cron
	runner     app.Runner
	reporter   messaging.Reporter // optional
	logger     *logrus.Entry
	cronSpec   string
	jobTimeout time.Duration
}

// NewReminderScheduler builds a scheduler firing cronSpec in loc. A running job
// is never overlapped by the next trigger. reporter may be nil.
func NewReminderScheduler(
	runner app.Runner,
	reporter messaging.Reporter,
	logger *logrus.Entry,
	loc *time.Location,
	cronSpec string, // e.g., "0 6 * * *" (06:00 daily)
	jobTimeout time.Duration, // 0 means no deadline
) *ReminderScheduler {
	cl := cronLogger{entry: logger}
	return &ReminderScheduler{
		cronEngine: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner:     runner,
		reporter:   reporter,
		logger:     logger,
		cronSpec:   cronSpec,
		jobTimeout: jobTimeout,
	}
}

func (s *ReminderScheduler) Start() error {
	s.logger.Info("Starting questionnaire reminder scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("Cron job triggered for daily questionnaire reminders.")
		s.RunOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("could not add daily reminder cron job %q: %w", s.cronSpec, err)
	}

	s.cronEngine.Start()
	s.logger.WithField("spec", s.cronSpec).Info("Questionnaire reminder scheduler started.")
	return nil
}

// RunOnce runs the daily pipeline under the configured deadline and forwards the
// report to the reporter, if any.
func (s *ReminderScheduler) RunOnce(ctx context.Context) app.RunReport {
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}

	report := s.runner.RunDaily(ctx)
	s.logger.WithField("day", report.Day.String()).Info(report.String())

	if s.reporter != nil {
		// The run context may already be past its deadline.
		if err := s.reporter.Report(context.Background(), report.String()); err != nil {
			s.logger.WithError(err).Warn("Could not deliver run report")
		}
	}
	return report
}

func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping questionnaire reminder scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Questionnaire reminder scheduler gracefully stopped.")
}
