// internal/app/audit_logger.go
package app

import (
	"context"
	"fmt"
	"time"

	"questionnaire_reminder/internal/domain/auditlog"
	"questionnaire_reminder/internal/domain/reminder"

	"github.com/sirupsen/logrus"
)

const persistTimeout = 5 * time.Second

// Entry carries the optional structured fields of a trace.
type Entry struct {
	CourseID int64
	UserID   int64
	Stage    reminder.Stage
	Outcome  auditlog.Outcome
}

// AuditLogger appends reminder events to the persisted log and mirrors them to the
// operator console. Trace never returns an error: invalid fields are replaced by a
// self-describing record and store failures are only logged.
type AuditLogger struct {
	repo   auditlog.Repository
	logger *logrus.Entry
	muted  bool
	now    func() time.Time
}

// NewAuditLogger builds the logger. When muted is true the console mirror is off;
// records are still persisted.
func NewAuditLogger(repo auditlog.Repository, logger *logrus.Entry, muted bool) *AuditLogger {
	return &AuditLogger{
		repo:   repo,
		logger: logger,
		muted:  muted,
		now:    time.Now,
	}
}

func (l *AuditLogger) Trace(ctx context.Context, message string, e Entry) {
	if e.Stage != "" && !e.Stage.Valid() {
		l.Trace(ctx, fmt.Sprintf("Invalid reminder stage %q passed to the logger (expected %s, %s or %s). Original message: %s",
			e.Stage, reminder.StageInvite, reminder.StageEndCourse, reminder.StagePostCourse, message), Entry{})
		return
	}
	if !e.Outcome.Valid() {
		l.Trace(ctx, fmt.Sprintf("Invalid delivery outcome %d passed to the logger (expected delivered, failed or unset). Original message: %s",
			int8(e.Outcome), message), Entry{})
		return
	}

	rec := &auditlog.Record{
		LogDate:  l.now(),
		Message:  message,
		CourseID: e.CourseID,
		UserID:   e.UserID,
		Stage:    e.Stage,
		Outcome:  e.Outcome,
	}
	// A cancelled run still records how it ended.
	insertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	err := l.repo.Insert(insertCtx, rec)
	cancel()
	if err != nil {
		l.logger.WithError(err).Error("Failed to persist reminder log record")
	}

	if l.muted {
		return
	}
	l.logger.WithFields(e.fields()).Info(message)
}

func (l *AuditLogger) Tracef(ctx context.Context, e Entry, format string, args ...any) {
	l.Trace(ctx, fmt.Sprintf(format, args...), e)
}

func (e Entry) fields() logrus.Fields {
	f := logrus.Fields{}
	if e.CourseID != 0 {
		f["course_id"] = e.CourseID
	}
	if e.UserID != 0 {
		f["user_id"] = e.UserID
	}
	if e.Stage != "" {
		f["stage"] = string(e.Stage)
	}
	if e.Outcome != auditlog.OutcomeUnset {
		f["delivery"] = e.Outcome.String()
	}
	return f
}
