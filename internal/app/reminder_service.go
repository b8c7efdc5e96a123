// internal/app/reminder_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"questionnaire_reminder/internal/domain/auditlog"
	"questionnaire_reminder/internal/domain/course"
	"questionnaire_reminder/internal/domain/enrolment"
	"questionnaire_reminder/internal/domain/messaging"
	"questionnaire_reminder/internal/domain/reminder"
	idb "questionnaire_reminder/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// Runner runs the daily reminder pipeline.
type Runner interface {
	RunDaily(ctx context.Context) RunReport
}

// StageReport summarises one stage of a run.
type StageReport struct {
	Stage                reminder.Stage
	CoursesSelected      int
	CoursesSkipped       int
	QuestionnairesOpened int
	MessagesDelivered    int
	MessagesFailed       int
}

// RunReport summarises a whole daily run. It is informational only.
type RunReport struct {
	Day      reminder.Day
	Started  time.Time
	Finished time.Time
	Stages   []StageReport
}

func (r RunReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Questionnaire reminders for %s (%s)\n", r.Day, r.Finished.Sub(r.Started).Round(time.Second))
	for _, s := range r.Stages {
		fmt.Fprintf(&b, "%s: %d courses, %d skipped", s.Stage.Label(), s.CoursesSelected, s.CoursesSkipped)
		if s.Stage == reminder.StageInvite {
			fmt.Fprintf(&b, ", %d opened", s.QuestionnairesOpened)
		}
		fmt.Fprintf(&b, ", %d sent, %d failed\n", s.MessagesDelivered, s.MessagesFailed)
	}
	return b.String()
}

// ServiceConfig holds the static settings of the reminder service.
type ServiceConfig struct {
	SiteURL  string
	NoReply  messaging.Address
	Location *time.Location
}

// Dependencies groups the collaborators of the reminder service.
type Dependencies struct {
	Courses   course.Repository
	Cache     course.CacheInvalidator
	Groups    enrolment.GroupResolver
	Filter    *IncompleteUserFilter
	Selector  *CourseSelector
	Templates *TemplateResolver
	Sender    messaging.Sender
	Audit     *AuditLogger
	Metrics   RunMetrics
}

// ReminderService selects the courses of each stage and reminds their users.
type ReminderService struct {
	deps   Dependencies
	cfg    ServiceConfig
	logger *logrus.Entry
	now    func() time.Time
}

func NewReminderService(deps Dependencies, cfg ServiceConfig, logger *logrus.Entry) *ReminderService {
	if deps.Metrics == nil {
		deps.Metrics = noopMetrics{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &ReminderService{
		deps:   deps,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// RunDaily runs the invite, end-of-course and post-course stages in that order.
// Per-course and per-user failures are recorded in the audit log and never abort
// the run.
func (s *ReminderService) RunDaily(ctx context.Context) RunReport {
	started := s.now()
	report := RunReport{
		Day:     reminder.DayOf(started, s.cfg.Location),
		Started: started,
	}
	s.logger.WithField("day", report.Day.String()).Info("Starting daily questionnaire reminder run")

	for _, stage := range reminder.Stages {
		report.Stages = append(report.Stages, s.ProcessStage(ctx, stage, report.Day))
	}

	report.Finished = s.now()
	s.deps.Metrics.RunFinished(report.Finished.Sub(started))
	s.logger.WithField("day", report.Day.String()).Info("Daily questionnaire reminder run finished")
	return report
}

// ProcessStage selects today's courses for the stage and processes each of them.
func (s *ReminderService) ProcessStage(ctx context.Context, stage reminder.Stage, today reminder.Day) StageReport {
	report := StageReport{Stage: stage}
	audit := s.deps.Audit
	audit.Tracef(ctx, Entry{Stage: stage}, "=== Start: %s ===", stage.Label())
	defer audit.Tracef(ctx, Entry{Stage: stage}, "=== End: %s ===", stage.Label())

	courses, err := s.deps.Selector.Select(ctx, stage, today)
	if err != nil {
		audit.Tracef(ctx, Entry{Stage: stage}, "Course selection failed, stage skipped: %v", err)
		return report
	}
	report.CoursesSelected = len(courses)
	s.deps.Metrics.CoursesSelected(stage, len(courses))

	for _, c := range courses {
		if ctx.Err() != nil {
			audit.Tracef(ctx, Entry{Stage: stage}, "Run interrupted before course %d: %v", c.ID, ctx.Err())
			break
		}
		if !s.processCourse(ctx, stage, c, &report) {
			report.CoursesSkipped++
			s.deps.Metrics.CourseSkipped(stage)
		}
	}
	return report
}

// processCourse handles one selected course and reports whether it was processed.
func (s *ReminderService) processCourse(ctx context.Context, stage reminder.Stage, c *course.Course, report *StageReport) bool {
	audit := s.deps.Audit
	entry := Entry{CourseID: c.ID, Stage: stage}
	visible := stage.QuestionnaireVisible()

	q, err := s.deps.Courses.FindQuestionnaire(ctx, c.ID, visible)
	if err != nil {
		if errors.Is(err, idb.ErrQuestionnaireNotFound) {
			audit.Tracef(ctx, entry, "No %s questionnaire found in course %d, skipping.", visibilityWord(visible), c.ID)
		} else {
			audit.Tracef(ctx, entry, "Could not look up the questionnaire of course %d, skipping: %v", c.ID, err)
		}
		return false
	}

	if stage == reminder.StageInvite {
		if err := s.deps.Courses.ShowQuestionnaire(ctx, q.ID); err != nil {
			audit.Tracef(ctx, entry, "Could not make questionnaire %d visible in course %d, skipping: %v", q.ID, c.ID, err)
			return false
		}
		q.Visible = true
		if err := s.deps.Cache.InvalidateCourseCache(ctx, c.ID); err != nil {
			audit.Tracef(ctx, entry, "Could not invalidate the course cache of course %d: %v", c.ID, err)
		}
		report.QuestionnairesOpened++
		s.deps.Metrics.QuestionnaireOpened()
		audit.Tracef(ctx, entry, "Questionnaire %d made visible for course '%s'", q.ID, c.FullName)
	}

	groupID, err := s.deps.Groups.ActivityGroup(ctx, q)
	if err != nil {
		audit.Tracef(ctx, entry, "Could not resolve the current group of questionnaire %d, using all participants: %v", q.ID, err)
		groupID = 0
	}

	users, err := s.deps.Filter.UsersWithoutResponses(ctx, c.ID, q.InstanceID, groupID)
	if err != nil {
		audit.Tracef(ctx, entry, "Could not compute users without responses for course %d, skipping: %v", c.ID, err)
		return false
	}

	audit.Tracef(ctx, entry, "Sending %s for '%s' to %d users", stage.Label(), c.FullName, len(users))
	for _, u := range users {
		audit.Tracef(ctx, Entry{CourseID: c.ID, UserID: u.ID, Stage: stage},
			"Attempting to send message to %s (%s)", u.FullName(), u.Email)
		if s.sendReminder(ctx, stage, u, c, q) {
			report.MessagesDelivered++
		} else {
			report.MessagesFailed++
		}
	}

	audit.Tracef(ctx, entry, "Completed sending %s for course '%s' (ID %d)", stage.Label(), c.FullName, c.ID)
	return true
}

// sendReminder renders the stage templates for one user, sends the message and
// records the outcome.
func (s *ReminderService) sendReminder(ctx context.Context, stage reminder.Stage, u *enrolment.User, c *course.Course, q *course.Questionnaire) bool {
	msg := messaging.Message{
		From:    s.cfg.NoReply,
		To:      messaging.Address{Name: u.FullName(), Email: u.Email},
		Subject: RenderSubject(s.deps.Templates.Template(ctx, reminder.KindSubject, stage), c),
		Body:    RenderBody(s.deps.Templates.Template(ctx, reminder.KindBody, stage), c, q, s.QuestionnaireURL(q)),
	}

	err := s.deps.Sender.Send(ctx, msg)
	delivered := err == nil
	s.deps.Metrics.MessageSent(stage, delivered)

	entry := Entry{CourseID: c.ID, UserID: u.ID, Stage: stage}
	if delivered {
		entry.Outcome = auditlog.OutcomeDelivered
		s.deps.Audit.Tracef(ctx, entry, "Reminder '%s' sent to %d %s for course %d '%s' (questionnaire %d).",
			stage, u.ID, u.FullName(), c.ID, c.FullName, q.ID)
	} else {
		entry.Outcome = auditlog.OutcomeFailed
		s.deps.Audit.Tracef(ctx, entry, "Failed to send reminder '%s' to %d %s for course %d '%s' (questionnaire %d): %v",
			stage, u.ID, u.FullName(), c.ID, c.FullName, q.ID, err)
	}
	return delivered
}

// QuestionnaireURL is the deep link to the questionnaire activity.
func (s *ReminderService) QuestionnaireURL(q *course.Questionnaire) string {
	return fmt.Sprintf("%s/mod/questionnaire/view.php?id=%d", strings.TrimRight(s.cfg.SiteURL, "/"), q.ID)
}

// RenderSubject substitutes {coursename} in a subject template.
func RenderSubject(tmpl string, c *course.Course) string {
	return strings.ReplaceAll(tmpl, "{coursename}", c.FullName)
}

// RenderBody substitutes {coursename}, {questionnairename} and {url} in a body template.
func RenderBody(tmpl string, c *course.Course, q *course.Questionnaire, url string) string {
	return strings.NewReplacer(
		"{coursename}", c.FullName,
		"{questionnairename}", q.Name,
		"{url}", url,
	).Replace(tmpl)
}

func visibilityWord(visible bool) string {
	if visible {
		return "visible"
	}
	return "hidden"
}
