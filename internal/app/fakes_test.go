package app

import (
	"context"
	"errors"
	"sort"
	"time"

	"questionnaire_reminder/internal/domain/auditlog"
	"questionnaire_reminder/internal/domain/course"
	"questionnaire_reminder/internal/domain/enrolment"
	"questionnaire_reminder/internal/domain/messaging"
	"questionnaire_reminder/internal/domain/reminder"
	idb "questionnaire_reminder/internal/infra/database"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

var errStore = errors.New("store unavailable")

func ts(year int, month time.Month, day, hour int) int64 {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC).Unix()
}

// fixedNow is 2024-05-10 06:00 UTC.
var fixedNow = time.Date(2024, 5, 10, 6, 0, 0, 0, time.UTC)

func today() reminder.Day {
	return reminder.DayOf(fixedNow, time.UTC)
}

// fakeCourseRepo derives eligibility from the questionnaires it holds.
type fakeCourseRepo struct {
	courses        []*course.Course
	questionnaires map[int64][]*course.Questionnaire // by course id
	phantom        map[bool][]*course.Course         // listed as eligible without a questionnaire
	listErr        error
	showErr        map[int64]error
	cacheErr       error
	shown          []int64
	invalidated    []int64
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{
		questionnaires: map[int64][]*course.Questionnaire{},
		phantom:        map[bool][]*course.Course{},
		showErr:        map[int64]error{},
	}
}

func (r *fakeCourseRepo) add(c *course.Course, qs ...*course.Questionnaire) {
	r.courses = append(r.courses, c)
	for _, q := range qs {
		q.CourseID = c.ID
		r.questionnaires[c.ID] = append(r.questionnaires[c.ID], q)
	}
}

func (r *fakeCourseRepo) ListEligibleCourses(_ context.Context, visible bool) ([]*course.Course, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*course.Course
	for _, c := range r.courses {
		for _, q := range r.questionnaires[c.ID] {
			if q.Visible == visible {
				out = append(out, c)
				break
			}
		}
	}
	return append(out, r.phantom[visible]...), nil
}

func (r *fakeCourseRepo) FindQuestionnaire(_ context.Context, courseID int64, visible bool) (*course.Questionnaire, error) {
	var matches []*course.Questionnaire
	for _, q := range r.questionnaires[courseID] {
		if q.Visible == visible {
			matches = append(matches, q)
		}
	}
	if len(matches) == 0 {
		return nil, idb.ErrQuestionnaireNotFound
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	found := *matches[0]
	return &found, nil
}

func (r *fakeCourseRepo) ShowQuestionnaire(_ context.Context, moduleID int64) error {
	if err := r.showErr[moduleID]; err != nil {
		return err
	}
	for _, qs := range r.questionnaires {
		for _, q := range qs {
			if q.ID == moduleID {
				q.Visible = true
				r.shown = append(r.shown, moduleID)
				return nil
			}
		}
	}
	return idb.ErrQuestionnaireNotFound
}

func (r *fakeCourseRepo) InvalidateCourseCache(_ context.Context, courseID int64) error {
	if r.cacheErr != nil {
		return r.cacheErr
	}
	r.invalidated = append(r.invalidated, courseID)
	return nil
}

type enrolmentQuery struct {
	courseID   int64
	capability string
	groupID    int64
}

type fakeEnrolmentRepo struct {
	users           map[int64][]*enrolment.User // by course id
	completed       map[int64][]int64           // by questionnaire instance id
	usersErr        error
	completedErr    error
	queries         []enrolmentQuery
	completionCalls int
}

func newFakeEnrolmentRepo() *fakeEnrolmentRepo {
	return &fakeEnrolmentRepo{users: map[int64][]*enrolment.User{}, completed: map[int64][]int64{}}
}

func (r *fakeEnrolmentRepo) ListEnrolledUsers(_ context.Context, courseID int64, capability string, groupID int64) ([]*enrolment.User, error) {
	r.queries = append(r.queries, enrolmentQuery{courseID: courseID, capability: capability, groupID: groupID})
	if r.usersErr != nil {
		return nil, r.usersErr
	}
	return r.users[courseID], nil
}

func (r *fakeEnrolmentRepo) ListCompletedUserIDs(_ context.Context, questionnaireID int64) ([]int64, error) {
	r.completionCalls++
	if r.completedErr != nil {
		return nil, r.completedErr
	}
	return r.completed[questionnaireID], nil
}

type fakeGroups struct {
	groups map[int64]int64 // by course module id
	err    error
}

func (g *fakeGroups) ActivityGroup(_ context.Context, q *course.Questionnaire) (int64, error) {
	if g.err != nil {
		return 0, g.err
	}
	return g.groups[q.ID], nil
}

type memoryStore struct {
	values map[string]string
	getErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (s *memoryStore) Get(_ context.Context, name string) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	v, ok := s.values[name]
	if !ok {
		return "", idb.ErrSettingNotFound
	}
	return v, nil
}

func (s *memoryStore) Set(_ context.Context, name, value string) error {
	s.values[name] = value
	return nil
}

func (s *memoryStore) Unset(_ context.Context, name string) error {
	delete(s.values, name)
	return nil
}

type memoryAuditRepo struct {
	records   []*auditlog.Record
	insertErr error
	limit     int
}

func (r *memoryAuditRepo) Insert(ctx context.Context, rec *auditlog.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.insertErr != nil {
		return r.insertErr
	}
	rec.ID = int64(len(r.records) + 1)
	r.records = append(r.records, rec)
	return nil
}

func (r *memoryAuditRepo) ListRecent(_ context.Context, limit int) ([]*auditlog.Record, error) {
	r.limit = limit
	out := make([]*auditlog.Record, 0, limit)
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.records[i])
	}
	return out, nil
}

func (r *memoryAuditRepo) withOutcome(o auditlog.Outcome) []*auditlog.Record {
	var out []*auditlog.Record
	for _, rec := range r.records {
		if rec.Outcome == o {
			out = append(out, rec)
		}
	}
	return out
}

type fakeSender struct {
	sent    []messaging.Message
	failFor map[string]error // by recipient email
}

func (s *fakeSender) Send(_ context.Context, msg messaging.Message) error {
	if err := s.failFor[msg.To.Email]; err != nil {
		return err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type countingMetrics struct {
	selected  map[reminder.Stage]int
	skipped   map[reminder.Stage]int
	opened    int
	delivered int
	failed    int
	runs      int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{selected: map[reminder.Stage]int{}, skipped: map[reminder.Stage]int{}}
}

func (m *countingMetrics) CoursesSelected(s reminder.Stage, n int) { m.selected[s] += n }
func (m *countingMetrics) CourseSkipped(s reminder.Stage)          { m.skipped[s]++ }
func (m *countingMetrics) QuestionnaireOpened()                    { m.opened++ }
func (m *countingMetrics) MessageSent(_ reminder.Stage, delivered bool) {
	if delivered {
		m.delivered++
	} else {
		m.failed++
	}
}
func (m *countingMetrics) RunFinished(time.Duration) { m.runs++ }

func newTestAuditLogger(repo auditlog.Repository) (*AuditLogger, *test.Hook) {
	l, hook := test.NewNullLogger()
	a := NewAuditLogger(repo, logrus.NewEntry(l), false)
	a.now = func() time.Time { return fixedNow }
	return a, hook
}

type harness struct {
	courses    *fakeCourseRepo
	enrolments *fakeEnrolmentRepo
	groups     *fakeGroups
	store      *memoryStore
	auditRepo  *memoryAuditRepo
	sender     *fakeSender
	metrics    *countingMetrics
	service    *ReminderService
}

func newHarness() *harness {
	h := &harness{
		courses:    newFakeCourseRepo(),
		enrolments: newFakeEnrolmentRepo(),
		groups:     &fakeGroups{groups: map[int64]int64{}},
		store:      newMemoryStore(),
		auditRepo:  &memoryAuditRepo{},
		sender:     &fakeSender{failFor: map[string]error{}},
		metrics:    newCountingMetrics(),
	}
	audit, _ := newTestAuditLogger(h.auditRepo)
	l, _ := test.NewNullLogger()
	entry := logrus.NewEntry(l)
	h.service = NewReminderService(Dependencies{
		Courses:   h.courses,
		Cache:     h.courses,
		Groups:    h.groups,
		Filter:    NewIncompleteUserFilter(h.enrolments),
		Selector:  NewCourseSelector(h.courses, audit),
		Templates: NewTemplateResolver(h.store, entry),
		Sender:    h.sender,
		Audit:     audit,
		Metrics:   h.metrics,
	}, ServiceConfig{
		SiteURL:  "https://lms.example.org/",
		NoReply:  messaging.Address{Name: "Do not reply", Email: "noreply@lms.example.org"},
		Location: time.UTC,
	}, entry)
	h.service.now = func() time.Time { return fixedNow }
	return h
}

func users(ids ...int64) []*enrolment.User {
	out := make([]*enrolment.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, &enrolment.User{
			ID:        id,
			FirstName: "User",
			LastName:  string(rune('A' + id%26)),
			Email:     "user" + string(rune('a'+id%26)) + "@example.org",
		})
	}
	return out
}

// Course dates relative to fixedNow.
var (
	// 75% of a 40 day course starting 2024-04-10 08:00 falls on 2024-05-10 08:00.
	inviteStart = ts(2024, 4, 10, 8)
	inviteEnd   = ts(2024, 5, 20, 8)
	// Ends today.
	endTodayStart = ts(2024, 3, 1, 9)
	endToday      = ts(2024, 5, 10, 15)
	// Ended seven days ago.
	postStart = ts(2024, 3, 1, 9)
	postEnd   = ts(2024, 5, 3, 12)
)

func newCourse(id int64, name string, start, end int64) *course.Course {
	return &course.Course{ID: id, FullName: name, ShortName: name, Visible: true, StartDate: start, EndDate: end, Language: 1}
}
