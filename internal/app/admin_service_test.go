package app

import (
	"context"
	"testing"

	"questionnaire_reminder/internal/domain/auditlog"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAdminID int64 = 424242

type countingRunner struct{ calls int }

func (r *countingRunner) RunDaily(context.Context) RunReport {
	r.calls++
	return RunReport{Day: today()}
}

func newAdminFixture() (*AdminService, *memoryStore, *memoryAuditRepo, *countingRunner) {
	store := newMemoryStore()
	logs := &memoryAuditRepo{}
	runner := &countingRunner{}
	l, _ := test.NewNullLogger()
	svc := NewAdminService(NewTemplateResolver(store, logrus.NewEntry(l)), store, logs, runner, testAdminID)
	return svc, store, logs, runner
}

func TestAdminServiceRejectsOthers(t *testing.T) {
	svc, _, _, runner := newAdminFixture()
	ctx := context.Background()

	_, err := svc.ListTemplates(ctx, 1)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
	assert.ErrorIs(t, svc.SetTemplate(ctx, 1, "body_default", "x"), ErrAdminNotAuthorized)
	_, err = svc.RunNow(ctx, 1)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
	assert.Zero(t, runner.calls)

	l, _ := test.NewNullLogger()
	unconfigured := NewAdminService(NewTemplateResolver(newMemoryStore(), logrus.NewEntry(l)), newMemoryStore(), &memoryAuditRepo{}, runner, 0)
	_, err = unconfigured.ListTemplates(ctx, 0)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
}

func TestAdminServiceTemplates(t *testing.T) {
	svc, store, _, _ := newAdminFixture()
	ctx := context.Background()

	require.NoError(t, svc.SetTemplate(ctx, testAdminID, "subject_default", "Survey: {coursename}"))
	assert.Equal(t, "Survey: {coursename}", store.values["subject_default"])

	statuses, err := svc.ListTemplates(ctx, testAdminID)
	require.NoError(t, err)
	require.Len(t, statuses, 6)
	assert.Equal(t, TemplateStatus{Key: "subject_default", Customised: true}, statuses[0])
	assert.Equal(t, TemplateStatus{Key: "body_default", Customised: false}, statuses[1])

	text, err := svc.ShowTemplate(ctx, testAdminID, "subject_default")
	require.NoError(t, err)
	assert.Equal(t, "Survey: {coursename}", text)

	require.NoError(t, svc.ResetTemplate(ctx, testAdminID, "subject_default"))
	text, err = svc.ShowTemplate(ctx, testAdminID, "subject_default")
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplates()["subject_default"], text)
}

func TestAdminServiceTemplateValidation(t *testing.T) {
	svc, store, _, _ := newAdminFixture()
	ctx := context.Background()

	assert.ErrorIs(t, svc.SetTemplate(ctx, testAdminID, "body_default", "   "), ErrEmptyTemplate)
	err := svc.SetTemplate(ctx, testAdminID, "signature", "x")
	assert.ErrorIs(t, err, ErrUnknownTemplateKey)
	assert.Contains(t, err.Error(), "body_postcorso")
	_, err = svc.ShowTemplate(ctx, testAdminID, "signature")
	assert.ErrorIs(t, err, ErrUnknownTemplateKey)
	assert.Empty(t, store.values)
}

func TestAdminServiceRunNowAndLastLog(t *testing.T) {
	svc, _, logs, runner := newAdminFixture()
	ctx := context.Background()

	report, err := svc.RunNow(ctx, testAdminID)
	require.NoError(t, err)
	assert.Equal(t, today(), report.Day)
	assert.Equal(t, 1, runner.calls)

	for i := 0; i < 3; i++ {
		require.NoError(t, logs.Insert(ctx, &auditlog.Record{Message: "m"}))
	}

	records, err := svc.LastLog(ctx, testAdminID, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultLastLogLimit, logs.limit)
	require.Len(t, records, 3)
	assert.Equal(t, int64(3), records[0].ID)

	_, err = svc.LastLog(ctx, testAdminID, 1000)
	require.NoError(t, err)
	assert.Equal(t, MaxLastLogLimit, logs.limit)
}
