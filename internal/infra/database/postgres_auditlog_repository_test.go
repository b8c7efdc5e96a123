package database

import (
	"context"
	"regexp"
	"testing"
	"time"

	"questionnaire_reminder/internal/domain/auditlog"
	"questionnaire_reminder/internal/domain/reminder"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogInsert(t *testing.T) {
	db, mock, tables := newMock(t)
	repo := NewPostgresAuditLogRepository(db, tables)

	rec := &auditlog.Record{
		LogDate:  time.Unix(1730000000, 0),
		Message:  "Reminder sent",
		CourseID: 7,
		UserID:   11,
		Stage:    reminder.StageEndCourse,
		Outcome:  auditlog.OutcomeDelivered,
	}
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO mdl_local_questionnaire_reminder_log")).
		WithArgs(int64(1730000000), "Reminder sent", int64(11), int64(7), "B", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	require.NoError(t, repo.Insert(context.Background(), rec))
	assert.Equal(t, int64(42), rec.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLogInsertWithoutStageOrOutcome(t *testing.T) {
	db, mock, tables := newMock(t)
	repo := NewPostgresAuditLogRepository(db, tables)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO mdl_local_questionnaire_reminder_log")).
		WithArgs(int64(1730000000), "Total courses: 0", int64(0), int64(0), nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(43)))

	rec := &auditlog.Record{LogDate: time.Unix(1730000000, 0), Message: "Total courses: 0"}
	require.NoError(t, repo.Insert(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLogInsertMissingTable(t *testing.T) {
	db, mock, tables := newMock(t)
	repo := NewPostgresAuditLogRepository(db, tables)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO mdl_local_questionnaire_reminder_log")).
		WillReturnError(&pq.Error{Code: pqUndefinedTable})

	err := repo.Insert(context.Background(), &auditlog.Record{LogDate: time.Now(), Message: "x"})
	assert.ErrorIs(t, err, ErrLogTableMissing)
}

func TestAuditLogListRecent(t *testing.T) {
	db, mock, tables := newMock(t)
	repo := NewPostgresAuditLogRepository(db, tables)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY id DESC LIMIT $1")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "logdate", "message", "userid", "courseid", "reminderstage", "deliverysuccess"}).
			AddRow(int64(43), int64(1730000100), "Failed to send", int64(11), int64(7), "A", int64(0)).
			AddRow(int64(42), int64(1730000000), "=== Start ===", int64(0), int64(0), nil, nil))

	records, err := repo.ListRecent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, reminder.StageInvite, records[0].Stage)
	assert.Equal(t, auditlog.OutcomeFailed, records[0].Outcome)
	assert.Equal(t, reminder.Stage(""), records[1].Stage)
	assert.Equal(t, auditlog.OutcomeUnset, records[1].Outcome)
	assert.Equal(t, time.Unix(1730000000, 0), records[1].LogDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
