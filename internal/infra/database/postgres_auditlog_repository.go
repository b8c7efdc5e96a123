package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"questionnaire_reminder/internal/domain/auditlog"
	"questionnaire_reminder/internal/domain/reminder"

	"github.com/lib/pq"
)

var ErrLogTableMissing = fmt.Errorf("reminder log table does not exist")

const pqUndefinedTable = "42P01"

// PostgresAuditLogRepository appends to and reads the reminder log table.
type PostgresAuditLogRepository struct {
	db     *sql.DB
	tables Tables
}

func NewPostgresAuditLogRepository(db *sql.DB, tables Tables) *PostgresAuditLogRepository {
	return &PostgresAuditLogRepository{db: db, tables: tables}
}

func (r *PostgresAuditLogRepository) Insert(ctx context.Context, rec *auditlog.Record) error {
	query := r.tables.expand(`INSERT INTO {local_questionnaire_reminder_log}
               (logdate, message, userid, courseid, reminderstage, deliverysuccess)
               VALUES ($1, $2, $3, $4, $5, $6)
               RETURNING id`)

	var stage sql.NullString
	if rec.Stage != "" {
		stage = sql.NullString{String: rec.Stage.Code(), Valid: true}
	}
	var delivery sql.NullInt16
	switch rec.Outcome {
	case auditlog.OutcomeDelivered:
		delivery = sql.NullInt16{Int16: 1, Valid: true}
	case auditlog.OutcomeFailed:
		delivery = sql.NullInt16{Int16: 0, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query, rec.LogDate.Unix(), rec.Message, rec.UserID, rec.CourseID, stage, delivery).Scan(&rec.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUndefinedTable {
			return ErrLogTableMissing
		}
		return fmt.Errorf("error inserting reminder log record: %w", err)
	}
	return nil
}

// ListRecent returns up to limit records, newest first.
func (r *PostgresAuditLogRepository) ListRecent(ctx context.Context, limit int) ([]*auditlog.Record, error) {
	query := r.tables.expand(`SELECT id, logdate, message, COALESCE(userid, 0), COALESCE(courseid, 0), reminderstage, deliverysuccess
               FROM {local_questionnaire_reminder_log}
               ORDER BY id DESC
               LIMIT $1`)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing reminder log records: %w", err)
	}
	defer rows.Close()

	var records []*auditlog.Record
	for rows.Next() {
		rec := &auditlog.Record{}
		var logDate int64
		var stage sql.NullString
		var delivery sql.NullInt16
		if err := rows.Scan(&rec.ID, &logDate, &rec.Message, &rec.UserID, &rec.CourseID, &stage, &delivery); err != nil {
			return nil, fmt.Errorf("error scanning reminder log row: %w", err)
		}
		rec.LogDate = time.Unix(logDate, 0)
		if stage.Valid {
			if s, ok := reminder.StageFromCode(stage.String); ok {
				rec.Stage = s
			}
		}
		if delivery.Valid {
			rec.Outcome = auditlog.OutcomeOf(delivery.Int16 == 1)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder log rows: %w", err)
	}
	return records, nil
}
