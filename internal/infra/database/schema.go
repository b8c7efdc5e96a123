package database

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS {local_questionnaire_reminder_log} (
		id              BIGSERIAL PRIMARY KEY,
		logdate         BIGINT NOT NULL,
		message         TEXT NOT NULL,
		userid          BIGINT DEFAULT 0,
		courseid        BIGINT DEFAULT 0,
		reminderstage   VARCHAR(2),
		deliverysuccess SMALLINT
	)`,
	`CREATE INDEX IF NOT EXISTS {local_questionnaire_reminder_log}_logdate_ix
		ON {local_questionnaire_reminder_log} (logdate)`,
}

// EnsureSchema creates the tables owned by the reminder job when they are missing.
// All other tables belong to the LMS and are only read or updated.
func EnsureSchema(ctx context.Context, db *sql.DB, t Tables) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, t.expand(stmt)); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
