// internal/domain/auditlog/record.go
package auditlog

import (
	"time"

	"questionnaire_reminder/internal/domain/reminder"
)

// Outcome is the tri-state delivery result attached to a log record.
type Outcome int8

const (
	OutcomeUnset     Outcome = iota // not a delivery event
	OutcomeFailed                   // stored as 0
	OutcomeDelivered                // stored as 1
)

// OutcomeOf maps a send result to an Outcome.
func OutcomeOf(delivered bool) Outcome {
	if delivered {
		return OutcomeDelivered
	}
	return OutcomeFailed
}

func (o Outcome) Valid() bool {
	return o == OutcomeUnset || o == OutcomeFailed || o == OutcomeDelivered
}

func (o Outcome) String() string {
	switch o {
	case OutcomeUnset:
		return "unset"
	case OutcomeFailed:
		return "failed"
	case OutcomeDelivered:
		return "delivered"
	}
	return "invalid"
}

// Record is one append-only row of the reminder log.
// Corresponds to the 'local_questionnaire_reminder_log' table.
type Record struct {
	ID       int64
	LogDate  time.Time
	Message  string
	CourseID int64          // 0 when not tied to a course
	UserID   int64          // 0 when not tied to a user
	Stage    reminder.Stage // "" when not tied to a stage
	Outcome  Outcome
}
