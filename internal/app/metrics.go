package app

import (
	"time"

	"questionnaire_reminder/internal/domain/reminder"
)

// RunMetrics receives counters from the reminder run.
type RunMetrics interface {
	CoursesSelected(stage reminder.Stage, n int)
	CourseSkipped(stage reminder.Stage)
	QuestionnaireOpened()
	MessageSent(stage reminder.Stage, delivered bool)
	RunFinished(d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) CoursesSelected(reminder.Stage, int) {}
func (noopMetrics) CourseSkipped(reminder.Stage)        {}
func (noopMetrics) QuestionnaireOpened()                {}
func (noopMetrics) MessageSent(reminder.Stage, bool)    {}
func (noopMetrics) RunFinished(time.Duration)           {}
