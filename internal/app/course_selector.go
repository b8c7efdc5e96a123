// internal/app/course_selector.go
package app

import (
	"context"
	"fmt"

	"questionnaire_reminder/internal/domain/course"
	"questionnaire_reminder/internal/domain/reminder"
)

// CourseSelector picks the courses a stage has to process today.
type CourseSelector struct {
	courses course.Repository
	audit   *AuditLogger
}

func NewCourseSelector(cr course.Repository, audit *AuditLogger) *CourseSelector {
	return &CourseSelector{courses: cr, audit: audit}
}

// Select returns, without duplicates and in store order, the visible courses with a
// positive language attribute and a questionnaire in the stage's required visibility
// whose dates satisfy the stage window for today.
func (s *CourseSelector) Select(ctx context.Context, stage reminder.Stage, today reminder.Day) ([]*course.Course, error) {
	candidates, err := s.courses.ListEligibleCourses(ctx, stage.QuestionnaireVisible())
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible courses for stage %s: %w", stage, err)
	}

	seen := make(map[int64]struct{}, len(candidates))
	selected := make([]*course.Course, 0)
	for _, c := range candidates {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		if !c.Visible || c.Language <= 0 {
			continue
		}
		if !reminder.InWindow(stage, c.StartDate, c.EndDate, today) {
			continue
		}
		seen[c.ID] = struct{}{}
		selected = append(selected, c)
	}

	s.audit.Tracef(ctx, Entry{}, "%s (%s): %d", selectionLabel(stage), today, len(selected))
	return selected, nil
}

func selectionLabel(stage reminder.Stage) string {
	switch stage {
	case reminder.StageInvite:
		return "Total courses with hidden questionnaires reaching 75% of their duration today"
	case reminder.StageEndCourse:
		return "Total courses with visible questionnaires ending today"
	case reminder.StagePostCourse:
		return "Total courses with visible questionnaires that ended 7 days ago"
	}
	return "Total courses selected for stage " + string(stage)
}
