package enrolment

import (
	"context"

	"questionnaire_reminder/internal/domain/course"
)

// Repository answers the two questions behind the incomplete-user set.
type Repository interface {
	// ListEnrolledUsers returns users actively enrolled in the course holding capability,
	// restricted to groupID when it is not 0. Ordered by user id.
	ListEnrolledUsers(ctx context.Context, courseID int64, capability string, groupID int64) ([]*User, error)
	// ListCompletedUserIDs returns ids of users with a completed response to the questionnaire instance.
	ListCompletedUserIDs(ctx context.Context, questionnaireID int64) ([]int64, error)
}

// GroupResolver resolves the "current group" an activity is evaluated in (0 for all participants).
type GroupResolver interface {
	ActivityGroup(ctx context.Context, q *course.Questionnaire) (int64, error)
}
