package app

import (
	"context"
	"fmt"

	"questionnaire_reminder/internal/domain/enrolment"
)

// IncompleteUserFilter computes the enrolled users that still have to answer a questionnaire.
type IncompleteUserFilter struct {
	enrolments enrolment.Repository
}

func NewIncompleteUserFilter(er enrolment.Repository) *IncompleteUserFilter {
	return &IncompleteUserFilter{enrolments: er}
}

// UsersWithoutResponses returns the users enrolled in courseID (restricted to groupID
// when not 0) who can submit the questionnaire and have no completed response to
// questionnaireID. The enrolment ordering is preserved.
func (f *IncompleteUserFilter) UsersWithoutResponses(ctx context.Context, courseID, questionnaireID, groupID int64) ([]*enrolment.User, error) {
	users, err := f.enrolments.ListEnrolledUsers(ctx, courseID, enrolment.SubmitCapability, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrolled users of course %d: %w", courseID, err)
	}
	if len(users) == 0 {
		return []*enrolment.User{}, nil
	}

	completedIDs, err := f.enrolments.ListCompletedUserIDs(ctx, questionnaireID)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed responses of questionnaire %d: %w", questionnaireID, err)
	}
	completed := make(map[int64]struct{}, len(completedIDs))
	for _, id := range completedIDs {
		completed[id] = struct{}{}
	}

	incomplete := make([]*enrolment.User, 0, len(users))
	for _, u := range users {
		if _, done := completed[u.ID]; !done {
			incomplete = append(incomplete, u)
		}
	}
	return incomplete, nil
}
