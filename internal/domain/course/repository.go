package course

import "context"

// Repository reads courses and their questionnaire activities from the LMS store.
type Repository interface {
	// ListEligibleCourses returns visible courses with both dates set, a positive
	// language attribute and at least one non-deleting questionnaire in the given
	// visibility state. Date windows are applied by the caller.
	ListEligibleCourses(ctx context.Context, questionnaireVisible bool) ([]*Course, error)
	// FindQuestionnaire returns the lowest-id questionnaire of the course in the given
	// visibility state, or database.ErrQuestionnaireNotFound.
	FindQuestionnaire(ctx context.Context, courseID int64, visible bool) (*Questionnaire, error)
	// ShowQuestionnaire flips the course module to visible.
	ShowQuestionnaire(ctx context.Context, moduleID int64) error
}

// CacheInvalidator drops any cached course structure so changes are visible at once.
type CacheInvalidator interface {
	InvalidateCourseCache(ctx context.Context, courseID int64) error
}
