// internal/domain/course/course.go
package course

// Course is the subset of an LMS course the reminder job reads.
// StartDate and EndDate are unix seconds; 0 means unset.
type Course struct {
	ID        int64
	FullName  string
	ShortName string
	Visible   bool
	StartDate int64
	EndDate   int64
	Language  int64 // value of the language custom field, > 0 when eligible
}

// Questionnaire is the survey activity (course module) attached to a course.
type Questionnaire struct {
	ID         int64 // course module id, used for the deep link
	CourseID   int64
	InstanceID int64 // questionnaire instance id, referenced by responses
	Name       string
	Visible    bool
	GroupMode  int
	GroupingID int64
}
