package enrolment

import "strings"

// SubmitCapability is the capability a user needs to answer a questionnaire.
const SubmitCapability = "mod/questionnaire:submit"

// User is an enrolled participant that can receive a reminder.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
