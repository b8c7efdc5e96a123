package database

import "fmt"

// Custom errors returned by the repositories
var ErrQuestionnaireNotFound = fmt.Errorf("questionnaire not found")
var ErrSettingNotFound = fmt.Errorf("setting not found")
