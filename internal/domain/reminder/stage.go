// internal/domain/reminder/stage.go
package reminder

// Stage identifies one of the three reminder phases of the daily run.
type Stage string

const (
	StageInvite     Stage = "default"   // A: questionnaire opened at 75% of the course
	StageEndCourse  Stage = "finecorso" // B: reminder on the last day of the course
	StagePostCourse Stage = "postcorso" // C: reminder one week after the course ended
)

// Stages lists the stages in the order the daily run executes them.
var Stages = []Stage{StageInvite, StageEndCourse, StagePostCourse}

// Valid reports whether s is one of the three known stages.
func (s Stage) Valid() bool {
	switch s {
	case StageInvite, StageEndCourse, StagePostCourse:
		return true
	}
	return false
}

// Code returns the two-character code stored in the log table, or "" for an unknown stage.
func (s Stage) Code() string {
	switch s {
	case StageInvite:
		return "A"
	case StageEndCourse:
		return "B"
	case StagePostCourse:
		return "C"
	}
	return ""
}

// StageFromCode is the inverse of Stage.Code.
func StageFromCode(code string) (Stage, bool) {
	for _, s := range Stages {
		if s.Code() == code {
			return s, true
		}
	}
	return "", false
}

// QuestionnaireVisible is the visibility state a questionnaire must be in for the stage to pick the course.
func (s Stage) QuestionnaireVisible() bool {
	return s != StageInvite
}

// Label is a human readable name used in traces and admin replies.
func (s Stage) Label() string {
	switch s {
	case StageInvite:
		return "questionnaire opening and first invite"
	case StageEndCourse:
		return "end of course reminder"
	case StagePostCourse:
		return "post-course reminder (7 days after end)"
	}
	return string(s)
}

// TemplateKind distinguishes the two message templates configured per stage.
type TemplateKind string

const (
	KindSubject TemplateKind = "subject"
	KindBody    TemplateKind = "body"
)

// TemplateKey builds the settings key for a stage template, e.g. "body_finecorso".
func TemplateKey(kind TemplateKind, stage Stage) string {
	return string(kind) + "_" + string(stage)
}

// TemplateKeys lists the six configurable template keys.
func TemplateKeys() []string {
	keys := make([]string, 0, len(Stages)*2)
	for _, s := range Stages {
		keys = append(keys, TemplateKey(KindSubject, s), TemplateKey(KindBody, s))
	}
	return keys
}
