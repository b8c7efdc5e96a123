package settings

import "context"

// Plugin is the settings namespace of the reminder job in the LMS config store.
const Plugin = "local_questionnaire_reminder"

// Store holds the administrator-editable settings of the job.
type Store interface {
	// Get returns the stored value or database.ErrSettingNotFound.
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name, value string) error
	Unset(ctx context.Context, name string) error
}
