package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"questionnaire_reminder/internal/domain/auditlog"
	"questionnaire_reminder/internal/domain/reminder"
	"questionnaire_reminder/internal/domain/settings"
	idb "questionnaire_reminder/internal/infra/database"
)

// Custom application-level errors for admin service
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")
var ErrUnknownTemplateKey = fmt.Errorf("unknown template key")
var ErrEmptyTemplate = fmt.Errorf("template text must not be blank")

const (
	DefaultLastLogLimit = 10
	MaxLastLogLimit     = 50
)

// TemplateStatus describes one configurable template.
type TemplateStatus struct {
	Key        string
	Customised bool
}

type AdminService struct {
	templates       *TemplateResolver
	store           settings.Store
	logs            auditlog.Repository
	runner          Runner
	adminTelegramID int64
}

func NewAdminService(tr *TemplateResolver, store settings.Store, logs auditlog.Repository, runner Runner, adminID int64) *AdminService {
	return &AdminService{
		templates:       tr,
		store:           store,
		logs:            logs,
		runner:          runner,
		adminTelegramID: adminID,
	}
}

func (s *AdminService) authorize(performingAdminID int64) error {
	if s.adminTelegramID == 0 || performingAdminID != s.adminTelegramID {
		return ErrAdminNotAuthorized
	}
	return nil
}

func (s *AdminService) checkKey(key string) error {
	if !s.templates.IsKnownKey(key) {
		return fmt.Errorf("%w: %q (valid keys: %s)", ErrUnknownTemplateKey, key, strings.Join(reminder.TemplateKeys(), ", "))
	}
	return nil
}

// ListTemplates reports, for every template key, whether an administrator customised it.
func (s *AdminService) ListTemplates(ctx context.Context, performingAdminID int64) ([]TemplateStatus, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}

	keys := reminder.TemplateKeys()
	statuses := make([]TemplateStatus, 0, len(keys))
	for _, key := range keys {
		value, err := s.store.Get(ctx, key)
		if err != nil && !errors.Is(err, idb.ErrSettingNotFound) {
			return nil, fmt.Errorf("failed to read setting %s: %w", key, err)
		}
		statuses = append(statuses, TemplateStatus{
			Key:        key,
			Customised: err == nil && strings.TrimSpace(value) != "",
		})
	}
	return statuses, nil
}

// ShowTemplate returns the value the job would use for key right now.
func (s *AdminService) ShowTemplate(ctx context.Context, performingAdminID int64, key string) (string, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return "", err
	}
	if err := s.checkKey(key); err != nil {
		return "", err
	}
	return s.templates.Resolve(ctx, key), nil
}

// SetTemplate stores a custom value for key.
func (s *AdminService) SetTemplate(ctx context.Context, performingAdminID int64, key, value string) error {
	if err := s.authorize(performingAdminID); err != nil {
		return err
	}
	if err := s.checkKey(key); err != nil {
		return err
	}
	if strings.TrimSpace(value) == "" {
		return ErrEmptyTemplate
	}
	if err := s.store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("failed to store template %s: %w", key, err)
	}
	return nil
}

// ResetTemplate removes the custom value so the compiled-in default applies again.
func (s *AdminService) ResetTemplate(ctx context.Context, performingAdminID int64, key string) error {
	if err := s.authorize(performingAdminID); err != nil {
		return err
	}
	if err := s.checkKey(key); err != nil {
		return err
	}
	if err := s.store.Unset(ctx, key); err != nil {
		return fmt.Errorf("failed to reset template %s: %w", key, err)
	}
	return nil
}

// RunNow runs the daily pipeline immediately.
func (s *AdminService) RunNow(ctx context.Context, performingAdminID int64) (RunReport, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return RunReport{}, err
	}
	return s.runner.RunDaily(ctx), nil
}

// LastLog returns the most recent audit records, newest first.
func (s *AdminService) LastLog(ctx context.Context, performingAdminID int64, limit int) ([]*auditlog.Record, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLastLogLimit
	}
	if limit > MaxLastLogLimit {
		limit = MaxLastLogLimit
	}
	records, err := s.logs.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent log records: %w", err)
	}
	return records, nil
}
