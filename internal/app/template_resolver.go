// internal/app/template_resolver.go
package app

import (
	"context"
	"errors"
	"strings"

	"questionnaire_reminder/internal/domain/reminder"
	"questionnaire_reminder/internal/domain/settings"
	idb "questionnaire_reminder/internal/infra/database"

	"github.com/sirupsen/logrus"
)

const defaultSubject = "Valutazione della didattica - {coursename}"

const defaultInviteBody = `(English below)

Gentile studente/studentessa,
aiutaci a migliorare il nostro servizio!

Ti chiediamo di investire pochi minuti del tuo tempo per partecipare al questionario di valutazione della didattica relativamente al corso di lingua che stai frequentando.

Per partecipare, vai al seguente link:
{url}

Nel caso in cui tu avessi frequentato altri corsi oltre a questo, ti arriverà una email per ogni corso frequentato.

Ringraziandoti della collaborazione,
cordiali saluti
Centro Linguistico di Ateneo
Direzione Didattica e Servizi agli Studenti
Università degli Studi di Trento

-----

Dear student,
please could you help us to improve our service!

We would like you to spend a few minutes of your time completing this student satisfaction survey with regard to the language course you attended.

To participate, go to the following link:
{url}

If you have followed other courses in addition to this one, you will receive a separate email for each course attended.

With many thanks for taking part,
Kind regards,
University Language Centre,
Teaching and Student Services Directorate,
University of Trento`

const defaultReminderBody = `(English below)

Gentile studente/studentessa,
ti ricordiamo di partecipare al questionario di valutazione della didattica relativamente al corso di lingua che hai frequentato.

Per partecipare, vai al seguente link:
{url}

Nel caso in cui tu avessi frequentato altri corsi oltre a questo, ti arriverà una email per ogni corso frequentato.

Ringraziandoti della collaborazione,
cordiali saluti
Centro Linguistico di Ateneo
Direzione Didattica e Servizi agli Studenti
Università degli Studi di Trento

-----

Dear student,
we remind you to partecipate to the student satisfaction survey with regard to the language course you attended.

To participate, go to the following link:
{url}

If you have followed other courses in addition to this one, you will receive a separate email for each course attended.

With many thanks for taking part,
Kind regards,
University Language Centre,
Teaching and Student Services Directorate,
University of Trento`

// DefaultTemplates returns the compiled-in template for every configurable key.
func DefaultTemplates() map[string]string {
	return map[string]string{
		reminder.TemplateKey(reminder.KindSubject, reminder.StageInvite):     defaultSubject,
		reminder.TemplateKey(reminder.KindSubject, reminder.StageEndCourse):  defaultSubject,
		reminder.TemplateKey(reminder.KindSubject, reminder.StagePostCourse): defaultSubject,
		reminder.TemplateKey(reminder.KindBody, reminder.StageInvite):        defaultInviteBody,
		reminder.TemplateKey(reminder.KindBody, reminder.StageEndCourse):     defaultReminderBody,
		reminder.TemplateKey(reminder.KindBody, reminder.StagePostCourse):    defaultReminderBody,
	}
}

// TemplateResolver returns message templates from the settings store, falling back
// to the compiled-in defaults.
type TemplateResolver struct {
	store    settings.Store
	defaults map[string]string
	logger   *logrus.Entry
}

func NewTemplateResolver(store settings.Store, logger *logrus.Entry) *TemplateResolver {
	return &TemplateResolver{
		store:    store,
		defaults: DefaultTemplates(),
		logger:   logger,
	}
}

// Resolve returns the configured value for key, the default when the value is
// missing or blank, or "" when key has no default. It never fails.
func (r *TemplateResolver) Resolve(ctx context.Context, key string) string {
	value, err := r.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, idb.ErrSettingNotFound) {
			r.logger.WithError(err).WithField("setting", key).Warn("Could not read setting, using default")
		}
		return r.defaults[key]
	}
	if strings.TrimSpace(value) == "" {
		return r.defaults[key]
	}
	return value
}

// Template resolves the template of the given kind for a stage.
func (r *TemplateResolver) Template(ctx context.Context, kind reminder.TemplateKind, stage reminder.Stage) string {
	return r.Resolve(ctx, reminder.TemplateKey(kind, stage))
}

// IsKnownKey reports whether key is one of the configurable template keys.
func (r *TemplateResolver) IsKnownKey(key string) bool {
	_, ok := r.defaults[key]
	return ok
}
