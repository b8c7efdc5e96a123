package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"questionnaire_reminder/internal/app"
	"questionnaire_reminder/internal/domain/messaging"
	"questionnaire_reminder/internal/infra/config"
	idb "questionnaire_reminder/internal/infra/database"
	"questionnaire_reminder/internal/infra/logger"
	"questionnaire_reminder/internal/infra/mail"
	"questionnaire_reminder/internal/infra/metrics"
	"questionnaire_reminder/internal/infra/scheduler"
	"questionnaire_reminder/internal/infra/telegram"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")

	mainLogger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"timezone":    cfg.Location.String(),
		"transport":   cfg.MailTransport,
		"run_once":    cfg.RunOnce,
	}).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		mainLogger.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()
	mainLogger.Info("Database connection established successfully.")

	tables, err := idb.NewTables(cfg.TablePrefix)
	if err != nil {
		mainLogger.Fatalf("Invalid table prefix: %v", err)
	}
	if err := idb.EnsureSchema(ctx, db, tables); err != nil {
		mainLogger.Fatalf("Could not prepare the reminder log table: %v", err)
	}

	// Initialize Repositories
	courseRepo := idb.NewPostgresCourseRepository(db, tables, cfg.LanguageFieldShortname)
	enrolmentRepo := idb.NewPostgresEnrolmentRepository(db, tables)
	settingsRepo := idb.NewPostgresSettingsRepository(db, tables)
	auditRepo := idb.NewPostgresAuditLogRepository(db, tables)

	var sender messaging.Sender
	switch cfg.MailTransport {
	case config.MailTransportSendGrid:
		sender = mail.NewSendGridSender(cfg.SendGridAPIKey)
	default:
		sender = mail.NewConsoleSender(logger.Component("mail"))
	}

	var runMetrics app.RunMetrics
	var metricsServer *metrics.Server
	if cfg.MetricsAddr != "" {
		runMetrics = metrics.NewCollector(prometheus.DefaultRegisterer)
		metricsServer = metrics.NewServer(cfg.MetricsAddr, prometheus.DefaultGatherer, logger.Component("metrics"))
		metricsServer.Start()
	}

	// Initialize application services
	audit := app.NewAuditLogger(auditRepo, logger.Component("trace"), cfg.TraceMuted)
	templates := app.NewTemplateResolver(settingsRepo, logger.Component("templates"))
	reminderService := app.NewReminderService(app.Dependencies{
		Courses:   courseRepo,
		Cache:     courseRepo,
		Groups:    enrolmentRepo,
		Filter:    app.NewIncompleteUserFilter(enrolmentRepo),
		Selector:  app.NewCourseSelector(courseRepo, audit),
		Templates: templates,
		Sender:    sender,
		Audit:     audit,
		Metrics:   runMetrics,
	}, app.ServiceConfig{
		SiteURL:  cfg.SiteURL,
		NoReply:  messaging.Address{Name: cfg.NoReplyName, Email: cfg.NoReplyEmail},
		Location: cfg.Location,
	}, logger.Component("reminder"))
	runner := app.NewSerialRunner(reminderService)

	if cfg.RunOnce {
		s := scheduler.NewReminderScheduler(runner, nil, logger.Component("scheduler"), cfg.Location, cfg.CronSpecDaily, cfg.JobTimeout)
		s.RunOnce(ctx)
		mainLogger.Info("Single run finished, exiting.")
		return
	}

	var reporter messaging.Reporter
	var bot *telebot.Bot
	if cfg.TelegramEnabled() {
		botLogger := logger.Component("telegram")
		pref := telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) { // Global error handler
				entry := botLogger.WithError(err)
				if c != nil && c.Sender() != nil && c.Chat() != nil {
					entry = entry.WithFields(logrus.Fields{"sender_id": c.Sender().ID, "chat_id": c.Chat().ID})
				}
				entry.Error("Telegram handler failed")
			},
		}
		bot, err = telebot.NewBot(pref)
		if err != nil {
			mainLogger.Fatalf("Could not create Telegram bot: %v", err)
		}

		adminService := app.NewAdminService(templates, settingsRepo, auditRepo, runner, cfg.AdminTelegramID)
		telegram.RegisterBotCommands(bot, cfg.AdminTelegramID, botLogger)
		telegram.RegisterAdminHandlers(ctx, bot, adminService, cfg.AdminTelegramID, botLogger)
		reporter = telegram.NewReporter(telegram.NewTelebotAdapter(bot), cfg.AdminTelegramID)

		// Start bot in a goroutine so it doesn't block graceful shutdown handling
		go bot.Start()
		mainLogger.Info("Telegram admin bot started.")
	}

	reminderScheduler := scheduler.NewReminderScheduler(runner, reporter, logger.Component("scheduler"), cfg.Location, cfg.CronSpecDaily, cfg.JobTimeout)
	if err := reminderScheduler.Start(); err != nil {
		mainLogger.Fatalf("Could not start scheduler: %v", err)
	}

	mainLogger.Info("Application setup complete. Waiting for the daily trigger...")
	<-ctx.Done() // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	if bot != nil {
		bot.Stop()
	}
	reminderScheduler.Stop()
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			mainLogger.WithError(err).Warn("Metrics endpoint did not shut down cleanly")
		}
		cancel()
	}
	mainLogger.Info("Application shut down gracefully.")
}
