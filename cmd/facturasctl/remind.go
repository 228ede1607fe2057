package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"facturas/internal/config"
	"facturas/internal/email/noop"
	"facturas/internal/email/ses"
	"facturas/internal/logger"
	"facturas/internal/port"
	"facturas/internal/repository/postgres"
	"facturas/internal/service"
)

func newRemindCmd() *cobra.Command {
	var daysAhead int

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Email users about processed invoices that fall due soon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.Setup(cfg.Log)
			if daysAhead > 0 {
				cfg.Reminder.DaysAhead = daysAhead
			}

			db, err := postgres.NewDB(&cfg.DB)
			if err != nil {
				return err
			}
			defer db.Close()

			sender, err := newEmailSender(cfg)
			if err != nil {
				return err
			}

			svc := service.NewReminderService(
				postgres.NewUserRepo(db),
				postgres.NewInvoiceRepo(db),
				sender,
				cfg.Reminder.DaysAhead,
			)
			report, err := svc.SendDueReminders(cmd.Context())
			if err != nil {
				return err
			}
			log.Info().Int("users_notified", report.UsersNotified).Int("failures", report.Failures).
				Msg("reminders sent")
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().IntVar(&daysAhead, "days", 0, "look-ahead window in days (default from config)")
	return cmd
}

func newEmailSender(cfg *config.Config) (port.EmailSender, error) {
	if cfg.Email.Provider == "ses" {
		return ses.NewSESSender(cfg.Email, cfg.Reminder.Locale)
	}
	return noop.NewNoopSender(cfg.Email.FrontendURL, cfg.Reminder.Locale), nil
}
