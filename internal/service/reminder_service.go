package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"facturas/internal/port"
)

// ReminderReport summarizes one reminder run.
type ReminderReport struct {
	UsersChecked  int `json:"users_checked"`
	UsersNotified int `json:"users_notified"`
	Invoices      int `json:"invoices"`
	Failures      int `json:"failures"`
}

// ReminderService emails users about invoices close to their due date.
type ReminderService interface {
	SendDueReminders(ctx context.Context) (*ReminderReport, error)
}

type reminderService struct {
	userRepo    port.UserRepository
	invoiceRepo port.InvoiceRepository
	sender      port.EmailSender
	daysAhead   int
	now         func() time.Time
}

// NewReminderService creates a new ReminderService implementation.
func NewReminderService(
	userRepo port.UserRepository,
	invoiceRepo port.InvoiceRepository,
	sender port.EmailSender,
	daysAhead int,
) ReminderService {
	if daysAhead <= 0 {
		daysAhead = 7
	}
	return &reminderService{
		userRepo:    userRepo,
		invoiceRepo: invoiceRepo,
		sender:      sender,
		daysAhead:   daysAhead,
		now:         time.Now,
	}
}

// SendDueReminders sends at most one email per user. A failed send is
// logged and counted; the run continues with the next user.
func (s *reminderService) SendDueReminders(ctx context.Context) (*ReminderReport, error) {
	users, err := s.userRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReminderReport{}
	now := s.now()
	for i := range users {
		user := &users[i]
		report.UsersChecked++

		due, err := upcoming(ctx, s.invoiceRepo, user.ID, now, s.daysAhead)
		if err != nil {
			log.Error().Err(err).Str("user_id", user.ID.String()).Msg("reminderService: listing due invoices failed")
			report.Failures++
			continue
		}
		if len(due) == 0 {
			continue
		}

		if err := s.sender.SendDueReminder(ctx, user.Email, user.FullName, due); err != nil {
			log.Error().Err(err).Str("user_id", user.ID.String()).Msg("reminderService: sending reminder failed")
			report.Failures++
			continue
		}
		report.UsersNotified++
		report.Invoices += len(due)
	}

	log.Info().Int("checked", report.UsersChecked).Int("notified", report.UsersNotified).
		Int("failures", report.Failures).Msg("reminderService: run complete")
	return report, nil
}
