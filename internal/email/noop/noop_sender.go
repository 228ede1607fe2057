package noop

import (
	"context"

	"github.com/rs/zerolog/log"

	"facturas/internal/domain"
	"facturas/internal/email"
	"facturas/internal/money"
	"facturas/internal/port"
)

type noopSender struct {
	frontendURL string
	formatter   *money.Formatter
}

// NewNoopSender creates an EmailSender that only logs the rendered message.
func NewNoopSender(frontendURL, locale string) port.EmailSender {
	return &noopSender{frontendURL: frontendURL, formatter: money.NewFormatter(locale)}
}

func (s *noopSender) SendDueReminder(_ context.Context, toEmail, toName string, invoices []domain.UpcomingInvoice) error {
	msg := email.BuildDueReminder(toName, s.frontendURL, invoices, s.formatter)
	log.Info().Str("to", toEmail).Str("subject", msg.Subject).Int("invoices", len(invoices)).
		Msg("[NOOP EMAIL] due reminder")
	log.Debug().Str("to", toEmail).Msg(msg.Text)
	return nil
}
