package ses

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"

	"facturas/internal/config"
	"facturas/internal/domain"
	"facturas/internal/email"
	"facturas/internal/money"
	"facturas/internal/port"
)

const charset = "UTF-8"

type reminderMailer struct {
	client      *sesv2.Client
	from        string
	frontendURL string
	formatter   *money.Formatter
}

// NewSESSender sends due-date reminders through SES v2, rendering amounts
// with the given locale.
func NewSESSender(cfg config.EmailConfig, locale string) (port.EmailSender, error) {
	if _, err := mail.ParseAddress(cfg.FromAddress); err != nil {
		return nil, fmt.Errorf("ses: from address %q: %w", cfg.FromAddress, err)
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("ses: aws config: %w", err)
	}
	from := mail.Address{Name: cfg.FromName, Address: cfg.FromAddress}
	return &reminderMailer{
		client:      sesv2.NewFromConfig(awsCfg),
		from:        from.String(),
		frontendURL: cfg.FrontendURL,
		formatter:   money.NewFormatter(locale),
	}, nil
}

func (m *reminderMailer) SendDueReminder(ctx context.Context, toEmail, toName string, invoices []domain.UpcomingInvoice) error {
	msg := email.BuildDueReminder(toName, m.frontendURL, invoices, m.formatter)

	out, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from),
		Destination:      &types.Destination{ToAddresses: []string{toEmail}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: utf8(msg.Subject),
				Body:    &types.Body{Html: utf8(msg.HTML), Text: utf8(msg.Text)},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses: reminder to %s: %w", toEmail, err)
	}
	log.Debug().Str("to", toEmail).Str("message_id", aws.ToString(out.MessageId)).Int("invoices", len(invoices)).
		Msg("ses: due reminder sent")
	return nil
}

func utf8(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String(charset)}
}
