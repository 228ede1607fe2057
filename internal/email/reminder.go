// Package email renders the messages sent by the email senders.
package email

import (
	"fmt"
	"html"
	"strings"

	"facturas/internal/domain"
	"facturas/internal/money"
)

// DueReminder is a rendered reminder message.
type DueReminder struct {
	Subject string
	HTML    string
	Text    string
}

// BuildDueReminder renders the reminder for invoices close to their due date.
func BuildDueReminder(name, frontendURL string, invoices []domain.UpcomingInvoice, f *money.Formatter) DueReminder {
	greeting := "Hola"
	if name != "" {
		greeting += " " + name
	}
	subject := fmt.Sprintf("Tienes %d factura(s) por vencer", len(invoices))
	if len(invoices) == 1 {
		subject = "Tienes 1 factura por vencer"
	}

	var text, rows strings.Builder
	fmt.Fprintf(&text, "%s,\n\nEstas facturas vencen pronto:\n\n", greeting)
	for _, inv := range invoices {
		provider := inv.Provider
		if provider == "" {
			provider = "Proveedor desconocido"
		}
		amount := f.Format(inv.Amount, inv.Currency)
		fmt.Fprintf(&text, "- %s: %s, vence el %s (%s)\n", provider, amount, inv.DueDate, daysLabel(inv.DaysLeft))
		fmt.Fprintf(&rows, `<tr><td style="padding: 6px 12px;">%s</td><td style="padding: 6px 12px; text-align: right;">%s</td><td style="padding: 6px 12px;">%s</td><td style="padding: 6px 12px;">%s</td></tr>`,
			html.EscapeString(provider), html.EscapeString(amount), html.EscapeString(inv.DueDate), daysLabel(inv.DaysLeft))
	}
	link := strings.TrimRight(frontendURL, "/") + "/dashboard"
	fmt.Fprintf(&text, "\nRevisa tus facturas en %s\n", link)

	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Facturas por vencer</h2>
  <p>%s,</p>
  <p>Estas facturas vencen pronto:</p>
  <table style="border-collapse: collapse; width: 100%%;">
    <tr><th style="text-align: left; padding: 6px 12px;">Proveedor</th><th style="text-align: right; padding: 6px 12px;">Monto</th><th style="text-align: left; padding: 6px 12px;">Vence</th><th style="text-align: left; padding: 6px 12px;"></th></tr>
    %s
  </table>
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Ver facturas</a>
  </p>
</body>
</html>`, html.EscapeString(greeting), rows.String(), html.EscapeString(link))

	return DueReminder{Subject: subject, HTML: body, Text: text.String()}
}

func daysLabel(days int) string {
	switch days {
	case 0:
		return "hoy"
	case 1:
		return "mañana"
	default:
		return fmt.Sprintf("en %d días", days)
	}
}
