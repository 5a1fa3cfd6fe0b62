package notification

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"slotchain/models"
	"slotchain/services/availability"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// EmailConfig configures the SendGrid sender. Host overrides the API host
// and is only set in tests.
type EmailConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	Host      string
}

// EmailNotifier sends booking confirmations through SendGrid. Without an API
// key it logs and drops every message.
type EmailNotifier struct {
	apiKey string
	host   string
	from   *mail.Email
	logger *zap.Logger
}

func NewEmailNotifier(cfg EmailConfig, logger *zap.Logger) *EmailNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &EmailNotifier{logger: logger}
	if cfg.APIKey == "" || cfg.FromEmail == "" {
		logger.Warn("SendGrid is not configured; booking emails are disabled")
		return n
	}
	n.apiKey = cfg.APIKey
	n.host = cfg.Host
	n.from = mail.NewEmail(cfg.FromName, cfg.FromEmail)
	return n
}

func (n *EmailNotifier) Enabled() bool { return n.apiKey != "" }

// SendBookingEmails mails the buyer the join link and the creator the host
// link. Both sends are attempted even if the first fails.
func (n *EmailNotifier) SendBookingEmails(ctx context.Context, e models.BookingEmail) error {
	if !n.Enabled() {
		n.logger.Warn("Skipping booking emails, SendGrid not configured",
			zap.String("buyerEmail", e.BuyerEmail))
		return nil
	}

	when := formatWindow(e)
	creator := e.CreatorName
	buyer := e.BuyerName
	if buyer == "" {
		buyer = e.BuyerEmail
	}

	buyerMsg := mail.NewSingleEmail(
		n.from,
		"Your SlotChain session with "+creator,
		mail.NewEmail(e.BuyerName, e.BuyerEmail),
		fmt.Sprintf("Your session with %s is booked for %s.\nJoin: %s\n", creator, when, e.JoinURL),
		fmt.Sprintf("<p>Your session with <strong>%s</strong> is booked for %s.</p><p><a href=\"%s\">Join the meeting</a></p>",
			html.EscapeString(creator), html.EscapeString(when), html.EscapeString(e.JoinURL)),
	)

	hostURL := e.HostURL
	if hostURL == "" {
		hostURL = e.JoinURL
	}
	creatorMsg := mail.NewSingleEmail(
		n.from,
		"New SlotChain booking from "+buyer,
		mail.NewEmail(creator, e.CreatorEmail),
		fmt.Sprintf("%s booked a session with you for %s.\nStart: %s\nGuest link: %s\n", buyer, when, hostURL, e.JoinURL),
		fmt.Sprintf("<p><strong>%s</strong> booked a session with you for %s.</p><p><a href=\"%s\">Start the meeting</a></p><p><strong>Guest link:</strong> <a href=\"%s\">%s</a></p>",
			html.EscapeString(buyer), html.EscapeString(when), html.EscapeString(hostURL),
			html.EscapeString(e.JoinURL), html.EscapeString(e.JoinURL)),
	)

	return errors.Join(
		n.send(ctx, "buyer", buyerMsg),
		n.send(ctx, "creator", creatorMsg),
	)
}

// send builds a fresh request per message; a shared sendgrid.Client mutates
// its body on every call.
func (n *EmailNotifier) send(ctx context.Context, recipient string, msg *mail.SGMailV3) error {
	req := sendgrid.GetRequest(n.apiKey, "/v3/mail/send", n.host)
	req.Method = rest.Post
	req.Body = mail.GetRequestBody(msg)

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid %s email: %w", recipient, err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid %s email: status %d: %s", recipient, resp.StatusCode, resp.Body)
	}
	n.logger.Debug("Booking email sent", zap.String("recipient", recipient))
	return nil
}

func formatWindow(e models.BookingEmail) string {
	loc, err := availability.LoadLocation(e.Timezone)
	if err != nil {
		loc = time.UTC
	}
	start := e.StartTime.In(loc)
	end := e.EndTime.In(loc)
	return fmt.Sprintf("%s, %s to %s (%s)",
		start.Format("Monday, January 2 2006"),
		start.Format("15:04"),
		end.Format("15:04"),
		e.Timezone)
}
