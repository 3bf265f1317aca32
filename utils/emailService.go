package utils

import (
	"context"
	"fmt"
	"html"
	"pgstay/config"
	"pgstay/models"
	"sync"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

// Mailer delivers one HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type SendgridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func (m *SendgridMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	message := mail.NewSingleEmail(m.from, subject, mail.NewEmail("", to), "", htmlBody)
	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogMailer only logs, for environments without SendGrid credentials.
type LogMailer struct {
	Log *logrus.Logger
}

func (m *LogMailer) Send(_ context.Context, to, subject, _ string) error {
	m.Log.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("email delivery skipped (SENDGRID_API_KEY not set)")
	return nil
}

func NewMailer(cfg *config.Config, log *logrus.Logger) Mailer {
	if cfg.SendgridAPIKey == "" {
		return &LogMailer{Log: log}
	}
	return &SendgridMailer{
		client: sendgrid.NewSendClient(cfg.SendgridAPIKey),
		from:   mail.NewEmail("PG Stay", cfg.EmailSender),
	}
}

// Notifier sends marketplace notifications in the background. Failures are
// logged and never reach the request that triggered them.
type Notifier struct {
	mailer Mailer
	log    *logrus.Logger
	wg     sync.WaitGroup
}

func NewNotifier(mailer Mailer, log *logrus.Logger) *Notifier {
	return &Notifier{mailer: mailer, log: log}
}

// Wait blocks until every queued email has been attempted.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) send(to, subject, title, body string) {
	if to == "" {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := n.mailer.Send(ctx, to, subject, getEmailTemplate(title, body)); err != nil {
			n.log.WithError(err).WithFields(logrus.Fields{"to": to, "subject": subject}).Error("Error sending email")
		}
	}()
}

// HTML wrapper shared by every notification
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<body style="font-family: Arial, sans-serif; background-color: #F6F6F6; padding: 20px;">
		<div style="max-width: 600px; margin: auto; background: #FFFFFF; border-radius: 8px; padding: 30px;">
			<h2 style="color: #1F2A44; margin-top: 0;">%s</h2>
			%s
			<p style="font-size: 12px; color: #999999; margin-top: 30px;">PG Stay</p>
		</div>
	</body>
	</html>
	`, html.EscapeString(title), bodyContent)
}

// --- Triggers ---

// NewInquiry tells the owner a student asked about their listing.
func (n *Notifier) NewInquiry(owner models.User, listing models.Listing, inquiry models.Inquiry) {
	subject := "New inquiry: " + listing.Title
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>You have a new inquiry for <strong>%s</strong>.</p>
		<div style="margin: 20px 0; padding: 15px; background: #E8F0FE; border-radius: 4px;"><em>"%s"</em></div>
		<p>Contact: %s</p>
	`, html.EscapeString(owner.Name), html.EscapeString(listing.Title), html.EscapeString(inquiry.Message), html.EscapeString(inquiry.Contact))

	n.send(owner.Email, subject, "New Inquiry", body)
}

// NewBooking tells the owner a booking or visit was requested.
func (n *Notifier) NewBooking(owner models.User, listing models.Listing, booking models.Booking) {
	kind := "booking"
	detail := fmt.Sprintf("%d month(s)", booking.DurationMonths)
	if booking.VisitOnly {
		kind = "visit"
		detail = "visit only"
	} else if booking.StartDate != nil {
		detail = fmt.Sprintf("from %s for %d month(s)", booking.StartDate.Format("2006-01-02"), booking.DurationMonths)
	}

	subject := fmt.Sprintf("New %s request: %s", kind, listing.Title)
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>A new %s request was placed on <strong>%s</strong> (%s).</p>
		<p>Review it from your dashboard.</p>
	`, html.EscapeString(owner.Name), kind, html.EscapeString(listing.Title), detail)

	n.send(owner.Email, subject, "New Request", body)
}

// BookingStatusChanged tells the student the owner acted on their request.
func (n *Notifier) BookingStatusChanged(student models.User, listing models.Listing, booking models.Booking) {
	subject := fmt.Sprintf("Your request for %s is %s", listing.Title, booking.Status)
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your request for <strong>%s</strong> is now <strong>%s</strong>.</p>
	`, html.EscapeString(student.Name), html.EscapeString(listing.Title), booking.Status)

	n.send(student.Email, subject, "Request Updated", body)
}
