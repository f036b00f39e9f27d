package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"regexp"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/newsletter"
	"github.com/avatarctic/newsletter-saas/internal/core/domain/settings"
	"github.com/avatarctic/newsletter-saas/internal/core/domain/subscriber"
	"github.com/avatarctic/newsletter-saas/internal/core/ports"
)

//go:embed templates/*.html
var templateFS embed.FS

var linkPattern = regexp.MustCompile(`href="(https?://[^"]+)"`)

// EmailConfig holds email service configuration
type EmailConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	CompanyName    string
	BaseURL        string
}

// Sender is the subset of the SendGrid client used for delivery.
type Sender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

// EmailService implements ports.EmailService on top of SendGrid
type EmailService struct {
	config    *EmailConfig
	logger    *logrus.Logger
	client    Sender
	templates *template.Template
}

// NewEmailService creates a new email service instance
func NewEmailService(config *EmailConfig, logger *logrus.Logger) (ports.EmailService, error) {
	return NewEmailServiceWithSender(config, sendgrid.NewSendClient(config.SendGridAPIKey), logger)
}

// NewEmailServiceWithSender is used by tests to substitute the provider.
func NewEmailServiceWithSender(config *EmailConfig, client Sender, logger *logrus.Logger) (*EmailService, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to load email templates: %w", err)
	}
	return &EmailService{
		config:    config,
		logger:    logger,
		client:    client,
		templates: templates,
	}, nil
}

type newsletterData struct {
	Subject      string
	PreviewText  string
	FirstName    string
	Content      template.HTML
	SenderName   string
	CompanyName  string
	OpenPixelURL string
}

// OpenPixelURL is the tracking image embedded in every delivered newsletter.
func OpenPixelURL(baseURL string, newsletterID, subscriberID fmt.Stringer) string {
	return fmt.Sprintf("%s/track/open/%s/%s", baseURL, newsletterID, subscriberID)
}

// ClickURL wraps target in a redirect through the click tracker.
func ClickURL(baseURL string, newsletterID, subscriberID fmt.Stringer, target string) string {
	return fmt.Sprintf("%s/track/click/%s/%s?url=%s", baseURL, newsletterID, subscriberID, url.QueryEscape(target))
}

// SendNewsletter delivers one message per recipient so tracking links are personal.
// A failed recipient is logged and skipped; the accepted count is returned.
func (e *EmailService) SendNewsletter(ctx context.Context, sender *settings.Settings, n *newsletter.Newsletter, recipients []*subscriber.Subscriber) (int, error) {
	fromName, fromEmail := e.config.FromName, e.config.FromEmail
	if sender != nil {
		if sender.SenderName != "" {
			fromName = sender.SenderName
		}
		if sender.SenderEmail != "" {
			fromEmail = sender.SenderEmail
		}
	}

	accepted := 0
	var lastErr error
	for _, r := range recipients {
		if err := ctx.Err(); err != nil {
			return accepted, err
		}
		html, err := e.render(n, r, fromName)
		if err != nil {
			return accepted, err
		}
		msg := mail.NewSingleEmail(mail.NewEmail(fromName, fromEmail), n.Subject, mail.NewEmail(fullName(r), r.Email), "", html)
		if sender != nil && sender.ReplyTo != "" {
			msg.SetReplyTo(mail.NewEmail("", sender.ReplyTo))
		}
		if err := e.send(msg, r.Email); err != nil {
			lastErr = err
			continue
		}
		accepted++
	}

	if accepted == 0 && lastErr != nil {
		return 0, lastErr
	}
	if e.logger != nil {
		e.logger.WithFields(logrus.Fields{
			"newsletter_id": n.ID,
			"recipients":    len(recipients),
			"accepted":      accepted,
		}).Info("Newsletter delivered")
	}
	return accepted, nil
}

func (e *EmailService) render(n *newsletter.Newsletter, r *subscriber.Subscriber, senderName string) (string, error) {
	content := linkPattern.ReplaceAllStringFunc(n.Content, func(m string) string {
		target := linkPattern.FindStringSubmatch(m)[1]
		return fmt.Sprintf(`href="%s"`, template.HTMLEscapeString(ClickURL(e.config.BaseURL, n.ID, r.ID, target)))
	})
	data := newsletterData{
		Subject:      n.Subject,
		PreviewText:  n.PreviewText,
		FirstName:    r.FirstName,
		Content:      template.HTML(content),
		SenderName:   senderName,
		CompanyName:  e.config.CompanyName,
		OpenPixelURL: OpenPixelURL(e.config.BaseURL, n.ID, r.ID),
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, "newsletter.html", data); err != nil {
		return "", fmt.Errorf("failed to execute newsletter template: %w", err)
	}
	return buf.String(), nil
}

// send sends a message using SendGrid
func (e *EmailService) send(message *mail.SGMailV3, to string) error {
	response, err := e.client.Send(message)
	if err == nil && response != nil && response.StatusCode >= 300 {
		err = fmt.Errorf("sendgrid returned status %d", response.StatusCode)
	}
	if err != nil {
		if e.logger != nil {
			e.logger.WithFields(logrus.Fields{
				"to": to,
			}).WithError(err).Error("Failed to send email")
		}
		return fmt.Errorf("failed to send email: %w", err)
	}
	if e.logger != nil {
		e.logger.WithFields(logrus.Fields{
			"to":          to,
			"status_code": response.StatusCode,
		}).Debug("Email sent")
	}
	return nil
}

func fullName(s *subscriber.Subscriber) string {
	switch {
	case s.FirstName != "" && s.LastName != "":
		return s.FirstName + " " + s.LastName
	default:
		return s.FirstName + s.LastName
	}
}
