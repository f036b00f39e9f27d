package email_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/newsletter"
	"github.com/avatarctic/newsletter-saas/internal/core/domain/settings"
	"github.com/avatarctic/newsletter-saas/internal/core/domain/subscriber"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/email"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []*mail.SGMailV3
	fail map[string]bool
}

func (f *fakeSender) Send(m *mail.SGMailV3) (*rest.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	to := m.Personalizations[0].To[0].Address
	if f.fail[to] {
		return nil, errors.New("provider down")
	}
	f.sent = append(f.sent, m)
	return &rest.Response{StatusCode: 202}, nil
}

func newService(t *testing.T, s email.Sender) *email.EmailService {
	svc, err := email.NewEmailServiceWithSender(&email.EmailConfig{
		FromEmail:   "noreply@example.com",
		FromName:    "Default",
		CompanyName: "Acme",
		BaseURL:     "https://app.example.com",
	}, s, nil)
	require.NoError(t, err)
	return svc
}

func TestSendNewsletter_PersonalizedTracking(t *testing.T) {
	sender := &fakeSender{}
	svc := newService(t, sender)
	n := &newsletter.Newsletter{ID: uuid.New(), Subject: "Hello", Content: `<p>Read <a href="https://blog.example.com/post?id=1">this</a></p>`}
	sub := &subscriber.Subscriber{ID: uuid.New(), Email: "ann@example.com", FirstName: "Ann"}

	count, err := svc.SendNewsletter(context.Background(), &settings.Settings{SenderName: "Ann's Blog", SenderEmail: "ann@blog.example.com"}, n, []*subscriber.Subscriber{sub})
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	require.Equal(t, "ann@blog.example.com", msg.From.Address)
	require.Equal(t, "Ann's Blog", msg.From.Name)
	html := msg.Content[len(msg.Content)-1].Value
	require.Contains(t, html, email.OpenPixelURL("https://app.example.com", n.ID, sub.ID))
	require.Contains(t, html, "/track/click/"+n.ID.String()+"/"+sub.ID.String())
	require.True(t, strings.Contains(html, "Hi Ann"))
	require.NotContains(t, html, `href="https://blog.example.com`)
}

func TestSendNewsletter_PartialFailure(t *testing.T) {
	sender := &fakeSender{fail: map[string]bool{"bad@example.com": true}}
	svc := newService(t, sender)
	n := &newsletter.Newsletter{ID: uuid.New(), Subject: "S", Content: "<p>x</p>"}
	recipients := []*subscriber.Subscriber{
		{ID: uuid.New(), Email: "ok@example.com"},
		{ID: uuid.New(), Email: "bad@example.com"},
	}
	count, err := svc.SendNewsletter(context.Background(), nil, n, recipients)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Equal(t, "noreply@example.com", sender.sent[0].From.Address)
}

func TestSendNewsletter_AllFail(t *testing.T) {
	sender := &fakeSender{fail: map[string]bool{"bad@example.com": true}}
	svc := newService(t, sender)
	n := &newsletter.Newsletter{ID: uuid.New(), Subject: "S"}
	_, err := svc.SendNewsletter(context.Background(), nil, n, []*subscriber.Subscriber{{ID: uuid.New(), Email: "bad@example.com"}})
	require.Error(t, err)
}

func TestSendNewsletter_CanceledContext(t *testing.T) {
	svc := newService(t, &fakeSender{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.SendNewsletter(ctx, nil, &newsletter.Newsletter{ID: uuid.New()}, []*subscriber.Subscriber{{ID: uuid.New(), Email: "a@example.com"}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestClickURL_EscapesTarget(t *testing.T) {
	nid, sid := uuid.New(), uuid.New()
	got := email.ClickURL("https://x", nid, sid, "https://a.example.com/?q=1&r=2")
	require.Equal(t, "https://x/track/click/"+nid.String()+"/"+sid.String()+"?url=https%3A%2F%2Fa.example.com%2F%3Fq%3D1%26r%3D2", got)
}
