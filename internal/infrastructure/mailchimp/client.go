// Package mailchimp is the marketing-list API client. Every network call runs
// as retry(limiter(call)), so retried attempts each take their own limiter slot
// and a burst of retries can never exceed the configured request rate.
package mailchimp

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	domain "github.com/avatarctic/newsletter-saas/internal/core/domain/mailchimp"
	"github.com/avatarctic/newsletter-saas/internal/core/ports"
	"github.com/avatarctic/newsletter-saas/internal/infrastructure/retry"
)

// batchLimit is the maximum number of members per batch subscribe request.
const batchLimit = 500

type Config struct {
	APIKey string
	// ServerPrefix is the data center, e.g. "us21". Derived from the key suffix when empty.
	ServerPrefix string
	ListID       string
	Timeout      time.Duration
	// BaseURL overrides https://{prefix}.api.mailchimp.com/3.0.
	BaseURL string
}

type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
	limiter ports.OutboundLimiter
	retry   *retry.Policy
	logger  *logrus.Logger
}

var _ ports.MailingListClient = (*Client)(nil)

// NewClient wires the limiter and retry policy around every request. The
// policy's retryable predicate is replaced with IsRetryable.
func NewClient(cfg Config, limiter ports.OutboundLimiter, retryCfg retry.Config, logger *logrus.Logger) *Client {
	if cfg.ServerPrefix == "" {
		if i := strings.LastIndex(cfg.APIKey, "-"); i >= 0 {
			cfg.ServerPrefix = cfg.APIKey[i+1:]
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	base := cfg.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.api.mailchimp.com/3.0", cfg.ServerPrefix)
	}
	return &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(base, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		retry:   retry.New(retryCfg, logger, retry.WithName("mailchimp"), retry.WithRetryable(IsRetryable)),
		logger:  logger,
	}
}

func (c *Client) DefaultListID() string { return c.cfg.ListID }

func (c *Client) Configured() bool { return c.cfg.APIKey != "" }

func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/ping", nil, nil)
}

type listResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Stats struct {
		MemberCount      int     `json:"member_count"`
		UnsubscribeCount int     `json:"unsubscribe_count"`
		OpenRate         float64 `json:"open_rate"`
		ClickRate        float64 `json:"click_rate"`
	} `json:"stats"`
}

func (c *Client) GetList(ctx context.Context, listID string) (*domain.ListStats, error) {
	var out listResponse
	if err := c.call(ctx, http.MethodGet, "/lists/"+url.PathEscape(listID), nil, &out); err != nil {
		return nil, err
	}
	return &domain.ListStats{
		ID:               out.ID,
		Name:             out.Name,
		MemberCount:      out.Stats.MemberCount,
		UnsubscribeCount: out.Stats.UnsubscribeCount,
		OpenRate:         out.Stats.OpenRate,
		ClickRate:        out.Stats.ClickRate,
	}, nil
}

type batchRequest struct {
	Members        []domain.Member `json:"members"`
	UpdateExisting bool            `json:"update_existing"`
}

// BatchSubscribe adds or updates members. Each chunk of up to 500 members is
// one network call under one limiter/retry wrapper, not one per member.
func (c *Client) BatchSubscribe(ctx context.Context, listID string, members []domain.Member) (*domain.BatchResult, error) {
	total := &domain.BatchResult{}
	for start := 0; start < len(members); start += batchLimit {
		end := min(start+batchLimit, len(members))
		var res domain.BatchResult
		body := batchRequest{Members: members[start:end], UpdateExisting: true}
		if err := c.call(ctx, http.MethodPost, "/lists/"+url.PathEscape(listID), body, &res); err != nil {
			return total, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		total.TotalCreated += res.TotalCreated
		total.TotalUpdated += res.TotalUpdated
		total.ErrorCount += res.ErrorCount
		total.Errors = append(total.Errors, res.Errors...)
	}
	return total, nil
}

// UpsertMember creates or updates a single member keyed by email.
func (c *Client) UpsertMember(ctx context.Context, listID string, member domain.Member) error {
	if member.StatusIfNew == "" {
		member.StatusIfNew = member.Status
	}
	return c.call(ctx, http.MethodPut, memberPath(listID, member.EmailAddress), member, nil)
}

// ArchiveMember removes a member from the list; an unknown member is not an error.
func (c *Client) ArchiveMember(ctx context.Context, listID, email string) error {
	err := c.call(ctx, http.MethodDelete, memberPath(listID, email), nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil
	}
	return err
}

// SubscriberHash is Mailchimp's member id: md5 of the lowercased address.
func SubscriberHash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

func memberPath(listID, email string) string {
	return "/lists/" + url.PathEscape(listID) + "/members/" + SubscriberHash(email)
}

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("mailchimp: encode request: %w", err)
		}
		payload = b
	}
	return c.retry.Run(ctx, func(ctx context.Context) error {
		return c.limiter.Do(ctx, func(ctx context.Context) error {
			return c.do(ctx, method, path, payload, out)
		})
	})
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("mailchimp: build request: %w", err)
	}
	req.SetBasicAuth("anystring", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		clientRequests.WithLabelValues(method, "error").Inc()
		return err
	}
	defer resp.Body.Close()
	clientRequests.WithLabelValues(method, fmt.Sprint(resp.StatusCode)).Inc()
	clientDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"method":   method,
			"path":     path,
			"status":   resp.StatusCode,
			"duration": time.Since(start).String(),
		}).Debug("mailchimp request")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if len(b) > 0 {
			_ = json.Unmarshal(b, apiErr)
		}
		apiErr.StatusCode = resp.StatusCode
		if apiErr.Title == "" {
			apiErr.Title = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &decodeError{err: err}
	}
	return nil
}
