package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sender posts signed events to website endpoints. It makes exactly one
// attempt per Send; retry policy belongs to the caller.
type Sender struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	breakers  *breakers
	now       func() time.Time
}

// Option configures a Sender.
type Option func(*Sender)

// WithHTTPClient sets the HTTP client, e.g. for custom transports in tests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Sender) {
		if c != nil {
			s.client = c
		}
	}
}

// WithTimeout bounds each request. Default 10s.
func WithTimeout(d time.Duration) Option {
	return func(s *Sender) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *Sender) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithCircuitBreaker stops calling a host after threshold consecutive
// failures until cooldown has passed.
func WithCircuitBreaker(threshold int, cooldown time.Duration) Option {
	return func(s *Sender) {
		if threshold > 0 && cooldown > 0 {
			s.breakers = newBreakers(threshold, cooldown)
		}
	}
}

// WithClock overrides the time source used for signatures and breakers.
func WithClock(now func() time.Time) Option {
	return func(s *Sender) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSender creates a sender with pooled connections.
func NewSender(opts ...Option) *Sender {
	s := &Sender{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		timeout:   10 * time.Second,
		userAgent: "ordergate-webhook/1.0",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send posts event to ep. Events without an id get a fresh one; the id doubles
// as the X-Webhook-ID header so receivers can de-duplicate.
func (s *Sender) Send(ctx context.Context, ep Endpoint, event Event) (DeliveryResult, error) {
	u, err := validateURL(ep.URL)
	if err != nil {
		return DeliveryResult{}, err
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return DeliveryResult{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	var b *breaker
	if s.breakers != nil {
		b = s.breakers.get(u.Host)
		if !b.allow(s.now(), s.breakers.threshold) {
			return DeliveryResult{}, ErrCircuitOpen
		}
	}

	res, err := s.post(ctx, ep, event.ID, payload)
	if b != nil {
		b.record(err == nil, s.now(), s.breakers.threshold, s.breakers.cooldown)
	}
	return res, err
}

func (s *Sender) post(ctx context.Context, ep Endpoint, id string, payload []byte) (DeliveryResult, error) {
	start := s.now()
	var res DeliveryResult

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(payload))
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.userAgent)

	if ep.Secret != "" {
		sig, err := Sign(ep.Secret, payload, id, s.now())
		if err != nil {
			return res, err
		}
		sig.Apply(req.Header)
	} else {
		req.Header.Set(HeaderID, id)
	}

	resp, err := s.client.Do(req)
	res.Duration = s.now().Sub(start)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return res, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return res, fmt.Errorf("%w: %w", ErrTemporaryFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	res.StatusCode = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return res, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.ReplaceAll(strings.TrimSpace(string(body)), "\n", " ")
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	statusErr := fmt.Errorf("endpoint returned status %d: %s", resp.StatusCode, msg)
	if isPermanent(resp.StatusCode) {
		return res, fmt.Errorf("%w: %w", ErrPermanentFailure, statusErr)
	}
	return res, fmt.Errorf("%w: %w", ErrTemporaryFailure, statusErr)
}

func validateURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: URL is required", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	return u, nil
}

// isPermanent reports 4xx responses other than timeout, too-early and
// throttling, which may succeed later.
func isPermanent(status int) bool {
	if status < 400 || status >= 500 {
		return false
	}
	switch status {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	}
	return true
}
