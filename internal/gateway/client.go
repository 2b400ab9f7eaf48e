// Package gateway is the client for the remote backend's five endpoint groups.
//
// Every method maps one domain action onto one HTTP request: reads are GET with query
// parameters, writes carry a JSON body with an "action" discriminator. Failures come back as
// errors matching ErrTransport, *APIError, *DecodeError or ErrAccessDenied.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"socialclient/internal/config"
)

// Group names one of the remote endpoint groups.
type Group string

const (
	GroupAuth          Group = "auth"
	GroupPosts         Group = "posts"
	GroupMessages      Group = "messages"
	GroupNotifications Group = "notifications"
	GroupAdmin         Group = "admin"
)

const (
	maxResponseBytes = 8 << 20
	requestIDHeader  = "X-Request-Id"
)

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client issues requests against the remote endpoint groups. It is safe for concurrent use.
type Client struct {
	endpoints map[Group]string
	http      Doer
	userAgent string
	timeout   time.Duration
	retries   int
	backoff   time.Duration
	log       logrus.FieldLogger
	newID     func() string
}

type Option func(*Client)

func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.http = d
		}
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRetries sets how many times a failed read is retried and the linear backoff step.
func WithRetries(n int, backoff time.Duration) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
		if backoff >= 0 {
			c.backoff = backoff
		}
	}
}

// WithTimeout bounds each attempt. Zero leaves the caller's context as the only bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New builds a client over the given endpoint URLs.
func New(endpoints config.Endpoints, opts ...Option) *Client {
	c := &Client{
		endpoints: map[Group]string{
			GroupAuth:          endpoints.Auth,
			GroupPosts:         endpoints.Posts,
			GroupMessages:      endpoints.Messages,
			GroupNotifications: endpoints.Notifications,
			GroupAdmin:         endpoints.Admin,
		},
		http:      http.DefaultClient,
		userAgent: "socialclient",
		log:       logrus.StandardLogger(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig builds a client from the runtime configuration.
func NewFromConfig(cfg *config.Config, opts ...Option) *Client {
	basic := cfg.BasicConfig
	base := []Option{
		WithUserAgent(basic.UserAgent),
		WithRetries(basic.Retries(), time.Duration(basic.RetryBackoffMs)*time.Millisecond),
		WithTimeout(time.Duration(basic.RequestTimeoutMs) * time.Millisecond),
	}
	return New(cfg.Endpoints, append(base, opts...)...)
}

// Endpoint returns the base URL configured for group.
func (c *Client) Endpoint(group Group) string {
	return c.endpoints[group]
}

type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

// get performs a read. Reads are retried on transport failures and 5xx answers.
func (c *Client) get(ctx context.Context, group Group, action string, query url.Values, out any) error {
	var err error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			if werr := c.wait(ctx, attempt); werr != nil {
				return fmt.Errorf("%s %s: %w: %v", group, action, ErrTransport, werr)
			}
		}
		err = c.do(ctx, http.MethodGet, group, action, query, nil, out)
		if err == nil || !isRetryable(err) {
			return err
		}
		c.log.WithFields(logrus.Fields{"group": group, "action": action, "attempt": attempt + 1}).
			WithError(err).Warn("read failed")
	}
	return err
}

// send performs a write exactly once.
func (c *Client) send(ctx context.Context, method string, group Group, action string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s %s: encode request: %w", group, action, err)
	}
	return c.do(ctx, method, group, action, nil, payload, out)
}

func (c *Client) wait(ctx context.Context, attempt int) error {
	if c.backoff <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.backoff * time.Duration(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) do(ctx context.Context, method string, group Group, action string, query url.Values, body []byte, out any) error {
	base, ok := c.endpoints[group]
	if !ok || base == "" {
		return fmt.Errorf("%s: endpoint not configured", group)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := base
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(base, "?") {
			sep = "&"
		}
		target = base + sep + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%s %s: build request: %w", group, action, err)
	}
	requestID := c.newID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger := c.log.WithFields(logrus.Fields{
		"group":      group,
		"action":     action,
		"method":     method,
		"request_id": requestID,
	})
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.WithError(err).Debug("request failed")
		return fmt.Errorf("%s %s: %w: %v", group, action, ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s %s: %w: read body: %v", group, action, ErrTransport, err)
	}
	logger.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(started),
	}).Debug("request completed")

	var env envelope
	envErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Group: group, Action: action, Status: resp.StatusCode, Message: strings.TrimSpace(env.Error)}
	}
	if envErr != nil {
		return &DecodeError{Group: group, Action: action, Err: envErr}
	}
	if env.Success != nil && !*env.Success {
		return &APIError{Group: group, Action: action, Status: resp.StatusCode, Message: strings.TrimSpace(env.Error)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &DecodeError{Group: group, Action: action, Err: err}
	}
	return nil
}

func missingField(group Group, action, field string) error {
	return &DecodeError{Group: group, Action: action, Err: errors.New("missing " + field)}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
