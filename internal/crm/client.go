// Package crm forwards leads to the club chain's CRM webhook.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ironpulse/clubsite/internal/logger"
	"github.com/ironpulse/clubsite/internal/models"
)

type Config struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// Client posts leads as JSON with a bearer token. It satisfies
// services.LeadSink.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *logger.Logger
	now        func() time.Time
}

// TokenStatus is the outcome of a credentials probe.
type TokenStatus struct {
	Configured bool      `json:"configured"`
	Valid      bool      `json:"valid"`
	StatusCode int       `json:"status_code,omitempty"`
	Error      string    `json:"error,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}

type leadPayload struct {
	ExternalID      string   `json:"external_id"`
	Name            string   `json:"name"`
	Phone           string   `json:"phone"`
	Comment         string   `json:"comment,omitempty"`
	Source          string   `json:"source"`
	ClubID          string   `json:"club_id,omitempty"`
	ClubName        string   `json:"club_name,omitempty"`
	SessionID       string   `json:"session_id,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	CreatedAt       string   `json:"created_at"`
}

// New returns a client; httpClient may be nil.
func New(cfg Config, httpClient *http.Client, log *logger.Logger) (*Client, error) {
	cfg.URL = strings.TrimSpace(cfg.URL)
	if cfg.URL == "" {
		return nil, errors.New("crm: url required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		log:        log.With("client", "crm"),
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

func (c *Client) Name() string { return "crm" }

func (c *Client) Deliver(ctx context.Context, n models.LeadNotice) error {
	return c.SendLead(ctx, n)
}

func (c *Client) SendLead(ctx context.Context, n models.LeadNotice) error {
	body, err := json.Marshal(leadPayload{
		ExternalID:      n.Lead.ID,
		Name:            n.Lead.Name,
		Phone:           n.Lead.Phone,
		Comment:         n.Lead.Comment,
		Source:          n.Lead.Source,
		ClubID:          n.Lead.ClubID,
		ClubName:        n.ClubName,
		SessionID:       n.Lead.SessionID,
		Recommendations: n.Recommendations,
		CreatedAt:       n.Lead.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("crm: encode lead: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("crm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("crm: send lead: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("crm: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	c.log.Debug("lead forwarded", "lead_id", n.Lead.ID, "status", resp.StatusCode)
	return nil
}

// CheckToken issues an authenticated GET against the webhook URL. 401 and 403
// mark the token invalid; any other answer below 500 counts as valid.
func (c *Client) CheckToken(ctx context.Context) TokenStatus {
	st := TokenStatus{Configured: c.cfg.Token != "", CheckedAt: c.now()}
	if !st.Configured {
		st.Error = "token not configured"
		return st
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	c.authorize(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	st.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		st.Error = "token rejected"
	case resp.StatusCode >= 500:
		st.Error = "crm unavailable"
	default:
		st.Valid = true
	}
	return st
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
}
