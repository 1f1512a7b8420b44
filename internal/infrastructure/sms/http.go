package sms

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oli-store-api/internal/config"
)

// HTTPSender sends SMS through the provider's GET-style API. Success is
// inferred from HTTP 200 and a response body free of an error marker — the
// provider returns plain text and its format is best-effort.
type HTTPSender struct {
	client   *http.Client
	apiURL   string
	username string
	apiKey   string
	senderID string
	route    string
}

func NewHTTPSender(cfg *config.Config) *HTTPSender {
	return &HTTPSender{
		client:   &http.Client{Timeout: 10 * time.Second},
		apiURL:   cfg.SMSAPIURL,
		username: cfg.SMSUsername,
		apiKey:   cfg.SMSAPIKey,
		senderID: cfg.SMSSenderID,
		route:    cfg.SMSRoute,
	}
}

func (s *HTTPSender) SendOTP(ctx context.Context, mobile, code string) bool {
	q := url.Values{}
	q.Set("username", s.username)
	q.Set("apikey", s.apiKey)
	q.Set("senderid", s.senderID)
	q.Set("route", s.route)
	q.Set("mobile", mobile)
	q.Set("text", renderMessage(code, s.senderID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+"?"+q.Encode(), nil)
	if err != nil {
		slog.Warn("sms: build request failed", "err", err)
		return false
	}

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Warn("sms: provider request failed", "err", err)
		return false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		slog.Warn("sms: read provider response failed", "err", err)
		return false
	}
	slog.Debug("sms: provider response", "status", resp.StatusCode, "body", string(body))

	return resp.StatusCode == http.StatusOK &&
		!strings.Contains(strings.ToLower(string(body)), "error")
}
