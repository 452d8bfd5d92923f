package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/callwire/callwire/internal/httpc"
	"github.com/callwire/callwire/internal/log"
)

const defaultAPIBaseURL = "https://api.twilio.com/2010-04-01"

// Dialer places outbound calls through the telephony REST API. The
// returned call SID keys the call context store entry.
type Dialer struct {
	client     *http.Client
	baseURL    string
	accountSID string
	authToken  string
	fromNumber string
	webhookURL string
}

// DialerConfig configures the REST client.
type DialerConfig struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string
	// WebhookURL is the public voice webhook Twilio hits when the callee
	// answers.
	WebhookURL string
	// BaseURL overrides the API endpoint, for tests.
	BaseURL string
}

// NewDialer creates an outbound call client.
func NewDialer(cfg DialerConfig) *Dialer {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	return &Dialer{
		client:     httpc.Client,
		baseURL:    baseURL,
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		fromNumber: cfg.PhoneNumber,
		webhookURL: cfg.WebhookURL,
	}
}

// Call places an outbound call to the destination number and returns the
// assigned call SID. The callee answering triggers the webhook, which
// connects the media stream. A non-empty message rides on the webhook URL
// so the agent can open the call with it.
func (d *Dialer) Call(ctx context.Context, to, message string) (string, error) {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls.json", d.baseURL, d.accountSID)

	webhook := d.webhookURL
	if message != "" {
		webhook += "?message=" + url.QueryEscape(message)
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", d.fromNumber)
	form.Set("Url", webhook)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("transport: create request: %w", err)
	}
	req.SetBasicAuth(d.accountSID, d.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transport: place call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("transport: call API %d: %s", resp.StatusCode, string(msg))
	}

	var body struct {
		SID string `json:"sid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("transport: decode response: %w", err)
	}
	if body.SID == "" {
		return "", fmt.Errorf("transport: call response missing sid")
	}

	log.Info("outbound call initiated", "to", to, "call_id", body.SID)
	return body.SID, nil
}
