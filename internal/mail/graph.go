package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

const defaultGraphBaseURL = "https://graph.microsoft.com/v1.0"

// GraphTransport sends mail through the Microsoft Graph sendMail endpoint
// using an application (client-credentials) token. It needs a real tenant
// id — the "common" multi-tenant endpoint does not issue app-only tokens —
// and a licensed sender mailbox, so it degrades to disabled when any of
// that is missing rather than failing every send.
type GraphTransport struct {
	sender  string
	client  *http.Client
	enabled bool
	baseURL string // overridable in tests
	logger  *slog.Logger
}

// NewGraphTransport configures the Graph transport. The returned transport
// reports Enabled() = false when the tenant, credentials, or sender
// mailbox are not configured; the router then never routes to it.
func NewGraphTransport(ctx context.Context, clientID, clientSecret, tenantID, sender string, logger *slog.Logger) *GraphTransport {
	t := &GraphTransport{sender: sender, baseURL: defaultGraphBaseURL, logger: logger}

	switch {
	case clientID == "" || clientSecret == "":
		logger.Info("graph transport disabled: missing client credentials")
		return t
	case tenantID == "" || tenantID == "common":
		// App-only tokens require a tenant-specific authority.
		logger.Info("graph transport disabled: no dedicated tenant configured")
		return t
	case sender == "":
		logger.Info("graph transport disabled: no sender mailbox configured")
		return t
	}

	cc := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenantID),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}

	t.client = cc.Client(ctx)
	t.client.Timeout = 30 * time.Second
	t.enabled = true
	logger.Info("graph transport enabled", slog.String("sender", sender))
	return t
}

// Enabled reports whether the transport is configured to send.
func (t *GraphTransport) Enabled() bool { return t.enabled }

func (t *GraphTransport) Name() string { return "graph" }

// The types below mirror the Graph sendMail request body.

type graphAddress struct {
	Address string `json:"address"`
}

type graphRecipient struct {
	EmailAddress graphAddress `json:"emailAddress"`
}

type graphBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type graphMessage struct {
	Subject      string           `json:"subject"`
	Body         graphBody        `json:"body"`
	ToRecipients []graphRecipient `json:"toRecipients"`
}

type graphSendMailRequest struct {
	Message         graphMessage `json:"message"`
	SaveToSentItems bool         `json:"saveToSentItems"`
}

// Send posts the message to /users/{sender}/sendMail. Graph answers 202
// Accepted on success.
func (t *GraphTransport) Send(ctx context.Context, msg Message) error {
	if !t.enabled {
		return fmt.Errorf("graph transport is not configured")
	}

	body := graphSendMailRequest{
		Message: graphMessage{
			Subject:      msg.Subject,
			Body:         graphBody{ContentType: "HTML", Content: msg.HTML},
			ToRecipients: []graphRecipient{{EmailAddress: graphAddress{Address: msg.To}}},
		},
		SaveToSentItems: false,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding sendMail request: %w", err)
	}

	url := fmt.Sprintf("%s/users/%s/sendMail", t.baseURL, t.sender)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building sendMail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling graph sendMail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusAccepted {
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	switch resp.StatusCode {
	case http.StatusForbidden:
		// Almost always a missing Mail.Send application permission or
		// admin consent on the app registration.
		return fmt.Errorf("graph sendMail forbidden (check Mail.Send application permission): %s", detail)
	case http.StatusNotFound:
		return fmt.Errorf("graph sender mailbox %q not found or unlicensed: %s", t.sender, detail)
	default:
		return fmt.Errorf("graph sendMail returned %d: %s", resp.StatusCode, detail)
	}
}
