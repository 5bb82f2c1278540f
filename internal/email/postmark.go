package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

const defaultAPIURL = "https://api.postmarkapp.com/email"

type Client struct {
	serverToken string
	fromEmail   string
	baseURL     string
	apiURL      string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithAPIURL overrides the Postmark endpoint, used in tests.
func WithAPIURL(u string) Option {
	return func(cl *Client) {
		cl.apiURL = u
	}
}

func NewClient(serverToken, fromEmail, baseURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     baseURL,
		apiURL:      defaultAPIURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendAdminInvite emails a new console admin their invite link.
func (c *Client) SendAdminInvite(toEmail, name, token string) error {
	link := fmt.Sprintf("%s/admin/accept-invite?token=%s", c.baseURL, token)
	subject := "You've been invited to the Cradle admin console"
	textBody := fmt.Sprintf("Hi %s,\n\nOpen the link below to set your password and activate your admin account:\n\n%s\n\nThis link expires in 24 hours.", name, link)
	htmlBody := fmt.Sprintf(
		`<p>Hi %s,</p><p>Open the link below to set your password and activate your admin account:</p><p><a href="%s">Activate account</a></p><p>This link expires in 24 hours.</p>`,
		name, link,
	)
	return c.send(toEmail, subject, htmlBody, textBody)
}

// SendBackupAlert notifies operators that a scheduled backup failed.
func (c *Client) SendBackupAlert(toEmail, errMsg string) error {
	subject := "Cradle backup failed"
	textBody := fmt.Sprintf("The scheduled database backup failed:\n\n%s", errMsg)
	htmlBody := fmt.Sprintf(`<p>The scheduled database backup failed:</p><pre>%s</pre>`, errMsg)
	return c.send(toEmail, subject, htmlBody, textBody)
}

func (c *Client) send(toEmail, subject, htmlBody, textBody string) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	payload := postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest("POST", c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
