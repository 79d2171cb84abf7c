package mattermost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

//go:generate mockgen -destination=mocks/http_doer_mock.go -package=mocks github.com/user/tagrelease/pkg/mattermost HTTPDoer

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Webhook posts to a Mattermost incoming webhook.
type Webhook struct {
	url        string
	username   string
	channel    string
	httpClient HTTPDoer
}

func NewWebhook(url string) *Webhook {
	return NewWebhookWithHTTP(url, &http.Client{})
}

func NewWebhookWithHTTP(url string, httpClient HTTPDoer) *Webhook {
	return &Webhook{
		url:        url,
		httpClient: httpClient,
	}
}

// SetIdentity overrides the username and channel configured on the hook.
// Empty values keep the hook's own settings.
func (w *Webhook) SetIdentity(username, channel string) {
	w.username = username
	w.channel = channel
}

type Message struct {
	Text        string       `json:"text,omitempty"`
	Username    string       `json:"username,omitempty"`
	Channel     string       `json:"channel,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type Attachment struct {
	Fallback string `json:"fallback,omitempty"`
	Color    string `json:"color,omitempty"`
	Title    string `json:"title,omitempty"`
	Text     string `json:"text,omitempty"`
}

func (w *Webhook) Send(ctx context.Context, msg Message) error {
	if w.url == "" {
		return errors.New("webhook url is empty")
	}
	if msg.Username == "" {
		msg.Username = w.username
	}
	if msg.Channel == "" {
		msg.Channel = w.channel
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if s := strings.TrimSpace(string(detail)); s != "" {
			return fmt.Errorf("webhook error: %d: %s", resp.StatusCode, s)
		}
		return fmt.Errorf("webhook error: %d", resp.StatusCode)
	}

	return nil
}
