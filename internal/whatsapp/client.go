// Package whatsapp talks to an Evolution-style multi-instance WhatsApp
// gateway over HTTP. It only implements the send surface the dispatcher
// needs; delivery on the wire is the gateway's problem.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"chatbot-gateway/internal/config"
)

type Client struct {
	Config *config.Config
	HTTP   *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{Config: cfg, HTTP: &http.Client{}}
}

// APIError is a non-2xx gateway reply. The dispatcher inspects the status
// class to decide how to retry.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway error: status %d - %s", e.Status, e.Body)
}

func IsClientError(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.Status >= 400 && apiErr.Status < 500
	}
	return false
}

func IsServerError(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.Status >= 500
	}
	return false
}

// --- Payload structures ---

type TextPayload struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

type ListRow struct {
	RowID       string `json:"rowId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type ListSection struct {
	Title string    `json:"title,omitempty"`
	Rows  []ListRow `json:"rows"`
}

type ListPayload struct {
	Number      string        `json:"number"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	ButtonText  string        `json:"buttonText"`
	FooterText  string        `json:"footerText,omitempty"`
	Sections    []ListSection `json:"sections"`
}

type MediaPayload struct {
	Number    string `json:"number"`
	MediaType string `json:"mediatype"`
	Media     string `json:"media"` // URL
	Caption   string `json:"caption,omitempty"`
}

type PresencePayload struct {
	Number   string `json:"number"`
	Presence string `json:"presence"`
	Delay    int    `json:"delay,omitempty"`
}

// --- Helper ---

func (c *Client) sendRequest(ctx context.Context, path string, body interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return err
	}

	url := c.Config.GatewayBaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Config.GatewayAPIKey != "" {
		req.Header.Set("apikey", c.Config.GatewayAPIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}

// --- Send surface ---

func (c *Client) SendText(ctx context.Context, instance, number, text string) error {
	return c.sendRequest(ctx, "/message/sendText/"+instance, TextPayload{Number: number, Text: text})
}

func (c *Client) SendList(ctx context.Context, instance string, msg ListPayload) error {
	return c.sendRequest(ctx, "/message/sendList/"+instance, msg)
}

func (c *Client) SendImage(ctx context.Context, instance, number, caption, imageURL string) error {
	return c.sendRequest(ctx, "/message/sendMedia/"+instance, MediaPayload{
		Number:    number,
		MediaType: "image",
		Media:     imageURL,
		Caption:   caption,
	})
}

// SendPresence shows the "typing..." indicator. Best effort: callers ignore
// the error.
func (c *Client) SendPresence(ctx context.Context, instance, number string, durationMs int) error {
	return c.sendRequest(ctx, "/chat/sendPresence/"+instance, PresencePayload{
		Number:   number,
		Presence: "composing",
		Delay:    durationMs,
	})
}
