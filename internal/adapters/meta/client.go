// Package meta talks to the Graph API for WhatsApp Cloud and Instagram messaging.
package meta

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

	"github.com/cenkalti/backoff/v4"

	"github.com/PabloGalante/tur-agent/internal/domain"
	"github.com/PabloGalante/tur-agent/internal/observability"
)

const (
	DefaultGraphURL   = "https://graph.facebook.com"
	DefaultAPIVersion = "v21.0"

	userAgent     = "TurAgent/1.0"
	maxMediaBytes = 25 << 20
)

// ErrNotConfigured is returned when the credentials for a channel are missing.
var ErrNotConfigured = errors.New("channel credentials not configured")

type Options struct {
	GraphURL              string
	APIVersion            string
	WhatsAppToken         string
	WhatsAppPhoneNumberID string
	InstagramToken        string
	HTTPClient            *http.Client
	MaxRetries            uint64
	RetryInterval         time.Duration
}

// Client implements domain.ChannelSender and domain.MediaFetcher.
type Client struct {
	baseURL        string
	waToken        string
	waPhoneID      string
	igToken        string
	http           *http.Client
	noRedirectHTTP *http.Client
	maxRetries     uint64
	retryInterval  time.Duration
}

func NewClient(opts Options) *Client {
	graph := strings.TrimRight(opts.GraphURL, "/")
	if graph == "" {
		graph = DefaultGraphURL
	}
	version := opts.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	noRedirect := *hc
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	interval := opts.RetryInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	return &Client{
		baseURL:        graph + "/" + version,
		waToken:        opts.WhatsAppToken,
		waPhoneID:      opts.WhatsAppPhoneNumberID,
		igToken:        opts.InstagramToken,
		http:           hc,
		noRedirectHTTP: &noRedirect,
		maxRetries:     opts.MaxRetries,
		retryInterval:  interval,
	}
}

// ─────────────────────────────────────────
// Outbound messages
// ─────────────────────────────────────────

type waText struct {
	Body string `json:"body"`
}

type waImage struct {
	Link string `json:"link"`
}

type waMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             *waText  `json:"text,omitempty"`
	Image            *waImage `json:"image,omitempty"`
}

type igRecipient struct {
	ID string `json:"id"`
}

type igAttachment struct {
	Type    string            `json:"type"`
	Payload map[string]string `json:"payload"`
}

type igMessageBody struct {
	Text       string        `json:"text,omitempty"`
	Attachment *igAttachment `json:"attachment,omitempty"`
}

type igMessage struct {
	Recipient    igRecipient    `json:"recipient"`
	Message      *igMessageBody `json:"message,omitempty"`
	SenderAction string         `json:"sender_action,omitempty"`
}

func (c *Client) SendText(ctx context.Context, channel domain.Channel, to domain.UserID, text string) error {
	switch {
	case channel == domain.ChannelWhatsApp:
		return c.postWhatsApp(ctx, waMessage{
			MessagingProduct: "whatsapp",
			RecipientType:    "individual",
			To:               string(to),
			Type:             "text",
			Text:             &waText{Body: text},
		})
	case channel.IsInstagram():
		return c.postInstagram(ctx, igMessage{
			Recipient: igRecipient{ID: string(to)},
			Message:   &igMessageBody{Text: text},
		})
	default:
		return fmt.Errorf("send text: unknown channel %q", channel)
	}
}

func (c *Client) SendImage(ctx context.Context, channel domain.Channel, to domain.UserID, imageURL string) error {
	switch {
	case channel == domain.ChannelWhatsApp:
		return c.postWhatsApp(ctx, waMessage{
			MessagingProduct: "whatsapp",
			RecipientType:    "individual",
			To:               string(to),
			Type:             "image",
			Image:            &waImage{Link: imageURL},
		})
	case channel.IsInstagram():
		return c.postInstagram(ctx, igMessage{
			Recipient: igRecipient{ID: string(to)},
			Message: &igMessageBody{Attachment: &igAttachment{
				Type:    "image",
				Payload: map[string]string{"url": imageURL},
			}},
		})
	default:
		return fmt.Errorf("send image: unknown channel %q", channel)
	}
}

// SendTyping shows a typing indicator. The WhatsApp Cloud API has no such action,
// so it is a no-op there.
func (c *Client) SendTyping(ctx context.Context, channel domain.Channel, to domain.UserID) error {
	if !channel.IsInstagram() {
		observability.Logger().Debug("typing indicator skipped", "channel", channel, "user_id", to)
		return nil
	}
	return c.postInstagram(ctx, igMessage{
		Recipient:    igRecipient{ID: string(to)},
		SenderAction: "typing_on",
	})
}

func (c *Client) postWhatsApp(ctx context.Context, msg waMessage) error {
	if c.waToken == "" || c.waPhoneID == "" {
		return fmt.Errorf("whatsapp: %w", ErrNotConfigured)
	}
	return c.postJSON(ctx, c.baseURL+"/"+c.waPhoneID+"/messages", c.waToken, msg)
}

func (c *Client) postInstagram(ctx context.Context, msg igMessage) error {
	if c.igToken == "" {
		return fmt.Errorf("instagram: %w", ErrNotConfigured)
	}
	return c.postJSON(ctx, c.baseURL+"/me/messages", c.igToken, msg)
}

func (c *Client) postJSON(ctx context.Context, url, token string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode graph request: %w", err)
	}

	return c.retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		return checkStatus(resp)
	})
}

// ─────────────────────────────────────────
// Media
// ─────────────────────────────────────────

type mediaInfo struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

// MediaURL resolves a WhatsApp media id into its short-lived download URL.
func (c *Client) MediaURL(ctx context.Context, mediaID string) (string, error) {
	if c.waToken == "" {
		return "", fmt.Errorf("media: %w", ErrNotConfigured)
	}

	var info mediaInfo
	err := c.retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+mediaID, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.waToken)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if err := checkStatus(resp); err != nil {
			return err
		}
		if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
			return backoff.Permanent(fmt.Errorf("decode media info: %w", err))
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("media url %s: %w", mediaID, err)
	}
	if info.URL == "" {
		return "", fmt.Errorf("media url %s: empty url", mediaID)
	}
	return info.URL, nil
}

// DownloadMedia fetches media bytes. The first hop carries the bearer token; if it
// redirects to the signed CDN the second hop is sent without it, since the CDN
// rejects requests that carry Authorization.
func (c *Client) DownloadMedia(ctx context.Context, url string) ([]byte, error) {
	if c.waToken == "" {
		return nil, fmt.Errorf("media: %w", ErrNotConfigured)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("download media: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.waToken)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.noRedirectHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download media: %w", err)
	}

	if isRedirect(resp.StatusCode) {
		loc, err := resp.Location()
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("download media redirect: %w", err)
		}
		observability.Logger().Debug("media download redirected", "host", loc.Host)

		cdnReq, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("download media: %w", err)
		}
		cdnReq.Header.Set("User-Agent", userAgent)

		resp, err = c.http.Do(cdnReq)
		if err != nil {
			return nil, fmt.Errorf("download media from cdn: %w", err)
		}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("download media: %w", err)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
	if err != nil {
		return nil, fmt.Errorf("read media body: %w", err)
	}
	return data, nil
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

// StatusError is a non-2xx answer from the Graph API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("graph api status %d: %s", e.StatusCode, e.Body)
}

// checkStatus maps a response to nil, a retryable error (429, 5xx) or a permanent one.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err := &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return err
	}
	return backoff.Permanent(err)
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func (c *Client) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	b.MaxElapsedTime = 0
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx))
}
