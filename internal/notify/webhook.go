package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Event is the payload posted to the notification webhook.
type Event struct {
	Category             string `json:"category"`
	Subcategory          string `json:"subcategory"`
	RecipientHint        string `json:"recipientHint"`
	Title                string `json:"title"`
	NextApproverInitials string `json:"nextApproverInitials,omitempty"`
	Status               string `json:"status"`
	DocumentID           uint64 `json:"documentId"`
}

type Sink interface {
	Notify(ctx context.Context, e Event)
}

// WebhookPublisher posts events to a single URL. Every failure is logged
// and swallowed; notifications never interrupt a document operation.
type WebhookPublisher struct {
	url        string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewWebhookPublisher(url string, log zerolog.Logger) *WebhookPublisher {
	return &WebhookPublisher{
		url:        url,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		log:        log,
	}
}

func (p *WebhookPublisher) Notify(ctx context.Context, e Event) {
	if p.url == "" {
		return
	}
	if err := p.post(ctx, e); err != nil {
		p.log.Warn().Err(err).
			Uint64("document_id", e.DocumentID).
			Str("status", e.Status).
			Msg("notification: webhook failed (non-fatal)")
		return
	}
	p.log.Debug().
		Uint64("document_id", e.DocumentID).
		Str("status", e.Status).
		Msg("notification: event published")
}

func (p *WebhookPublisher) post(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook error: status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}
