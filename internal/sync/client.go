package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"gridflow/internal/domain"
	"gridflow/internal/schema"
)

// Client mirrors the document list of one type to a remote store. The
// remote record is replaced wholesale, so the last push wins.
type Client interface {
	PushDocuments(ctx context.Context, docType schema.DocType, docs []domain.Document) error
}

type SyncClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewSyncClient(baseURL string) *SyncClient {
	return &SyncClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type PushRequest struct {
	Type      schema.DocType    `json:"type"`
	Documents []domain.Document `json:"documents"`
	PushedAt  time.Time         `json:"pushed_at"`
}

func (s *SyncClient) PushDocuments(ctx context.Context, docType schema.DocType, docs []domain.Document) error {
	endpoint := fmt.Sprintf(
		"%s/internal/documents/%s",
		s.baseURL,
		url.PathEscape(string(docType)),
	)

	if docs == nil {
		docs = []domain.Document{}
	}
	body, err := json.Marshal(PushRequest{Type: docType, Documents: docs, PushedAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf(
			"sync server push error: status=%d body=%s",
			resp.StatusCode,
			string(b),
		)
	}

	return nil
}
