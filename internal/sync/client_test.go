package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gridflow/internal/domain"
	"gridflow/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushDocuments(t *testing.T) {
	var got PushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/internal/documents/invoice", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewSyncClient(srv.URL)
	err := c.PushDocuments(context.Background(), schema.Invoice, []domain.Document{{ID: 9, Title: "Widget"}})
	require.NoError(t, err)
	assert.Equal(t, schema.Invoice, got.Type)
	require.Len(t, got.Documents, 1)
	assert.Equal(t, uint64(9), got.Documents[0].ID)
}

func TestPushDocuments_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewSyncClient(srv.URL).PushDocuments(context.Background(), schema.Invoice, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=502")
}
