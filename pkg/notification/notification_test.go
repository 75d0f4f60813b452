package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiver(t *testing.T, status int) (*httptest.Server, *map[string]interface{}, *http.Header) {
	t.Helper()
	var body map[string]interface{}
	var header http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &body, &header
}

func TestNotifyJSON(t *testing.T) {
	srv, body, header := receiver(t, http.StatusNoContent)
	hook := NewWebhook(srv.URL, FormatJSON, map[string]string{"Authorization": "Bearer s3cret"})

	err := hook.Notify(context.Background(), Message{Event: "order_placed", Title: "Order #1 placed", Data: map[string]int{"id": 1}})
	require.NoError(t, err)

	assert.Equal(t, "order_placed", (*body)["event"])
	assert.Equal(t, map[string]interface{}{"id": float64(1)}, (*body)["data"])
	assert.NotEmpty(t, (*body)["sentAt"])
	assert.Equal(t, "Bearer s3cret", header.Get("Authorization"))
	assert.Equal(t, "application/json", header.Get("Content-Type"))
}

func TestNotifySlack(t *testing.T) {
	srv, body, _ := receiver(t, http.StatusOK)
	hook := NewWebhook(srv.URL, FormatSlack, nil)

	err := hook.Notify(context.Background(), Message{Event: "order_status_changed", Title: "Order #1 is now shipped", Text: "by farmer 2", Color: "good"})
	require.NoError(t, err)

	assert.Equal(t, "Order #1 is now shipped", (*body)["text"])
	att := (*body)["attachments"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "good", att["color"])
	assert.Equal(t, "by farmer 2", att["text"])
	assert.Equal(t, "order_status_changed", att["footer"])
	assert.NotContains(t, *body, "event")
}

func TestNotifyFailsOnErrorStatus(t *testing.T) {
	srv, _, _ := receiver(t, http.StatusBadGateway)
	err := NewWebhook(srv.URL, FormatJSON, nil).Notify(context.Background(), Message{Event: "x"})
	assert.EqualError(t, err, "notification: webhook returned HTTP 502")
}
