package sse

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamFrames(t *testing.T) {
	rec := httptest.NewRecorder()

	s, err := New(rec)
	require.NoError(t, err)
	require.NoError(t, s.Comment("connected"))
	require.NoError(t, s.Send("notification", []byte(`{"type":"order_placed"}`)))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.True(t, rec.Flushed)
	assert.Equal(t, ": connected\n\nevent: notification\ndata: {\"type\":\"order_placed\"}\n\n", rec.Body.String())
}
