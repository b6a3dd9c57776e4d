package whatsapp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmtrack/internal/config"
)

func newTestClient(srv *httptest.Server) *APIClient {
	return NewClient(config.WhatsAppConfig{
		AccessToken:   "tok",
		PhoneNumberID: "555",
		BaseURL:       srv.URL + "/",
		APIVersion:    "v20.0",
		AlertTo:       "224600000000",
	})
}

func TestSendAlert(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v20.0/555/messages", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	err := newTestClient(srv).SendAlert(t.Context(), "2 origins over-allocated")
	require.NoError(t, err)

	assert.Equal(t, "224600000000", got["to"])
	assert.Equal(t, "text", got["type"])
	assert.Equal(t, map[string]any{"body": "2 origins over-allocated"}, got["text"])
}

func TestSendTextMessage_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter","code":100}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).SendTextMessage(t.Context(), SendTextMessageRequest{To: "1", Body: "hi"})
	assert.EqualError(t, err, "whatsapp api error: code=100, message=Invalid parameter")
}

func TestSendTextMessage_TruncatesLongBody(t *testing.T) {
	var got struct {
		Text struct {
			Body string `json:"body"`
		} `json:"text"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).SendTextMessage(t.Context(), SendTextMessageRequest{To: "1", Body: strings.Repeat("x", 5000)})
	require.NoError(t, err)
	assert.Len(t, got.Text.Body, maxBodyLength)
	assert.True(t, strings.HasSuffix(got.Text.Body, "..."))
}

func TestSendTextMessage_NoRecipient(t *testing.T) {
	c := NewClient(config.WhatsAppConfig{BaseURL: "http://127.0.0.1:1", APIVersion: "v20.0"})
	_, err := c.SendTextMessage(t.Context(), SendTextMessageRequest{Body: "hi"})
	assert.EqualError(t, err, "whatsapp recipient must not be empty")
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	body := strings.Repeat("a", 4092) + "ñandú"

	got := truncate(body, maxBodyLength)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), maxBodyLength)
	assert.Equal(t, strings.Repeat("a", 4092)+"...", got)

	assert.Equal(t, "Año", truncate("Año", maxBodyLength))
}
