package meta

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/tur-agent/internal/domain"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Options{
		GraphURL:              srv.URL,
		WhatsAppToken:         "wa-token",
		WhatsAppPhoneNumberID: "phone-1",
		InstagramToken:        "ig-token",
		HTTPClient:            srv.Client(),
		MaxRetries:            2,
		RetryInterval:         time.Millisecond,
	})
}

func TestSendTextWhatsApp(t *testing.T) {
	var (
		mu  sync.Mutex
		got map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v21.0/phone-1/messages", r.URL.Path)
		assert.Equal(t, "Bearer wa-token", r.Header.Get("Authorization"))
		mu.Lock()
		defer mu.Unlock()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	err := newTestClient(srv).SendText(context.Background(), domain.ChannelWhatsApp, "5511999", "Opa")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "whatsapp", got["messaging_product"])
	assert.Equal(t, "5511999", got["to"])
	assert.Equal(t, "text", got["type"])
	assert.Equal(t, map[string]any{"body": "Opa"}, got["text"])
}

func TestSendInstagramTextImageAndTyping(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v21.0/me/messages", r.URL.Path)
		assert.Equal(t, "Bearer ig-token", r.Header.Get("Authorization"))
		var b map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&b))
		mu.Lock()
		bodies = append(bodies, b)
		mu.Unlock()
	}))
	defer srv.Close()

	c := newTestClient(srv)
	ctx := context.Background()
	require.NoError(t, c.SendTyping(ctx, domain.ChannelInstagramDM, "ig-1"))
	require.NoError(t, c.SendText(ctx, domain.ChannelInstagramComment, "ig-1", "Oi"))
	require.NoError(t, c.SendImage(ctx, domain.ChannelInstagramDM, "ig-1", "https://img/1.jpg"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 3)
	assert.Equal(t, "typing_on", bodies[0]["sender_action"])
	assert.Equal(t, map[string]any{"text": "Oi"}, bodies[1]["message"])
	assert.Equal(t, map[string]any{"id": "ig-1"}, bodies[2]["recipient"])
	attachment := bodies[2]["message"].(map[string]any)["attachment"].(map[string]any)
	assert.Equal(t, "image", attachment["type"])
}

func TestSendTypingWhatsAppIsNoop(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	require.NoError(t, newTestClient(srv).SendTyping(context.Background(), domain.ChannelWhatsApp, "1"))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestSendRetriesServerErrorsOnly(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, newTestClient(srv).SendText(context.Background(), domain.ChannelWhatsApp, "1", "x"))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	var badCalls int32
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&badCalls, 1)
		http.Error(w, `{"error":"invalid recipient"}`, http.StatusBadRequest)
	}))
	defer bad.Close()

	err := newTestClient(bad).SendText(context.Background(), domain.ChannelWhatsApp, "1", "x")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&badCalls))
}

func TestNotConfigured(t *testing.T) {
	c := NewClient(Options{})
	ctx := context.Background()

	assert.ErrorIs(t, c.SendText(ctx, domain.ChannelWhatsApp, "1", "x"), ErrNotConfigured)
	assert.ErrorIs(t, c.SendText(ctx, domain.ChannelInstagramDM, "1", "x"), ErrNotConfigured)
	_, err := c.MediaURL(ctx, "m1")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestMediaURLAndDownloadDropsAuthOnRedirect(t *testing.T) {
	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("OGG-BYTES"))
	}))
	defer cdn.Close()

	var graph *httptest.Server
	graph = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer wa-token", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/v21.0/media-9":
			_ = json.NewEncoder(w).Encode(map[string]string{"url": graph.URL + "/download/media-9"})
		case "/download/media-9":
			http.Redirect(w, r, cdn.URL+"/signed", http.StatusFound)
		default:
			http.NotFound(w, r)
		}
	}))
	defer graph.Close()

	c := newTestClient(graph)
	ctx := context.Background()

	url, err := c.MediaURL(ctx, "media-9")
	require.NoError(t, err)
	assert.Equal(t, graph.URL+"/download/media-9", url)

	data, err := c.DownloadMedia(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, "OGG-BYTES", string(data))
}

func TestMediaURLNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := newTestClient(srv).MediaURL(context.Background(), "missing")
	assert.Error(t, err)
}
