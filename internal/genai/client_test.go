package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientConfig{
		APIKey:       "test-key",
		BaseURL:      srv.URL,
		PollInterval: time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(c.Close)
	return c, srv
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(ClientConfig{}, nil); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestGenerateImageExtractsInlineData(t *testing.T) {
	imgBytes := []byte("fake-png-bytes")
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Error("missing API key header")
		}
		resp := map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{
						{"text": "here is your dragon"},
						{"inlineData": map[string]string{
							"mimeType": "image/png",
							"data":     base64.StdEncoding.EncodeToString(imgBytes),
						}},
					},
				},
			}},
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))

	img, err := c.GenerateImage(context.Background(), "a baby fire dragon", Size1K)
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if string(img.Data) != string(imgBytes) || img.MIME != "image/png" {
		t.Errorf("unexpected image: mime=%s len=%d", img.MIME, len(img.Data))
	}
}

func TestGenerateImageNoInlineData(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{{"text": "sorry, no image"}},
				},
			}},
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))

	if _, err := c.GenerateImage(context.Background(), "a dragon", Size1K); err == nil {
		t.Fatal("expected error when response carries no image")
	}
}

func TestGenerateVideoPollsUntilDone(t *testing.T) {
	var polls atomic.Int32
	videoBytes := []byte("fake-mp4")

	mux := http.NewServeMux()
	mux.HandleFunc("POST /models/{model}", func(w http.ResponseWriter, _ *http.Request) {
		if err := json.NewEncoder(w).Encode(map[string]any{
			"name": "operations/op-123",
			"done": false,
		}); err != nil {
			t.Errorf("encode: %v", err)
		}
	})
	var srvURL string
	mux.HandleFunc("GET /operations/op-123", func(w http.ResponseWriter, _ *http.Request) {
		n := polls.Add(1)
		op := map[string]any{"name": "operations/op-123", "done": n >= 3}
		if n >= 3 {
			op["response"] = map[string]any{
				"generateVideoResponse": map[string]any{
					"generatedSamples": []map[string]any{
						{"video": map[string]string{"uri": srvURL + "/files/video-1"}},
					},
				},
			}
		}
		if err := json.NewEncoder(w).Encode(op); err != nil {
			t.Errorf("encode: %v", err)
		}
	})
	mux.HandleFunc("GET /files/video-1", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Error("download missing key parameter")
		}
		if _, err := w.Write(videoBytes); err != nil {
			t.Errorf("write: %v", err)
		}
	})

	c, srv := newTestClient(t, mux)
	srvURL = srv.URL

	got, err := c.GenerateVideo(context.Background(), VideoRequest{Prompt: "egg cracking open"})
	if err != nil {
		t.Fatalf("GenerateVideo: %v", err)
	}
	if string(got) != string(videoBytes) {
		t.Errorf("unexpected video bytes: %q", got)
	}
	if polls.Load() < 3 {
		t.Errorf("expected at least 3 polls, got %d", polls.Load())
	}
}

func TestGenerateVideoCancelable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /models/{model}", func(w http.ResponseWriter, _ *http.Request) {
		if err := json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-1", "done": false}); err != nil {
			t.Errorf("encode: %v", err)
		}
	})
	mux.HandleFunc("GET /operations/op-1", func(w http.ResponseWriter, _ *http.Request) {
		// Never finishes.
		if err := json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-1", "done": false}); err != nil {
			t.Errorf("encode: %v", err)
		}
	})

	c, _ := newTestClient(t, mux)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := c.GenerateVideo(ctx, VideoRequest{Prompt: "never ends"}); err == nil {
		t.Fatal("expected cancellation error")
	}
}
