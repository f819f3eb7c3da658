package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestCompleteSuccess(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if !strings.HasSuffix(r.URL.Path, "/v1/completions") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"choices":[{"text":"fine"}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{BaseURL: srv.URL, Model: "test-model", APIKey: "secret"})
	resp, err := c.Complete(context.Background(), "hello", Options{Extra: map[string]any{"temperature": 0.2}})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !strings.Contains(string(resp), "fine") {
		t.Errorf("response = %s", resp)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotBody["prompt"] != "hello" {
		t.Errorf("prompt = %v", gotBody["prompt"])
	}
	if gotBody["model"] != "test-model" {
		t.Errorf("model = %v", gotBody["model"])
	}
	if gotBody["temperature"] != 0.2 {
		t.Errorf("temperature = %v", gotBody["temperature"])
	}
}

func TestCompleteModelOverride(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		gotModel, _ = body["model"].(string)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{BaseURL: srv.URL, Model: "default-model"})
	if _, err := c.Complete(context.Background(), "x", Options{Model: "override"}); err != nil {
		t.Fatal(err)
	}
	if gotModel != "override" {
		t.Errorf("model = %q, want %q", gotModel, "override")
	}
}

func TestCompleteRetriesOnServiceUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{BaseURL: srv.URL, MaxRetries: 3, Backoff: time.Millisecond})
	resp, err := c.Complete(context.Background(), "x", Options{})
	if err != nil {
		t.Fatalf("Complete after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("server saw %d calls, want 3", calls.Load())
	}
	if !strings.Contains(string(resp), "ok") {
		t.Errorf("response = %s", resp)
	}
}

func TestCompleteGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{BaseURL: srv.URL, MaxRetries: 2, Backoff: time.Millisecond})
	if _, err := c.Complete(context.Background(), "x", Options{}); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls.Load() != 2 {
		t.Errorf("server saw %d calls, want 2", calls.Load())
	}
}

func TestCompleteDoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{BaseURL: srv.URL, MaxRetries: 3, Backoff: time.Millisecond})
	if _, err := c.Complete(context.Background(), "x", Options{}); err == nil {
		t.Fatal("expected error for 400 response")
	}
	if calls.Load() != 1 {
		t.Errorf("server saw %d calls, want 1 (no retry on 400)", calls.Load())
	}
}

// Retry-After replaces the exponential backoff for the next attempt;
// the two delays must not stack.
func TestCompleteRetryAfterReplacesBackoff(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{BaseURL: srv.URL, MaxRetries: 2, Backoff: time.Minute})
	start := time.Now()
	if _, err := c.Complete(context.Background(), "x", Options{}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("waited %v; the minute-long backoff was stacked on Retry-After", elapsed)
	}
	if calls.Load() != 2 {
		t.Errorf("server saw %d calls, want 2", calls.Load())
	}
}

// A Retry-After on the last attempt is pointless; the terminal error
// must come back without sleeping.
func TestCompleteNoRetryAfterWaitOnFinalAttempt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{BaseURL: srv.URL, MaxRetries: 1, Backoff: time.Millisecond})
	start := time.Now()
	if _, err := c.Complete(context.Background(), "x", Options{}); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("terminal 429 slept %v before returning", elapsed)
	}
}

func TestCompleteHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewHTTPClient(Config{BaseURL: srv.URL, MaxRetries: 3, Backoff: time.Minute})
	_, err := c.Complete(ctx, "x", Options{})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
