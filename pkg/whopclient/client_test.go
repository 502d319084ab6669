package whopclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAddFreeDaysSendsAuthenticatedRequest(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody AddFreeDaysRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "mem_live_999", "status": "active"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	resp, err := client.AddFreeDays(context.Background(), "mem_live_999", 15)
	if err != nil {
		t.Fatalf("AddFreeDays returned error: %v", err)
	}

	if gotPath != "/api/v2/memberships/mem_live_999/add_free_days" {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("expected bearer auth header, got %q", gotAuth)
	}
	if gotBody.Days != 15 {
		t.Fatalf("expected days=15 in request body, got %d", gotBody.Days)
	}
	if resp.ID != "mem_live_999" {
		t.Fatalf("unexpected response id %q", resp.ID)
	}
}

func TestAddFreeDaysReturnsTypedProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": {"status": 404, "message": "membership not found"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	_, err := client.AddFreeDays(context.Background(), "mem_missing", 10)
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}

	errResp, ok := err.(*ErrorResponse)
	if !ok {
		t.Fatalf("expected *ErrorResponse, got %T: %v", err, err)
	}
	if errResp.Err.Message != "membership not found" {
		t.Fatalf("expected provider message to be parsed, got %q", errResp.Err.Message)
	}
}

func TestAddFreeDaysWithUnparsableErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	_, err := client.AddFreeDays(context.Background(), "mem_live_1", 7)
	if err == nil {
		t.Fatal("expected error for unparsable error body")
	}
	if _, ok := err.(*ErrorResponse); ok {
		t.Fatal("expected a plain error, not a typed provider error")
	}
}
