package utils

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewPanelClientUnconfigured(t *testing.T) {
	if NewPanelClient("", "key") != nil {
		t.Error("Expected nil client without a base URL")
	}
	if NewPanelClient("https://panel.example", "") != nil {
		t.Error("Expected nil client without an API key")
	}
}

func TestPanelClientTrimsTrailingSlash(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "//") {
			t.Errorf("Double slash in request path: %s", r.URL.Path)
		}
		w.Write(wrapAttributes(t, "server", Server{ID: 1}))
	}))
	defer ts.Close()

	client := NewPanelClient(ts.URL+"/", "key")
	if _, err := client.GetServer(context.Background(), "1"); err != nil {
		t.Fatalf("GetServer failed: %v", err)
	}
}

func TestPanelClientErrorCarriesStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"detail":"not found"}]}`, http.StatusNotFound)
	}))
	defer ts.Close()

	client := NewPanelClient(ts.URL, "key")
	_, err := client.GetServer(context.Background(), "999")

	var applyErr *ExternalApplyError
	if !errors.As(err, &applyErr) {
		t.Fatalf("Expected ExternalApplyError, got %v", err)
	}
	if applyErr.Status != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", applyErr.Status)
	}
	if !strings.Contains(applyErr.Detail, "not found") {
		t.Errorf("Detail missing response body: %q", applyErr.Detail)
	}
}

func TestPanelClientTransportError(t *testing.T) {
	// Point at a server that is already closed
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	client := NewPanelClient(url, "key")
	_, err := client.GetServer(context.Background(), "1")

	var applyErr *ExternalApplyError
	if !errors.As(err, &applyErr) {
		t.Fatalf("Expected ExternalApplyError, got %v", err)
	}
	if applyErr.Status != 0 {
		t.Errorf("Transport errors should carry status 0, got %d", applyErr.Status)
	}
}

func TestParseLocations(t *testing.T) {
	tests := []struct {
		raw      string
		expected []int64
	}{
		{"", []int64{1}},
		{"3", []int64{3}},
		{"3, 7", []int64{3, 7}},
		{"junk", []int64{1}},
		{"2,junk,9", []int64{2, 9}},
	}

	for _, tt := range tests {
		got := parseLocations(tt.raw)
		if len(got) != len(tt.expected) {
			t.Errorf("parseLocations(%q) = %v, want %v", tt.raw, got, tt.expected)
			continue
		}
		for i := range got {
			if got[i] != tt.expected[i] {
				t.Errorf("parseLocations(%q) = %v, want %v", tt.raw, got, tt.expected)
				break
			}
		}
	}
}

func TestListNests(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/application/nests" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		w.Write(wrapList(t, "nest", Nest{ID: 1, Name: "Minecraft"}, Nest{ID: 2, Name: "Voice"}))
	}))
	defer ts.Close()

	client := NewPanelClient(ts.URL, "key")
	nests, err := client.ListNests(context.Background())
	if err != nil {
		t.Fatalf("ListNests failed: %v", err)
	}
	if len(nests) != 2 || nests[0].Name != "Minecraft" {
		t.Errorf("Unexpected nests: %+v", nests)
	}
}
