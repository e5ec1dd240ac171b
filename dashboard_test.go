package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hostcoin-go/utils"
)

func apiRequest(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	mux := dashboardMux()

	rec := apiRequest(t, mux, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %q", body["status"])
	}
}

func TestAPIUser(t *testing.T) {
	mux := dashboardMux()

	// Unknown ids must return 404, not mint an account
	rec := apiRequest(t, mux, http.MethodGet, "/api/user?id=dash-user-1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Unknown id should be 404, got %d: %s", rec.Code, rec.Body.String())
	}

	if _, err := utils.GetAccount("dash-user-1", "web"); err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}

	rec = apiRequest(t, mux, http.MethodGet, "/api/user?id=dash-user-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var view accountView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if view.UserID != "dash-user-1" {
		t.Errorf("Expected id dash-user-1, got %q", view.UserID)
	}
	if view.Balance != utils.StartingBalance {
		t.Errorf("Expected starting balance, got %.2f", view.Balance)
	}

	rec = apiRequest(t, mux, http.MethodGet, "/api/user", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Missing id should be 400, got %d", rec.Code)
	}

	rec = apiRequest(t, mux, http.MethodPost, "/api/user?id=dash-user-1", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST should be 405, got %d", rec.Code)
	}
}

func TestAPIClaimReward(t *testing.T) {
	mux := dashboardMux()

	rec := apiRequest(t, mux, http.MethodPost, "/api/claim-reward", `{"id":"dash-claim-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]float64
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body["awarded"] != utils.DailyReward {
		t.Errorf("Expected awarded %.2f, got %.2f", utils.DailyReward, body["awarded"])
	}
	if body["streak"] != 1 {
		t.Errorf("Expected streak 1, got %.0f", body["streak"])
	}

	// A second claim inside the 24h window is throttled
	rec = apiRequest(t, mux, http.MethodPost, "/api/claim-reward", `{"id":"dash-claim-1"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Repeat claim should be 429, got %d", rec.Code)
	}

	rec = apiRequest(t, mux, http.MethodPost, "/api/claim-reward", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Missing id should be 400, got %d", rec.Code)
	}
}

func TestAPIAfkEarn(t *testing.T) {
	mux := dashboardMux()

	rec := apiRequest(t, mux, http.MethodPost, "/api/afk-earn", `{"id":"dash-afk-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]float64
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body["awarded"] != utils.AfkReward {
		t.Errorf("Expected awarded %.2f, got %.2f", utils.AfkReward, body["awarded"])
	}
	if body["coins"] != utils.AfkReward {
		t.Errorf("Expected coins %.2f, got %.2f", utils.AfkReward, body["coins"])
	}

	// Immediate repeat is throttled and grants nothing
	rec = apiRequest(t, mux, http.MethodPost, "/api/afk-earn", `{"id":"dash-afk-1"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Rapid AFK earn should be 429, got %d", rec.Code)
	}

	acct, err := utils.GetAccount("dash-afk-1", "")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if acct.Balance != utils.AfkReward {
		t.Errorf("Throttled earn changed balance: got %.2f", acct.Balance)
	}
}

func TestAPIJoinGuildUnavailable(t *testing.T) {
	mux := dashboardMux()

	rec := apiRequest(t, mux, http.MethodPost, "/api/join-guild", `{"id":"dash-join-1","access_token":"tok"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Join without a Discord session should be 503, got %d", rec.Code)
	}

	rec = apiRequest(t, mux, http.MethodPost, "/api/join-guild", `{"id":"dash-join-1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Join without a token should be 400, got %d", rec.Code)
	}
}

func TestAPILeaderboard(t *testing.T) {
	mux := dashboardMux()

	if _, err := utils.GetAccount("dash-lb-1", "rich"); err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if _, err := utils.Credit("dash-lb-1", 9999, "test seed"); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	rec := apiRequest(t, mux, http.MethodGet, "/api/leaderboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var entries []utils.LeaderboardEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("Expected at least one leaderboard entry")
	}
	if entries[0].UserID != "dash-lb-1" {
		t.Errorf("Expected dash-lb-1 on top, got %q", entries[0].UserID)
	}
	if len(entries) > 10 {
		t.Errorf("Leaderboard should cap at 10 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Balance > entries[i-1].Balance {
			t.Errorf("Leaderboard not sorted at index %d", i)
		}
	}
}
