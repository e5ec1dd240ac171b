package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"hostcoin-go/models"
	"hostcoin-go/utils"
)

// accountView is the dashboard's shape of an account. Kept separate from
// the storage model so the wire format stays stable.
type accountView struct {
	UserID      string  `json:"id"`
	Username    string  `json:"username"`
	Balance     float64 `json:"coins"`
	RAM         int     `json:"ram"`
	CPU         int     `json:"cpu"`
	Disk        int     `json:"disk"`
	ServerSlots int     `json:"server_slots"`
	Backups     int     `json:"backups"`
	Ports       int     `json:"ports"`
	ServerID    string  `json:"server_id,omitempty"`
	HasServer   bool    `json:"has_server"`
	ClaimStreak int     `json:"claim_streak"`
	Tier        string  `json:"tier,omitempty"`
}

func viewOf(acct *models.Account) accountView {
	view := accountView{
		UserID:      acct.UserID,
		Username:    acct.Username,
		Balance:     acct.Balance,
		RAM:         acct.RAM,
		CPU:         acct.CPU,
		Disk:        acct.Disk,
		ServerSlots: acct.ServerSlots,
		Backups:     acct.Backups,
		Ports:       acct.Ports,
		ServerID:    acct.ServerID,
		HasServer:   acct.HasServer,
		ClaimStreak: acct.ClaimStreak,
	}
	if tier := utils.TierFor(acct.Balance); tier != nil {
		view.Tier = tier.Name
	}
	return view
}

func startDashboard() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Dashboard API starting on port %s", port)
	if err := http.ListenAndServe(":"+port, dashboardMux()); err != nil {
		log.Printf("Dashboard API error: %v", err)
	}
}

// dashboardMux builds the HTTP routes. Split out of startDashboard so
// tests can drive the handlers through httptest.
func dashboardMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", handleRoot)
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/api/user", handleAPIUser)
	mux.HandleFunc("/api/claim-reward", handleAPIClaimReward)
	mux.HandleFunc("/api/afk-earn", handleAPIAfkEarn)
	mux.HandleFunc("/api/leaderboard", handleAPILeaderboard)
	mux.HandleFunc("/api/join-guild", handleAPIJoinGuild)
	return mux
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("HostCoin Bot Status: " + botStatus))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "healthy",
		"service":    "hostcoin-bot",
		"bot_status": botStatus,
	})
}

func handleAPIUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		writeAPIError(w, http.StatusBadRequest, "missing id parameter")
		return
	}

	// Read-only lookup; unknown ids must not create rows
	acct, err := utils.FindAccount(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(acct))
}

// identityRequest is the body of the POST reward endpoints
type identityRequest struct {
	ID string `json:"id"`
}

func decodeIdentity(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "method not allowed")
		return "", false
	}
	var req identityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeAPIError(w, http.StatusBadRequest, "missing or invalid id")
		return "", false
	}
	return req.ID, true
}

func handleAPIClaimReward(w http.ResponseWriter, r *http.Request) {
	id, ok := decodeIdentity(w, r)
	if !ok {
		return
	}

	acct, err := utils.ClaimDaily(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"awarded": utils.DailyReward,
		"streak":  acct.ClaimStreak,
		"coins":   acct.Balance,
	})
}

func handleAPIAfkEarn(w http.ResponseWriter, r *http.Request) {
	id, ok := decodeIdentity(w, r)
	if !ok {
		return
	}

	acct, err := utils.AfkEarn(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"awarded": utils.AfkReward,
		"coins":   acct.Balance,
	})
}

// joinGuildRequest carries the OAuth access token of a dashboard login
type joinGuildRequest struct {
	ID          string `json:"id"`
	AccessToken string `json:"access_token"`
}

func handleAPIJoinGuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req joinGuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" || req.AccessToken == "" {
		writeAPIError(w, http.StatusBadRequest, "missing id or access_token")
		return
	}
	if session == nil || guildID == "" {
		writeAPIError(w, http.StatusServiceUnavailable, "discord integration unavailable")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := utils.EnsureGuildMember(ctx, session, guildID, req.ID, req.AccessToken); err != nil {
		log.Printf("Guild join failed for %s: %v", req.ID, err)
		writeAPIError(w, http.StatusBadGateway, "guild join failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"joined": true})
}

func handleAPILeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries, err := utils.TopBalances(10)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if entries == nil {
		entries = []utils.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode API response: %v", err)
	}
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeLedgerError maps taxonomy errors onto HTTP statuses. Internal
// detail stays in the logs.
func writeLedgerError(w http.ResponseWriter, err error) {
	var cooldown *utils.CooldownError
	switch {
	case errors.Is(err, utils.ErrAccountNotFound):
		writeAPIError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, utils.ErrAlreadyClaimed):
		writeAPIError(w, http.StatusTooManyRequests, "reward already claimed")
	case errors.As(err, &cooldown):
		writeAPIError(w, http.StatusTooManyRequests, "too soon, try again in "+utils.FormatDuration(cooldown.Remaining))
	case errors.Is(err, utils.ErrInvalidAmount):
		writeAPIError(w, http.StatusBadRequest, "invalid amount")
	default:
		log.Printf("Dashboard API error: %v", err)
		writeAPIError(w, http.StatusInternalServerError, "internal error")
	}
}
