package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/iconidentify/canary/internal/service"
)

// PreferencesHandler handles preference HTTP requests.
type PreferencesHandler struct {
	prefs  *service.Preferences
	logger *slog.Logger
}

// NewPreferencesHandler creates a new preferences handler.
func NewPreferencesHandler(prefs *service.Preferences, logger *slog.Logger) *PreferencesHandler {
	return &PreferencesHandler{
		prefs:  prefs,
		logger: logger,
	}
}

// PreferencesResponse is the JSON view of the current preferences.
type PreferencesResponse struct {
	Topics              []string `json:"topics"`
	VerifiedOnly        bool     `json:"verified_only"`
	InitialSet          bool     `json:"initial_set"`
	ShareCardHidden     bool     `json:"share_card_hidden"`
	RedirectModalHidden bool     `json:"redirect_modal_hidden"`
}

// Get returns the current preferences. Reads come straight from the
// synchronous cache and cannot fail.
func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	topics := h.prefs.Topics()
	if topics == nil {
		topics = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(PreferencesResponse{
		Topics:              topics,
		VerifiedOnly:        h.prefs.VerifiedOnly(),
		InitialSet:          h.prefs.InitialPreferencesSet(),
		ShareCardHidden:     h.prefs.ShareCardHidden(),
		RedirectModalHidden: h.prefs.RedirectModalHidden(),
	})
}

// SavePreferencesRequest is the JSON request body for saving preferences.
type SavePreferencesRequest struct {
	Topics       []string `json:"topics"`
	VerifiedOnly bool     `json:"verified_only"`
}

// Save stores the topic selection and verified-only flag.
func (h *PreferencesHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req SavePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.Topics) < service.MinimumTopicCount {
		http.Error(w, fmt.Sprintf("At least %d topics are required", service.MinimumTopicCount), http.StatusBadRequest)
		return
	}

	if err := h.prefs.Save(req.Topics, req.VerifiedOnly); err != nil {
		h.logger.Error("failed to save preferences", "error", err)
		http.Error(w, "Failed to save preferences", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DismissRequest is the JSON request body for the dismissal flags.
type DismissRequest struct {
	Hidden bool `json:"hidden"`
}

// DismissShareCard hides or restores the timeline share card.
func (h *PreferencesHandler) DismissShareCard(w http.ResponseWriter, r *http.Request) {
	var req DismissRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.prefs.SetShareCardHidden(req.Hidden)
	w.WriteHeader(http.StatusNoContent)
}

// DismissRedirectModal hides or restores the external-redirect confirmation.
func (h *PreferencesHandler) DismissRedirectModal(w http.ResponseWriter, r *http.Request) {
	var req DismissRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.prefs.SetRedirectModalHidden(req.Hidden)
	w.WriteHeader(http.StatusNoContent)
}
