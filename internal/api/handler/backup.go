package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/iconidentify/canary/internal/backup"
	"github.com/iconidentify/canary/internal/domain"
)

// BackupHandler handles backup, restore and clear HTTP requests.
type BackupHandler struct {
	engine *backup.Engine
	logger *slog.Logger
}

// NewBackupHandler creates a new backup handler.
func NewBackupHandler(engine *backup.Engine, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{
		engine: engine,
		logger: logger,
	}
}

// BackupResponse is the JSON response for a completed backup.
type BackupResponse struct {
	BackupURL string `json:"backup_url"`
}

// Backup uploads an encrypted snapshot of local state.
func (h *BackupHandler) Backup(w http.ResponseWriter, r *http.Request) {
	url, err := h.engine.Backup(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNetworkFailed) {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		h.logger.Error("backup failed", "error", err)
		http.Error(w, "Backup failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BackupResponse{BackupURL: url})
}

// BackupStatusResponse reports the device's backup state.
type BackupStatusResponse struct {
	BackedUp     bool   `json:"backed_up"`
	BackupURL    string `json:"backup_url,omitempty"`
	LastBackupAt string `json:"last_backup_at,omitempty"`
}

// Status reports whether the device has a remote snapshot and when it
// was taken.
func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := BackupStatusResponse{}

	if url, ok, err := h.engine.BackupURL(r.Context()); err == nil && ok {
		resp.BackupURL = url
	}

	takenAt, ok, err := h.engine.LastBackupTime(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNetworkFailed) {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		h.logger.Error("backup status failed", "error", err)
		http.Error(w, "Failed to read backup status", http.StatusInternalServerError)
		return
	}
	if ok {
		resp.BackedUp = true
		resp.LastBackupAt = takenAt.UTC().Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// RestoreRequest is the JSON request body for a restore. CanaryID is
// optional: absent means restore the local device's own snapshot.
// Confirmed must be true for the destructive apply to proceed; a first
// call with Confirmed false returns the snapshot timestamp so the UI
// can prompt.
type RestoreRequest struct {
	CanaryID  string `json:"canary_id,omitempty"`
	Confirmed bool   `json:"confirmed"`
}

// RestorePromptResponse is returned when a restore needs confirmation.
type RestorePromptResponse struct {
	TakenAt string `json:"taken_at"`
}

// Restore overwrites local state from a remote snapshot and requests a
// restart.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var req RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var takenAt time.Time
	confirm := func(t time.Time) bool {
		takenAt = t
		return req.Confirmed
	}

	var err error
	if req.CanaryID != "" {
		err = h.engine.RestoreFrom(r.Context(), req.CanaryID, confirm)
	} else {
		err = h.engine.Restore(r.Context(), confirm)
	}
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotConfirmed):
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(RestorePromptResponse{TakenAt: takenAt.UTC().Format(time.RFC3339)})
		case errors.Is(err, domain.ErrSnapshotNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, domain.ErrDecryptionFailed):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, domain.ErrNetworkFailed):
			http.Error(w, err.Error(), http.StatusBadGateway)
		default:
			h.logger.Error("restore failed", "error", err)
			http.Error(w, "Restore failed", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearRequest is the JSON request body for clearing local state.
type ClearRequest struct {
	Confirmed bool `json:"confirmed"`
}

// Clear removes all local state and schedules a restart.
func (h *BackupHandler) Clear(w http.ResponseWriter, r *http.Request) {
	var req ClearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := h.engine.Clear(r.Context(), func() bool { return req.Confirmed })
	if err != nil {
		if errors.Is(err, domain.ErrNotConfirmed) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		h.logger.Error("clear failed", "error", err)
		http.Error(w, "Clear failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearRemote deletes the device's remote snapshot, keeping local state.
func (h *BackupHandler) ClearRemote(w http.ResponseWriter, r *http.Request) {
	err := h.engine.ClearRemote(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrSnapshotNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if errors.Is(err, domain.ErrNetworkFailed) {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		h.logger.Error("clear remote failed", "error", err)
		http.Error(w, "Failed to delete remote snapshot", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
