package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iconidentify/canary/internal/domain"
	"github.com/iconidentify/canary/internal/service"
)

// ListHandler handles account list HTTP requests.
type ListHandler struct {
	svc    *service.ListService
	logger *slog.Logger
}

// NewListHandler creates a new list handler.
func NewListHandler(svc *service.ListService, logger *slog.Logger) *ListHandler {
	return &ListHandler{
		svc:    svc,
		logger: logger,
	}
}

// CreateListRequest is the JSON request body for list creation.
type CreateListRequest struct {
	Name string `json:"name"`
}

// ListResponse represents a list in API responses.
type ListResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	UserNames []string `json:"user_names"`
	UserCount int      `json:"user_count"`
}

func toListResponse(l *domain.List) ListResponse {
	names := l.UserNames
	if names == nil {
		names = []string{}
	}
	return ListResponse{
		ID:        string(l.ID),
		Name:      l.Name,
		UserNames: names,
		UserCount: len(l.UserNames),
	}
}

// List returns all lists.
func (h *ListHandler) List(w http.ResponseWriter, r *http.Request) {
	lists, err := h.svc.GetAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list lists", "error", err)
		http.Error(w, "Failed to list lists", http.StatusInternalServerError)
		return
	}

	response := make([]ListResponse, 0, len(lists))
	for _, l := range lists {
		response = append(response, toListResponse(l))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Create creates a new list.
func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	list, err := h.svc.Create(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyListName) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if errors.Is(err, domain.ErrListLimitExceeded) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		h.logger.Error("failed to create list", "error", err)
		http.Error(w, "Failed to create list", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toListResponse(list))
}

// Get retrieves a single list.
func (h *ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing list ID", http.StatusBadRequest)
		return
	}

	list, err := h.svc.Get(r.Context(), domain.ListID(id))
	if err != nil {
		if errors.Is(err, domain.ErrListNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get list", "id", id, "error", err)
		http.Error(w, "Failed to get list", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toListResponse(list))
}

// Delete removes a list.
func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing list ID", http.StatusBadRequest)
		return
	}

	err := h.svc.Remove(r.Context(), domain.ListID(id))
	if err != nil {
		if errors.Is(err, domain.ErrListNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete list", "id", id, "error", err)
		http.Error(w, "Failed to delete list", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddUserRequest is the JSON request body for adding a username to a list.
type AddUserRequest struct {
	UserName string `json:"user_name"`
}

// AddUser appends a username to a list. Duplicates are allowed.
func (h *ListHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing list ID", http.StatusBadRequest)
		return
	}

	var req AddUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserName == "" {
		http.Error(w, "Missing user_name", http.StatusBadRequest)
		return
	}

	err := h.svc.AddUser(r.Context(), domain.ListID(id), req.UserName)
	if err != nil {
		if errors.Is(err, domain.ErrListNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to add user to list", "id", id, "user_name", req.UserName, "error", err)
		http.Error(w, "Failed to add user to list", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveUser removes the first occurrence of a username from a list.
func (h *ListHandler) RemoveUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userName := chi.URLParam(r, "userName")

	if id == "" {
		http.Error(w, "Missing list ID", http.StatusBadRequest)
		return
	}
	if userName == "" {
		http.Error(w, "Missing user name", http.StatusBadRequest)
		return
	}

	err := h.svc.RemoveUser(r.Context(), domain.ListID(id), userName)
	if err != nil {
		if errors.Is(err, domain.ErrListNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if errors.Is(err, domain.ErrUserNotInList) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to remove user from list", "id", id, "user_name", userName, "error", err)
		http.Error(w, "Failed to remove user from list", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
