package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iconidentify/canary/internal/domain"
	"github.com/iconidentify/canary/internal/feed"
	"github.com/iconidentify/canary/internal/service"
)

// FeedHandler manages paginated feed sessions. Each session wraps one
// engine instance; the UI creates a session per screen and tears it
// down when the screen closes.
type FeedHandler struct {
	client feed.Client
	prefs  *service.Preferences
	lists  *service.ListService
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*feedSession
}

type feedSession struct {
	id     string
	kind   string
	engine *feed.Engine[feed.Card]
}

// NewFeedHandler creates a new feed handler.
func NewFeedHandler(client feed.Client, prefs *service.Preferences, lists *service.ListService, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{
		client:   client,
		prefs:    prefs,
		lists:    lists,
		logger:   logger,
		sessions: make(map[string]*feedSession),
	}
}

// CreateFeedRequest is the JSON request body for feed session creation.
type CreateFeedRequest struct {
	Type string `json:"type"` // timeline | search | list | thread

	// Search sessions.
	Query     string `json:"query,omitempty"`
	SortOrder string `json:"sort_order,omitempty"`

	// List sessions.
	ListID string `json:"list_id,omitempty"`

	// Thread sessions.
	ConversationID string `json:"conversation_id,omitempty"`
}

// FeedStateResponse is the JSON view of a feed session.
type FeedStateResponse struct {
	ID      string      `json:"id"`
	Type    string      `json:"type"`
	Items   []feed.Card `json:"items"`
	HasMore bool        `json:"has_more"`
	Loading bool        `json:"loading"`
	Error   string      `json:"error,omitempty"`
}

func (h *FeedHandler) stateResponse(s *feedSession) FeedStateResponse {
	items := s.engine.Items()
	if items == nil {
		items = []feed.Card{}
	}
	resp := FeedStateResponse{
		ID:      s.id,
		Type:    s.kind,
		Items:   items,
		HasMore: s.engine.HasMore(),
		Loading: s.engine.Loading(),
	}
	if err := s.engine.LastErr(); err != nil {
		resp.Error = err.Error()
	}
	return resp
}

// Create opens a new feed session and loads its first page.
func (h *FeedHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateFeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var src feed.Source[feed.Card]
	switch req.Type {
	case "timeline":
		src = feed.NewTimelineSource(h.client, h.prefs)
	case "search":
		if req.Query == "" {
			http.Error(w, "Missing query", http.StatusBadRequest)
			return
		}
		src = feed.NewSearchSource(h.client, req.Query, req.SortOrder)
	case "list":
		if req.ListID == "" {
			http.Error(w, "Missing list_id", http.StatusBadRequest)
			return
		}
		list, err := h.lists.Get(r.Context(), domain.ListID(req.ListID))
		if err != nil {
			if errors.Is(err, domain.ErrListNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			h.logger.Error("failed to resolve list for feed", "list_id", req.ListID, "error", err)
			http.Error(w, "Failed to open list feed", http.StatusInternalServerError)
			return
		}
		src = feed.NewListSource(h.client, list.UserNames)
	case "thread":
		if req.ConversationID == "" {
			http.Error(w, "Missing conversation_id", http.StatusBadRequest)
			return
		}
		src = feed.NewThreadSource(h.client, req.ConversationID)
	default:
		http.Error(w, "Unknown feed type", http.StatusBadRequest)
		return
	}

	session := &feedSession{
		id:     uuid.NewString(),
		kind:   req.Type,
		engine: feed.NewEngine(src, h.logger),
	}

	// First page failures are reported through the session state rather
	// than failing the create: the UI shows the retry affordance.
	if err := session.engine.LoadMore(r.Context()); err != nil {
		h.logger.Warn("feed session first load failed", "type", req.Type, "error", err)
	}

	h.mu.Lock()
	h.sessions[session.id] = session
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(h.stateResponse(session))
}

func (h *FeedHandler) session(id string) (*feedSession, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[id]
	return s, ok
}

// Get returns the current state of a feed session.
func (h *FeedHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, ok := h.session(id)
	if !ok {
		http.Error(w, "Unknown feed session", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.stateResponse(s))
}

// LoadMore fetches the next page of a feed session.
func (h *FeedHandler) LoadMore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, ok := h.session(id)
	if !ok {
		http.Error(w, "Unknown feed session", http.StatusNotFound)
		return
	}

	if err := s.engine.LoadMore(r.Context()); err != nil {
		if errors.Is(err, domain.ErrFetchInFlight) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		if errors.Is(err, domain.ErrNetworkFailed) {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		h.logger.Error("feed load-more failed", "id", id, "error", err)
		http.Error(w, "Failed to load feed page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.stateResponse(s))
}

// Refresh re-fetches a feed session from the top. The existing items
// stay visible until the new first page arrives.
func (h *FeedHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, ok := h.session(id)
	if !ok {
		http.Error(w, "Unknown feed session", http.StatusNotFound)
		return
	}

	if err := s.engine.Refresh(r.Context()); err != nil {
		if errors.Is(err, domain.ErrFetchInFlight) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		if errors.Is(err, domain.ErrNetworkFailed) {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		h.logger.Error("feed refresh failed", "id", id, "error", err)
		http.Error(w, "Failed to refresh feed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.stateResponse(s))
}

// Delete tears down a feed session.
func (h *FeedHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	h.mu.Lock()
	_, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if !ok {
		http.Error(w, "Unknown feed session", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
