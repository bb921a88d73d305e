package gateway

import (
	"net/http"

	"github.com/mcdev12/oscarnight/go/internal/collections"
)

// SnapshotHandler serves the current collections to clients loading a page.
// Reads go through the store's lock and never wait on the engine.
type SnapshotHandler struct {
	store       *collections.Store
	networkURLs []string
}

// NewSnapshotHandler creates the read endpoint handler
func NewSnapshotHandler(store *collections.Store, networkURLs []string) *SnapshotHandler {
	return &SnapshotHandler{store: store, networkURLs: networkURLs}
}

func (h *SnapshotHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.Categories())
}

func (h *SnapshotHandler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.Users())
}

func (h *SnapshotHandler) HandleBuzzes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.Buzzes())
}

func (h *SnapshotHandler) HandleTrivia(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.Trivia())
}

func (h *SnapshotHandler) HandleNetworkURLs(w http.ResponseWriter, r *http.Request) {
	urls := h.networkURLs
	if urls == nil {
		urls = []string{}
	}
	writeJSON(w, urls)
}

// RegisterRoutes registers the read endpoints with an HTTP mux
func (h *SnapshotHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /config/categories.json", h.HandleCategories)
	mux.HandleFunc("GET /config/users.json", h.HandleUsers)
	mux.HandleFunc("GET /config/buzzes.json", h.HandleBuzzes)
	mux.HandleFunc("GET /config/triviaQuestions.json", h.HandleTrivia)
	mux.HandleFunc("GET /networkURLs.json", h.HandleNetworkURLs)
}
