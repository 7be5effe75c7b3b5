package handler

import (
	"net/http"

	"github.com/dgraph-io/badger/v4"

	natsclient "github.com/adoptmatch/chat-service/internal/nats"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db         *badger.DB
	natsClient *natsclient.Client
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *badger.DB, natsClient *natsclient.Client) *HealthHandler {
	return &HealthHandler{
		db:         db,
		natsClient: natsClient,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready. Ready means both backends answer: the store
// serves a read and the NATS connection is up.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.db == nil || h.db.IsClosed() || h.storeUnavailable() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "store unavailable",
		})
		return
	}

	if h.natsClient == nil || !h.natsClient.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "NATS not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// storeUnavailable issues a cheap read of a key that is allowed to be
// absent; only a failing read counts against readiness.
func (h *HealthHandler) storeUnavailable() bool {
	err := h.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte("health:check"))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
	return err != nil
}
