package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func Test_Ready_Reports_Backend_State(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)

	h := NewHealthHandler(db, nil)

	// Store answers but NATS is down.
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	req.Equal(http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	req.NoError(json.NewDecoder(rec.Body).Decode(&body))
	req.Equal("NATS not connected", body["reason"])

	// Store gone: readiness must say so before looking at NATS.
	req.NoError(db.Close())
	rec = httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	req.Equal(http.StatusServiceUnavailable, rec.Code)

	req.NoError(json.NewDecoder(rec.Body).Decode(&body))
	req.Equal("store unavailable", body["reason"])
}

func Test_Health_Always_Healthy(t *testing.T) {
	req := require.New(t)
	h := NewHealthHandler(nil, nil)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	req.Equal(http.StatusOK, rec.Code)
}
