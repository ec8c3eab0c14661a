package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hybridqa/hybridqa/internal/activity"
	"github.com/hybridqa/hybridqa/internal/router"
)

type connectRequest struct {
	ConnectionString string `json:"connection_string"`
}

func handleConnect(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Router == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ROUTER_NOT_CONFIGURED", "query router is not configured", false, nil)
		return
	}

	var request connectRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil && !errors.Is(err, io.EOF) {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid connect request body", false, map[string]any{"details": err.Error()})
		return
	}

	model, err := deps.Router.Connect(r.Context(), request.ConnectionString)
	if err != nil {
		if errors.Is(err, router.ErrNoConnection) {
			writeError(r.Context(), w, http.StatusBadRequest, "CONNECTION_REQUIRED", "connection_string is required when no database is configured", false, nil)
			return
		}
		recordActivity(deps, activity.TypeConnection, "Failed to connect to database.", activity.StatusError)
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_DISCOVERY_FAILED", err.Error(), true, nil)
		return
	}

	recordActivity(deps, activity.TypeConnection, fmt.Sprintf("Connected to database and discovered %d tables.", len(model.Tables)), activity.StatusSuccess)
	writeJSON(w, http.StatusOK, model)
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Router == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ROUTER_NOT_CONFIGURED", "query router is not configured", false, nil)
		return
	}
	model := deps.Router.CurrentSchema()
	if model == nil {
		writeError(r.Context(), w, http.StatusNotFound, "SCHEMA_NOT_FOUND", "No schema has been discovered yet.", false, nil)
		return
	}
	writeJSON(w, http.StatusOK, model)
}
