package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hybridqa/hybridqa/internal/activity"
	"github.com/hybridqa/hybridqa/internal/router"
)

type queryRequest struct {
	Query string `json:"query"`
}

func handleQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Router == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ROUTER_NOT_CONFIGURED", "query router is not configured", false, nil)
		return
	}

	var request queryRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid query request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Query) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_REQUIRED", "query is required", false, nil)
		return
	}

	record, err := deps.Router.Process(r.Context(), request.Query)
	if err != nil {
		var discoveryErr *router.DiscoveryError
		switch {
		case errors.Is(err, router.ErrNoConnection):
			writeError(r.Context(), w, http.StatusBadRequest, "CONNECTION_REQUIRED", "a database connection must be configured before querying", false, nil)
		case errors.Is(err, router.ErrEmptyQuestion):
			writeError(r.Context(), w, http.StatusBadRequest, "QUERY_REQUIRED", "query is required", false, nil)
		case errors.As(err, &discoveryErr):
			recordActivity(deps, activity.TypeQuery, fmt.Sprintf("Failed query: '%s'", request.Query), activity.StatusError)
			writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_DISCOVERY_FAILED", err.Error(), true, nil)
		default:
			recordActivity(deps, activity.TypeQuery, fmt.Sprintf("Failed query: '%s'", request.Query), activity.StatusError)
			writeError(r.Context(), w, http.StatusInternalServerError, "QUERY_FAILED", err.Error(), false, nil)
		}
		return
	}

	recordActivity(deps, activity.TypeQuery, fmt.Sprintf("Executed %s query: '%s'", record.QueryType, request.Query), activity.StatusSuccess)
	writeJSON(w, http.StatusOK, record)
}
