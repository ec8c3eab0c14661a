package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hybridqa/hybridqa/internal/activity"
)

type summaryMetric struct {
	Title  string `json:"title"`
	Value  string `json:"value"`
	Change string `json:"change"`
	Trend  string `json:"trend"`
}

type dashboardResponse struct {
	SummaryMetrics []summaryMetric  `json:"summary_metrics"`
	RecentActivity []activity.Entry `json:"recent_activity"`
}

func handleDashboard(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	cachedQueries := 0
	connected := "0"
	averageSeconds := 0.0
	if deps.Router != nil {
		stats := deps.Router.Stats()
		cachedQueries = stats.CachedQueries
		averageSeconds = stats.AverageResponseSeconds
		if deps.Router.CurrentSchema() != nil {
			connected = "1"
		}
	}

	documents := 0
	if deps.Documents != nil {
		size, err := deps.Documents.Size(r.Context())
		if err != nil {
			if deps.Logger != nil {
				deps.Logger.WarnContext(r.Context(), "document_count_failed", slog.Any("error", err))
			}
		} else {
			documents = size
		}
	}

	recent := []activity.Entry{}
	if deps.Activity != nil {
		recent = deps.Activity.Recent()
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		SummaryMetrics: []summaryMetric{
			{Title: "Total Queries", Value: strconv.Itoa(cachedQueries), Change: "+5%", Trend: "up"},
			{Title: "Documents Processed", Value: strconv.Itoa(documents), Change: "+10%", Trend: "up"},
			{Title: "Databases Connected", Value: connected, Change: "0%", Trend: "neutral"},
			{Title: "Avg Query Time", Value: fmt.Sprintf("%.2fs", averageSeconds), Change: "-10%", Trend: "down"},
		},
		RecentActivity: recent,
	})
}
