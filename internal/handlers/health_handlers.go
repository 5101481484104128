package handlers

import "net/http"

// HealthInfo is reported by GET /health.
type HealthInfo struct {
	Provider       string `json:"provider"`
	Model          string `json:"model"`
	MockMode       bool   `json:"mock_mode"`
	DocsConfigured bool   `json:"docs_configured"`
	Tools          int    `json:"tools"`
}

func Health(info HealthInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": info})
	}
}
