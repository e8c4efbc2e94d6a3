package proxy

import (
	"net/http"
)

// modelInfo is one entry of the model list in Claude's format.
type modelInfo struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// modelList is the GET /v1/models response body.
type modelList struct {
	Data    []modelInfo `json:"data"`
	HasMore bool        `json:"has_more"`
	FirstID *string     `json:"first_id"`
	LastID  *string     `json:"last_id"`
}

// modelsHandler lists the configured Bedrock model ids.
// Bedrock has no per-account listing for inference profiles the bridge may use,
// so the list comes from configuration.
func modelsHandler(models []string) http.HandlerFunc {
	list := modelList{Data: make([]modelInfo, 0, len(models))}
	for _, id := range models {
		list.Data = append(list.Data, modelInfo{Type: "model", ID: id, DisplayName: id})
	}
	if len(models) > 0 {
		list.FirstID = &models[0]
		list.LastID = &models[len(models)-1]
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, list, http.StatusOK)
	}
}
