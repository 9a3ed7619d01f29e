package web

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/extract-chat/internal/extract"
	"github.com/sells-group/extract-chat/internal/model"
)

type apiExtractRequest struct {
	URL    string              `json:"url"`
	Prompt string              `json:"prompt"`
	Fields []model.SchemaField `json:"fields,omitempty"`
}

type apiExtractResponse struct {
	Kind       extract.Kind    `json:"kind"`
	Table      *model.Table    `json:"table,omitempty"`
	Text       string          `json:"text,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	DurationMs int64           `json:"duration_ms"`
}

type apiError struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// handleAPIExtract runs a stateless extraction. Rejected inputs are 400s,
// unusable schema rows 422s and service failures 502s.
func (s *Server) handleAPIExtract(w http.ResponseWriter, r *http.Request) {
	var req apiExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid JSON body"})
		return
	}

	out, err := s.extractor.Submit(r.Context(), req.URL, req.Prompt, req.Fields)
	if err != nil {
		switch {
		case extract.IsValidation(err):
			writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		case extract.IsRemote(err):
			writeJSON(w, http.StatusBadGateway, apiError{Error: err.Error(), Detail: extract.Detail(err)})
		default:
			writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusOK, apiExtractResponse{
		Kind:       out.Result.Kind,
		Table:      out.Result.Table,
		Text:       out.Result.Text,
		Payload:    out.Payload,
		DurationMs: out.Duration.Milliseconds(),
	})
}

func (s *Server) handleAPISession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).Snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.store.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write json response", zap.Error(err))
	}
}
