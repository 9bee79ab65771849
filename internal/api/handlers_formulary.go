package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/org/adlist/internal/formulary"
)

// FormularyCreateHandler handles POST /v1/formularies
func (s *Server) FormularyCreateHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromCtx(r.Context())

	var req struct {
		Name           string `json:"name"`
		Description    string `json:"description"`
		BusinessUnitID string `json:"business_unit_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f, err := s.forms.Create(r.Context(), req.Name, req.Description, req.BusinessUnitID, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": f})
}

// FormularyListHandler handles GET /v1/formularies
func (s *Server) FormularyListHandler(w http.ResponseWriter, r *http.Request) {
	formularies, err := s.forms.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": formularies})
}

// FormularyGetHandler handles GET /v1/formularies/{formularyID}
func (s *Server) FormularyGetHandler(w http.ResponseWriter, r *http.Request) {
	f, err := s.forms.Get(r.Context(), chi.URLParam(r, "formularyID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": f})
}

// FormularyUpdateHandler handles PATCH /v1/formularies/{formularyID}
func (s *Server) FormularyUpdateHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f, err := s.forms.Update(r.Context(), chi.URLParam(r, "formularyID"), formulary.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": f})
}

// FormularyDeleteHandler handles DELETE /v1/formularies/{formularyID}
func (s *Server) FormularyDeleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.forms.Delete(r.Context(), chi.URLParam(r, "formularyID")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FormularyImportHandler handles POST /v1/formularies/import. The CSV body
// is uploaded raw; the business unit comes from the business_unit_id query
// parameter.
func (s *Server) FormularyImportHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromCtx(r.Context())

	unitID := strings.TrimSpace(r.URL.Query().Get("business_unit_id"))
	if unitID == "" {
		writeError(w, http.StatusBadRequest, "business_unit_id is required")
		return
	}

	created, err := s.forms.ImportCSV(r.Context(), unitID, user.ID, r.Body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": created})
}
