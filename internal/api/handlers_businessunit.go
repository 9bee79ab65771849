package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/org/adlist/internal/businessunit"
)

// BusinessUnitCreateHandler handles POST /v1/business-units
func (s *Server) BusinessUnitCreateHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Location string `json:"location"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	unit, err := s.units.Create(r.Context(), req.Name, req.Location)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": unit})
}

// BusinessUnitListHandler handles GET /v1/business-units
func (s *Server) BusinessUnitListHandler(w http.ResponseWriter, r *http.Request) {
	units, err := s.units.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": units})
}

// BusinessUnitSearchHandler handles GET /v1/business-units/search?query=
func (s *Server) BusinessUnitSearchHandler(w http.ResponseWriter, r *http.Request) {
	units, err := s.units.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": units})
}

// BusinessUnitGetHandler handles GET /v1/business-units/{unitID}
func (s *Server) BusinessUnitGetHandler(w http.ResponseWriter, r *http.Request) {
	unit, err := s.units.Get(r.Context(), chi.URLParam(r, "unitID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": unit})
}

// BusinessUnitUpdateHandler handles PATCH /v1/business-units/{unitID}
func (s *Server) BusinessUnitUpdateHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     *string `json:"name"`
		Location *string `json:"location"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	unit, err := s.units.Update(r.Context(), chi.URLParam(r, "unitID"), businessunit.UpdateInput{
		Name:     req.Name,
		Location: req.Location,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": unit})
}

// BusinessUnitDeleteHandler handles DELETE /v1/business-units/{unitID}
func (s *Server) BusinessUnitDeleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.units.Delete(r.Context(), chi.URLParam(r, "unitID")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BusinessUnitAssignProductHandler handles POST /v1/business-units/{unitID}/products
func (s *Server) BusinessUnitAssignProductHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.units.AssignProduct(r.Context(), chi.URLParam(r, "unitID"), req.ProductID, req.Quantity); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"assigned": true}})
}

// BusinessUnitProductsHandler handles GET /v1/business-units/{unitID}/products
func (s *Server) BusinessUnitProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := s.units.Products(r.Context(), chi.URLParam(r, "unitID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": products})
}

// StockReportHandler handles GET /v1/reports/business-units/stock
func (s *Server) StockReportHandler(w http.ResponseWriter, r *http.Request) {
	rows, err := s.units.StockReport(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rows})
}

// DosageFormReportHandler handles GET /v1/reports/business-units/dosage-forms
func (s *Server) DosageFormReportHandler(w http.ResponseWriter, r *http.Request) {
	rows, err := s.units.DosageFormReport(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rows})
}
