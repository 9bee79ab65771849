package api

import "net/http"

// SearchPharmaciesHandler handles GET /v1/search/pharmacies?query=
func (s *Server) SearchPharmaciesHandler(w http.ResponseWriter, r *http.Request) {
	pharmacies, err := s.search.Pharmacies(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": pharmacies})
}

// SearchReferenceHandler handles GET /v1/search/reference-list?query=
func (s *Server) SearchReferenceHandler(w http.ResponseWriter, r *http.Request) {
	products, err := s.search.ReferenceByNRN(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": products})
}
