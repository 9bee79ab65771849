package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/org/adlist/internal/pharmacy"
)

func pharmacyIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "pharmacyID"), 10, 64)
	return id, err == nil
}

// PharmacyCreateHandler handles POST /v1/pharmacies
func (s *Server) PharmacyCreateHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromCtx(r.Context())

	var req struct {
		Name         string `json:"name"`
		PhoneNumber  string `json:"phone_number"`
		EmailAddress string `json:"email_address"`
		Location     string `json:"location"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.pharmacies.Create(r.Context(), user, pharmacy.CreateInput{
		Name:         req.Name,
		PhoneNumber:  req.PhoneNumber,
		EmailAddress: req.EmailAddress,
		Location:     req.Location,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": created})
}

// PharmacyListHandler handles GET /v1/pharmacies
func (s *Server) PharmacyListHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromCtx(r.Context())

	pharmacies, err := s.pharmacies.List(r.Context(), user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": pharmacies})
}

// PharmacyGetHandler handles GET /v1/pharmacies/{pharmacyID}
func (s *Server) PharmacyGetHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromCtx(r.Context())

	id, ok := pharmacyIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid pharmacy id")
		return
	}

	p, err := s.pharmacies.Get(r.Context(), user, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": p})
}

// PharmacyAssignedHandler handles GET /v1/pharmacies/assigned. It returns
// the pharmacy whose contact email matches the caller.
func (s *Server) PharmacyAssignedHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromCtx(r.Context())

	p, err := s.pharmacies.GetAssigned(r.Context(), user.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": p})
}
