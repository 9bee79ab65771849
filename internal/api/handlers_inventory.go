package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/org/adlist/internal/inventory"
	"github.com/org/adlist/pkg/models"
)

// InventoryFetchHandler handles GET /v1/pharmacies/{pharmacyID}/inventory.
// Query parameters: time_lapse, start_date, end_date (YYYY-MM-DD, custom
// window only), only_new, query.
func (s *Server) InventoryFetchHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromCtx(r.Context())

	id, ok := pharmacyIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid pharmacy id")
		return
	}

	q := r.URL.Query()
	window := inventory.Window{Lapse: inventory.Lapse(q.Get("time_lapse"))}
	if window.Lapse == inventory.LapseCustom {
		if v := q.Get("start_date"); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid start_date")
				return
			}
			window.Start = t
		}
		if v := q.Get("end_date"); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid end_date")
				return
			}
			// End of day so the bound is inclusive of same-day entries.
			window.End = t.Add(24*time.Hour - time.Nanosecond)
		}
	}

	onlyNew := q.Get("only_new") == "true"

	view, err := s.inventory.Fetch(r.Context(), id, user, window, onlyNew, q.Get("query"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// TakeStockHandler handles POST /v1/pharmacies/{pharmacyID}/inventory/stock
func (s *Server) TakeStockHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromCtx(r.Context())

	id, ok := pharmacyIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid pharmacy id")
		return
	}

	var req struct {
		Code         string              `json:"code"`
		Quantity     int                 `json:"quantity"`
		QuantityType models.QuantityType `json:"quantity_type"`
		SellingPrice float64             `json:"selling_price"`
		CostPrice    float64             `json:"cost_price"`
		ExpiryDate   *time.Time          `json:"expiry_date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	product, err := s.inventory.TakeStock(r.Context(), user, id, req.Code, inventory.StockInput{
		Quantity:     req.Quantity,
		QuantityType: req.QuantityType,
		SellingPrice: req.SellingPrice,
		CostPrice:    req.CostPrice,
		ExpiryDate:   req.ExpiryDate,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": product})
}

// RegisterProductHandler handles POST /v1/pharmacies/{pharmacyID}/inventory/new-products
func (s *Server) RegisterProductHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromCtx(r.Context())

	id, ok := pharmacyIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid pharmacy id")
		return
	}

	var req struct {
		ProductName  string            `json:"product_name"`
		Manufacturer string            `json:"manufacturer"`
		Strength     string            `json:"strength"`
		Unit         string            `json:"unit"`
		DosageForm   models.DosageForm `json:"dosage_form"`
		DrugName     string            `json:"drug_name"`
		NafdacNumber string            `json:"nafdac_number"`
		ProductCode  string            `json:"product_code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := s.inventory.RegisterNewProduct(r.Context(), user, id, inventory.RegisterProductInput{
		ProductName:  req.ProductName,
		Manufacturer: req.Manufacturer,
		Strength:     req.Strength,
		Unit:         req.Unit,
		DosageForm:   req.DosageForm,
		DrugName:     req.DrugName,
		NafdacNumber: req.NafdacNumber,
		ProductCode:  req.ProductCode,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": product})
}

// EditProductHandler handles PATCH /v1/pharmacies/{pharmacyID}/inventory/new-products/{entryID}
func (s *Server) EditProductHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromCtx(r.Context())

	id, ok := pharmacyIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid pharmacy id")
		return
	}
	entryID, err := strconv.ParseInt(chi.URLParam(r, "entryID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	var req struct {
		NafdacNumber *string            `json:"nafdac_number"`
		ProductCode  *string            `json:"product_code"`
		ProductName  *string            `json:"product_name"`
		Manufacturer *string            `json:"manufacturer"`
		DosageForm   *models.DosageForm `json:"dosage_form"`
		Strength     *string            `json:"strength"`
		Unit         *string            `json:"unit"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := s.inventory.EditNewProduct(r.Context(), user, id, entryID, inventory.EditProductInput{
		NafdacNumber: req.NafdacNumber,
		ProductCode:  req.ProductCode,
		ProductName:  req.ProductName,
		Manufacturer: req.Manufacturer,
		DosageForm:   req.DosageForm,
		Strength:     req.Strength,
		Unit:         req.Unit,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": product})
}

// DeleteEntryHandler handles DELETE /v1/pharmacies/{pharmacyID}/inventory/{entryID}
func (s *Server) DeleteEntryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pharmacyIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid pharmacy id")
		return
	}
	entryID, err := strconv.ParseInt(chi.URLParam(r, "entryID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	if err := s.inventory.DeleteEntry(r.Context(), id, entryID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckReferenceHandler handles GET /v1/pharmacies/{pharmacyID}/inventory/check/{code}
func (s *Server) CheckReferenceHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pharmacyIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid pharmacy id")
		return
	}

	exists, err := s.inventory.CheckInReferenceList(r.Context(), id, chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"exists": exists}})
}

// ReferenceListHandler handles GET /v1/reference-list
func (s *Server) ReferenceListHandler(w http.ResponseWriter, r *http.Request) {
	products, err := s.references.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": products})
}
