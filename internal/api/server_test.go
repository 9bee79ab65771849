package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/org/adlist/internal/storage"
	"github.com/org/adlist/pkg/models"
)

// --- In-memory storage backend for tests ---

type memStore struct {
	users       map[string]*models.User // keyed by email
	nextUserID  int64
	resets      map[string]*models.PasswordReset // keyed by token hash
	pharmacies  map[int64]*models.Pharmacy
	nextPharmID int64
	products    map[int64]*models.PharmacyProduct
	nextProdID  int64
	refs        []*models.ReferenceProduct
	updateTimes map[int64]time.Time
	units       map[string]*models.BusinessUnit
	links       map[string]*models.BusinessUnitProduct
	formularies map[string]*models.Formulary
	audit       []*models.AuditEntry
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[string]*models.User{},
		resets:      map[string]*models.PasswordReset{},
		pharmacies:  map[int64]*models.Pharmacy{},
		products:    map[int64]*models.PharmacyProduct{},
		updateTimes: map[int64]time.Time{},
		units:       map[string]*models.BusinessUnit{},
		links:       map[string]*models.BusinessUnitProduct{},
		formularies: map[string]*models.Formulary{},
	}
}

func (m *memStore) CreateUser(ctx context.Context, u *models.User) error {
	if _, ok := m.users[u.Email]; ok {
		return storage.ErrAlreadyExists
	}
	m.nextUserID++
	u.ID = m.nextUserID
	m.users[u.Email] = u
	return nil
}

func (m *memStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) GetUser(ctx context.Context, id int64, email string) (*models.User, error) {
	if u, ok := m.users[email]; ok && u.ID == id {
		return u, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) UpdateUserPassword(ctx context.Context, email, passwordHash string) error {
	u, ok := m.users[email]
	if !ok {
		return storage.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *memStore) UpsertPasswordReset(ctx context.Context, r *models.PasswordReset) error {
	for hash, pr := range m.resets {
		if pr.Email == r.Email {
			delete(m.resets, hash)
		}
	}
	m.resets[r.TokenHash] = r
	return nil
}

func (m *memStore) GetPasswordReset(ctx context.Context, tokenHash string) (*models.PasswordReset, error) {
	if r, ok := m.resets[tokenHash]; ok {
		return r, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) DeletePasswordReset(ctx context.Context, email string) error {
	for hash, pr := range m.resets {
		if pr.Email == email {
			delete(m.resets, hash)
		}
	}
	return nil
}

func (m *memStore) CreatePharmacy(ctx context.Context, ph *models.Pharmacy) error {
	for _, existing := range m.pharmacies {
		if existing.EmailAddress == ph.EmailAddress {
			return storage.ErrAlreadyExists
		}
	}
	m.nextPharmID++
	ph.ID = m.nextPharmID
	m.pharmacies[ph.ID] = ph
	return nil
}

func (m *memStore) GetPharmacy(ctx context.Context, id int64) (*models.Pharmacy, error) {
	if ph, ok := m.pharmacies[id]; ok {
		return ph, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) GetPharmacyByEmail(ctx context.Context, email string) (*models.Pharmacy, error) {
	for _, ph := range m.pharmacies {
		if ph.EmailAddress == email {
			return ph, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) ListPharmacies(ctx context.Context) ([]*models.Pharmacy, error) {
	out := make([]*models.Pharmacy, 0, len(m.pharmacies))
	for _, ph := range m.pharmacies {
		out = append(out, ph)
	}
	return out, nil
}

func (m *memStore) SearchPharmaciesByName(ctx context.Context, query string) ([]*models.Pharmacy, error) {
	var out []*models.Pharmacy
	for _, ph := range m.pharmacies {
		if strings.Contains(strings.ToLower(ph.Name), strings.ToLower(query)) {
			out = append(out, ph)
		}
	}
	return out, nil
}

func (m *memStore) CreateProduct(ctx context.Context, pr *models.PharmacyProduct) error {
	m.nextProdID++
	pr.ID = m.nextProdID
	m.products[pr.ID] = pr
	return nil
}

func (m *memStore) UpdateProduct(ctx context.Context, pr *models.PharmacyProduct) error {
	if _, ok := m.products[pr.ID]; !ok {
		return storage.ErrNotFound
	}
	m.products[pr.ID] = pr
	return nil
}

func (m *memStore) GetProduct(ctx context.Context, pharmacyID, entryID int64) (*models.PharmacyProduct, error) {
	if pr, ok := m.products[entryID]; ok && pr.PharmacyID == pharmacyID {
		return pr, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) FindProductByCode(ctx context.Context, pharmacyID int64, nafdacNumber, productCode string) (*models.PharmacyProduct, error) {
	for _, pr := range m.products {
		if pr.PharmacyID != pharmacyID {
			continue
		}
		if nafdacNumber != "" && pr.NafdacNumber == nafdacNumber {
			return pr, nil
		}
		if productCode != "" && pr.ProductCode == productCode {
			return pr, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) ListProducts(ctx context.Context, pharmacyID int64, filter storage.ProductFilter) ([]*models.PharmacyProduct, error) {
	var out []*models.PharmacyProduct
	for _, pr := range m.products {
		if pr.PharmacyID != pharmacyID {
			continue
		}
		if filter.OnlyNew && pr.ExistsInRefList {
			continue
		}
		out = append(out, pr)
	}
	return out, nil
}

func (m *memStore) DeleteProduct(ctx context.Context, pharmacyID, entryID int64) error {
	if pr, ok := m.products[entryID]; ok && pr.PharmacyID == pharmacyID {
		delete(m.products, entryID)
		return nil
	}
	return storage.ErrNotFound
}

func (m *memStore) ListReferenceProducts(ctx context.Context) ([]*models.ReferenceProduct, error) {
	return m.refs, nil
}

func (m *memStore) SearchReferenceProductsByNRN(ctx context.Context, query string) ([]*models.ReferenceProduct, error) {
	var out []*models.ReferenceProduct
	for _, ref := range m.refs {
		if strings.Contains(strings.ToLower(ref.NafdacNumber), strings.ToLower(query)) {
			out = append(out, ref)
		}
	}
	return out, nil
}

func (m *memStore) FindReferenceProduct(ctx context.Context, nafdacNumber, productCode string) (*models.ReferenceProduct, error) {
	for _, ref := range m.refs {
		if nafdacNumber != "" && ref.NafdacNumber == nafdacNumber {
			return ref, nil
		}
		if productCode != "" && ref.ProductCode == productCode {
			return ref, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) GetInventoryUpdateTime(ctx context.Context, pharmacyID int64) (time.Time, error) {
	if t, ok := m.updateTimes[pharmacyID]; ok {
		return t, nil
	}
	return time.Time{}, storage.ErrNotFound
}

func (m *memStore) UpsertInventoryUpdateTime(ctx context.Context, pharmacyID int64, updatedAt time.Time) error {
	m.updateTimes[pharmacyID] = updatedAt
	return nil
}

func (m *memStore) CreateBusinessUnit(ctx context.Context, bu *models.BusinessUnit) error {
	m.units[bu.ID] = bu
	return nil
}

func (m *memStore) GetBusinessUnit(ctx context.Context, id string) (*models.BusinessUnit, error) {
	if bu, ok := m.units[id]; ok {
		return bu, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) ListBusinessUnits(ctx context.Context) ([]*models.BusinessUnit, error) {
	out := make([]*models.BusinessUnit, 0, len(m.units))
	for _, bu := range m.units {
		out = append(out, bu)
	}
	return out, nil
}

func (m *memStore) UpdateBusinessUnit(ctx context.Context, bu *models.BusinessUnit) error {
	if _, ok := m.units[bu.ID]; !ok {
		return storage.ErrNotFound
	}
	m.units[bu.ID] = bu
	return nil
}

func (m *memStore) DeleteBusinessUnit(ctx context.Context, id string) error {
	if _, ok := m.units[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.units, id)
	return nil
}

func (m *memStore) SearchBusinessUnits(ctx context.Context, query string) ([]*models.BusinessUnit, error) {
	var out []*models.BusinessUnit
	for _, bu := range m.units {
		if strings.Contains(strings.ToLower(bu.Name), strings.ToLower(query)) {
			out = append(out, bu)
		}
	}
	return out, nil
}

func (m *memStore) UpsertBusinessUnitProduct(ctx context.Context, link *models.BusinessUnitProduct) error {
	m.links[fmt.Sprintf("%s/%d", link.BusinessUnitID, link.ProductID)] = link
	return nil
}

func (m *memStore) ListProductsByBusinessUnit(ctx context.Context, businessUnitID string) ([]*models.PharmacyProduct, error) {
	var out []*models.PharmacyProduct
	for _, link := range m.links {
		if link.BusinessUnitID != businessUnitID {
			continue
		}
		if pr, ok := m.products[link.ProductID]; ok {
			out = append(out, pr)
		}
	}
	return out, nil
}

func (m *memStore) BusinessUnitStockReport(ctx context.Context) ([]*models.BusinessUnitStockRow, error) {
	rows := map[string]*models.BusinessUnitStockRow{}
	for _, link := range m.links {
		row, ok := rows[link.BusinessUnitID]
		if !ok {
			row = &models.BusinessUnitStockRow{BusinessUnitID: link.BusinessUnitID}
			rows[link.BusinessUnitID] = row
		}
		row.ProductCount++
		row.TotalQuantity += int64(link.Quantity)
	}
	out := make([]*models.BusinessUnitStockRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}
	return out, nil
}

func (m *memStore) BusinessUnitDosageFormReport(ctx context.Context) ([]*models.DosageFormCount, error) {
	return nil, nil
}

func (m *memStore) CreateFormulary(ctx context.Context, f *models.Formulary) error {
	m.formularies[f.ID] = f
	return nil
}

func (m *memStore) GetFormulary(ctx context.Context, id string) (*models.Formulary, error) {
	if f, ok := m.formularies[id]; ok {
		return f, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) ListFormularies(ctx context.Context) ([]*models.Formulary, error) {
	out := make([]*models.Formulary, 0, len(m.formularies))
	for _, f := range m.formularies {
		out = append(out, f)
	}
	return out, nil
}

func (m *memStore) UpdateFormulary(ctx context.Context, f *models.Formulary) error {
	if _, ok := m.formularies[f.ID]; !ok {
		return storage.ErrNotFound
	}
	m.formularies[f.ID] = f
	return nil
}

func (m *memStore) DeleteFormulary(ctx context.Context, id string) error {
	if _, ok := m.formularies[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.formularies, id)
	return nil
}

func (m *memStore) WriteAuditEntry(ctx context.Context, e *models.AuditEntry) error {
	m.audit = append(m.audit, e)
	return nil
}

func (m *memStore) QueryAuditLog(ctx context.Context, filter storage.AuditFilter) ([]*models.AuditEntry, error) {
	return m.audit, nil
}

func (m *memStore) CountPharmacies(ctx context.Context) (int64, error) {
	return int64(len(m.pharmacies)), nil
}

func (m *memStore) CountProducts(ctx context.Context) (int64, error) {
	return int64(len(m.products)), nil
}

func (m *memStore) Close() {}

type discardMailer struct{}

func (discardMailer) SendPasswordResetToken(ctx context.Context, email, token string) error {
	return nil
}

// --- test helpers ---

func newTestServer() (*Server, *memStore) {
	store := newMemStore()
	srv := NewServer(store, discardMailer{}, Config{JWTSecret: "test-secret", TokenTTL: time.Hour})
	return srv, store
}

func postJSON(t *testing.T, handler http.Handler, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	data, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func getJSON(t *testing.T, handler http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v (body: %s)", err, w.Body.String())
	}
	return result
}

func registerAndLogin(t *testing.T, handler http.Handler, email, password string, role models.Role) string {
	t.Helper()
	w := postJSON(t, handler, "/v1/auth/register", map[string]any{
		"email": email, "password": password, "role": role,
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", w.Code, w.Body.String())
	}
	w2 := postJSON(t, handler, "/v1/auth/login", map[string]any{
		"email": email, "password": password,
	}, "")
	if w2.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", w2.Code, w2.Body.String())
	}
	body := decodeBody(t, w2)
	token := body["data"].(map[string]any)["access_token"].(string)
	if token == "" {
		t.Fatal("expected access_token in login response")
	}
	return token
}

// --- tests ---

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer()
	handler := srv.BuildRouter()

	w := getJSON(t, handler, "/v1/sys/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "ok" {
		t.Errorf("expected status=ok, got %v", body["status"])
	}
}

func TestAuthRequired(t *testing.T) {
	srv, _ := newTestServer()
	handler := srv.BuildRouter()

	w := getJSON(t, handler, "/v1/pharmacies", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}

	w2 := getJSON(t, handler, "/v1/pharmacies", "not-a-jwt")
	if w2.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with garbage token, got %d", w2.Code)
	}
}

func TestPharmacyCreateRequiresAdmin(t *testing.T) {
	srv, _ := newTestServer()
	handler := srv.BuildRouter()

	agentToken := registerAndLogin(t, handler, "agent@adlist.test", "pw", models.RoleAgent)
	w := postJSON(t, handler, "/v1/pharmacies", map[string]any{
		"name": "Victoria Drugs", "email_address": "victoria@adlist.test",
	}, agentToken)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for agent, got %d %s", w.Code, w.Body.String())
	}

	adminToken := registerAndLogin(t, handler, "admin@adlist.test", "pw", models.RoleAdmin)
	w2 := postJSON(t, handler, "/v1/pharmacies", map[string]any{
		"name": "Victoria Drugs", "email_address": "victoria@adlist.test",
	}, adminToken)
	if w2.Code != http.StatusCreated {
		t.Fatalf("expected 201 for admin, got %d %s", w2.Code, w2.Body.String())
	}

	// Duplicate contact email conflicts.
	w3 := postJSON(t, handler, "/v1/pharmacies", map[string]any{
		"name": "Other", "email_address": "victoria@adlist.test",
	}, adminToken)
	if w3.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", w3.Code)
	}
}

func TestInventoryStockFlow(t *testing.T) {
	srv, store := newTestServer()
	handler := srv.BuildRouter()

	adminToken := registerAndLogin(t, handler, "admin@adlist.test", "pw", models.RoleAdmin)

	w := postJSON(t, handler, "/v1/pharmacies", map[string]any{
		"name": "Victoria Drugs", "email_address": "victoria@adlist.test",
	}, adminToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("create pharmacy: %d %s", w.Code, w.Body.String())
	}

	store.refs = append(store.refs, &models.ReferenceProduct{
		NafdacNumber: "A4-100231",
		ProductName:  "Paracetamol 500mg",
		Manufacturer: "Emzor",
		DosageForm:   "tablets",
	})

	// Stock-taking against a reference-list product materializes an entry.
	w2 := postJSON(t, handler, "/v1/pharmacies/1/inventory/stock", map[string]any{
		"code": "A4-100231", "quantity": 40, "quantity_type": "packs", "selling_price": 1200.0,
	}, adminToken)
	if w2.Code != http.StatusOK {
		t.Fatalf("take stock: %d %s", w2.Code, w2.Body.String())
	}
	body := decodeBody(t, w2)
	data := body["data"].(map[string]any)
	if data["product_name"] != "Paracetamol 500mg" {
		t.Errorf("expected reference product name, got %v", data["product_name"])
	}
	if data["exists_in_reference_list"] != true {
		t.Error("materialized entry should be flagged as in the reference list")
	}

	// Stocking the same code again updates in place rather than duplicating.
	w3 := postJSON(t, handler, "/v1/pharmacies/1/inventory/stock", map[string]any{
		"code": "A4-100231", "quantity": 55,
	}, adminToken)
	if w3.Code != http.StatusOK {
		t.Fatalf("restock: %d %s", w3.Code, w3.Body.String())
	}
	if len(store.products) != 1 {
		t.Fatalf("expected 1 entry after restock, got %d", len(store.products))
	}

	// Fetch the full inventory view.
	w4 := getJSON(t, handler, "/v1/pharmacies/1/inventory", adminToken)
	if w4.Code != http.StatusOK {
		t.Fatalf("fetch: %d %s", w4.Code, w4.Body.String())
	}
	view := decodeBody(t, w4)
	entries, ok := view["data"].([]any)
	if !ok || len(entries) != 1 {
		t.Fatalf("expected 1 inventory entry, got %v", view["data"])
	}
}

func TestInventoryEmptyBucketIsMessageShaped(t *testing.T) {
	srv, _ := newTestServer()
	handler := srv.BuildRouter()

	adminToken := registerAndLogin(t, handler, "admin@adlist.test", "pw", models.RoleAdmin)
	postJSON(t, handler, "/v1/pharmacies", map[string]any{
		"name": "Victoria Drugs", "email_address": "victoria@adlist.test",
	}, adminToken)

	w := getJSON(t, handler, "/v1/pharmacies/1/inventory?time_lapse=today", adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("fetch: %d %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected message object, got %v", body["data"])
	}
	if data["message"] != "No entries for today found" {
		t.Errorf("unexpected message: %v", data["message"])
	}
}

func TestInventoryCustomWindowValidation(t *testing.T) {
	srv, _ := newTestServer()
	handler := srv.BuildRouter()

	adminToken := registerAndLogin(t, handler, "admin@adlist.test", "pw", models.RoleAdmin)
	postJSON(t, handler, "/v1/pharmacies", map[string]any{
		"name": "Victoria Drugs", "email_address": "victoria@adlist.test",
	}, adminToken)

	// Missing bounds.
	w := getJSON(t, handler, "/v1/pharmacies/1/inventory?time_lapse=custom", adminToken)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing bounds: expected 400, got %d", w.Code)
	}

	// Inverted range.
	w2 := getJSON(t, handler, "/v1/pharmacies/1/inventory?time_lapse=custom&start_date=2026-08-20&end_date=2026-08-01", adminToken)
	if w2.Code != http.StatusBadRequest {
		t.Errorf("inverted range: expected 400, got %d", w2.Code)
	}
}

func TestPharmacistScopedToOwnPharmacy(t *testing.T) {
	srv, _ := newTestServer()
	handler := srv.BuildRouter()

	adminToken := registerAndLogin(t, handler, "admin@adlist.test", "pw", models.RoleAdmin)
	postJSON(t, handler, "/v1/pharmacies", map[string]any{
		"name": "Victoria Drugs", "email_address": "x@y.com",
	}, adminToken)
	postJSON(t, handler, "/v1/pharmacies", map[string]any{
		"name": "Crest Pharmacy", "email_address": "z@y.com",
	}, adminToken)

	pharmacistToken := registerAndLogin(t, handler, "x@y.com", "pw", models.RolePharmacist)

	// Own pharmacy is readable.
	w := getJSON(t, handler, "/v1/pharmacies/1/inventory", pharmacistToken)
	if w.Code != http.StatusOK {
		t.Fatalf("own inventory: %d %s", w.Code, w.Body.String())
	}

	// Someone else's pharmacy is not.
	w2 := getJSON(t, handler, "/v1/pharmacies/2/inventory", pharmacistToken)
	if w2.Code != http.StatusForbidden {
		t.Fatalf("foreign inventory: expected 403, got %d", w2.Code)
	}

	// Pharmacists cannot enumerate pharmacies.
	w3 := getJSON(t, handler, "/v1/pharmacies", pharmacistToken)
	if w3.Code != http.StatusForbidden {
		t.Fatalf("pharmacy list: expected 403, got %d", w3.Code)
	}

	// Pharmacists cannot delete entries.
	req := httptest.NewRequest("DELETE", "/v1/pharmacies/1/inventory/1", nil)
	req.Header.Set("Authorization", "Bearer "+pharmacistToken)
	w4 := httptest.NewRecorder()
	handler.ServeHTTP(w4, req)
	if w4.Code != http.StatusForbidden {
		t.Fatalf("delete entry: expected 403, got %d", w4.Code)
	}
}

func TestBusinessUnitAndFormularyFlow(t *testing.T) {
	srv, _ := newTestServer()
	handler := srv.BuildRouter()

	adminToken := registerAndLogin(t, handler, "admin@adlist.test", "pw", models.RoleAdmin)

	w := postJSON(t, handler, "/v1/business-units", map[string]any{
		"name": "Dispensary", "location": "Block A",
	}, adminToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("create unit: %d %s", w.Code, w.Body.String())
	}
	unitID := decodeBody(t, w)["data"].(map[string]any)["bu_id"].(string)

	w2 := postJSON(t, handler, "/v1/formularies", map[string]any{
		"name": "Essential Drugs", "business_unit_id": unitID,
	}, adminToken)
	if w2.Code != http.StatusCreated {
		t.Fatalf("create formulary: %d %s", w2.Code, w2.Body.String())
	}

	// CSV import.
	csvBody := "name,description\nAntibiotics,First line\n"
	req := httptest.NewRequest("POST", "/v1/formularies/import?business_unit_id="+unitID, strings.NewReader(csvBody))
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w3 := httptest.NewRecorder()
	handler.ServeHTTP(w3, req)
	if w3.Code != http.StatusCreated {
		t.Fatalf("import: %d %s", w3.Code, w3.Body.String())
	}

	w4 := getJSON(t, handler, "/v1/formularies", adminToken)
	body := decodeBody(t, w4)
	if got := len(body["data"].([]any)); got != 2 {
		t.Fatalf("expected 2 formularies, got %d", got)
	}
}

func TestSearchReferenceGuard(t *testing.T) {
	srv, store := newTestServer()
	handler := srv.BuildRouter()
	store.refs = append(store.refs, &models.ReferenceProduct{NafdacNumber: "A4-100231"})

	token := registerAndLogin(t, handler, "admin@adlist.test", "pw", models.RoleAdmin)

	w := getJSON(t, handler, "/v1/search/reference-list?query=A4", token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("short query: expected 400, got %d", w.Code)
	}
	body := decodeBody(t, w)
	errs := body["errors"].([]any)
	if !strings.Contains(errs[0].(string), "So many results") {
		t.Errorf("unexpected error message: %v", errs[0])
	}

	w2 := getJSON(t, handler, "/v1/search/reference-list?query=1002", token)
	if w2.Code != http.StatusOK {
		t.Fatalf("search: %d %s", w2.Code, w2.Body.String())
	}
}

func TestAuditLogRecordsRequests(t *testing.T) {
	srv, store := newTestServer()
	handler := srv.BuildRouter()

	token := registerAndLogin(t, handler, "admin@adlist.test", "pw", models.RoleAdmin)
	getJSON(t, handler, "/v1/pharmacies", token)

	if len(store.audit) == 0 {
		t.Fatal("expected audit entries")
	}

	// Authenticated requests carry the caller, public ones do not.
	var listEntry, loginEntry *models.AuditEntry
	for _, e := range store.audit {
		switch e.Path {
		case "/v1/pharmacies":
			listEntry = e
		case "/v1/auth/login":
			loginEntry = e
		}
	}
	if listEntry == nil || loginEntry == nil {
		t.Fatalf("missing audit entries: %+v", store.audit)
	}
	if listEntry.UserEmail != "admin@adlist.test" {
		t.Errorf("authenticated entry user: got %q, want admin email", listEntry.UserEmail)
	}
	if loginEntry.UserEmail != "" {
		t.Errorf("public entry user: got %q, want empty", loginEntry.UserEmail)
	}

	w := getJSON(t, handler, "/v1/sys/audit-log", token)
	if w.Code != http.StatusOK {
		t.Fatalf("audit log: %d %s", w.Code, w.Body.String())
	}
}
