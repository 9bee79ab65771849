package businessunit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/org/adlist/internal/inventory"
	"github.com/org/adlist/internal/storage"
	"github.com/org/adlist/pkg/models"
)

type memUnitStore struct {
	units    map[string]*models.BusinessUnit
	links    map[string]*models.BusinessUnitProduct // keyed by unitID/productID
	products map[int64]*models.PharmacyProduct
}

func newMemUnitStore() *memUnitStore {
	return &memUnitStore{
		units:    make(map[string]*models.BusinessUnit),
		links:    make(map[string]*models.BusinessUnitProduct),
		products: make(map[int64]*models.PharmacyProduct),
	}
}

func linkKey(unitID string, productID int64) string {
	return fmt.Sprintf("%s/%d", unitID, productID)
}

func (m *memUnitStore) CreateBusinessUnit(_ context.Context, unit *models.BusinessUnit) error {
	m.units[unit.ID] = unit
	return nil
}

func (m *memUnitStore) GetBusinessUnit(_ context.Context, id string) (*models.BusinessUnit, error) {
	u, ok := m.units[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return u, nil
}

func (m *memUnitStore) ListBusinessUnits(_ context.Context) ([]*models.BusinessUnit, error) {
	out := make([]*models.BusinessUnit, 0, len(m.units))
	for _, u := range m.units {
		out = append(out, u)
	}
	return out, nil
}

func (m *memUnitStore) SearchBusinessUnits(_ context.Context, query string) ([]*models.BusinessUnit, error) {
	var out []*models.BusinessUnit
	for _, u := range m.units {
		if strings.Contains(strings.ToLower(u.Name), strings.ToLower(query)) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUnitStore) UpdateBusinessUnit(_ context.Context, unit *models.BusinessUnit) error {
	if _, ok := m.units[unit.ID]; !ok {
		return storage.ErrNotFound
	}
	m.units[unit.ID] = unit
	return nil
}

func (m *memUnitStore) DeleteBusinessUnit(_ context.Context, id string) error {
	if _, ok := m.units[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.units, id)
	return nil
}

func (m *memUnitStore) UpsertBusinessUnitProduct(_ context.Context, link *models.BusinessUnitProduct) error {
	m.links[linkKey(link.BusinessUnitID, link.ProductID)] = link
	return nil
}

func (m *memUnitStore) ListProductsByBusinessUnit(_ context.Context, businessUnitID string) ([]*models.PharmacyProduct, error) {
	var out []*models.PharmacyProduct
	for _, link := range m.links {
		if link.BusinessUnitID != businessUnitID {
			continue
		}
		if p, ok := m.products[link.ProductID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memUnitStore) BusinessUnitStockReport(_ context.Context) ([]*models.BusinessUnitStockRow, error) {
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

func (m *memUnitStore) BusinessUnitDosageFormReport(_ context.Context) ([]*models.DosageFormCount, error) {
	type key struct {
		unit string
		form models.DosageForm
	}
	counts := map[key]int64{}
	for _, link := range m.links {
		if p, ok := m.products[link.ProductID]; ok {
			counts[key{link.BusinessUnitID, p.DosageForm}]++
		}
	}
	var out []*models.DosageFormCount
	for k, n := range counts {
		out = append(out, &models.DosageFormCount{BusinessUnitID: k.unit, DosageForm: k.form, ProductCount: n})
	}
	return out, nil
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newMemUnitStore())
	if _, err := svc.Create(context.Background(), "", "Lagos"); !errors.Is(err, inventory.ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
}

func TestCreateUpdateDelete(t *testing.T) {
	svc := NewService(newMemUnitStore())
	ctx := context.Background()

	unit, err := svc.Create(ctx, "Dispensary", "Block A")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if unit.ID == "" {
		t.Fatal("expected a generated id")
	}

	name := "Main Dispensary"
	updated, err := svc.Update(ctx, unit.ID, UpdateInput{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Main Dispensary" || updated.Location != "Block A" {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if err := svc.Delete(ctx, unit.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, unit.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("after delete: got %v, want ErrNotFound", err)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	svc := NewService(newMemUnitStore())
	if _, err := svc.Search(context.Background(), ""); !errors.Is(err, inventory.ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
}

func TestAssignProductAndReports(t *testing.T) {
	store := newMemUnitStore()
	svc := NewService(store)
	ctx := context.Background()

	unit, err := svc.Create(ctx, "Ward Pharmacy", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	store.products[1] = &models.PharmacyProduct{ID: 1, DosageForm: models.DosageTablets}

	if err := svc.AssignProduct(ctx, unit.ID, 1, -2); !errors.Is(err, inventory.ErrInvalidArgument) {
		t.Fatalf("negative quantity: got %v, want ErrInvalidArgument", err)
	}
	if err := svc.AssignProduct(ctx, unit.ID, 1, 40); err != nil {
		t.Fatalf("assign: %v", err)
	}
	// Re-assigning replaces the stored quantity.
	if err := svc.AssignProduct(ctx, unit.ID, 1, 25); err != nil {
		t.Fatalf("reassign: %v", err)
	}

	products, err := svc.Products(ctx, unit.ID)
	if err != nil {
		t.Fatalf("products: %v", err)
	}
	if len(products) != 1 || products[0].ID != 1 {
		t.Fatalf("unexpected products: %+v", products)
	}

	rows, err := svc.StockReport(ctx)
	if err != nil {
		t.Fatalf("stock report: %v", err)
	}
	if len(rows) != 1 || rows[0].ProductCount != 1 || rows[0].TotalQuantity != 25 {
		t.Fatalf("unexpected report: %+v", rows)
	}

	forms, err := svc.DosageFormReport(ctx)
	if err != nil {
		t.Fatalf("dosage form report: %v", err)
	}
	if len(forms) != 1 || forms[0].DosageForm != models.DosageTablets {
		t.Fatalf("unexpected dosage forms: %+v", forms)
	}

	if err := svc.AssignProduct(ctx, "missing", 1, 1); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("unknown unit: got %v, want ErrNotFound", err)
	}
}
