package reference

import (
	"context"
	"errors"
	"testing"

	"github.com/org/adlist/internal/inventory"
	"github.com/org/adlist/internal/storage"
	"github.com/org/adlist/pkg/models"
)

type memRefStore struct {
	products []*models.ReferenceProduct
	lookups  int
}

func (m *memRefStore) ListReferenceProducts(_ context.Context) ([]*models.ReferenceProduct, error) {
	return m.products, nil
}

func (m *memRefStore) FindReferenceProduct(_ context.Context, nafdacNumber, productCode string) (*models.ReferenceProduct, error) {
	m.lookups++
	for _, p := range m.products {
		if nafdacNumber != "" && p.NafdacNumber == nafdacNumber {
			return p, nil
		}
		if productCode != "" && p.ProductCode == productCode {
			return p, nil
		}
	}
	return nil, storage.ErrNotFound
}

func TestLookupByNafdacNumberAndBarCode(t *testing.T) {
	store := &memRefStore{products: []*models.ReferenceProduct{
		{NafdacNumber: "A4-100231", ProductCode: "5901234123457", ProductName: "Paracetamol 500mg"},
	}}
	svc := NewService(store)
	ctx := context.Background()

	// A dash means NAFDAC number.
	p, err := svc.Lookup(ctx, "A4-100231")
	if err != nil {
		t.Fatalf("nafdac lookup: %v", err)
	}
	if p.ProductName != "Paracetamol 500mg" {
		t.Fatalf("unexpected product: %+v", p)
	}

	// No dash means bar code.
	p2, err := svc.Lookup(ctx, "5901234123457")
	if err != nil {
		t.Fatalf("bar code lookup: %v", err)
	}
	if p2 != p {
		t.Fatal("both codes should resolve the same product")
	}

	if _, err := svc.Lookup(ctx, "B7-999999"); !errors.Is(err, inventory.ErrInvalidArgument) {
		t.Fatalf("unknown code: got %v, want ErrInvalidArgument", err)
	}
}

func TestLookupIsCached(t *testing.T) {
	store := &memRefStore{products: []*models.ReferenceProduct{
		{NafdacNumber: "A4-100231", ProductName: "Paracetamol 500mg"},
	}}
	svc := NewService(store)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := svc.Lookup(ctx, "A4-100231"); err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
	}
	if store.lookups != 1 {
		t.Fatalf("expected 1 store lookup, got %d", store.lookups)
	}
}

func TestContains(t *testing.T) {
	store := &memRefStore{products: []*models.ReferenceProduct{
		{NafdacNumber: "A4-100231"},
	}}
	svc := NewService(store)
	ctx := context.Background()

	ok, err := svc.Contains(ctx, "A4-100231")
	if err != nil || !ok {
		t.Fatalf("known code: ok=%v err=%v", ok, err)
	}
	ok, err = svc.Contains(ctx, "5901234123457")
	if err != nil || ok {
		t.Fatalf("unknown code: ok=%v err=%v", ok, err)
	}
}
