package pharmacy

import (
	"context"
	"errors"
	"testing"

	"github.com/org/adlist/internal/inventory"
	"github.com/org/adlist/internal/storage"
	"github.com/org/adlist/pkg/models"
)

type memPharmacyStore struct {
	pharmacies map[int64]*models.Pharmacy
	nextID     int64
}

func newMemPharmacyStore() *memPharmacyStore {
	return &memPharmacyStore{pharmacies: map[int64]*models.Pharmacy{}}
}

func (m *memPharmacyStore) CreatePharmacy(_ context.Context, ph *models.Pharmacy) error {
	for _, existing := range m.pharmacies {
		if existing.EmailAddress == ph.EmailAddress {
			return storage.ErrAlreadyExists
		}
	}
	m.nextID++
	ph.ID = m.nextID
	m.pharmacies[ph.ID] = ph
	return nil
}

func (m *memPharmacyStore) GetPharmacy(_ context.Context, id int64) (*models.Pharmacy, error) {
	if ph, ok := m.pharmacies[id]; ok {
		return ph, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memPharmacyStore) GetPharmacyByEmail(_ context.Context, email string) (*models.Pharmacy, error) {
	for _, ph := range m.pharmacies {
		if ph.EmailAddress == email {
			return ph, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memPharmacyStore) ListPharmacies(_ context.Context) ([]*models.Pharmacy, error) {
	out := make([]*models.Pharmacy, 0, len(m.pharmacies))
	for _, ph := range m.pharmacies {
		out = append(out, ph)
	}
	return out, nil
}

var (
	admin      = &models.User{ID: 1, Email: "admin@adlist.test", Role: models.RoleAdmin}
	agent      = &models.User{ID: 2, Email: "agent@adlist.test", Role: models.RoleAgent}
	pharmacist = &models.User{ID: 3, Email: "x@y.com", Role: models.RolePharmacist}
)

func TestCreateValidatesInput(t *testing.T) {
	svc := NewService(newMemPharmacyStore())
	ctx := context.Background()

	if _, err := svc.Create(ctx, admin, CreateInput{Name: "Victoria Drugs"}); !errors.Is(err, inventory.ErrInvalidArgument) {
		t.Fatalf("missing email: got %v, want ErrInvalidArgument", err)
	}
	if _, err := svc.Create(ctx, admin, CreateInput{EmailAddress: "x@y.com"}); !errors.Is(err, inventory.ErrInvalidArgument) {
		t.Fatalf("missing name: got %v, want ErrInvalidArgument", err)
	}

	ph, err := svc.Create(ctx, admin, CreateInput{Name: "Victoria Drugs", EmailAddress: "x@y.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ph.AdminID != admin.ID {
		t.Fatalf("admin not recorded: %+v", ph)
	}

	if _, err := svc.Create(ctx, admin, CreateInput{Name: "Other", EmailAddress: "x@y.com"}); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate email: got %v, want ErrAlreadyExists", err)
	}
}

func TestListDeniedForPharmacists(t *testing.T) {
	svc := NewService(newMemPharmacyStore())
	ctx := context.Background()

	if _, err := svc.List(ctx, pharmacist); !errors.Is(err, inventory.ErrPermissionDenied) {
		t.Fatalf("pharmacist list: got %v, want ErrPermissionDenied", err)
	}
	if _, err := svc.List(ctx, agent); err != nil {
		t.Fatalf("agent list: %v", err)
	}
	if _, err := svc.List(ctx, admin); err != nil {
		t.Fatalf("admin list: %v", err)
	}
}

func TestGetScopedByOwnership(t *testing.T) {
	store := newMemPharmacyStore()
	svc := NewService(store)
	ctx := context.Background()

	own, _ := svc.Create(ctx, admin, CreateInput{Name: "Victoria Drugs", EmailAddress: "x@y.com"})
	other, _ := svc.Create(ctx, admin, CreateInput{Name: "Crest Pharmacy", EmailAddress: "z@y.com"})

	if _, err := svc.Get(ctx, pharmacist, own.ID); err != nil {
		t.Fatalf("own pharmacy: %v", err)
	}
	if _, err := svc.Get(ctx, pharmacist, other.ID); !errors.Is(err, inventory.ErrPermissionDenied) {
		t.Fatalf("foreign pharmacy: got %v, want ErrPermissionDenied", err)
	}
	if _, err := svc.Get(ctx, agent, other.ID); err != nil {
		t.Fatalf("agent read: %v", err)
	}
}

func TestGetAssigned(t *testing.T) {
	store := newMemPharmacyStore()
	svc := NewService(store)
	ctx := context.Background()

	created, _ := svc.Create(ctx, admin, CreateInput{Name: "Victoria Drugs", EmailAddress: "x@y.com"})

	got, err := svc.GetAssigned(ctx, "x@y.com")
	if err != nil {
		t.Fatalf("assigned: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("got pharmacy %d, want %d", got.ID, created.ID)
	}

	if _, err := svc.GetAssigned(ctx, "nobody@y.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("unknown email: got %v, want ErrNotFound", err)
	}
}
