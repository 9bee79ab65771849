// Package businessunit manages hospital business units, their product
// links, and the stock reports aggregated over them.
package businessunit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/org/adlist/internal/inventory"
	"github.com/org/adlist/pkg/models"
)

// Store is the subset of the storage backend the service needs.
type Store interface {
	CreateBusinessUnit(ctx context.Context, unit *models.BusinessUnit) error
	GetBusinessUnit(ctx context.Context, id string) (*models.BusinessUnit, error)
	ListBusinessUnits(ctx context.Context) ([]*models.BusinessUnit, error)
	SearchBusinessUnits(ctx context.Context, query string) ([]*models.BusinessUnit, error)
	UpdateBusinessUnit(ctx context.Context, unit *models.BusinessUnit) error
	DeleteBusinessUnit(ctx context.Context, id string) error
	UpsertBusinessUnitProduct(ctx context.Context, link *models.BusinessUnitProduct) error
	ListProductsByBusinessUnit(ctx context.Context, businessUnitID string) ([]*models.PharmacyProduct, error)
	BusinessUnitStockReport(ctx context.Context) ([]*models.BusinessUnitStockRow, error)
	BusinessUnitDosageFormReport(ctx context.Context) ([]*models.DosageFormCount, error)
}

// Service exposes business-unit operations.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a business-unit Service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Create registers a new business unit. Name is required.
func (s *Service) Create(ctx context.Context, name, location string) (*models.BusinessUnit, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: business unit name is required", inventory.ErrInvalidArgument)
	}
	now := s.now().UTC()
	unit := &models.BusinessUnit{
		ID:        uuid.NewString(),
		Name:      name,
		Location:  location,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateBusinessUnit(ctx, unit); err != nil {
		return nil, err
	}
	return unit, nil
}

// Get returns a business unit by id.
func (s *Service) Get(ctx context.Context, id string) (*models.BusinessUnit, error) {
	return s.store.GetBusinessUnit(ctx, id)
}

// List returns all business units.
func (s *Service) List(ctx context.Context) ([]*models.BusinessUnit, error) {
	return s.store.ListBusinessUnits(ctx)
}

// Search looks up business units by name fragment.
func (s *Service) Search(ctx context.Context, query string) ([]*models.BusinessUnit, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", inventory.ErrInvalidArgument)
	}
	return s.store.SearchBusinessUnits(ctx, query)
}

// UpdateInput carries the mutable business-unit fields. Nil means keep.
type UpdateInput struct {
	Name     *string
	Location *string
}

// Update applies a partial update to a business unit.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.BusinessUnit, error) {
	unit, err := s.store.GetBusinessUnit(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, fmt.Errorf("%w: business unit name cannot be empty", inventory.ErrInvalidArgument)
		}
		unit.Name = *in.Name
	}
	if in.Location != nil {
		unit.Location = *in.Location
	}
	unit.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateBusinessUnit(ctx, unit); err != nil {
		return nil, err
	}
	return unit, nil
}

// Delete removes a business unit.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.store.GetBusinessUnit(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteBusinessUnit(ctx, id)
}

// AssignProduct links a product to a business unit with the quantity held
// there. Re-assigning updates the quantity.
func (s *Service) AssignProduct(ctx context.Context, unitID string, productID int64, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: quantity cannot be negative", inventory.ErrInvalidArgument)
	}
	if _, err := s.store.GetBusinessUnit(ctx, unitID); err != nil {
		return err
	}
	return s.store.UpsertBusinessUnitProduct(ctx, &models.BusinessUnitProduct{
		BusinessUnitID: unitID,
		ProductID:      productID,
		Quantity:       quantity,
	})
}

// Products lists the products linked to a business unit.
func (s *Service) Products(ctx context.Context, unitID string) ([]*models.PharmacyProduct, error) {
	if _, err := s.store.GetBusinessUnit(ctx, unitID); err != nil {
		return nil, err
	}
	return s.store.ListProductsByBusinessUnit(ctx, unitID)
}

// StockReport aggregates counts, quantities, and stock value per business
// unit across the whole inventory.
func (s *Service) StockReport(ctx context.Context) ([]*models.BusinessUnitStockRow, error) {
	return s.store.BusinessUnitStockReport(ctx)
}

// DosageFormReport breaks each unit's products down by dosage form.
func (s *Service) DosageFormReport(ctx context.Context) ([]*models.DosageFormCount, error) {
	return s.store.BusinessUnitDosageFormReport(ctx)
}
