// Package formulary manages the named product lists owned by business
// units, including bulk creation from CSV uploads.
package formulary

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/org/adlist/internal/inventory"
	"github.com/org/adlist/pkg/models"
)

// Store is the subset of the storage backend the service needs.
type Store interface {
	CreateFormulary(ctx context.Context, formulary *models.Formulary) error
	GetFormulary(ctx context.Context, id string) (*models.Formulary, error)
	ListFormularies(ctx context.Context) ([]*models.Formulary, error)
	UpdateFormulary(ctx context.Context, formulary *models.Formulary) error
	DeleteFormulary(ctx context.Context, id string) error
	GetBusinessUnit(ctx context.Context, id string) (*models.BusinessUnit, error)
}

// Service exposes formulary operations.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a formulary Service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Create registers a formulary under a business unit.
func (s *Service) Create(ctx context.Context, name, description, businessUnitID string, createdBy int64) (*models.Formulary, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: formulary name is required", inventory.ErrInvalidArgument)
	}
	if _, err := s.store.GetBusinessUnit(ctx, businessUnitID); err != nil {
		return nil, err
	}
	f := &models.Formulary{
		ID:             uuid.NewString(),
		Name:           name,
		Description:    description,
		BusinessUnitID: businessUnitID,
		CreatedBy:      createdBy,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.CreateFormulary(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Get returns a formulary by id.
func (s *Service) Get(ctx context.Context, id string) (*models.Formulary, error) {
	return s.store.GetFormulary(ctx, id)
}

// List returns all formularies.
func (s *Service) List(ctx context.Context) ([]*models.Formulary, error) {
	return s.store.ListFormularies(ctx)
}

// UpdateInput carries the mutable formulary fields. Nil means keep.
type UpdateInput struct {
	Name        *string
	Description *string
}

// Update applies a partial update to a formulary.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.Formulary, error) {
	f, err := s.store.GetFormulary(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, fmt.Errorf("%w: formulary name cannot be empty", inventory.ErrInvalidArgument)
		}
		f.Name = *in.Name
	}
	if in.Description != nil {
		f.Description = *in.Description
	}
	if err := s.store.UpdateFormulary(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Delete removes a formulary.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.store.GetFormulary(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteFormulary(ctx, id)
}

// ImportCSV bulk-creates formularies for a business unit from a CSV stream
// with a "name,description" header. Rows with an empty name are rejected
// with their line number. It returns the created formularies.
func (s *Service) ImportCSV(ctx context.Context, businessUnitID string, createdBy int64, r io.Reader) ([]*models.Formulary, error) {
	if _, err := s.store.GetBusinessUnit(ctx, businessUnitID); err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty csv upload", inventory.ErrInvalidArgument)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", inventory.ErrInvalidArgument, err)
	}
	nameCol, descCol := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "name":
			nameCol = i
		case "description":
			descCol = i
		}
	}
	if nameCol < 0 {
		return nil, fmt.Errorf("%w: csv header must contain a name column", inventory.ErrInvalidArgument)
	}

	var created []*models.Formulary
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", inventory.ErrInvalidArgument, line, err)
		}
		if nameCol >= len(record) || strings.TrimSpace(record[nameCol]) == "" {
			return nil, fmt.Errorf("%w: line %d: missing formulary name", inventory.ErrInvalidArgument, line)
		}
		f := &models.Formulary{
			ID:             uuid.NewString(),
			Name:           strings.TrimSpace(record[nameCol]),
			BusinessUnitID: businessUnitID,
			CreatedBy:      createdBy,
			CreatedAt:      s.now().UTC(),
		}
		if descCol >= 0 && descCol < len(record) {
			f.Description = strings.TrimSpace(record[descCol])
		}
		if err := s.store.CreateFormulary(ctx, f); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		created = append(created, f)
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("%w: csv upload has no data rows", inventory.ErrInvalidArgument)
	}
	return created, nil
}
