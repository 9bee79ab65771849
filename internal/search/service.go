// Package search provides the cross-cutting lookups that are not tied to a
// single pharmacy's inventory.
package search

import (
	"context"
	"errors"
	"strings"

	"github.com/org/adlist/internal/inventory"
	"github.com/org/adlist/pkg/models"
)

// NRN queries shorter than this match too much of the reference list to be
// useful, so they are rejected outright.
const minNRNQueryLen = 4

// ErrQueryTooShort is returned for reference-list searches below the
// minimum query length.
var ErrQueryTooShort = errors.New("So many results, add more characters for better filtering")

// Store is the subset of the storage backend the service needs.
type Store interface {
	SearchPharmaciesByName(ctx context.Context, query string) ([]*models.Pharmacy, error)
	SearchReferenceProductsByNRN(ctx context.Context, query string) ([]*models.ReferenceProduct, error)
}

// Service answers pharmacy and reference-list searches.
type Service struct {
	store Store
}

// NewService creates a search Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Pharmacies finds pharmacies whose name contains the query.
func (s *Service) Pharmacies(ctx context.Context, query string) ([]*models.Pharmacy, error) {
	if query == "" {
		return nil, inventory.ErrInvalidArgument
	}
	return s.store.SearchPharmaciesByName(ctx, query)
}

// ReferenceByNRN finds reference-list entries whose NAFDAC registration
// number contains the query. Queries under four characters are refused.
func (s *Service) ReferenceByNRN(ctx context.Context, query string) ([]*models.ReferenceProduct, error) {
	query = strings.TrimSpace(query)
	if len(query) < minNRNQueryLen {
		return nil, ErrQueryTooShort
	}
	return s.store.SearchReferenceProductsByNRN(ctx, query)
}
