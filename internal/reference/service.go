// Package reference serves the national reference list ("universal list")
// of registered pharmacy products.
package reference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/org/adlist/internal/inventory"
	"github.com/org/adlist/internal/storage"
	"github.com/org/adlist/pkg/models"
)

// cacheSize bounds the by-code lookup cache. The reference list is in the
// tens of thousands of entries; hot lookups during stock-taking cluster on a
// far smaller set.
const cacheSize = 4096

// Store is the subset of the storage backend the reference service needs.
type Store interface {
	ListReferenceProducts(ctx context.Context) ([]*models.ReferenceProduct, error)
	FindReferenceProduct(ctx context.Context, nafdacNumber, productCode string) (*models.ReferenceProduct, error)
}

// Service resolves reference-list products, caching lookups by code.
type Service struct {
	store Store
	cache *lru.Cache[string, *models.ReferenceProduct]
}

// NewService creates a reference Service.
func NewService(store Store) *Service {
	cache, _ := lru.New[string, *models.ReferenceProduct](cacheSize)
	return &Service{store: store, cache: cache}
}

// List returns the full reference list.
func (s *Service) List(ctx context.Context) ([]*models.ReferenceProduct, error) {
	return s.store.ListReferenceProducts(ctx)
}

// Lookup resolves a product by NAFDAC number or bar code. NAFDAC
// registration numbers contain a dash, bar codes do not.
func (s *Service) Lookup(ctx context.Context, nafdacNumberOrCode string) (*models.ReferenceProduct, error) {
	if p, ok := s.cache.Get(nafdacNumberOrCode); ok {
		return p, nil
	}

	var nafdacNumber, productCode string
	if strings.Contains(nafdacNumberOrCode, "-") {
		nafdacNumber = nafdacNumberOrCode
	} else {
		productCode = nafdacNumberOrCode
	}

	p, err := s.store.FindReferenceProduct(ctx, nafdacNumber, productCode)
	if errors.Is(err, storage.ErrNotFound) {
		// Unknown codes are a caller error, not a missing resource.
		return nil, fmt.Errorf("product does not exist in reference list: %w", inventory.ErrInvalidArgument)
	}
	if err != nil {
		return nil, err
	}
	s.cache.Add(nafdacNumberOrCode, p)
	return p, nil
}

// Contains reports whether a code resolves to a reference-list product.
func (s *Service) Contains(ctx context.Context, nafdacNumberOrCode string) (bool, error) {
	_, err := s.Lookup(ctx, nafdacNumberOrCode)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, inventory.ErrInvalidArgument) {
		return false, nil
	}
	return false, err
}
