package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/org/adlist/internal/ability"
	"github.com/org/adlist/internal/storage"
	"github.com/org/adlist/pkg/models"
)

// ErrPermissionDenied is returned when the ability evaluator denies an operation.
var ErrPermissionDenied = errors.New("permission denied")

// ErrInvalidArgument is returned for malformed inputs (missing product codes,
// bad custom date ranges).
var ErrInvalidArgument = errors.New("invalid argument")

// Store is the subset of the storage backend the inventory engine needs.
type Store interface {
	GetPharmacy(ctx context.Context, id int64) (*models.Pharmacy, error)
	ListProducts(ctx context.Context, pharmacyID int64, filter storage.ProductFilter) ([]*models.PharmacyProduct, error)
	GetProduct(ctx context.Context, pharmacyID, entryID int64) (*models.PharmacyProduct, error)
	FindProductByCode(ctx context.Context, pharmacyID int64, nafdacNumber, productCode string) (*models.PharmacyProduct, error)
	CreateProduct(ctx context.Context, product *models.PharmacyProduct) error
	UpdateProduct(ctx context.Context, product *models.PharmacyProduct) error
	DeleteProduct(ctx context.Context, pharmacyID, entryID int64) error
	GetInventoryUpdateTime(ctx context.Context, pharmacyID int64) (time.Time, error)
	UpsertInventoryUpdateTime(ctx context.Context, pharmacyID int64, updatedAt time.Time) error
}

// ReferenceList resolves products against the national reference list.
type ReferenceList interface {
	Lookup(ctx context.Context, nafdacNumberOrCode string) (*models.ReferenceProduct, error)
	Contains(ctx context.Context, nafdacNumberOrCode string) (bool, error)
}

// Metadata accompanies every inventory view.
type Metadata struct {
	Message    string    `json:"message,omitempty"`
	LastUpdate time.Time `json:"last_update"`
}

// NoEntries is the message-shaped payload returned instead of an empty list,
// so callers distinguish "no data" from "data" by shape.
type NoEntries struct {
	Message string `json:"message"`
}

// View is the inventory fetch envelope. Data is either
// []*models.PharmacyProduct or NoEntries.
type View struct {
	Metadata Metadata `json:"metadata"`
	Data     any      `json:"data"`
}

// Service implements stock-taking and the inventory query pipeline. Every
// operation is gated through the ability evaluator before touching storage.
type Service struct {
	store Store
	refs  ReferenceList
	now   func() time.Time
}

// NewService creates an inventory Service.
func NewService(store Store, refs ReferenceList) *Service {
	return &Service{store: store, refs: refs, now: time.Now}
}

// Fetch produces the inventory view for a pharmacy under the requested time
// window, admin-only new-product filter, and optional search query.
//
// The pipeline: permission check, time filter, only-new pre-filter (admins
// only; ignored for other roles), then the search overlay on a non-empty
// bucket. Empty results come back message-shaped, never as an empty list.
func (s *Service) Fetch(ctx context.Context, pharmacyID int64, user *models.User, w Window, onlyNew bool, query string) (*View, error) {
	pharmacy, err := s.store.GetPharmacy(ctx, pharmacyID)
	if err != nil {
		return nil, err
	}
	if !ability.ForUser(user).Can(ability.ActionRead, pharmacy) {
		return nil, ErrPermissionDenied
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}

	lastUpdate, err := s.store.GetInventoryUpdateTime(ctx, pharmacyID)
	if errors.Is(err, storage.ErrNotFound) {
		lastUpdate = s.now()
	} else if err != nil {
		return nil, err
	}

	adminView := onlyNew && user != nil && user.Role == models.RoleAdmin

	products, err := s.store.ListProducts(ctx, pharmacyID, storage.ProductFilter{OnlyNew: adminView})
	if err != nil {
		return nil, err
	}

	if w.Lapse != LapseNone {
		now := s.now()
		filtered := products[:0:0]
		for _, p := range products {
			if w.Contains(p.StockTakenAt, now) {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}

	meta := Metadata{LastUpdate: lastUpdate}
	if adminView {
		meta.Message = w.adminViewMessage(false)
	}

	if w.Lapse != LapseNone && len(products) == 0 {
		return &View{Metadata: meta, Data: NoEntries{Message: w.emptyMessage()}}, nil
	}

	// The search overlay only runs on a non-empty bucket, and only then does
	// the metadata message switch to the search variant.
	if query != "" {
		if adminView {
			meta.Message = w.adminViewMessage(true)
		}
		products = searchProducts(products, query)
		if len(products) == 0 {
			return &View{Metadata: meta, Data: NoEntries{Message: "No results found"}}, nil
		}
	}

	if products == nil {
		products = []*models.PharmacyProduct{}
	}
	return &View{Metadata: meta, Data: products}, nil
}

// RegisterProductInput describes a product not yet in the reference list.
type RegisterProductInput struct {
	ProductName  string
	Manufacturer string
	Strength     string
	Unit         string
	DosageForm   models.DosageForm
	DrugName     string
	NafdacNumber string
	ProductCode  string
}

// RegisterNewProduct registers a product for eventual inclusion in the
// reference list. At least one of NAFDAC number or product code is required.
func (s *Service) RegisterNewProduct(ctx context.Context, user *models.User, pharmacyID int64, in RegisterProductInput) (*models.PharmacyProduct, error) {
	pharmacy, err := s.store.GetPharmacy(ctx, pharmacyID)
	if err != nil {
		return nil, err
	}
	if in.NafdacNumber == "" && in.ProductCode == "" {
		return nil, ErrInvalidArgument
	}

	now := s.now()
	product := &models.PharmacyProduct{
		NafdacNumber: in.NafdacNumber,
		ProductName:  in.ProductName,
		ProductCode:  in.ProductCode,
		DrugName:     in.DrugName,
		Manufacturer: in.Manufacturer,
		Strength:     in.Strength,
		Unit:         in.Unit,
		DosageForm:   in.DosageForm,
		PharmacyID:   pharmacy.ID,
		Pharmacy:     pharmacy,
		StockTakenAt: now,
		LastEditedAt: now,
	}

	if !ability.ForUser(user).Can(ability.ActionCreate, product) {
		return nil, ErrPermissionDenied
	}

	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	if err := s.store.UpsertInventoryUpdateTime(ctx, pharmacyID, product.LastEditedAt); err != nil {
		return nil, err
	}
	return product, nil
}

// StockInput carries the counted quantities for a stock take.
type StockInput struct {
	Quantity     int
	QuantityType models.QuantityType
	SellingPrice float64
	CostPrice    float64
	ExpiryDate   *time.Time
}

// TakeStock records stock for a product identified by NAFDAC number or bar
// code. An existing entry for the pharmacy is updated in place; otherwise the
// product is materialized from the reference list.
func (s *Service) TakeStock(ctx context.Context, user *models.User, pharmacyID int64, nafdacNumberOrCode string, in StockInput) (*models.PharmacyProduct, error) {
	pharmacy, err := s.store.GetPharmacy(ctx, pharmacyID)
	if err != nil {
		return nil, err
	}

	nafdacNumber, productCode := splitProductCode(nafdacNumberOrCode)

	product, err := s.store.FindProductByCode(ctx, pharmacyID, nafdacNumber, productCode)
	if errors.Is(err, storage.ErrNotFound) {
		return s.takeStockFromReference(ctx, user, pharmacy, nafdacNumberOrCode, in)
	}
	if err != nil {
		return nil, err
	}

	if !ability.ForUser(user).Can(ability.ActionUpdate, product) {
		return nil, ErrPermissionDenied
	}

	product.Quantity = in.Quantity
	product.QuantityType = in.QuantityType
	product.SellingPrice = in.SellingPrice
	product.CostPrice = in.CostPrice
	product.ExpiryDate = in.ExpiryDate
	product.LastEditedAt = s.now()

	if err := s.store.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}
	if err := s.store.UpsertInventoryUpdateTime(ctx, pharmacyID, product.LastEditedAt); err != nil {
		return nil, err
	}
	return product, nil
}

// takeStockFromReference creates the pharmacy's first entry for a product
// already listed in the reference list.
func (s *Service) takeStockFromReference(ctx context.Context, user *models.User, pharmacy *models.Pharmacy, nafdacNumberOrCode string, in StockInput) (*models.PharmacyProduct, error) {
	ref, err := s.refs.Lookup(ctx, nafdacNumberOrCode)
	if err != nil {
		return nil, err
	}

	now := s.now()
	product := &models.PharmacyProduct{
		NafdacNumber:    ref.NafdacNumber,
		ProductName:     ref.ProductName,
		ProductCode:     ref.ProductCode,
		Manufacturer:    ref.Manufacturer,
		Strength:        ref.Strength,
		Unit:            ref.Unit,
		DosageForm:      models.DosageForm(ref.DosageForm),
		ExistsInRefList: true,
		Quantity:        in.Quantity,
		QuantityType:    in.QuantityType,
		SellingPrice:    in.SellingPrice,
		CostPrice:       in.CostPrice,
		ExpiryDate:      in.ExpiryDate,
		PharmacyID:      pharmacy.ID,
		Pharmacy:        pharmacy,
		StockTakenAt:    now,
		LastEditedAt:    now,
	}

	if !ability.ForUser(user).Can(ability.ActionCreate, product) {
		return nil, ErrPermissionDenied
	}

	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	if err := s.store.UpsertInventoryUpdateTime(ctx, pharmacy.ID, product.LastEditedAt); err != nil {
		return nil, err
	}
	return product, nil
}

// EditProductInput holds partial updates for a new-product entry. Nil fields
// keep their current value.
type EditProductInput struct {
	NafdacNumber *string
	ProductCode  *string
	ProductName  *string
	Manufacturer *string
	DosageForm   *models.DosageForm
	Strength     *string
	Unit         *string
}

// EditNewProduct edits an entry that is not yet in the reference list.
// Entries already in the reference list are not editable here.
func (s *Service) EditNewProduct(ctx context.Context, user *models.User, pharmacyID, entryID int64, in EditProductInput) (*models.PharmacyProduct, error) {
	if _, err := s.store.GetPharmacy(ctx, pharmacyID); err != nil {
		return nil, err
	}

	product, err := s.store.GetProduct(ctx, pharmacyID, entryID)
	if err != nil {
		return nil, err
	}
	if product.ExistsInRefList {
		return nil, ErrInvalidArgument
	}

	if !ability.ForUser(user).Can(ability.ActionUpdate, product) {
		return nil, ErrPermissionDenied
	}

	if in.NafdacNumber != nil {
		product.NafdacNumber = *in.NafdacNumber
	}
	if in.ProductCode != nil {
		product.ProductCode = *in.ProductCode
	}
	if in.ProductName != nil {
		product.ProductName = *in.ProductName
	}
	if in.Manufacturer != nil {
		product.Manufacturer = *in.Manufacturer
	}
	if in.DosageForm != nil {
		product.DosageForm = *in.DosageForm
	}
	if in.Strength != nil {
		product.Strength = *in.Strength
	}
	if in.Unit != nil {
		product.Unit = *in.Unit
	}
	product.LastEditedAt = s.now()

	if err := s.store.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}
	if err := s.store.UpsertInventoryUpdateTime(ctx, pharmacyID, product.LastEditedAt); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteEntry removes an inventory entry. Role restrictions are enforced at
// the route level (admins and agents only).
func (s *Service) DeleteEntry(ctx context.Context, pharmacyID, entryID int64) error {
	return s.store.DeleteProduct(ctx, pharmacyID, entryID)
}

// CheckInReferenceList reports whether a pharmacy's product code or NAFDAC
// number exists in the reference list.
func (s *Service) CheckInReferenceList(ctx context.Context, pharmacyID int64, nafdacNumberOrCode string) (bool, error) {
	if _, err := s.store.GetPharmacy(ctx, pharmacyID); err != nil {
		return false, err
	}
	return s.refs.Contains(ctx, nafdacNumberOrCode)
}

// splitProductCode applies the identifier heuristic: NAFDAC registration
// numbers contain a dash, bar codes do not.
func splitProductCode(code string) (nafdacNumber, productCode string) {
	if strings.Contains(code, "-") {
		return code, ""
	}
	return "", code
}
