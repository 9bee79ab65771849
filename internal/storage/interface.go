package storage

import (
	"context"
	"errors"
	"time"

	"github.com/org/adlist/pkg/models"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when trying to create a resource that already exists.
var ErrAlreadyExists = errors.New("already exists")

// ProductFilter narrows a pharmacy inventory listing. OnlyNew restricts to
// entries not yet in the reference list; time-window filtering is applied by
// the inventory service in memory.
type ProductFilter struct {
	OnlyNew bool
}

// AuditFilter specifies query parameters for audit log retrieval.
type AuditFilter struct {
	Path   string
	Since  *time.Time
	Limit  int
	Offset int
}

// StorageBackend defines the persistence interface for ADList.
type StorageBackend interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id int64, email string) (*models.User, error)
	UpdateUserPassword(ctx context.Context, email, passwordHash string) error

	// Password resets (one outstanding token per email)
	UpsertPasswordReset(ctx context.Context, reset *models.PasswordReset) error
	GetPasswordReset(ctx context.Context, tokenHash string) (*models.PasswordReset, error)
	DeletePasswordReset(ctx context.Context, email string) error

	// Pharmacies
	CreatePharmacy(ctx context.Context, pharmacy *models.Pharmacy) error
	GetPharmacy(ctx context.Context, id int64) (*models.Pharmacy, error)
	GetPharmacyByEmail(ctx context.Context, email string) (*models.Pharmacy, error)
	ListPharmacies(ctx context.Context) ([]*models.Pharmacy, error)
	SearchPharmaciesByName(ctx context.Context, query string) ([]*models.Pharmacy, error)

	// Pharmacy products
	CreateProduct(ctx context.Context, product *models.PharmacyProduct) error
	UpdateProduct(ctx context.Context, product *models.PharmacyProduct) error
	GetProduct(ctx context.Context, pharmacyID, entryID int64) (*models.PharmacyProduct, error)
	FindProductByCode(ctx context.Context, pharmacyID int64, nafdacNumber, productCode string) (*models.PharmacyProduct, error)
	ListProducts(ctx context.Context, pharmacyID int64, filter ProductFilter) ([]*models.PharmacyProduct, error)
	DeleteProduct(ctx context.Context, pharmacyID, entryID int64) error

	// Reference list
	ListReferenceProducts(ctx context.Context) ([]*models.ReferenceProduct, error)
	FindReferenceProduct(ctx context.Context, nafdacNumber, productCode string) (*models.ReferenceProduct, error)
	SearchReferenceProductsByNRN(ctx context.Context, query string) ([]*models.ReferenceProduct, error)

	// Overall inventory update time (one row per pharmacy, last-writer-wins)
	GetInventoryUpdateTime(ctx context.Context, pharmacyID int64) (time.Time, error)
	UpsertInventoryUpdateTime(ctx context.Context, pharmacyID int64, updatedAt time.Time) error

	// Business units
	CreateBusinessUnit(ctx context.Context, unit *models.BusinessUnit) error
	GetBusinessUnit(ctx context.Context, id string) (*models.BusinessUnit, error)
	ListBusinessUnits(ctx context.Context) ([]*models.BusinessUnit, error)
	UpdateBusinessUnit(ctx context.Context, unit *models.BusinessUnit) error
	DeleteBusinessUnit(ctx context.Context, id string) error
	SearchBusinessUnits(ctx context.Context, query string) ([]*models.BusinessUnit, error)
	UpsertBusinessUnitProduct(ctx context.Context, link *models.BusinessUnitProduct) error
	ListProductsByBusinessUnit(ctx context.Context, businessUnitID string) ([]*models.PharmacyProduct, error)

	// Reports (aggregated in SQL)
	BusinessUnitStockReport(ctx context.Context) ([]*models.BusinessUnitStockRow, error)
	BusinessUnitDosageFormReport(ctx context.Context) ([]*models.DosageFormCount, error)

	// Formularies
	CreateFormulary(ctx context.Context, formulary *models.Formulary) error
	GetFormulary(ctx context.Context, id string) (*models.Formulary, error)
	ListFormularies(ctx context.Context) ([]*models.Formulary, error)
	UpdateFormulary(ctx context.Context, formulary *models.Formulary) error
	DeleteFormulary(ctx context.Context, id string) error

	// Audit
	WriteAuditEntry(ctx context.Context, entry *models.AuditEntry) error
	QueryAuditLog(ctx context.Context, filter AuditFilter) ([]*models.AuditEntry, error)

	// Metrics helpers
	CountPharmacies(ctx context.Context) (int64, error)
	CountProducts(ctx context.Context) (int64, error)

	// Lifecycle
	Close()
}
