package pharmacy

import (
	"context"

	"github.com/org/adlist/internal/ability"
	"github.com/org/adlist/internal/inventory"
	"github.com/org/adlist/pkg/models"
)

// Store is the subset of the storage backend the pharmacy service needs.
type Store interface {
	CreatePharmacy(ctx context.Context, pharmacy *models.Pharmacy) error
	GetPharmacy(ctx context.Context, id int64) (*models.Pharmacy, error)
	GetPharmacyByEmail(ctx context.Context, email string) (*models.Pharmacy, error)
	ListPharmacies(ctx context.Context) ([]*models.Pharmacy, error)
}

// Service manages pharmacy registration and lookup.
type Service struct {
	store Store
}

// NewService creates a pharmacy Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateInput describes a new pharmacy. EmailAddress must be unique; it is
// the pharmacist contact address ownership checks key on.
type CreateInput struct {
	Name         string
	PhoneNumber  string
	EmailAddress string
	Location     string
}

// Create registers a pharmacy under the calling admin.
func (s *Service) Create(ctx context.Context, admin *models.User, in CreateInput) (*models.Pharmacy, error) {
	if in.Name == "" || in.EmailAddress == "" {
		return nil, inventory.ErrInvalidArgument
	}
	pharmacy := &models.Pharmacy{
		Name:         in.Name,
		PhoneNumber:  in.PhoneNumber,
		EmailAddress: in.EmailAddress,
		Location:     in.Location,
		AdminID:      admin.ID,
	}
	if err := s.store.CreatePharmacy(ctx, pharmacy); err != nil {
		return nil, err
	}
	return pharmacy, nil
}

// List returns all pharmacies. Pharmacists are not allowed to enumerate
// pharmacies; they only see their own via GetAssigned.
func (s *Service) List(ctx context.Context, user *models.User) ([]*models.Pharmacy, error) {
	if user.Role == models.RolePharmacist {
		return nil, inventory.ErrPermissionDenied
	}
	return s.store.ListPharmacies(ctx)
}

// Get fetches one pharmacy, enforcing the ability read check so pharmacists
// only reach their own pharmacy.
func (s *Service) Get(ctx context.Context, user *models.User, id int64) (*models.Pharmacy, error) {
	pharmacy, err := s.store.GetPharmacy(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ability.ForUser(user).Can(ability.ActionRead, pharmacy) {
		return nil, inventory.ErrPermissionDenied
	}
	return pharmacy, nil
}

// GetAssigned returns the pharmacy whose contact email matches the given
// pharmacist email. Used to route a pharmacist to their own page after login.
func (s *Service) GetAssigned(ctx context.Context, email string) (*models.Pharmacy, error) {
	return s.store.GetPharmacyByEmail(ctx, email)
}
