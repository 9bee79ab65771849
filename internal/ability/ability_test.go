package ability

import (
	"testing"

	"github.com/org/adlist/pkg/models"
)

func admin() *models.User {
	return &models.User{ID: 1, Email: "admin@adlist.ng", Role: models.RoleAdmin}
}
func agent() *models.User {
	return &models.User{ID: 2, Email: "agent@adlist.ng", Role: models.RoleAgent}
}
func pharmacist(email string) *models.User {
	return &models.User{ID: 3, Email: email, Role: models.RolePharmacist}
}

func TestAdminCanEverything(t *testing.T) {
	set := ForUser(admin())

	pharmacy := &models.Pharmacy{ID: 1, EmailAddress: "someone@else.com"}
	product := &models.PharmacyProduct{ID: 9, Pharmacy: pharmacy}

	for _, action := range []Action{ActionCreate, ActionRead, ActionUpdate, ActionManage} {
		if !set.Can(action, pharmacy) {
			t.Errorf("admin denied %s on pharmacy", action)
		}
		if !set.Can(action, product) {
			t.Errorf("admin denied %s on product", action)
		}
	}
}

func TestAgentGrants(t *testing.T) {
	set := ForUser(agent())

	pharmacy := &models.Pharmacy{ID: 1, EmailAddress: "owner@pharm.com"}
	product := &models.PharmacyProduct{ID: 9, Pharmacy: pharmacy}

	cases := []struct {
		action  Action
		record  any
		allowed bool
	}{
		{ActionRead, pharmacy, true}, // regardless of ownership
		{ActionRead, product, true},
		{ActionCreate, product, true},
		{ActionUpdate, product, true},
		{ActionCreate, pharmacy, false}, // only admins register pharmacies
		{ActionUpdate, pharmacy, false},
	}
	for _, tc := range cases {
		if got := set.Can(tc.action, tc.record); got != tc.allowed {
			t.Errorf("agent %s on %T: got %v want %v", tc.action, tc.record, got, tc.allowed)
		}
	}
}

func TestPharmacistScopedByOwnership(t *testing.T) {
	set := ForUser(pharmacist("x@y.com"))

	owned := &models.Pharmacy{ID: 1, EmailAddress: "x@y.com"}
	foreign := &models.Pharmacy{ID: 2, EmailAddress: "z@y.com"}

	if !set.Can(ActionRead, owned) {
		t.Error("pharmacist denied read on own pharmacy")
	}
	if set.Can(ActionRead, foreign) {
		t.Error("pharmacist allowed read on foreign pharmacy")
	}

	ownedProduct := &models.PharmacyProduct{ID: 1, Pharmacy: owned}
	foreignProduct := &models.PharmacyProduct{ID: 2, Pharmacy: foreign}

	for _, action := range []Action{ActionRead, ActionCreate, ActionUpdate} {
		if !set.Can(action, ownedProduct) {
			t.Errorf("pharmacist denied %s on own product", action)
		}
		if set.Can(action, foreignProduct) {
			t.Errorf("pharmacist allowed %s on foreign product", action)
		}
	}
}

func TestMissingPharmacyRelationFailsCondition(t *testing.T) {
	set := ForUser(pharmacist("x@y.com"))

	// Relation not attached yet: the condition must evaluate false, not panic.
	detached := &models.PharmacyProduct{ID: 5}
	if set.Can(ActionUpdate, detached) {
		t.Error("pharmacist allowed update on product with no pharmacy relation")
	}

	// Admins stay unconditional even on detached records.
	if !ForUser(admin()).Can(ActionUpdate, detached) {
		t.Error("admin denied update on product with no pharmacy relation")
	}
}

func TestUnknownSubjectsAndRoles(t *testing.T) {
	if ForUser(agent()).Can(ActionRead, &models.User{}) {
		t.Error("agent allowed read on unknown subject type")
	}
	if !ForUser(admin()).Can(ActionRead, &models.User{}) {
		t.Error("admin manage-all should cover unknown subject types")
	}
	if ForUser(&models.User{Role: "intern"}).Can(ActionRead, &models.Pharmacy{}) {
		t.Error("unknown role should hold no grants")
	}
	if ForUser(nil).Can(ActionRead, &models.Pharmacy{}) {
		t.Error("nil user should hold no grants")
	}
}
