package ability

import "github.com/org/adlist/pkg/models"

// Action is an operation a principal may attempt on a record.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionManage Action = "manage" // matches every action
)

// Subject is the record kind a grant applies to.
type Subject string

const (
	SubjectPharmacy Subject = "pharmacy"
	SubjectProduct  Subject = "product"
	SubjectAll      Subject = "all"
)

// Condition is an optional predicate evaluated against the record at check
// time. A nil Condition means the grant is unconditional.
type Condition func(record any) bool

// Grant permits one action on one subject kind, optionally scoped by a
// condition. There are no deny grants; absence of a matching grant denies.
type Grant struct {
	Action    Action
	Subject   Subject
	Condition Condition
}

// Set is the ordered grant collection built for one principal. It is
// constructed fresh per request and holds no mutable state.
type Set struct {
	grants []Grant
}

// ForUser builds the grant set for a user's role.
//
// Admins manage everything. Agents operate on any pharmacy's inventory.
// Pharmacists are scoped to the pharmacy whose contact email matches their
// own login email.
func ForUser(u *models.User) Set {
	if u == nil {
		return Set{}
	}

	switch u.Role {
	case models.RoleAdmin:
		return Set{grants: []Grant{
			{Action: ActionManage, Subject: SubjectAll},
		}}

	case models.RoleAgent:
		return Set{grants: []Grant{
			{Action: ActionCreate, Subject: SubjectProduct},
			{Action: ActionUpdate, Subject: SubjectProduct},
			{Action: ActionRead, Subject: SubjectProduct},
			{Action: ActionRead, Subject: SubjectPharmacy},
		}}

	case models.RolePharmacist:
		owned := ownedBy(u.Email)
		return Set{grants: []Grant{
			{Action: ActionUpdate, Subject: SubjectProduct, Condition: owned},
			{Action: ActionCreate, Subject: SubjectProduct, Condition: owned},
			{Action: ActionRead, Subject: SubjectProduct, Condition: owned},
			{Action: ActionRead, Subject: SubjectPharmacy, Condition: owned},
		}}
	}

	return Set{}
}

// Can reports whether the set permits action on record. It scans grants in
// order and allows on the first grant whose action matches (directly or via
// manage), whose subject matches the record's kind (or "all"), and whose
// condition, if any, passes. It never errors: unknown record kinds only
// match "all" grants, and conditions over missing relations evaluate false.
func (s Set) Can(action Action, record any) bool {
	subject := subjectOf(record)
	for _, g := range s.grants {
		if g.Action != action && g.Action != ActionManage {
			continue
		}
		if g.Subject != SubjectAll && g.Subject != subject {
			continue
		}
		if g.Condition == nil || g.Condition(record) {
			return true
		}
	}
	return false
}

// ownedBy builds the pharmacist ownership condition: a pharmacy matches when
// its contact email equals the principal's email, a product matches through
// its attached pharmacy. A product without its pharmacy relation loaded
// fails the condition rather than erroring.
func ownedBy(email string) Condition {
	return func(record any) bool {
		switch r := record.(type) {
		case *models.Pharmacy:
			return r != nil && r.EmailAddress == email
		case *models.PharmacyProduct:
			return r != nil && r.Pharmacy != nil && r.Pharmacy.EmailAddress == email
		}
		return false
	}
}

func subjectOf(record any) Subject {
	switch record.(type) {
	case *models.Pharmacy:
		return SubjectPharmacy
	case *models.PharmacyProduct:
		return SubjectProduct
	}
	return ""
}
