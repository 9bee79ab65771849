package models

import "time"

// DosageForm enumerates the supported pharmaceutical dosage forms.
type DosageForm string

const (
	DosageTablets    DosageForm = "tablets"
	DosageCapsules   DosageForm = "capsules"
	DosageSyrup      DosageForm = "syrup"
	DosageSuspension DosageForm = "suspension"
	DosageInjection  DosageForm = "injection"
	DosageCream      DosageForm = "cream"
	DosageOintment   DosageForm = "ointment"
	DosageDrops      DosageForm = "drops"
	DosageInhaler    DosageForm = "inhaler"
)

// QuantityType describes the unit a stock quantity is counted in.
type QuantityType string

const (
	QuantityTablets QuantityType = "tablets"
	QuantityPacks   QuantityType = "packs"
	QuantityBottles QuantityType = "bottles"
	QuantityVials   QuantityType = "vials"
	QuantityTubes   QuantityType = "tubes"
)

// Pharmacy is a registered outlet. EmailAddress identifies the pharmacist
// that owns the pharmacy and is the key the ability evaluator scopes
// pharmacist grants on.
type Pharmacy struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	EmailAddress string `json:"email_address,omitempty"`
	Location     string `json:"location,omitempty"`
	AdminID      int64  `json:"admin_id,omitempty"`
}

// PharmacyProduct is a single inventory entry belonging to one pharmacy.
// The Pharmacy relation is attached on reads that need ownership checks;
// it may be nil on a partially constructed record.
type PharmacyProduct struct {
	ID              int64        `json:"id"`
	NafdacNumber    string       `json:"nafdac_number,omitempty"`
	ProductName     string       `json:"product_name"`
	ProductCode     string       `json:"product_code,omitempty"`
	DrugName        string       `json:"drug_name,omitempty"`
	Manufacturer    string       `json:"manufacturer"`
	Strength        string       `json:"strength,omitempty"`
	Unit            string       `json:"unit,omitempty"`
	DosageForm      DosageForm   `json:"dosage_form"`
	ExistsInRefList bool         `json:"exists_in_reference_list"`
	Quantity        int          `json:"quantity"`
	QuantityType    QuantityType `json:"quantity_type,omitempty"`
	SellingPrice    float64      `json:"selling_price,omitempty"`
	CostPrice       float64      `json:"cost_price,omitempty"`
	ExpiryDate      *time.Time   `json:"expiry_date,omitempty"`
	PharmacyID      int64        `json:"pharmacy_id"`
	Pharmacy        *Pharmacy    `json:"pharmacy,omitempty"`
	FormularyID     *string      `json:"formulary_id,omitempty"`
	BusinessUnitID  *string      `json:"business_unit_id,omitempty"`
	StockTakenAt    time.Time    `json:"stock_taken_at"`
	LastEditedAt    time.Time    `json:"last_edited_at"`
}

// ReferenceProduct is an entry in the national reference list, keyed by
// NAFDAC registration number.
type ReferenceProduct struct {
	NafdacNumber string `json:"nafdac_number"`
	ProductName  string `json:"product_name"`
	ProductCode  string `json:"product_code,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Strength     string `json:"strength,omitempty"`
	Unit         string `json:"unit,omitempty"`
	DosageForm   string `json:"dosage_form,omitempty"`
}

// PasswordReset is an outstanding forgot-password token. TokenHash is the
// SHA-256 hex of the 6-digit token; the plaintext is only mailed out.
type PasswordReset struct {
	Email     string    `json:"email"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}
