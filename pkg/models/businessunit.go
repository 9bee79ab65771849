package models

import "time"

// BusinessUnit groups products and formularies for reporting.
type BusinessUnit struct {
	ID        string    `json:"bu_id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BusinessUnitProduct links a pharmacy product to a business unit with the
// quantity held by that unit. One row per (business unit, product).
type BusinessUnitProduct struct {
	BusinessUnitID string `json:"business_unit_id"`
	ProductID      int64  `json:"product_id"`
	Quantity       int    `json:"quantity"`
}

// Formulary is a named product list owned by a business unit.
type Formulary struct {
	ID             string    `json:"formulary_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	BusinessUnitID string    `json:"business_unit_id"`
	CreatedBy      int64     `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}

// BusinessUnitStockRow is one row of the aggregate stock report, computed
// in SQL grouped by business unit.
type BusinessUnitStockRow struct {
	BusinessUnitID      string  `json:"business_unit_id"`
	ProductCount        int64   `json:"product_count"`
	TotalQuantity       int64   `json:"total_quantity"`
	AverageSellingPrice float64 `json:"average_selling_price"`
	TotalStockValue     float64 `json:"total_stock_value"`
	ExpiredProductCount int64   `json:"expired_product_count"`
	AvailableStock      int64   `json:"available_stock"`
}

// DosageFormCount is one row of the products-per-dosage-form report.
type DosageFormCount struct {
	BusinessUnitID string     `json:"business_unit_id"`
	DosageForm     DosageForm `json:"dosage_form"`
	ProductCount   int64      `json:"product_count"`
}
