package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/org/adlist/pkg/models"
)

// PostgresBackend is a StorageBackend backed by PostgreSQL.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend opens a pgxpool connection and returns a ready backend.
func NewPostgresBackend(ctx context.Context, connStr string) (*PostgresBackend, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &PostgresBackend{pool: pool}, nil
}

func (p *PostgresBackend) Close() {
	p.pool.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- Users ---

func (p *PostgresBackend) CreateUser(ctx context.Context, u *models.User) error {
	err := p.pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, role) VALUES ($1, $2, $3) RETURNING id`,
		u.Email, u.PasswordHash, string(u.Role),
	).Scan(&u.ID)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (p *PostgresBackend) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, role FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (p *PostgresBackend) GetUser(ctx context.Context, id int64, email string) (*models.User, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, role FROM users WHERE id = $1 AND email = $2`, id, email)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}

func (p *PostgresBackend) UpdateUserPassword(ctx context.Context, email, passwordHash string) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2 WHERE email = $1`, email, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Password resets ---

func (p *PostgresBackend) UpsertPasswordReset(ctx context.Context, r *models.PasswordReset) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO password_resets (email, token_hash, expires_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (email) DO UPDATE SET token_hash = EXCLUDED.token_hash, expires_at = EXCLUDED.expires_at`,
		r.Email, r.TokenHash, r.ExpiresAt)
	return err
}

func (p *PostgresBackend) GetPasswordReset(ctx context.Context, tokenHash string) (*models.PasswordReset, error) {
	var r models.PasswordReset
	err := p.pool.QueryRow(ctx,
		`SELECT email, token_hash, expires_at FROM password_resets WHERE token_hash = $1`,
		tokenHash,
	).Scan(&r.Email, &r.TokenHash, &r.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *PostgresBackend) DeletePasswordReset(ctx context.Context, email string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM password_resets WHERE email = $1`, email)
	return err
}

// --- Pharmacies ---

func (p *PostgresBackend) CreatePharmacy(ctx context.Context, ph *models.Pharmacy) error {
	err := p.pool.QueryRow(ctx,
		`INSERT INTO pharmacies (name, phone_number, email_address, location, admin_id)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		ph.Name, ph.PhoneNumber, ph.EmailAddress, ph.Location, ph.AdminID,
	).Scan(&ph.ID)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

const pharmacyCols = `id, name, COALESCE(phone_number, ''), COALESCE(email_address, ''), COALESCE(location, ''), admin_id`

func (p *PostgresBackend) GetPharmacy(ctx context.Context, id int64) (*models.Pharmacy, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+pharmacyCols+` FROM pharmacies WHERE id = $1`, id)
	return scanPharmacy(row)
}

func (p *PostgresBackend) GetPharmacyByEmail(ctx context.Context, email string) (*models.Pharmacy, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+pharmacyCols+` FROM pharmacies WHERE email_address = $1`, email)
	return scanPharmacy(row)
}

func scanPharmacy(row pgx.Row) (*models.Pharmacy, error) {
	var ph models.Pharmacy
	err := row.Scan(&ph.ID, &ph.Name, &ph.PhoneNumber, &ph.EmailAddress, &ph.Location, &ph.AdminID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ph, nil
}

func (p *PostgresBackend) ListPharmacies(ctx context.Context) ([]*models.Pharmacy, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+pharmacyCols+` FROM pharmacies ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPharmacies(rows)
}

func (p *PostgresBackend) SearchPharmaciesByName(ctx context.Context, query string) ([]*models.Pharmacy, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+pharmacyCols+` FROM pharmacies WHERE name ILIKE $1 ORDER BY id`,
		"%"+query+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPharmacies(rows)
}

func collectPharmacies(rows pgx.Rows) ([]*models.Pharmacy, error) {
	var out []*models.Pharmacy
	for rows.Next() {
		ph, err := scanPharmacy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ph)
	}
	return out, rows.Err()
}

// --- Pharmacy products ---

const productCols = `
	p.id, COALESCE(p.nafdac_number, ''), p.product_name, COALESCE(p.product_code, ''),
	COALESCE(p.drug_name, ''), p.manufacturer, COALESCE(p.strength, ''), COALESCE(p.unit, ''),
	p.dosage_form, p.exists_in_ref_list, COALESCE(p.quantity, 0), COALESCE(p.quantity_type, ''),
	COALESCE(p.selling_price, 0), COALESCE(p.cost_price, 0), p.expiry_date,
	p.pharmacy_id, p.formulary_id, p.business_unit_id, p.stock_taken_at, p.last_edited_at,
	ph.name, COALESCE(ph.phone_number, ''), COALESCE(ph.email_address, ''), COALESCE(ph.location, ''), ph.admin_id`

const productFrom = ` FROM pharmacy_products p JOIN pharmacies ph ON ph.id = p.pharmacy_id `

func scanProduct(row pgx.Row) (*models.PharmacyProduct, error) {
	var pr models.PharmacyProduct
	var ph models.Pharmacy
	var dosageForm, quantityType string
	err := row.Scan(
		&pr.ID, &pr.NafdacNumber, &pr.ProductName, &pr.ProductCode,
		&pr.DrugName, &pr.Manufacturer, &pr.Strength, &pr.Unit,
		&dosageForm, &pr.ExistsInRefList, &pr.Quantity, &quantityType,
		&pr.SellingPrice, &pr.CostPrice, &pr.ExpiryDate,
		&pr.PharmacyID, &pr.FormularyID, &pr.BusinessUnitID, &pr.StockTakenAt, &pr.LastEditedAt,
		&ph.Name, &ph.PhoneNumber, &ph.EmailAddress, &ph.Location, &ph.AdminID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	pr.DosageForm = models.DosageForm(dosageForm)
	pr.QuantityType = models.QuantityType(quantityType)
	ph.ID = pr.PharmacyID
	pr.Pharmacy = &ph
	return &pr, nil
}

func (p *PostgresBackend) CreateProduct(ctx context.Context, pr *models.PharmacyProduct) error {
	return p.pool.QueryRow(ctx,
		`INSERT INTO pharmacy_products
		   (nafdac_number, product_name, product_code, drug_name, manufacturer, strength, unit,
		    dosage_form, exists_in_ref_list, quantity, quantity_type, selling_price, cost_price,
		    expiry_date, pharmacy_id, formulary_id, business_unit_id, stock_taken_at, last_edited_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		 RETURNING id`,
		nullIfEmpty(pr.NafdacNumber), pr.ProductName, nullIfEmpty(pr.ProductCode),
		nullIfEmpty(pr.DrugName), pr.Manufacturer, nullIfEmpty(pr.Strength), nullIfEmpty(pr.Unit),
		string(pr.DosageForm), pr.ExistsInRefList, pr.Quantity, string(pr.QuantityType),
		pr.SellingPrice, pr.CostPrice, pr.ExpiryDate, pr.PharmacyID,
		pr.FormularyID, pr.BusinessUnitID, pr.StockTakenAt, pr.LastEditedAt,
	).Scan(&pr.ID)
}

func (p *PostgresBackend) UpdateProduct(ctx context.Context, pr *models.PharmacyProduct) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE pharmacy_products SET
		   nafdac_number = $2, product_name = $3, product_code = $4, drug_name = $5,
		   manufacturer = $6, strength = $7, unit = $8, dosage_form = $9,
		   exists_in_ref_list = $10, quantity = $11, quantity_type = $12,
		   selling_price = $13, cost_price = $14, expiry_date = $15,
		   formulary_id = $16, business_unit_id = $17, last_edited_at = $18
		 WHERE id = $1`,
		pr.ID, nullIfEmpty(pr.NafdacNumber), pr.ProductName, nullIfEmpty(pr.ProductCode),
		nullIfEmpty(pr.DrugName), pr.Manufacturer, nullIfEmpty(pr.Strength), nullIfEmpty(pr.Unit),
		string(pr.DosageForm), pr.ExistsInRefList, pr.Quantity, string(pr.QuantityType),
		pr.SellingPrice, pr.CostPrice, pr.ExpiryDate,
		pr.FormularyID, pr.BusinessUnitID, pr.LastEditedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresBackend) GetProduct(ctx context.Context, pharmacyID, entryID int64) (*models.PharmacyProduct, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+productCols+productFrom+`WHERE p.id = $1 AND p.pharmacy_id = $2`,
		entryID, pharmacyID)
	return scanProduct(row)
}

func (p *PostgresBackend) FindProductByCode(ctx context.Context, pharmacyID int64, nafdacNumber, productCode string) (*models.PharmacyProduct, error) {
	var row pgx.Row
	if nafdacNumber != "" {
		row = p.pool.QueryRow(ctx,
			`SELECT `+productCols+productFrom+`WHERE p.pharmacy_id = $1 AND p.nafdac_number = $2`,
			pharmacyID, nafdacNumber)
	} else {
		row = p.pool.QueryRow(ctx,
			`SELECT `+productCols+productFrom+`WHERE p.pharmacy_id = $1 AND p.product_code = $2`,
			pharmacyID, productCode)
	}
	return scanProduct(row)
}

func (p *PostgresBackend) ListProducts(ctx context.Context, pharmacyID int64, filter ProductFilter) ([]*models.PharmacyProduct, error) {
	query := `SELECT ` + productCols + productFrom + `WHERE p.pharmacy_id = $1`
	if filter.OnlyNew {
		query += ` AND p.exists_in_ref_list = FALSE`
	}
	query += ` ORDER BY p.id`

	rows, err := p.pool.Query(ctx, query, pharmacyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.PharmacyProduct
	for rows.Next() {
		pr, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

func (p *PostgresBackend) DeleteProduct(ctx context.Context, pharmacyID, entryID int64) error {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM pharmacy_products WHERE id = $1 AND pharmacy_id = $2`, entryID, pharmacyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Reference list ---

func (p *PostgresBackend) ListReferenceProducts(ctx context.Context) ([]*models.ReferenceProduct, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT nafdac_number, product_name, COALESCE(product_code, ''), COALESCE(manufacturer, ''),
		        COALESCE(strength, ''), COALESCE(unit, ''), COALESCE(dosage_form, '')
		 FROM reference_list ORDER BY nafdac_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ReferenceProduct
	for rows.Next() {
		var rp models.ReferenceProduct
		if err := rows.Scan(&rp.NafdacNumber, &rp.ProductName, &rp.ProductCode,
			&rp.Manufacturer, &rp.Strength, &rp.Unit, &rp.DosageForm); err != nil {
			return nil, err
		}
		out = append(out, &rp)
	}
	return out, rows.Err()
}

func (p *PostgresBackend) SearchReferenceProductsByNRN(ctx context.Context, query string) ([]*models.ReferenceProduct, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT nafdac_number, product_name, COALESCE(product_code, ''), COALESCE(manufacturer, ''),
		        COALESCE(strength, ''), COALESCE(unit, ''), COALESCE(dosage_form, '')
		 FROM reference_list WHERE nafdac_number ILIKE $1 ORDER BY nafdac_number`,
		"%"+query+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ReferenceProduct
	for rows.Next() {
		var rp models.ReferenceProduct
		if err := rows.Scan(&rp.NafdacNumber, &rp.ProductName, &rp.ProductCode,
			&rp.Manufacturer, &rp.Strength, &rp.Unit, &rp.DosageForm); err != nil {
			return nil, err
		}
		out = append(out, &rp)
	}
	return out, rows.Err()
}

func (p *PostgresBackend) FindReferenceProduct(ctx context.Context, nafdacNumber, productCode string) (*models.ReferenceProduct, error) {
	var row pgx.Row
	if nafdacNumber != "" {
		row = p.pool.QueryRow(ctx,
			`SELECT nafdac_number, product_name, COALESCE(product_code, ''), COALESCE(manufacturer, ''),
			        COALESCE(strength, ''), COALESCE(unit, ''), COALESCE(dosage_form, '')
			 FROM reference_list WHERE nafdac_number = $1`, nafdacNumber)
	} else {
		row = p.pool.QueryRow(ctx,
			`SELECT nafdac_number, product_name, COALESCE(product_code, ''), COALESCE(manufacturer, ''),
			        COALESCE(strength, ''), COALESCE(unit, ''), COALESCE(dosage_form, '')
			 FROM reference_list WHERE product_code = $1`, productCode)
	}
	var rp models.ReferenceProduct
	err := row.Scan(&rp.NafdacNumber, &rp.ProductName, &rp.ProductCode,
		&rp.Manufacturer, &rp.Strength, &rp.Unit, &rp.DosageForm)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rp, nil
}

// --- Inventory update time ---

func (p *PostgresBackend) GetInventoryUpdateTime(ctx context.Context, pharmacyID int64) (time.Time, error) {
	var t time.Time
	err := p.pool.QueryRow(ctx,
		`SELECT updated_at FROM inventory_update_times WHERE pharmacy_id = $1`, pharmacyID,
	).Scan(&t)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	return t, err
}

func (p *PostgresBackend) UpsertInventoryUpdateTime(ctx context.Context, pharmacyID int64, updatedAt time.Time) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO inventory_update_times (pharmacy_id, updated_at)
		 VALUES ($1, $2)
		 ON CONFLICT (pharmacy_id) DO UPDATE SET updated_at = EXCLUDED.updated_at`,
		pharmacyID, updatedAt)
	return err
}

// --- Business units ---

func (p *PostgresBackend) CreateBusinessUnit(ctx context.Context, bu *models.BusinessUnit) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO business_units (bu_id, name, location, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		bu.ID, bu.Name, bu.Location, bu.CreatedAt, bu.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (p *PostgresBackend) GetBusinessUnit(ctx context.Context, id string) (*models.BusinessUnit, error) {
	var bu models.BusinessUnit
	err := p.pool.QueryRow(ctx,
		`SELECT bu_id, name, location, created_at, updated_at FROM business_units WHERE bu_id = $1`, id,
	).Scan(&bu.ID, &bu.Name, &bu.Location, &bu.CreatedAt, &bu.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bu, nil
}

func (p *PostgresBackend) ListBusinessUnits(ctx context.Context) ([]*models.BusinessUnit, error) {
	return p.queryBusinessUnits(ctx,
		`SELECT bu_id, name, location, created_at, updated_at FROM business_units ORDER BY created_at`)
}

func (p *PostgresBackend) SearchBusinessUnits(ctx context.Context, query string) ([]*models.BusinessUnit, error) {
	return p.queryBusinessUnits(ctx,
		`SELECT bu_id, name, location, created_at, updated_at FROM business_units
		 WHERE name ILIKE $1 OR location ILIKE $1 ORDER BY created_at`,
		"%"+query+"%")
}

func (p *PostgresBackend) queryBusinessUnits(ctx context.Context, sql string, args ...any) ([]*models.BusinessUnit, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.BusinessUnit
	for rows.Next() {
		var bu models.BusinessUnit
		if err := rows.Scan(&bu.ID, &bu.Name, &bu.Location, &bu.CreatedAt, &bu.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &bu)
	}
	return out, rows.Err()
}

func (p *PostgresBackend) UpdateBusinessUnit(ctx context.Context, bu *models.BusinessUnit) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE business_units SET name = $2, location = $3, updated_at = $4 WHERE bu_id = $1`,
		bu.ID, bu.Name, bu.Location, bu.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresBackend) DeleteBusinessUnit(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM business_units WHERE bu_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresBackend) UpsertBusinessUnitProduct(ctx context.Context, link *models.BusinessUnitProduct) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO business_unit_products (business_unit_id, product_id, quantity)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (business_unit_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity`,
		link.BusinessUnitID, link.ProductID, link.Quantity)
	return err
}

func (p *PostgresBackend) ListProductsByBusinessUnit(ctx context.Context, businessUnitID string) ([]*models.PharmacyProduct, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+productCols+productFrom+`
		 JOIN business_unit_products bup ON bup.product_id = p.id
		 WHERE bup.business_unit_id = $1 ORDER BY p.id`,
		businessUnitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.PharmacyProduct
	for rows.Next() {
		pr, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

// --- Reports ---

func (p *PostgresBackend) BusinessUnitStockReport(ctx context.Context) ([]*models.BusinessUnitStockRow, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT bup.business_unit_id,
		        COUNT(p.id),
		        COALESCE(SUM(bup.quantity), 0),
		        COALESCE(AVG(p.selling_price), 0),
		        COALESCE(SUM(bup.quantity * p.selling_price), 0),
		        COUNT(CASE WHEN p.expiry_date < CURRENT_DATE THEN 1 END),
		        COALESCE(SUM(CASE WHEN p.expiry_date IS NULL OR p.expiry_date >= CURRENT_DATE THEN bup.quantity ELSE 0 END), 0)
		 FROM business_unit_products bup
		 JOIN pharmacy_products p ON p.id = bup.product_id
		 GROUP BY bup.business_unit_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.BusinessUnitStockRow
	for rows.Next() {
		var r models.BusinessUnitStockRow
		if err := rows.Scan(&r.BusinessUnitID, &r.ProductCount, &r.TotalQuantity,
			&r.AverageSellingPrice, &r.TotalStockValue, &r.ExpiredProductCount, &r.AvailableStock); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (p *PostgresBackend) BusinessUnitDosageFormReport(ctx context.Context) ([]*models.DosageFormCount, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT bup.business_unit_id, p.dosage_form, COUNT(p.id)
		 FROM business_unit_products bup
		 JOIN pharmacy_products p ON p.id = bup.product_id
		 GROUP BY bup.business_unit_id, p.dosage_form`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.DosageFormCount
	for rows.Next() {
		var r models.DosageFormCount
		var form string
		if err := rows.Scan(&r.BusinessUnitID, &form, &r.ProductCount); err != nil {
			return nil, err
		}
		r.DosageForm = models.DosageForm(form)
		out = append(out, &r)
	}
	return out, rows.Err()
}

// --- Formularies ---

func (p *PostgresBackend) CreateFormulary(ctx context.Context, f *models.Formulary) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO formularies (formulary_id, name, description, business_unit_id, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		f.ID, f.Name, nullIfEmpty(f.Description), f.BusinessUnitID, f.CreatedBy, f.CreatedAt)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (p *PostgresBackend) GetFormulary(ctx context.Context, id string) (*models.Formulary, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT formulary_id, name, COALESCE(description, ''), business_unit_id, created_by, created_at
		 FROM formularies WHERE formulary_id = $1`, id)
	return scanFormulary(row)
}

func scanFormulary(row pgx.Row) (*models.Formulary, error) {
	var f models.Formulary
	err := row.Scan(&f.ID, &f.Name, &f.Description, &f.BusinessUnitID, &f.CreatedBy, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (p *PostgresBackend) ListFormularies(ctx context.Context) ([]*models.Formulary, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT formulary_id, name, COALESCE(description, ''), business_unit_id, created_by, created_at
		 FROM formularies ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Formulary
	for rows.Next() {
		f, err := scanFormulary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (p *PostgresBackend) UpdateFormulary(ctx context.Context, f *models.Formulary) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE formularies SET name = $2, description = $3, business_unit_id = $4 WHERE formulary_id = $1`,
		f.ID, f.Name, nullIfEmpty(f.Description), f.BusinessUnitID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresBackend) DeleteFormulary(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM formularies WHERE formulary_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Audit ---

func (p *PostgresBackend) WriteAuditEntry(ctx context.Context, e *models.AuditEntry) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO audit_log (request_id, ts, user_email, operation, path, response_code, response_time_ms, client_ip)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.RequestID, e.Timestamp, nullIfEmpty(e.UserEmail), e.Operation, e.Path,
		e.ResponseCode, e.ResponseTimeMs, e.ClientIP)
	return err
}

func (p *PostgresBackend) QueryAuditLog(ctx context.Context, filter AuditFilter) ([]*models.AuditEntry, error) {
	var conds []string
	var args []any
	if filter.Path != "" {
		args = append(args, "%"+filter.Path+"%")
		conds = append(conds, fmt.Sprintf("path LIKE $%d", len(args)))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		conds = append(conds, fmt.Sprintf("ts >= $%d", len(args)))
	}
	query := `SELECT id, request_id, ts, COALESCE(user_email, ''), operation, path, response_code, response_time_ms, client_ip FROM audit_log`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY ts DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Timestamp, &e.UserEmail,
			&e.Operation, &e.Path, &e.ResponseCode, &e.ResponseTimeMs, &e.ClientIP); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// --- Metrics helpers ---

func (p *PostgresBackend) CountPharmacies(ctx context.Context) (int64, error) {
	var n int64
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM pharmacies`).Scan(&n)
	return n, err
}

func (p *PostgresBackend) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM pharmacy_products`).Scan(&n)
	return n, err
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
