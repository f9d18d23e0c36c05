package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"foodslink_backend/internal/models"
)

// TenantRepository exposes the tenant configuration the engine consumes.
// Tenant management (registration, plan tiers, table limits) belongs to the
// external administration system; this repository only reads.
type TenantRepository interface {
	GetTenantByID(tenantID int64) (*models.Tenant, error)
}

type tenantRepository struct {
	db *sql.DB
}

// NewTenantRepository creates a new instance of TenantRepository.
func NewTenantRepository(db *sql.DB) TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) GetTenantByID(tenantID int64) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	query := `SELECT id, name, upi_address, created_at, updated_at
	          FROM tenants
	          WHERE id = $1`
	err := r.db.QueryRow(query, tenantID).Scan(
		&tenant.ID, &tenant.Name, &tenant.UPIAddr, &tenant.CreatedAt, &tenant.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting tenant by ID %d: %v", ErrDatabaseError, tenantID, err)
	}
	return tenant, nil
}
