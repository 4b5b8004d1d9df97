package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/garagelabs/taller-backend/pkg/db/models"
	"github.com/garagelabs/taller-backend/pkg/pagination"
)

// Repository exposes supplier, part, and movement persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an inventory repository tied to the provided GORM DB.
// Pass a transaction to scope every call to it.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateSupplier inserts a new supplier row.
func (r *Repository) CreateSupplier(ctx context.Context, supplier *models.Supplier) (*models.Supplier, error) {
	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(supplier).Error; err != nil {
		return nil, err
	}
	return supplier, nil
}

// FindSupplierByID returns the supplier or gorm.ErrRecordNotFound.
func (r *Repository) FindSupplierByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

// ListSuppliers returns suppliers ordered by name.
func (r *Repository) ListSuppliers(ctx context.Context, includeInactive bool) ([]models.Supplier, error) {
	query := r.db.WithContext(ctx).Model(&models.Supplier{})
	if !includeInactive {
		query = query.Where("active = ?", true)
	}
	var rows []models.Supplier
	if err := query.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateSupplier persists the mutable supplier fields.
func (r *Repository) UpdateSupplier(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Save(supplier).Error
}

// CreatePart inserts a new part row.
func (r *Repository) CreatePart(ctx context.Context, part *models.Part) (*models.Part, error) {
	if part.ID == uuid.Nil {
		part.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(part).Error; err != nil {
		return nil, err
	}
	return part, nil
}

// FindPartByID returns the part or gorm.ErrRecordNotFound.
func (r *Repository) FindPartByID(ctx context.Context, id uuid.UUID) (*models.Part, error) {
	var part models.Part
	if err := r.db.WithContext(ctx).First(&part, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &part, nil
}

// PartStock reads the current stock count. Inside a transaction that just
// ran a guarded update this sees the updated value, so ledger rows derived
// from it stay consistent under concurrent writers.
func (r *Repository) PartStock(ctx context.Context, partID uuid.UUID) (int, error) {
	var stock int
	err := r.db.WithContext(ctx).Model(&models.Part{}).
		Where("id = ?", partID).
		Pluck("stock", &stock).Error
	if err != nil {
		return 0, err
	}
	return stock, nil
}

// DecrementStock atomically subtracts qty, refusing to go below zero.
// Returns false when stock was insufficient.
func (r *Repository) DecrementStock(ctx context.Context, partID uuid.UUID, qty int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Part{}).
		Where("id = ? AND stock >= ?", partID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// IncrementStock atomically adds qty back.
func (r *Repository) IncrementStock(ctx context.Context, partID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).Model(&models.Part{}).
		Where("id = ?", partID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
}

// ListParts returns parts filtered by a SKU/name search and active flag.
func (r *Repository) ListParts(ctx context.Context, search string, includeInactive, lowStockOnly bool, page pagination.Params) ([]models.Part, error) {
	query := r.db.WithContext(ctx).Model(&models.Part{})

	if !includeInactive {
		query = query.Where("active = ?", true)
	}
	if lowStockOnly {
		query = query.Where("stock <= min_stock")
	}
	if term := strings.TrimSpace(search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("LOWER(sku) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}

	query = query.Order("name ASC").Limit(page.Limit).Offset(page.Offset)

	var rows []models.Part
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdatePart persists the mutable part fields.
func (r *Repository) UpdatePart(ctx context.Context, part *models.Part) error {
	return r.db.WithContext(ctx).Save(part).Error
}

// CreateMovement appends a ledger row.
func (r *Repository) CreateMovement(ctx context.Context, movement *models.InventoryMovement) (*models.InventoryMovement, error) {
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(movement).Error; err != nil {
		return nil, err
	}
	return movement, nil
}

// ListMovements returns the ledger for one part, newest first.
func (r *Repository) ListMovements(ctx context.Context, partID uuid.UUID, page pagination.Params) ([]models.InventoryMovement, error) {
	var rows []models.InventoryMovement
	err := r.db.WithContext(ctx).
		Where("part_id = ?", partID).
		Order("created_at DESC").Order("id DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
