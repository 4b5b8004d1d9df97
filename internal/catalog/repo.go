package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/garagelabs/taller-backend/pkg/db/models"
	"github.com/garagelabs/taller-backend/pkg/pagination"
)

// Repository exposes service catalog persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateCategory inserts a new category row.
func (r *Repository) CreateCategory(ctx context.Context, category *models.ServiceCategory) (*models.ServiceCategory, error) {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// FindCategoryByID returns the category or gorm.ErrRecordNotFound.
func (r *Repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.ServiceCategory, error) {
	var category models.ServiceCategory
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// ListCategories returns all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.ServiceCategory, error) {
	var rows []models.ServiceCategory
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateService inserts a new catalog service row.
func (r *Repository) CreateService(ctx context.Context, svc *models.ShopService) (*models.ShopService, error) {
	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(svc).Error; err != nil {
		return nil, err
	}
	return svc, nil
}

// FindServiceByID returns the catalog service or gorm.ErrRecordNotFound.
func (r *Repository) FindServiceByID(ctx context.Context, id uuid.UUID) (*models.ShopService, error) {
	var svc models.ShopService
	if err := r.db.WithContext(ctx).First(&svc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &svc, nil
}

// ListServices returns catalog services, optionally filtered by category,
// a name search, and active flag.
func (r *Repository) ListServices(ctx context.Context, categoryID *uuid.UUID, search string, includeInactive bool, page pagination.Params) ([]models.ShopService, error) {
	query := r.db.WithContext(ctx).Model(&models.ShopService{})

	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}
	if !includeInactive {
		query = query.Where("active = ?", true)
	}
	if term := strings.TrimSpace(search); term != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(term)+"%")
	}

	query = query.Order("name ASC").Limit(page.Limit).Offset(page.Offset)

	var rows []models.ShopService
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateService persists the mutable catalog service fields.
func (r *Repository) UpdateService(ctx context.Context, svc *models.ShopService) error {
	return r.db.WithContext(ctx).Save(svc).Error
}
