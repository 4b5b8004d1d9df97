package vehicles

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/garagelabs/taller-backend/pkg/db/models"
	"github.com/garagelabs/taller-backend/pkg/pagination"
)

// Repository exposes vehicle persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a vehicle repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new vehicle row.
func (r *Repository) Create(ctx context.Context, vehicle *models.Vehicle) (*models.Vehicle, error) {
	if vehicle.ID == uuid.Nil {
		vehicle.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(vehicle).Error; err != nil {
		return nil, err
	}
	return vehicle, nil
}

// FindByID returns the vehicle or gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := r.db.WithContext(ctx).First(&vehicle, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// FindByPlate returns the vehicle with the normalized plate or gorm.ErrRecordNotFound.
func (r *Repository) FindByPlate(ctx context.Context, plate string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := r.db.WithContext(ctx).First(&vehicle, "plate = ?", strings.ToUpper(strings.TrimSpace(plate))).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// List returns vehicles, optionally scoped to one client or a plate search.
func (r *Repository) List(ctx context.Context, clientID *uuid.UUID, plateSearch string, page pagination.Params) ([]models.Vehicle, error) {
	query := r.db.WithContext(ctx).Model(&models.Vehicle{})

	if clientID != nil {
		query = query.Where("client_id = ?", *clientID)
	}
	if term := strings.TrimSpace(plateSearch); term != "" {
		query = query.Where("plate LIKE ?", "%"+strings.ToUpper(term)+"%")
	}

	query = query.Order("created_at DESC").Order("id DESC").
		Limit(page.Limit).Offset(page.Offset)

	var rows []models.Vehicle
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update persists the mutable vehicle fields.
func (r *Repository) Update(ctx context.Context, vehicle *models.Vehicle) error {
	return r.db.WithContext(ctx).Save(vehicle).Error
}
