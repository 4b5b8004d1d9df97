package clients

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/garagelabs/taller-backend/pkg/db/models"
	"github.com/garagelabs/taller-backend/pkg/pagination"
)

// Repository exposes client persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a client repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new client row.
func (r *Repository) Create(ctx context.Context, client *models.Client) (*models.Client, error) {
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(client).Error; err != nil {
		return nil, err
	}
	return client, nil
}

// FindByID returns the client or gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).First(&client, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// List returns clients ordered by last name, optionally filtered by a free
// text search over name, phone, and email.
func (r *Repository) List(ctx context.Context, search string, includeInactive bool, page pagination.Params) ([]models.Client, error) {
	query := r.db.WithContext(ctx).Model(&models.Client{})

	if !includeInactive {
		query = query.Where("active = ?", true)
	}
	if term := strings.TrimSpace(search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR phone LIKE ? OR LOWER(COALESCE(email, '')) LIKE ?",
			like, like, like, like,
		)
	}

	query = query.Order("last_name ASC").Order("first_name ASC").
		Limit(page.Limit).Offset(page.Offset)

	var rows []models.Client
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update persists the mutable client fields.
func (r *Repository) Update(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Save(client).Error
}

// CountVehicles returns how many vehicles reference the client.
func (r *Repository) CountVehicles(ctx context.Context, clientID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Vehicle{}).
		Where("client_id = ?", clientID).Count(&count).Error
	return count, err
}
