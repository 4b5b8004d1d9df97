package employees

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/garagelabs/taller-backend/pkg/db/models"
	"github.com/garagelabs/taller-backend/pkg/enums"
)

// Repository handles employee persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, employee *models.Employee) (*models.Employee, error) {
	if employee.ID == uuid.Nil {
		employee.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(employee).Error; err != nil {
		return nil, err
	}
	return employee, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	var employee models.Employee
	if err := r.db.WithContext(ctx).First(&employee, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *Repository) List(ctx context.Context, role *enums.Role, includeInactive bool) ([]models.Employee, error) {
	query := r.db.WithContext(ctx).Model(&models.Employee{})
	if role != nil {
		query = query.Where("role = ?", *role)
	}
	if !includeInactive {
		query = query.Where("active = ?", true)
	}

	var rows []models.Employee
	if err := query.Order("last_name ASC, first_name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) Update(ctx context.Context, employee *models.Employee) error {
	return r.db.WithContext(ctx).Save(employee).Error
}
