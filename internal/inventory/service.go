package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/garagelabs/taller-backend/pkg/db"
	"github.com/garagelabs/taller-backend/pkg/db/models"
	"github.com/garagelabs/taller-backend/pkg/enums"
	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
	"github.com/garagelabs/taller-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type inventoryRepository interface {
	CreateSupplier(ctx context.Context, supplier *models.Supplier) (*models.Supplier, error)
	FindSupplierByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	ListSuppliers(ctx context.Context, includeInactive bool) ([]models.Supplier, error)
	UpdateSupplier(ctx context.Context, supplier *models.Supplier) error
	CreatePart(ctx context.Context, part *models.Part) (*models.Part, error)
	FindPartByID(ctx context.Context, id uuid.UUID) (*models.Part, error)
	ListParts(ctx context.Context, search string, includeInactive, lowStockOnly bool, page pagination.Params) ([]models.Part, error)
	UpdatePart(ctx context.Context, part *models.Part) error
	ListMovements(ctx context.Context, partID uuid.UUID, page pagination.Params) ([]models.InventoryMovement, error)
}

// Service exposes supplier, part, and stock ledger semantics.
type Service interface {
	CreateSupplier(ctx context.Context, input SupplierInput) (*models.Supplier, error)
	ListSuppliers(ctx context.Context, includeInactive bool) ([]models.Supplier, error)
	DeactivateSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error)

	CreatePart(ctx context.Context, input PartInput) (*models.Part, error)
	GetPart(ctx context.Context, id uuid.UUID) (*models.Part, error)
	ListParts(ctx context.Context, params ListPartsParams) ([]models.Part, error)
	UpdatePart(ctx context.Context, id uuid.UUID, input UpdatePartInput) (*models.Part, error)
	DeactivatePart(ctx context.Context, id uuid.UUID) (*models.Part, error)

	AdjustStock(ctx context.Context, employeeID uuid.UUID, input AdjustStockInput) (*models.InventoryMovement, error)
	ListMovements(ctx context.Context, partID uuid.UUID, page pagination.Params) ([]models.InventoryMovement, error)
}

type service struct {
	repo inventoryRepository
	db   txRunner
}

// SupplierInput holds the fields for a new supplier.
type SupplierInput struct {
	Name        string
	ContactName *string
	Phone       *string
	Email       *string
	Address     *string
}

// PartInput holds the fields for a new part. InitialStock seeds the ledger
// with a purchase movement when positive.
type PartInput struct {
	SupplierID   *uuid.UUID
	SKU          string
	Name         string
	Description  *string
	UnitPrice    decimal.Decimal
	UnitCost     decimal.Decimal
	MinStock     int
	InitialStock int
	EmployeeID   uuid.UUID
}

// UpdatePartInput carries optional field updates; nil means unchanged.
// Stock is deliberately absent: it only moves through AdjustStock.
type UpdatePartInput struct {
	SupplierID  *uuid.UUID
	Name        *string
	Description *string
	UnitPrice   *decimal.Decimal
	UnitCost    *decimal.Decimal
	MinStock    *int
}

// AdjustStockInput describes a manual ledger entry. Quantity is signed for
// adjustments and must be positive for purchases and returns.
type AdjustStockInput struct {
	PartID    uuid.UUID
	Reason    enums.MovementReason
	Quantity  int
	Reference *string
	Notes     *string
}

// ListPartsParams filters the part listing.
type ListPartsParams struct {
	Search          string
	IncludeInactive bool
	LowStockOnly    bool
	Page            pagination.Params
}

// NewService builds an inventory service backed by the provided repository
// and transaction runner.
func NewService(repo inventoryRepository, txDB txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if txDB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, db: txDB}, nil
}

func (s *service) CreateSupplier(ctx context.Context, input SupplierInput) (*models.Supplier, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	supplier := &models.Supplier{
		Name:        strings.TrimSpace(input.Name),
		ContactName: input.ContactName,
		Phone:       input.Phone,
		Email:       input.Email,
		Address:     input.Address,
		Active:      true,
	}
	created, err := s.repo.CreateSupplier(ctx, supplier)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "supplier name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create supplier")
	}
	return created, nil
}

func (s *service) ListSuppliers(ctx context.Context, includeInactive bool) ([]models.Supplier, error) {
	rows, err := s.repo.ListSuppliers(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list suppliers")
	}
	return rows, nil
}

func (s *service) DeactivateSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id is required")
	}
	supplier, err := s.repo.FindSupplierByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find supplier")
	}
	if !supplier.Active {
		return supplier, nil
	}

	supplier.Active = false
	if err := s.repo.UpdateSupplier(ctx, supplier); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate supplier")
	}
	return supplier, nil
}

func (s *service) CreatePart(ctx context.Context, input PartInput) (*models.Part, error) {
	if strings.TrimSpace(input.SKU) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.UnitPrice.IsNegative() || input.UnitCost.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices cannot be negative")
	}
	if input.MinStock < 0 || input.InitialStock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock levels cannot be negative")
	}
	if input.InitialStock > 0 && input.EmployeeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee identity missing")
	}

	if input.SupplierID != nil {
		if _, err := s.repo.FindSupplierByID(ctx, *input.SupplierID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find supplier")
		}
	}

	part := &models.Part{
		SupplierID:  input.SupplierID,
		SKU:         strings.ToUpper(strings.TrimSpace(input.SKU)),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		UnitPrice:   input.UnitPrice,
		UnitCost:    input.UnitCost,
		Stock:       input.InitialStock,
		MinStock:    input.MinStock,
		Active:      true,
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := NewRepository(tx)
		if _, err := txRepo.CreatePart(ctx, part); err != nil {
			return err
		}
		if input.InitialStock > 0 {
			_, err := txRepo.CreateMovement(ctx, &models.InventoryMovement{
				PartID:      part.ID,
				Reason:      enums.MovementReasonPurchase,
				Quantity:    input.InitialStock,
				StockBefore: 0,
				StockAfter:  input.InitialStock,
				EmployeeID:  input.EmployeeID,
			})
			return err
		}
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "sku already exists").
				WithDetails(map[string]any{"sku": part.SKU})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create part")
	}
	return part, nil
}

func (s *service) GetPart(ctx context.Context, id uuid.UUID) (*models.Part, error) {
	return s.findPart(ctx, id)
}

func (s *service) ListParts(ctx context.Context, params ListPartsParams) ([]models.Part, error) {
	rows, err := s.repo.ListParts(ctx, params.Search, params.IncludeInactive, params.LowStockOnly, pagination.Normalize(params.Page))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list parts")
	}
	return rows, nil
}

func (s *service) UpdatePart(ctx context.Context, id uuid.UUID, input UpdatePartInput) (*models.Part, error) {
	part, err := s.findPart(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.SupplierID != nil {
		if _, err := s.repo.FindSupplierByID(ctx, *input.SupplierID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find supplier")
		}
		part.SupplierID = input.SupplierID
	}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		part.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		part.Description = input.Description
	}
	if input.UnitPrice != nil {
		if input.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit_price cannot be negative")
		}
		part.UnitPrice = *input.UnitPrice
	}
	if input.UnitCost != nil {
		if input.UnitCost.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit_cost cannot be negative")
		}
		part.UnitCost = *input.UnitCost
	}
	if input.MinStock != nil {
		if *input.MinStock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_stock cannot be negative")
		}
		part.MinStock = *input.MinStock
	}

	if err := s.repo.UpdatePart(ctx, part); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update part")
	}
	return part, nil
}

func (s *service) DeactivatePart(ctx context.Context, id uuid.UUID) (*models.Part, error) {
	part, err := s.findPart(ctx, id)
	if err != nil {
		return nil, err
	}
	if !part.Active {
		return part, nil
	}

	part.Active = false
	if err := s.repo.UpdatePart(ctx, part); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate part")
	}
	return part, nil
}

// AdjustStock applies a manual stock change and appends the matching ledger
// row in one transaction.
func (s *service) AdjustStock(ctx context.Context, employeeID uuid.UUID, input AdjustStockInput) (*models.InventoryMovement, error) {
	if employeeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee identity missing")
	}
	if input.PartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "part_id is required")
	}
	if input.Quantity == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be zero")
	}

	switch input.Reason {
	case enums.MovementReasonPurchase, enums.MovementReasonReturn:
		if input.Quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive for this reason")
		}
	case enums.MovementReasonAdjustment:
	case enums.MovementReasonTicketUse:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket_use movements are written by ticket operations")
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid movement reason")
	}

	var movement *models.InventoryMovement
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := NewRepository(tx)

		part, err := txRepo.FindPartByID(ctx, input.PartID)
		if err != nil {
			return err
		}

		if input.Quantity < 0 {
			ok, err := txRepo.DecrementStock(ctx, part.ID, -input.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
					WithDetails(map[string]any{"part_id": part.ID, "stock": part.Stock})
			}
		} else {
			if err := txRepo.IncrementStock(ctx, part.ID, input.Quantity); err != nil {
				return err
			}
		}

		// Re-read after the guarded update; the movement row must reflect
		// the stock the update actually applied against.
		after, err := txRepo.PartStock(ctx, part.ID)
		if err != nil {
			return err
		}

		movement, err = txRepo.CreateMovement(ctx, &models.InventoryMovement{
			PartID:      part.ID,
			Reason:      input.Reason,
			Quantity:    input.Quantity,
			StockBefore: after - input.Quantity,
			StockAfter:  after,
			Reference:   input.Reference,
			EmployeeID:  employeeID,
			Notes:       input.Notes,
		})
		return err
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "part not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock")
	}
	return movement, nil
}

func (s *service) ListMovements(ctx context.Context, partID uuid.UUID, page pagination.Params) ([]models.InventoryMovement, error) {
	if partID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "part_id is required")
	}
	rows, err := s.repo.ListMovements(ctx, partID, pagination.Normalize(page))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list movements")
	}
	return rows, nil
}

func (s *service) findPart(ctx context.Context, id uuid.UUID) (*models.Part, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "part id is required")
	}
	part, err := s.repo.FindPartByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "part not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find part")
	}
	return part, nil
}
