package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/garagelabs/taller-backend/pkg/errors"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	categoriesTable := `
CREATE TABLE IF NOT EXISTS service_categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  description TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	servicesTable := `
CREATE TABLE IF NOT EXISTS shop_services (
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  base_price NUMERIC NOT NULL,
  estimated_minutes INTEGER NOT NULL DEFAULT 0,
  active BOOLEAN NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(categoriesTable).Error)
	require.NoError(t, db.Exec(servicesTable).Error)
	return db
}

func newCatalogService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(setupCatalogTestDB(t)))
	require.NoError(t, err)
	return svc
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s %s", prefix, uuid.NewString()[:8])
}

func mustCategory(t *testing.T, svc Service) uuid.UUID {
	t.Helper()
	cat, err := svc.CreateCategory(context.Background(), CategoryInput{Name: uniqueName("Brakes")})
	require.NoError(t, err)
	return cat.ID
}

func TestServiceCreateCategory_duplicateName(t *testing.T) {
	svc := newCatalogService(t)
	ctx := context.Background()
	name := uniqueName("Engine")

	_, err := svc.CreateCategory(ctx, CategoryInput{Name: name})
	require.NoError(t, err)

	_, err = svc.CreateCategory(ctx, CategoryInput{Name: name})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestServiceCreateService(t *testing.T) {
	svc := newCatalogService(t)
	ctx := context.Background()
	categoryID := mustCategory(t, svc)

	created, err := svc.CreateService(ctx, ServiceInput{
		CategoryID:       categoryID,
		Name:             "  Front pad replacement  ",
		BasePrice:        decimal.RequireFromString("89.50"),
		EstimatedMinutes: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, "Front pad replacement", created.Name)
	assert.True(t, created.Active)
	assert.True(t, created.BasePrice.Equal(decimal.RequireFromString("89.50")))
}

func TestServiceCreateService_unknownCategory(t *testing.T) {
	svc := newCatalogService(t)

	_, err := svc.CreateService(context.Background(), ServiceInput{
		CategoryID: uuid.New(),
		Name:       "Coolant flush",
		BasePrice:  decimal.RequireFromString("45"),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestServiceCreateService_negativePrice(t *testing.T) {
	svc := newCatalogService(t)

	_, err := svc.CreateService(context.Background(), ServiceInput{
		CategoryID: mustCategory(t, svc),
		Name:       "Tire rotation",
		BasePrice:  decimal.RequireFromString("-1"),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestServiceUpdateService_partial(t *testing.T) {
	svc := newCatalogService(t)
	ctx := context.Background()

	created, err := svc.CreateService(ctx, ServiceInput{
		CategoryID:       mustCategory(t, svc),
		Name:             "Oil change",
		BasePrice:        decimal.RequireFromString("30"),
		EstimatedMinutes: 30,
	})
	require.NoError(t, err)

	newPrice := decimal.RequireFromString("35")
	updated, err := svc.UpdateService(ctx, created.ID, UpdateServiceInput{BasePrice: &newPrice})
	require.NoError(t, err)
	assert.True(t, updated.BasePrice.Equal(newPrice))
	assert.Equal(t, "Oil change", updated.Name)
	assert.Equal(t, 30, updated.EstimatedMinutes)

	blank := "   "
	_, err = svc.UpdateService(ctx, created.ID, UpdateServiceInput{Name: &blank})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestServiceDeactivateService_idempotent(t *testing.T) {
	svc := newCatalogService(t)
	ctx := context.Background()
	categoryID := mustCategory(t, svc)

	created, err := svc.CreateService(ctx, ServiceInput{
		CategoryID: categoryID,
		Name:       "Wheel balancing",
		BasePrice:  decimal.RequireFromString("25"),
	})
	require.NoError(t, err)

	off, err := svc.DeactivateService(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, off.Active)

	again, err := svc.DeactivateService(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, again.Active)

	// hidden from the default listing, visible when asked for
	rows, err := svc.ListServices(ctx, ListParams{CategoryID: &categoryID})
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = svc.ListServices(ctx, ListParams{CategoryID: &categoryID, IncludeInactive: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, created.ID, rows[0].ID)
}
