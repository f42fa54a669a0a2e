package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-backoffice/internal/model"
)

func TestCreateProductDerivesSalePrice(t *testing.T) {
	_, svc := newProductFixture(t)

	product, err := svc.CreateProduct(&CreateProductRequest{
		Name:      "Cola",
		CostPrice: 50.0,
		MarginPct: 20.0,
		Stock:     10,
	}, "tester")
	require.NoError(t, err)

	assert.Equal(t, 60.0, product.SalePrice)
	assert.Equal(t, 10, product.MinStock) // default threshold
	assert.True(t, product.IsActive)
}

func TestCreateProductRejectsDuplicateBarcode(t *testing.T) {
	_, svc := newProductFixture(t)

	barcode := "7501000000001"
	_, err := svc.CreateProduct(&CreateProductRequest{
		Name:      "Cola",
		CostPrice: 50.0,
		MarginPct: 20.0,
		Barcode:   &barcode,
	}, "tester")
	require.NoError(t, err)

	_, err = svc.CreateProduct(&CreateProductRequest{
		Name:      "Cola Zero",
		CostPrice: 50.0,
		MarginPct: 20.0,
		Barcode:   &barcode,
	}, "tester")
	assert.ErrorIs(t, err, ErrBarcodeExists)
}

func TestUpdateProductRecomputesFromCost(t *testing.T) {
	_, svc := newProductFixture(t)

	product, err := svc.CreateProduct(&CreateProductRequest{
		Name:      "Cola",
		CostPrice: 100.0,
		MarginPct: 20.0,
	}, "tester")
	require.NoError(t, err)
	require.Equal(t, 120.0, product.SalePrice)

	// New cost keeps the existing 20% margin
	newCost := 110.0
	updated, err := svc.UpdateProduct(product.ID, &UpdateProductRequest{CostPrice: &newCost}, "tester")
	require.NoError(t, err)
	assert.Equal(t, 110.0, updated.CostPrice)
	assert.Equal(t, 132.0, updated.SalePrice)
}

func TestUpdateProductDirectSalePriceDrifts(t *testing.T) {
	_, svc := newProductFixture(t)

	product, err := svc.CreateProduct(&CreateProductRequest{
		Name:      "Cola",
		CostPrice: 100.0,
		MarginPct: 20.0,
	}, "tester")
	require.NoError(t, err)

	// Direct sale price applies verbatim, detached from the margin formula
	price := 99.0
	updated, err := svc.UpdateProduct(product.ID, &UpdateProductRequest{SalePrice: &price}, "tester")
	require.NoError(t, err)
	assert.Equal(t, 99.0, updated.SalePrice)
	assert.Equal(t, 100.0, updated.CostPrice)
}

func TestGetProductByBarcode(t *testing.T) {
	db, svc := newProductFixture(t)

	barcode := "7501000000002"
	product := seedProduct(t, db, "Cola", 6.0, 10.0, 5)
	require.NoError(t, db.Model(product).Update("barcode", barcode).Error)

	found, err := svc.GetProductByBarcode(barcode)
	require.NoError(t, err)
	assert.Equal(t, product.ID, found.ID)

	_, err = svc.GetProductByBarcode("0000000000000")
	var pnf *ProductNotFoundError
	assert.ErrorAs(t, err, &pnf)

	require.NoError(t, db.Model(product).Update("stock", 0).Error)
	_, err = svc.GetProductByBarcode(barcode)
	assert.True(t, IsInsufficientStock(err))
}

func TestBulkUpdatePricesWorkedExample(t *testing.T) {
	db, svc := newProductFixture(t)
	product := seedProduct(t, db, "Cola", 100.0, 120.0, 5)

	updated, err := svc.BulkUpdatePrices([]uuid.UUID{product.ID}, 10.0, "tester")
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	stored, err := svc.GetProduct(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 110.0, stored.CostPrice)
	assert.Equal(t, 132.0, stored.SalePrice) // 20% margin preserved
}

func TestBulkUpdatePricesRejectsOutOfRange(t *testing.T) {
	db, svc := newProductFixture(t)
	product := seedProduct(t, db, "Cola", 100.0, 120.0, 5)

	for _, pct := range []float64{-60.0, 201.0, 1000.0} {
		_, err := svc.BulkUpdatePrices([]uuid.UUID{product.ID}, pct, "tester")
		assert.True(t, IsValidation(err), "pct %v should be rejected", pct)
	}

	// Boundaries are inclusive
	for _, pct := range []float64{-50.0, 200.0} {
		_, err := svc.BulkUpdatePrices([]uuid.UUID{product.ID}, pct, "tester")
		assert.NoError(t, err, "pct %v should be accepted", pct)
	}
}

func TestBulkUpdatePricesRejectsEmptySelection(t *testing.T) {
	_, svc := newProductFixture(t)

	_, err := svc.BulkUpdatePrices(nil, 10.0, "tester")
	assert.True(t, IsValidation(err))
}

// Inactive, unknown and zero-cost products are skipped quietly; the rest of
// the batch still lands.
func TestBulkUpdatePricesSkips(t *testing.T) {
	db, svc := newProductFixture(t)

	active := seedProduct(t, db, "Cola", 100.0, 120.0, 5)
	inactive := seedProduct(t, db, "Retired", 100.0, 120.0, 5)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)
	free := seedProduct(t, db, "Sample", 0.0, 0.0, 5)

	updated, err := svc.BulkUpdatePrices([]uuid.UUID{active.ID, inactive.ID, free.ID, uuid.New()}, 10.0, "tester")
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	storedInactive := &model.Product{}
	require.NoError(t, db.Unscoped().First(storedInactive, "id = ?", inactive.ID).Error)
	assert.Equal(t, 100.0, storedInactive.CostPrice)
}

func TestDeactivateProductHidesFromCatalog(t *testing.T) {
	db, svc := newProductFixture(t)
	product := seedProduct(t, db, "Cola", 6.0, 10.0, 5)

	require.NoError(t, svc.DeactivateProduct(product.ID, "tester"))

	stored, err := svc.GetProduct(product.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	var pnf *ProductNotFoundError
	err = svc.DeactivateProduct(uuid.New(), "tester")
	assert.ErrorAs(t, err, &pnf)
}
