package service

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/repository"
)

func TestCreateSaleDecrementsStock(t *testing.T) {
	db, svc, productRepo := newSaleFixture(t)
	user := seedUser(t, db, "cashier1")
	product := seedProduct(t, db, "Cola", 6.0, 10.0, 5)

	sale, err := svc.CreateSale(user.ID, &CreateSaleRequest{
		Items: []SaleItemRequest{
			{ProductID: product.ID, Quantity: 2, UnitPrice: 10.0},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 20.0, sale.Total)
	assert.Equal(t, model.PaymentCash, sale.PaymentMethod)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, 2, sale.Items[0].Quantity)
	assert.Equal(t, 10.0, sale.Items[0].UnitPrice)
	assert.Equal(t, 20.0, sale.Items[0].Subtotal)

	stored, err := productRepo.FindByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Stock)
}

func TestCreateSaleInsufficientStock(t *testing.T) {
	db, svc, productRepo := newSaleFixture(t)
	user := seedUser(t, db, "cashier1")
	product := seedProduct(t, db, "Cola", 6.0, 10.0, 0)

	_, err := svc.CreateSale(user.ID, &CreateSaleRequest{
		Items: []SaleItemRequest{
			{ProductID: product.ID, Quantity: 1, UnitPrice: 10.0},
		},
	})
	require.Error(t, err)

	var ins *InsufficientStockError
	require.ErrorAs(t, err, &ins)
	assert.Equal(t, product.ID, ins.ProductID)
	assert.Equal(t, 1, ins.Requested)
	assert.Equal(t, 0, ins.Available)

	var count int64
	require.NoError(t, db.Model(&model.Sale{}).Count(&count).Error)
	assert.Zero(t, count)

	stored, err := productRepo.FindByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Stock)
}

// A failing line anywhere in the list must leave no trace: no sale header,
// no items, no decrement from the lines that preceded it.
func TestCreateSaleMissingProductAbortsEverything(t *testing.T) {
	db, svc, productRepo := newSaleFixture(t)
	user := seedUser(t, db, "cashier1")
	product := seedProduct(t, db, "Cola", 6.0, 10.0, 5)

	_, err := svc.CreateSale(user.ID, &CreateSaleRequest{
		Items: []SaleItemRequest{
			{ProductID: product.ID, Quantity: 2, UnitPrice: 10.0},
			{ProductID: uuid.New(), Quantity: 1, UnitPrice: 4.0},
		},
	})
	require.Error(t, err)

	var pnf *ProductNotFoundError
	require.ErrorAs(t, err, &pnf)

	var saleCount, itemCount int64
	require.NoError(t, db.Model(&model.Sale{}).Count(&saleCount).Error)
	require.NoError(t, db.Model(&model.SaleItem{}).Count(&itemCount).Error)
	assert.Zero(t, saleCount)
	assert.Zero(t, itemCount)

	stored, err := productRepo.FindByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Stock)
}

func TestCreateSaleTotalAcrossLines(t *testing.T) {
	db, svc, _ := newSaleFixture(t)
	user := seedUser(t, db, "cashier1")
	cola := seedProduct(t, db, "Cola", 6.0, 10.0, 100)
	chips := seedProduct(t, db, "Chips", 1.0, 2.5, 100)

	sale, err := svc.CreateSale(user.ID, &CreateSaleRequest{
		Items: []SaleItemRequest{
			{ProductID: cola.ID, Quantity: 3, UnitPrice: 10.0},
			{ProductID: chips.ID, Quantity: 4, UnitPrice: 2.5},
		},
		PaymentMethod: model.PaymentCard,
	})
	require.NoError(t, err)

	assert.Equal(t, 40.0, sale.Total)
	assert.Equal(t, model.PaymentCard, sale.PaymentMethod)
	require.Len(t, sale.Items, 2)
}

// Reading a sale back must never touch stock.
func TestGetSaleIsIdempotent(t *testing.T) {
	db, svc, productRepo := newSaleFixture(t)
	user := seedUser(t, db, "cashier1")
	product := seedProduct(t, db, "Cola", 6.0, 10.0, 5)

	sale, err := svc.CreateSale(user.ID, &CreateSaleRequest{
		Items: []SaleItemRequest{
			{ProductID: product.ID, Quantity: 2, UnitPrice: 10.0},
		},
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := svc.GetSale(sale.ID)
		require.NoError(t, err)
		assert.Equal(t, sale.ID, got.ID)
		assert.Equal(t, 20.0, got.Total)
	}

	stored, err := productRepo.FindByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Stock)
}

func TestGetSaleNotFound(t *testing.T) {
	_, svc, _ := newSaleFixture(t)

	_, err := svc.GetSale(uuid.New())
	assert.ErrorIs(t, err, ErrSaleNotFound)
}

// The service records an itemless sale with a zero total; rejecting empty
// carts is the transport layer's call.
func TestCreateSaleEmptyItems(t *testing.T) {
	db, svc, _ := newSaleFixture(t)
	user := seedUser(t, db, "cashier1")

	sale, err := svc.CreateSale(user.ID, &CreateSaleRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sale.Total)
	assert.Empty(t, sale.Items)
}

// Two simultaneous sales fighting over the last units: exactly one wins, the
// loser gets a stock error, and the final stock reflects only the winner.
func TestConcurrentSalesSerialize(t *testing.T) {
	db, svc, productRepo := newSaleFixture(t)
	user := seedUser(t, db, "cashier1")
	product := seedProduct(t, db, "Cola", 6.0, 10.0, 5)

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.CreateSale(user.ID, &CreateSaleRequest{
				Items: []SaleItemRequest{
					{ProductID: product.ID, Quantity: 3, UnitPrice: 10.0},
				},
			})
		}(i)
	}
	wg.Wait()

	var successes, shortages int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case IsInsufficientStock(err):
			shortages++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, shortages)

	stored, err := productRepo.FindByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Stock)

	var saleCount int64
	require.NoError(t, db.Model(&model.Sale{}).Count(&saleCount).Error)
	assert.EqualValues(t, 1, saleCount)
}

func TestListSalesFiltersByUser(t *testing.T) {
	db, svc, _ := newSaleFixture(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	product := seedProduct(t, db, "Cola", 6.0, 10.0, 100)

	for _, u := range []*model.User{alice, alice, bob} {
		_, err := svc.CreateSale(u.ID, &CreateSaleRequest{
			Items: []SaleItemRequest{
				{ProductID: product.ID, Quantity: 1, UnitPrice: 10.0},
			},
		})
		require.NoError(t, err)
	}

	sales, total, err := svc.ListSales(repository.SaleFilter{UserID: &alice.ID, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, s := range sales {
		assert.Equal(t, alice.ID, s.UserID)
	}
}
