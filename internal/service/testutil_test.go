package service

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/repository"
)

// newTestDB opens an in-memory store capped at one connection so concurrent
// transactions serialize the same way the production store makes them.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Privilege{},
		&model.Role{},
		&model.User{},
		&model.Product{},
		&model.Sale{},
		&model.SaleItem{},
	))

	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()

	user := &model.User{
		Username: username,
		Email:    username + "@example.com",
		FullName: "Test " + username,
		IsActive: true,
	}
	require.NoError(t, user.SetPassword("secret1234"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedProduct(t *testing.T, db *gorm.DB, name string, cost, sale float64, stock int) *model.Product {
	t.Helper()

	product := &model.Product{
		Name:      name,
		CostPrice: cost,
		SalePrice: sale,
		Stock:     stock,
		MinStock:  10,
		IsActive:  true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func newSaleFixture(t *testing.T) (*gorm.DB, SaleService, repository.ProductRepository) {
	t.Helper()

	db := newTestDB(t)
	productRepo := repository.NewProductRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	return db, NewSaleService(saleRepo, productRepo, db, nil), productRepo
}

func newProductFixture(t *testing.T) (*gorm.DB, ProductService) {
	t.Helper()

	db := newTestDB(t)
	return db, NewProductService(repository.NewProductRepo(db), db, nil)
}
