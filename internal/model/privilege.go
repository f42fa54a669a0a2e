package model

// Privilege represents a permission that can be assigned to roles
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "product:create"
	Name string `gorm:"type:varchar(100)" json:"name"`                     // e.g., "Create Product"
}

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	// Catalog
	{Code: "product:view", Name: "View Products"},
	{Code: "product:create", Name: "Create Product"},
	{Code: "product:update", Name: "Update Product"},
	{Code: "product:delete", Name: "Deactivate Product"},
	{Code: "product:bulk_price", Name: "Bulk Update Prices"},
	// Sales
	{Code: "sale:create", Name: "Register Sale"},
	{Code: "sale:view", Name: "View Own Sales"},
	{Code: "sale:view_all", Name: "View All Sales"},
	// Reports
	{Code: "report:view", Name: "View Reports"},
	{Code: "report:export", Name: "Export Reports"},
	// User management (SUPER_ADMIN only)
	{Code: "user:view", Name: "View Users"},
	{Code: "user:create", Name: "Create User"},
	{Code: "user:update", Name: "Update User"},
	{Code: "user:delete", Name: "Deactivate User"},
}

// CashierPrivileges is the subset granted to the CASHIER role on seed.
var CashierPrivileges = []string{
	"product:view",
	"sale:create",
	"sale:view",
	"report:view",
}
