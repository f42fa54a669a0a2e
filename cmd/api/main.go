package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go-pos-backoffice/internal/handler"
	"go-pos-backoffice/internal/middleware"
	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/internal/service"
	"go-pos-backoffice/internal/ws"
	"go-pos-backoffice/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup Database
	db := database.ConnectDB()
	db.AutoMigrate(
		&model.Privilege{},
		&model.Role{},
		&model.User{},
		&model.Product{},
		&model.Sale{},
		&model.SaleItem{},
	)

	// 3. Seed default privileges, roles, and users
	seedDefaults(db)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	reportRepo := repository.NewReportRepo(db)
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	productService := service.NewProductService(productRepo, db, wsHub)
	saleService := service.NewSaleService(saleRepo, productRepo, db, wsHub)
	reportService := service.NewReportService(reportRepo, saleRepo)
	authService := service.NewAuthService(userRepo)
	userService := service.NewUserService(userRepo, roleRepo)

	productHandler := handler.NewProductHandler(productService)
	saleHandler := handler.NewSaleHandler(saleService)
	reportHandler := handler.NewReportHandler(reportService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "POS Back Office v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", authHandler.Me)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(userRepo))

	// Product Routes
	protected.Get("/products", middleware.RequirePrivilege("product:view"), productHandler.ListProducts)
	protected.Get("/products/categories", middleware.RequirePrivilege("product:view"), productHandler.ListCategories)
	protected.Get("/products/low-stock", middleware.RequirePrivilege("product:view"), productHandler.ListLowStock)
	protected.Get("/products/critical-stock", middleware.RequirePrivilege("product:view"), productHandler.ListCriticalStock)
	protected.Get("/products/barcode/:barcode", middleware.RequirePrivilege("product:view"), productHandler.GetProductByBarcode)
	protected.Get("/products/:id", middleware.RequirePrivilege("product:view"), productHandler.GetProduct)
	protected.Post("/products", middleware.RequirePrivilege("product:create"), productHandler.CreateProduct)
	protected.Put("/products/:id", middleware.RequirePrivilege("product:update"), productHandler.UpdateProduct)
	protected.Delete("/products/:id", middleware.RequirePrivilege("product:delete"), productHandler.DeactivateProduct)
	protected.Post("/products/bulk-price", middleware.RequirePrivilege("product:bulk_price"), productHandler.BulkUpdatePrices)

	// Sale Routes
	protected.Post("/sales", middleware.RequirePrivilege("sale:create"), saleHandler.CreateSale)
	protected.Get("/sales", middleware.RequirePrivilege("sale:view"), saleHandler.ListSales)
	protected.Get("/sales/:id", middleware.RequirePrivilege("sale:view"), saleHandler.GetSale)

	// Report Routes
	reports := protected.Group("/reports", middleware.RequirePrivilege("report:view"))
	reports.Get("/dashboard", reportHandler.Dashboard)
	reports.Get("/dashboard/today", reportHandler.DashboardToday)
	reports.Get("/sales-by-period", reportHandler.SalesByPeriod)
	reports.Get("/profit-by-period", reportHandler.ProfitByPeriod)
	reports.Get("/top-products", reportHandler.TopProducts)
	reports.Get("/top-categories", reportHandler.TopCategories)
	reports.Get("/payment-methods", reportHandler.PaymentMethods)
	reports.Get("/hourly-sales", reportHandler.HourlySales)
	reports.Get("/sales-detail", middleware.RequirePrivilege("sale:view_all"), reportHandler.SalesDetail)
	reports.Get("/export", middleware.RequirePrivilege("report:export"), reportHandler.ExportSales)

	// User Management Routes
	protected.Get("/users", middleware.RequirePrivilege("user:view"), userHandler.ListUsers)
	protected.Get("/users/:id", middleware.RequirePrivilege("user:view"), userHandler.GetUser)
	protected.Post("/users", middleware.RequirePrivilege("user:create"), userHandler.CreateUser)
	protected.Put("/users/:id", middleware.RequirePrivilege("user:update"), userHandler.UpdateUser)
	protected.Delete("/users/:id", middleware.RequirePrivilege("user:delete"), userHandler.DeactivateUser)
	protected.Get("/roles", middleware.RequirePrivilege("user:view"), userHandler.GetRoles)

	// Profile (any authenticated user)
	protected.Put("/profile", userHandler.UpdateProfile)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// seedDefaults creates the privileges, the three roles with their privilege
// sets, and one default user per role when the tables are empty.
func seedDefaults(db *gorm.DB) {
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	userRepo := repository.NewUserRepo(db)

	if err := privilegeRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed privileges: %v", err)
	}
	if err := roleRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed roles: %v", err)
	}

	allPrivileges, _ := privilegeRepo.FindAll()

	// SUPER_ADMIN gets ALL privileges
	superRole, err := roleRepo.FindByCode(model.RoleSuperAdmin)
	if err == nil && len(superRole.Privileges) == 0 {
		if err := roleRepo.ReplacePrivileges(superRole, allPrivileges); err != nil {
			log.Printf("Warning: Failed to assign SUPER_ADMIN privileges: %v", err)
		}
	}

	// ADMIN gets everything except user management
	adminRole, err := roleRepo.FindByCode(model.RoleAdmin)
	if err == nil && len(adminRole.Privileges) == 0 {
		adminPrivileges := []model.Privilege{}
		for _, p := range allPrivileges {
			if !strings.HasPrefix(p.Code, "user:") {
				adminPrivileges = append(adminPrivileges, p)
			}
		}
		if err := roleRepo.ReplacePrivileges(adminRole, adminPrivileges); err != nil {
			log.Printf("Warning: Failed to assign ADMIN privileges: %v", err)
		}
	}

	// CASHIER gets the counter subset
	cashierRole, err := roleRepo.FindByCode(model.RoleCashier)
	if err == nil && len(cashierRole.Privileges) == 0 {
		cashierPrivileges, err := privilegeRepo.FindByCodes(model.CashierPrivileges)
		if err != nil {
			log.Printf("Warning: Failed to load CASHIER privileges: %v", err)
		} else if err := roleRepo.ReplacePrivileges(cashierRole, cashierPrivileges); err != nil {
			log.Printf("Warning: Failed to assign CASHIER privileges: %v", err)
		}
	}

	seedUser(db, userRepo, roleRepo, "superadmin", "superadmin@example.com", "Super Administrator", model.RoleSuperAdmin, "superadmin123")
	seedUser(db, userRepo, roleRepo, "admin", "admin@example.com", "Administrator", model.RoleAdmin, "admin123")
	seedUser(db, userRepo, roleRepo, "cashier", "cashier@example.com", "Cashier", model.RoleCashier, "cashier123")
}

func seedUser(db *gorm.DB, userRepo repository.UserRepository, roleRepo repository.RoleRepository, username, email, fullName, roleCode, password string) {
	if _, err := userRepo.FindByUsername(username); err == nil {
		return
	}

	role, err := roleRepo.FindByCode(roleCode)
	if err != nil {
		log.Printf("Warning: Role %s not found, skipping user %s", roleCode, username)
		return
	}

	user := &model.User{
		Username: username,
		Email:    email,
		FullName: fullName,
		RoleID:   &role.ID,
		IsActive: true,
	}
	user.CreatedBy = "system"
	user.UpdatedBy = "system"

	if err := user.SetPassword(password); err != nil {
		log.Printf("Warning: Failed to hash password for %s: %v", username, err)
		return
	}
	if err := userRepo.Create(user); err != nil {
		log.Printf("Warning: Failed to create user %s: %v", username, err)
		return
	}
	log.Printf("Default user created: %s (%s)", username, roleCode)
}
