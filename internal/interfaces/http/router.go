package http

import (
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Inventario-stock/internal/application/inventory"
	"github.com/jhoicas/Inventario-stock/internal/application/usecase"
	"github.com/jhoicas/Inventario-stock/internal/infrastructure/metrics"
	"github.com/jhoicas/Inventario-stock/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ServiceName string
	StockUC     *inventory.StockUseCase
	WarehouseUC *usecase.WarehouseUseCase
	Metrics     *metrics.Metrics
	JWTSecret   string
	// SwaggerFile ruta de swagger.json; si no existe no se monta /docs.
	SwaggerFile string
}

// Router registra middlewares y rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(recover.New())
	if deps.Metrics != nil {
		app.Use(MetricsMiddleware(deps.Metrics))
	}

	// Swagger UI en local: http://localhost:<port>/docs
	if deps.SwaggerFile != "" {
		if _, err := os.Stat(deps.SwaggerFile); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: deps.SwaggerFile,
				Path:     "docs",
				Title:    "Inventario Stock API",
			}))
		}
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	writers := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)
	adminOnly := RequireRole(jwt.RoleAdmin)

	// Stock y movimientos
	inv := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.StockUC)
	inv.Get("/products/:productId/stock", inventoryHandler.GetStock)
	inv.Put("/products/:productId/stock", writers, inventoryHandler.SetStock)
	inv.Post("/transfers", writers, inventoryHandler.Transfer)
	inv.Get("/movements", inventoryHandler.ListMovements)
	inv.Get("/low-stock", inventoryHandler.LowStock)
	inv.Get("/out-of-stock", inventoryHandler.OutOfStock)
	inv.Get("/reports/low-stock.pdf", inventoryHandler.LowStockReport)
	inv.Get("/reports/low-stock.xlsx", inventoryHandler.LowStockSheet)

	// Bodegas
	warehouses := api.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Post("/", adminOnly, warehouseHandler.Create)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Put("/:id", adminOnly, warehouseHandler.Update)
	warehouses.Delete("/:id", adminOnly, warehouseHandler.Delete)
	warehouses.Post("/:id/primary", adminOnly, warehouseHandler.SetPrimary)
	warehouses.Post("/:id/deactivate", adminOnly, warehouseHandler.Deactivate)
	warehouses.Post("/:id/activate", adminOnly, warehouseHandler.Activate)
}
