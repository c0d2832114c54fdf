package main

import (
	"log"

	"voko-backend/internal/audit"
	"voko-backend/internal/auth"
	"voko-backend/internal/config"
	"voko-backend/internal/database"
	"voko-backend/internal/finance"
	"voko-backend/internal/logger"
	"voko-backend/internal/logistics"
	"voko-backend/internal/models"
	"voko-backend/internal/ordering"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	zl, err := logger.Init(cfg.LogLevel)
	if err != nil {
		log.Fatalf("could not set up logger: %v", err)
	}
	defer zl.Sync()

	database.Init(cfg)

	gateway := finance.NewGateway(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			zl.Error("unexpected error", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal server error",
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(logger.RequestLogger(zl))

	api := app.Group("/api")

	// Public routes.
	api.Post("/auth/register", auth.RegisterHandler(cfg))
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))
	// Gateway confirmations carry no member token.
	api.Get("/payments/callback", finance.PaymentCallbackHandler(gateway, cfg))
	api.Post("/payments/webhook", finance.PaymentWebhookHandler(gateway, cfg))

	// Member routes.
	member := api.Group("", auth.JWTMiddleware(cfg))
	member.Get("/auth/me", auth.MeHandler())
	member.Put("/auth/sleep", auth.SetSleepingHandler())

	member.Get("/order-rounds", ordering.ListRoundsHandler())
	member.Get("/order-rounds/current", ordering.CurrentRoundHandler())
	member.Get("/order-rounds/current/products", ordering.RoundProductsHandler())
	member.Get("/order-rounds/current/cart", ordering.GetCartHandler())
	member.Post("/order-rounds/current/cart", ordering.SubmitCartHandler())
	member.Get("/orders/mine", ordering.MyOrdersHandler())
	member.Post("/orders/:id/checkout", finance.CheckoutHandler(gateway))
	member.Get("/payments/mine", finance.MyPaymentsHandler())
	member.Get("/balance", finance.MyBalanceHandler())
	member.Get("/suppliers", ordering.ListSuppliersHandler())
	member.Get("/product-categories", ordering.ListCategoriesHandler())

	member.Get("/order-rounds/:id/calendar", logistics.RoundCalendarHandler())
	member.Get("/order-rounds/:id/shifts", logistics.ListShiftsHandler())
	member.Post("/shifts/:id/signup", logistics.ShiftSignupHandler())
	member.Get("/order-rounds/:id/rides", logistics.ListRidesHandler())
	member.Put("/rides/:id/driver", logistics.ClaimRideHandler())

	// Admin routes.
	admin := api.Group("/admin", auth.JWTMiddleware(cfg), auth.RequireRole(models.RoleAdmin))
	admin.Get("/members", auth.ListMembersHandler())
	admin.Get("/members/:id/balance", finance.MemberBalanceHandler())
	admin.Post("/balances", finance.CreateBalanceHandler())
	admin.Post("/balances/member-fee", finance.ChargeMemberFeeHandler(cfg))

	admin.Post("/order-rounds", ordering.CreateRoundHandler(cfg))
	admin.Post("/order-rounds/ensure-next", ordering.EnsureNextRoundHandler(cfg))
	admin.Post("/order-rounds/:id/place-order", ordering.PlaceOrderHandler())
	admin.Get("/order-rounds/:id/settlement", ordering.SupplierSettlementHandler())
	admin.Get("/order-rounds/:id/corrections", finance.ListCorrectionsHandler())

	admin.Post("/suppliers", ordering.CreateSupplierHandler())
	admin.Post("/product-categories", ordering.CreateCategoryHandler())
	admin.Post("/suppliers/:id/import-products", ordering.ImportProductsHandler())
	admin.Post("/products", ordering.CreateProductHandler())
	admin.Put("/products/:id", ordering.UpdateProductHandler())
	admin.Get("/products/stock", ordering.StockOverviewHandler())
	admin.Post("/products/:id/stock", ordering.AddStockHandler())

	admin.Post("/corrections", finance.CreateCorrectionHandler())
	admin.Put("/corrections/:id", finance.UpdateCorrectionHandler())

	admin.Post("/shifts", logistics.CreateShiftHandler())
	admin.Post("/rides", logistics.CreateRideHandler())

	admin.Get("/audit-logs", audit.ListAuditLogsHandler())

	log.Printf("listening on :%s", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
