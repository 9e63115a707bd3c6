package router

import (
	"net/http"

	contactsvc "homilet-backend/internal/application/contact"
	paysvc "homilet-backend/internal/application/payments"
	propsvc "homilet-backend/internal/application/properties"
	uploadsvc "homilet-backend/internal/application/uploads"
	"homilet-backend/internal/auth"
	"homilet-backend/internal/config"
	"homilet-backend/internal/infrastructure/database"
	authhandler "homilet-backend/internal/interfaces/handlers/auth"
	contacthandler "homilet-backend/internal/interfaces/handlers/contact"
	healthhandler "homilet-backend/internal/interfaces/handlers/health"
	payhandler "homilet-backend/internal/interfaces/handlers/payments"
	prophandler "homilet-backend/internal/interfaces/handlers/properties"
	uploadhandler "homilet-backend/internal/interfaces/handlers/uploads"
	"homilet-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CreateApp builds the Fiber app with all global middleware and route
// registration. DB and Redis are optional: routes that need a missing
// dependency are simply not mounted (probe excepted).
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		rdb = redis.NewClient(opts)
		app.Use(middleware.RequestMetrics(rdb))
	}

	app.Use(middleware.RequestID())
	app.Use(middleware.RouteLogger())

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var errDB error
		db, errDB = database.Open(cfg.DatabaseURL)
		if errDB != nil {
			return nil, nil, nil, errDB
		}
	}

	hh := &healthhandler.Handlers{DB: db, Rdb: rdb}
	app.Get("/api/test", hh.Test)

	tokens := &auth.TokenService{Secret: cfg.JWTSecret}
	ah := &authhandler.Handlers{DB: db, Rdb: rdb, Tokens: tokens}
	app.Post("/api/guest-login", ah.GuestLogin)
	authGroup := app.Group("/api/auth")
	authGroup.Post("/register", ah.Register)
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", middleware.RequireAuth(tokens), ah.Me)
	app.Get("/api/user", middleware.RequireFullUser(tokens), ah.GetProfile)
	app.Put("/api/user/profile", middleware.RequireFullUser(tokens), ah.UpdateProfile)

	if db != nil {
		// Properties: reads are public (contact details masked for anonymous
		// and guest viewers), writes need a full account.
		ps := &propsvc.Service{DB: db, Rdb: rdb}
		ph := &prophandler.Handlers{Service: ps}
		app.Get("/api/properties", ph.GetAllProperties)
		app.Get("/api/properties/search", ph.SearchProperties)
		app.Get("/api/properties/user", middleware.RequireFullUser(tokens), ph.GetUserProperties)
		app.Get("/api/properties/:id", middleware.OptionalAuth(tokens), ph.GetProperty)
		app.Post("/api/properties", middleware.RequireFullUser(tokens), ph.CreateProperty)
		app.Patch("/api/properties/:id", middleware.RequireFullUser(tokens), ph.UpdateProperty)
		app.Delete("/api/properties/:id", middleware.RequireFullUser(tokens), ph.DeleteProperty)

		// Contact + notifications
		var mailer contactsvc.Sender
		if cfg.BrevoAPIKey != "" {
			mailer = &contactsvc.BrevoClient{APIKey: cfg.BrevoAPIKey, MailFrom: cfg.MailFrom}
		}
		cs := &contactsvc.Service{DB: db, Rdb: rdb, Mailer: mailer}
		ch := &contacthandler.Handlers{Service: cs}
		app.Post("/api/contact-agent", middleware.RequireAuth(tokens), ch.ContactAgent)
		app.Get("/api/notifications", middleware.RequireFullUser(tokens), ch.Notifications)
		app.Put("/api/notifications/:id/read", middleware.RequireFullUser(tokens), ch.MarkRead)

		// Payments
		pays := &paysvc.Service{
			DB:        db,
			Gateway:   paysvc.NewGatewayClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret),
			KeySecret: cfg.RazorpayKeySecret,
		}
		payh := &payhandler.Handlers{Service: pays, KeyID: cfg.RazorpayKeyID}
		payGroup := app.Group("/api/payments")
		payGroup.Get("/test-db", payh.TestDB)
		payGroup.Get("/check-status", middleware.OptionalAuth(tokens), payh.CheckStatus)
		payGroup.Post("/create-order", middleware.RequireFullUser(tokens), payh.CreateOrder)
		payGroup.Post("/verify-payment", middleware.RequireFullUser(tokens), payh.VerifyPayment)
		payGroup.Get("/history", middleware.RequireFullUser(tokens), payh.History)
		wh := &payhandler.WebhookHandler{DB: db, WebhookSecret: cfg.RazorpayWebhookSecret}
		payGroup.Post("/webhook", wh.HandleWebhook)

		// Uploads
		sc := &uploadsvc.HTTPClient{BaseURL: cfg.StorageURL, SecretKey: cfg.StorageSecretKey}
		upsvc := &uploadsvc.Service{Client: sc, StorageURL: cfg.StorageURL}
		uph := &uploadhandler.Handlers{Service: upsvc}
		app.Post("/api/uploads/signed-url", middleware.RequireFullUser(tokens), uph.GetSignedUploadURL)
	}

	return app, db, rdb, nil
}

// Handler returns the Fiber app as a net/http handler.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
