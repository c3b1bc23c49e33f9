package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"proptoken-backend/internal/application/access"
	"proptoken-backend/internal/application/events"
	"proptoken-backend/internal/application/ledger"
	"proptoken-backend/internal/application/registry"
	"proptoken-backend/internal/application/settlement"
	"proptoken-backend/internal/application/shares"
	"proptoken-backend/internal/config"
	"proptoken-backend/internal/infrastructure/cache"
	"proptoken-backend/internal/infrastructure/database"
	adminhandler "proptoken-backend/internal/interfaces/handlers/admin"
	eventhandler "proptoken-backend/internal/interfaces/handlers/events"
	healthhandler "proptoken-backend/internal/interfaces/handlers/health"
	payhandler "proptoken-backend/internal/interfaces/handlers/payments"
	prophandler "proptoken-backend/internal/interfaces/handlers/properties"
	wallethandler "proptoken-backend/internal/interfaces/handlers/wallets"
	"proptoken-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp opens the database and Redis from cfg, prepares the registry and
// builds the Fiber app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, nil, errors.New("DATABASE_URL is required")
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, nil, fmt.Errorf("migrate: %w", err)
	}
	if cfg.Administrator != "" {
		if _, err := ledger.Bootstrap(context.Background(), db, cfg.Administrator); err != nil {
			return nil, nil, nil, fmt.Errorf("bootstrap registry: %w", err)
		}
	} else {
		log.Warn().Msg("LEDGER_ADMINISTRATOR not set; registry must already be initialized")
	}

	rdb, err := cache.Open(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("redis: %w", err)
	}

	app, err := NewApp(cfg, db, rdb)
	if err != nil {
		return nil, nil, nil, err
	}
	return app, db, rdb, nil
}

// NewTransferer selects the settlement provider named by cfg.
func NewTransferer(cfg *config.Config) (settlement.Transferer, error) {
	switch cfg.SettlementProvider {
	case "", "wallet":
		return settlement.WalletTransferer{}, nil
	case "stripe":
		if cfg.StripeSecretKey == "" {
			return nil, errors.New("STRIPE_SECRET_KEY is required for the stripe settlement provider")
		}
		return &settlement.StripeTransferer{
			SecretKey: cfg.StripeSecretKey,
			Currency:  cfg.StripeCurrency,
			Accounts:  cfg.StripeAccounts,
		}, nil
	default:
		return nil, fmt.Errorf("unknown settlement provider %q", cfg.SettlementProvider)
	}
}

// NewApp wires services, middleware and routes over an open database. rdb may be nil.
func NewApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*fiber.App, error) {
	transferer, err := NewTransferer(cfg)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := ledger.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	store := ledger.NewStore(db)
	store.Metrics = metrics
	if rdb != nil {
		store.Publisher = &events.RedisPublisher{Rdb: rdb, Stream: cfg.EventStream, MaxLen: cfg.EventStreamMaxLen}
	}

	adapter := &settlement.Adapter{Transferer: transferer, Escrow: cfg.SettlementEscrow}
	regSvc := &registry.Service{Store: store}
	shareSvc := &shares.Service{Store: store, Settlement: adapter}
	accessSvc := &access.Service{Store: store}
	walletSvc := &settlement.WalletService{Store: store}

	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	stripeWebhook := &payhandler.WebhookHandler{Wallets: walletSvc, WebhookSecret: cfg.StripeWebhookSecret}
	app.Post("/api/v1/stripe/webhook", stripeWebhook.HandleWebhook)

	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.Identity())
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{
		Rdb:                rdb,
		DB:                 &gormDBPinger{db: db},
		Store:              store,
		SettlementProvider: transferer.Name(),
		HealthAdminKey:     cfg.HealthAdminKey,
	}
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := app.Group("/api/v1")
	if limiter := middleware.NewCallerLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute); limiter != nil {
		api.Use(middleware.RateLimit(limiter))
	}

	// Properties and shares
	ph := &prophandler.Handlers{Registry: regSvc, Shares: shareSvc}
	api.Get("/properties", ph.ListProperties)
	api.Get("/properties/current-id", ph.GetCurrentID)
	api.Get("/properties/:id", ph.GetProperty)
	api.Get("/properties/:id/investors", ph.GetPropertyInvestors)
	api.Get("/properties/:id/ownership/:investor", ph.GetShareOwnership)
	api.Get("/properties/:id/shares/:investor", ph.GetInvestorShares)
	api.Get("/investors/:investor/portfolio", ph.GetInvestorPortfolio)

	pg := api.Group("/properties", middleware.RequireCaller())
	pg.Post("/", ph.TokenizeProperty)
	pg.Post("/:id/deactivate", ph.DeactivateProperty)
	pg.Post("/:id/withdraw-unsold", ph.WithdrawUnsoldShares)
	pg.Patch("/:id/metadata", ph.UpdateMetadataURI)
	pg.Post("/:id/purchase", ph.PurchaseShares)
	pg.Post("/:id/transfer", ph.TransferShares)

	// Access control
	ah := &adminhandler.Handlers{Service: accessSvc}
	api.Get("/admin/state", ah.State)
	ag := api.Group("/admin", middleware.RequireCaller())
	ag.Post("/pause", ah.Pause)
	ag.Post("/unpause", ah.Unpause)
	ag.Post("/transfer-administration", ah.TransferAdministration)

	// Wallets
	wh := &wallethandler.Handlers{Service: walletSvc}
	ag.Post("/wallets/deposit", wh.Deposit)
	api.Get("/wallets/:identity", wh.Balance)

	// Events
	eh := &eventhandler.Handlers{Log: &events.Log{DB: db}}
	api.Get("/events", eh.List)

	return app, nil
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
