package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/vivo/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/vivo/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/vivo/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
	"github.com/saturnino-fabrica-de-software/vivo/internal/ws"
)

const Version = "0.1.0"

// Liveness is the session manager as seen by the control surface
type Liveness interface {
	handler.LivenessService
	Subscribe() (<-chan domain.Update, func())
	Ready(ctx context.Context) error
}

type Dependencies struct {
	Liveness     Liveness
	RateLimitMax int
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
	wsHub       *ws.Hub
	cancelHub   context.CancelFunc
	unsubscribe func()
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(logger),
		AppName:               "Vivo Liveness API",
		DisableStartupMessage: true,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	checks := map[string]handler.ReadinessCheck{}
	if r.deps != nil {
		checks["liveness"] = r.deps.Liveness.Ready
	}
	healthHandler := handler.NewHealthHandler(Version, checks)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	v1 := r.app.Group("/v1")

	if r.deps == nil {
		return
	}

	// State stream
	r.wsHub = ws.NewHub()
	hubCtx, hubCancel := context.WithCancel(context.Background())
	r.cancelHub = hubCancel
	go r.wsHub.Run(hubCtx)

	updates, unsubscribe := r.deps.Liveness.Subscribe()
	r.unsubscribe = unsubscribe
	go r.wsHub.Forward(hubCtx, updates)

	v1.Get("/ws", ws.UpgradeMiddleware(), ws.Handler(r.wsHub, r.deps.Liveness.Current))

	// Session control, rate limited per client
	r.rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Max: r.deps.RateLimitMax,
	})
	sessions := v1.Group("/liveness/sessions", r.rateLimiter.Handler())

	livenessHandler := handler.NewLivenessHandler(r.deps.Liveness, r.logger)
	sessions.Post("/", livenessHandler.Start)
	sessions.Get("/current", livenessHandler.Current)
	sessions.Delete("/current", livenessHandler.Stop)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}

	if r.cancelHub != nil {
		r.cancelHub()
	}

	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
